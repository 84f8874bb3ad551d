package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/steward/change"
	"github.com/xraph/steward/exchange"
)

func (a *API) registerExchangeRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("exchange"))

	if err := g.GET("/export", a.exportEntities,
		forge.WithSummary("Export access entities"),
		forge.WithDescription("Snapshots users, roles, quotas, row policies and settings profiles. Credentials are never exported."),
		forge.WithOperationID("exportEntities"),
		forge.WithResponseSchema(http.StatusOK, "Export document", &exchange.Document{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/import", a.importEntities,
		forge.WithSummary("Import access entities"),
		forge.WithDescription("Plans CREATE changes for every entity in an export document and stages them unless dry_run is set."),
		forge.WithOperationID("importEntities"),
		forge.WithRequestSchema(ImportRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Planned changes", PlanResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) exportEntities(ctx forge.Context, _ *struct{}) (*exchange.Document, error) {
	doc, err := a.eng.Export(ctx.Context())
	if err != nil {
		return nil, mapError(err)
	}
	return doc, ctx.JSON(http.StatusOK, doc)
}

func (a *API) importEntities(ctx forge.Context, req *ImportRequest) (*PlanResponse, error) {
	if req.Document == nil {
		return nil, forge.BadRequest("document is required")
	}
	if req.Document.Version != exchange.Version {
		return nil, mapError(fmt.Errorf("%w: got %q, want %q", exchange.ErrVersionMismatch, req.Document.Version, exchange.Version))
	}

	changes, err := a.eng.Import(ctx.Context(), req.Document, req.DryRun)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &PlanResponse{Changes: change.RedactAll(changes), Staged: !req.DryRun}
	return resp, ctx.JSON(http.StatusOK, resp)
}
