package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/steward/effective"
)

func (a *API) registerEffectiveRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("effective-grants"))

	return g.GET("/identities/:identity/effective-grants", a.effectiveGrants,
		forge.WithSummary("Effective grants"),
		forge.WithDescription("Resolves the grants an identity holds directly and through its roles, tagged with provenance."),
		forge.WithOperationID("effectiveGrants"),
		forge.WithRequestSchema(EffectiveGrantsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Effective grants", EffectiveGrantsResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) effectiveGrants(ctx forge.Context, _ *EffectiveGrantsRequest) (*EffectiveGrantsResponse, error) {
	identity := ctx.Param("identity")
	if identity == "" {
		return nil, forge.BadRequest("identity is required")
	}

	grants, err := a.eng.EffectiveGrants(ctx.Context(), identity)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &EffectiveGrantsResponse{
		Identity: identity,
		Grants:   grants,
		Summary:  effective.Summarize(grants),
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}
