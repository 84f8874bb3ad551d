package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/xraph/forge"

	"github.com/xraph/steward/audit"
	"github.com/xraph/steward/change"
	"github.com/xraph/steward/entity"
	"github.com/xraph/steward/id"
)

func (a *API) registerAuditRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("audit"))

	if err := g.GET("/audit", a.listAudit,
		forge.WithSummary("Query audit log"),
		forge.WithDescription("Returns executed changes, most recent first, with optional filters."),
		forge.WithOperationID("listAudit"),
		forge.WithRequestSchema(ListAuditRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Audit entries", ListResponse[*audit.Entry]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/audit/stats", a.auditStats,
		forge.WithSummary("Audit statistics"),
		forge.WithDescription("Totals by outcome, actor and change type, plus a per-day breakdown of recent activity."),
		forge.WithOperationID("auditStats"),
		forge.WithResponseSchema(http.StatusOK, "Audit statistics", &audit.Stats{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/audit/purge", a.purgeAudit,
		forge.WithSummary("Purge audit log"),
		forge.WithDescription("Removes entries older than the retention window."),
		forge.WithOperationID("purgeAudit"),
		forge.WithResponseSchema(http.StatusOK, "Purge result", PurgeResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/audit/:entryId", a.getAuditEntry,
		forge.WithSummary("Get audit entry"),
		forge.WithDescription("Returns one audit entry with its statements and state snapshots."),
		forge.WithOperationID("getAuditEntry"),
		forge.WithResponseSchema(http.StatusOK, "Audit entry", &audit.Entry{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listAudit(ctx forge.Context, req *ListAuditRequest) (*ListResponse[*audit.Entry], error) {
	filter := &audit.QueryFilter{
		Actor:      req.Actor,
		ChangeType: change.Type(req.ChangeType),
		EntityType: entity.Type(req.EntityType),
		EntityName: req.EntityName,
	}
	if req.Success != "" {
		ok, err := strconv.ParseBool(req.Success)
		if err != nil {
			return nil, forge.BadRequest("invalid success filter")
		}
		filter.Success = &ok
	}
	var err error
	if filter.After, err = parseTime("after", req.After); err != nil {
		return nil, err
	}
	if filter.Before, err = parseTime("before", req.Before); err != nil {
		return nil, err
	}

	total, err := a.eng.AuditCount(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	filter.Limit = defaultLimit(req.Limit)
	filter.Offset = req.Offset
	entries, err := a.eng.AuditLog(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*audit.Entry]{
		Items:  entries,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) auditStats(ctx forge.Context, _ *struct{}) (*audit.Stats, error) {
	st, err := a.eng.AuditStats(ctx.Context())
	if err != nil {
		return nil, mapError(err)
	}
	return st, ctx.JSON(http.StatusOK, st)
}

func (a *API) purgeAudit(ctx forge.Context, _ *struct{}) (*PurgeResponse, error) {
	n, err := a.eng.PurgeAudit(ctx.Context())
	if err != nil {
		return nil, mapError(err)
	}
	resp := &PurgeResponse{Purged: n}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) getAuditEntry(ctx forge.Context, _ *GetAuditEntryRequest) (*audit.Entry, error) {
	entryID, err := id.ParseAuditEntryID(ctx.Param("entryId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid audit entry ID: %v", err))
	}

	e, err := a.eng.AuditEntry(ctx.Context(), entryID)
	if err != nil {
		return nil, mapError(err)
	}
	return e, ctx.JSON(http.StatusOK, e)
}
