package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/xraph/forge"

	"github.com/xraph/steward"
	"github.com/xraph/steward/change"
	"github.com/xraph/steward/entity"
)

func (a *API) registerPlanRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("plan"))

	return g.POST("/plan/grants", a.planGrants,
		forge.WithSummary("Plan grant changes"),
		forge.WithDescription("Diffs the desired grants and roles of a user or role against the server. Optionally stages the result."),
		forge.WithOperationID("planGrants"),
		forge.WithRequestSchema(PlanRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Planned changes", PlanResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) planGrants(ctx forge.Context, req *PlanRequest) (*PlanResponse, error) {
	if req.Name == "" {
		return nil, forge.BadRequest("name is required")
	}
	if req.Grants == nil && req.Roles == nil {
		return nil, forge.BadRequest("grants or roles is required")
	}

	changes, err := a.eng.Plan(ctx.Context(), steward.Desired{
		Type:   entity.Type(strings.ToUpper(req.EntityType)),
		Name:   req.Name,
		Grants: req.Grants,
		Roles:  req.Roles,
	})
	if err != nil {
		return nil, mapError(err)
	}

	resp := &PlanResponse{Changes: changes}
	if req.Stage && len(changes) > 0 {
		for i, c := range changes {
			changeID, err := a.eng.Stage(ctx.Context(), c)
			if err != nil {
				return nil, mapError(fmt.Errorf("stage change %d of %d: %w", i+1, len(changes), err))
			}
			c.ID = changeID
		}
		resp.Staged = true
	}
	resp.Changes = change.RedactAll(resp.Changes)
	return resp, ctx.JSON(http.StatusOK, resp)
}
