package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/steward"
	"github.com/xraph/steward/change"
	"github.com/xraph/steward/id"
)

func (a *API) registerChangeRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("changes"))

	if err := g.GET("/changes", a.listChanges,
		forge.WithSummary("List staged changes"),
		forge.WithDescription("Returns the staged changes in execution order."),
		forge.WithOperationID("listChanges"),
		forge.WithResponseSchema(http.StatusOK, "Staged changes", []*change.Change{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/changes", a.stageChange,
		forge.WithSummary("Stage change"),
		forge.WithDescription("Appends operator-supplied statements to the queue. Requires an attributable operator."),
		forge.WithOperationID("stageChange"),
		forge.WithRequestSchema(change.Change{}),
		forge.WithCreatedResponse(&change.Change{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/changes", a.clearChanges,
		forge.WithSummary("Clear staged changes"),
		forge.WithDescription("Removes every staged change."),
		forge.WithOperationID("clearChanges"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/changes/execute", a.executeChanges,
		forge.WithSummary("Execute staged changes"),
		forge.WithDescription("Runs the queue in order, stopping at the first failed change."),
		forge.WithOperationID("executeChanges"),
		forge.WithResponseSchema(http.StatusOK, "Execution report", ExecuteResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/changes/:changeId", a.getChange,
		forge.WithSummary("Get staged change"),
		forge.WithDescription("Returns one staged change with its statements."),
		forge.WithOperationID("getChange"),
		forge.WithResponseSchema(http.StatusOK, "Staged change", &change.Change{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/changes/:changeId", a.unstageChange,
		forge.WithSummary("Unstage change"),
		forge.WithDescription("Removes one change from the queue."),
		forge.WithOperationID("unstageChange"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) listChanges(ctx forge.Context, _ *struct{}) ([]*change.Change, error) {
	changes := change.RedactAll(a.eng.Staged())
	return changes, ctx.JSON(http.StatusOK, changes)
}

// stageChange queues operator-supplied statements as they are. The queue
// rejects unknown change and entity types; the caller must be attributable
// because nothing here was produced by the planner.
func (a *API) stageChange(ctx forge.Context, req *change.Change) (*change.Change, error) {
	if steward.ActorFrom(ctx.Context()) == steward.SystemActor {
		return nil, forge.BadRequest("staging raw statements requires an operator identity")
	}
	if !req.Type.Valid() {
		return nil, forge.BadRequest(fmt.Sprintf("invalid change_type %q", req.Type))
	}
	if !req.EntityType.Valid() {
		return nil, forge.BadRequest(fmt.Sprintf("invalid entity_type %q", req.EntityType))
	}
	if req.EntityName == "" {
		return nil, forge.BadRequest("entity_name is required")
	}

	changeID, err := a.eng.Stage(ctx.Context(), req)
	if err != nil {
		return nil, mapError(err)
	}

	c, err := a.eng.StagedChange(changeID)
	if err != nil {
		return nil, mapError(err)
	}
	c = c.Redacted()
	return c, ctx.JSON(http.StatusCreated, c)
}

func (a *API) clearChanges(ctx forge.Context, _ *struct{}) (*struct{}, error) {
	if err := a.eng.ClearStaged(ctx.Context()); err != nil {
		return nil, mapError(err)
	}
	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) executeChanges(ctx forge.Context, _ *struct{}) (*ExecuteResponse, error) {
	report, err := a.eng.Execute(ctx.Context())
	if report == nil {
		return nil, mapError(err)
	}

	resp := &ExecuteResponse{Report: report, Summary: report.Summary()}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) getChange(ctx forge.Context, _ *GetChangeRequest) (*change.Change, error) {
	changeID, err := id.ParseChangeID(ctx.Param("changeId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid change ID: %v", err))
	}

	c, err := a.eng.StagedChange(changeID)
	if err != nil {
		return nil, mapError(err)
	}
	c = c.Redacted()
	return c, ctx.JSON(http.StatusOK, c)
}

func (a *API) unstageChange(ctx forge.Context, _ *GetChangeRequest) (*struct{}, error) {
	changeID, err := id.ParseChangeID(ctx.Param("changeId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid change ID: %v", err))
	}

	if _, err := a.eng.StagedChange(changeID); err != nil {
		return nil, mapError(err)
	}
	if err := a.eng.Unstage(ctx.Context(), changeID); err != nil {
		return nil, mapError(err)
	}
	return nil, ctx.NoContent(http.StatusNoContent)
}
