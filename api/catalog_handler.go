package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/steward/catalog"
)

func (a *API) registerCatalogRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("catalog"))

	return g.GET("/catalog", a.getCatalog,
		forge.WithSummary("Privilege catalog"),
		forge.WithDescription("Returns the privilege hierarchy with the scopes each capability may be granted at."),
		forge.WithOperationID("getCatalog"),
		forge.WithResponseSchema(http.StatusOK, "Catalog roots", []*catalog.Node{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) getCatalog(ctx forge.Context, _ *struct{}) ([]*catalog.Node, error) {
	roots := a.eng.Catalog().Roots()
	return roots, ctx.JSON(http.StatusOK, roots)
}
