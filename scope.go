package steward

import (
	"context"

	"github.com/xraph/forge"
)

// ActorFrom returns the operator attributed to work done under ctx.
// Priority: explicit WithActor, Forge user ID, Forge scope organization,
// then SystemActor.
func ActorFrom(ctx context.Context) string {
	if a := actorFromContext(ctx); a != "" {
		return a
	}
	if u := forge.UserIDFromContext(ctx); u != "" {
		return u
	}
	if s, ok := forge.ScopeFrom(ctx); ok {
		if o := s.OrgID(); o != "" {
			return o
		}
	}
	return SystemActor
}
