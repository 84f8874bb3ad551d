// Package middleware attributes HTTP requests to an operator so executed
// changes land in the audit log under the right name.
package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/steward"
)

// DefaultActorHeader carries the operator name set by a trusted proxy.
const DefaultActorHeader = "X-Steward-Actor"

// Actor copies the operator named in header into the request context.
// Requests without the header keep whatever the context already resolves
// to (Forge user, then scope, then the system actor).
func Actor(header string) func(http.Handler) http.Handler {
	if header == "" {
		header = DefaultActorHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if actor := r.Header.Get(header); actor != "" {
				r = r.WithContext(steward.WithActor(r.Context(), actor))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOperator rejects requests that cannot be attributed to anyone.
// Mutating routes use it so the audit log never records the system actor
// for an HTTP-initiated change.
func RequireOperator() forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			if steward.ActorFrom(ctx.Context()) == steward.SystemActor {
				return denyResponse(ctx)
			}
			return next(ctx)
		}
	}
}

func denyResponse(ctx forge.Context) error {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(http.StatusForbidden)
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"error": "operator identity required"})
}
