package steward

import "context"

type contextKey int

const (
	ctxKeyActor contextKey = iota
)

// SystemActor is recorded when no operator is known.
const SystemActor = "system"

// WithActor returns a context carrying the acting operator.
// Use this for standalone mode (without Forge).
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ctxKeyActor, actor)
}

func actorFromContext(ctx context.Context) string {
	v, ok := ctx.Value(ctxKeyActor).(string)
	if !ok {
		return ""
	}
	return v
}
