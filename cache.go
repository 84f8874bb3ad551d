package steward

import (
	"context"

	"github.com/xraph/steward/permission"
)

// Cache holds effective-grant resolutions between edit sessions. It is
// optional; without one every resolution reads from the server.
type Cache interface {
	// Get returns the cached resolution for identity, if available.
	Get(ctx context.Context, identity string) ([]permission.Extended, bool)

	// Set stores a resolution.
	Set(ctx context.Context, identity string, grants []permission.Extended)

	// Invalidate removes the cached resolution for identity.
	Invalidate(ctx context.Context, identity string)

	// Flush removes every cached resolution.
	Flush(ctx context.Context)
}
