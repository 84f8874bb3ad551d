// Package store defines the aggregate persistence interface. The audit
// subsystem defines its own store interface; the composite Store adds
// lifecycle operations. Backends: Postgres, SQLite, MongoDB, ClickHouse
// and Memory.
package store

import (
	"context"

	"github.com/xraph/steward/audit"
)

// Store is the aggregate persistence interface.
// A single backend implements every subsystem store.
type Store interface {
	audit.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
