// Package plugin defines the plugin system for Steward.
// Plugins are notified of lifecycle events (change staged, change
// executed, audit entry recorded, etc.) and can react with logging,
// metrics or notifications.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"

	"github.com/xraph/steward/audit"
	"github.com/xraph/steward/change"
	"github.com/xraph/steward/id"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ──────────────────────────────────────────────────
// Queue lifecycle hooks
// ──────────────────────────────────────────────────

// ChangeStaged is called after a change is added to the queue.
type ChangeStaged interface {
	OnChangeStaged(ctx context.Context, c *change.Change) error
}

// ChangeUnstaged is called after a change is removed from the queue
// without being executed.
type ChangeUnstaged interface {
	OnChangeUnstaged(ctx context.Context, changeID id.ChangeID) error
}

// QueueCleared is called after the queue is emptied.
type QueueCleared interface {
	OnQueueCleared(ctx context.Context, removed int) error
}

// ──────────────────────────────────────────────────
// Execution lifecycle hooks
// ──────────────────────────────────────────────────

// BeforeExecute is called when an execution pass starts.
type BeforeExecute interface {
	OnBeforeExecute(ctx context.Context, passID id.PassID, changes []*change.Change) error
}

// ChangeExecuted is called after each attempted change.
type ChangeExecuted interface {
	OnChangeExecuted(ctx context.Context, c *change.Change, res change.Result) error
}

// AfterExecute is called when an execution pass ends.
type AfterExecute interface {
	OnAfterExecute(ctx context.Context, r *change.Report) error
}

// ──────────────────────────────────────────────────
// Audit hooks
// ──────────────────────────────────────────────────

// AuditRecorded is called after an audit entry is persisted.
type AuditRecorded interface {
	OnAuditRecorded(ctx context.Context, e *audit.Entry) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
