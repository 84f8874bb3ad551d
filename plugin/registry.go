package plugin

import (
	"context"
	"log/slog"

	"github.com/xraph/steward/audit"
	"github.com/xraph/steward/change"
	"github.com/xraph/steward/id"
)

// Named entry types pair a hook with the plugin name for logging.

type changeStagedEntry struct {
	name string
	hook ChangeStaged
}
type changeUnstagedEntry struct {
	name string
	hook ChangeUnstaged
}
type queueClearedEntry struct {
	name string
	hook QueueCleared
}
type beforeExecuteEntry struct {
	name string
	hook BeforeExecute
}
type changeExecutedEntry struct {
	name string
	hook ChangeExecuted
}
type afterExecuteEntry struct {
	name string
	hook AfterExecute
}
type auditRecordedEntry struct {
	name string
	hook AuditRecorded
}
type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook. A nil *Registry
// accepts every emit call and does nothing.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	changeStaged   []changeStagedEntry
	changeUnstaged []changeUnstagedEntry
	queueCleared   []queueClearedEntry
	beforeExecute  []beforeExecuteEntry
	changeExecuted []changeExecutedEntry
	afterExecute   []afterExecuteEntry
	auditRecorded  []auditRecordedEntry
	shutdown       []shutdownEntry
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	if h, ok := p.(ChangeStaged); ok {
		r.changeStaged = append(r.changeStaged, changeStagedEntry{name, h})
	}
	if h, ok := p.(ChangeUnstaged); ok {
		r.changeUnstaged = append(r.changeUnstaged, changeUnstagedEntry{name, h})
	}
	if h, ok := p.(QueueCleared); ok {
		r.queueCleared = append(r.queueCleared, queueClearedEntry{name, h})
	}
	if h, ok := p.(BeforeExecute); ok {
		r.beforeExecute = append(r.beforeExecute, beforeExecuteEntry{name, h})
	}
	if h, ok := p.(ChangeExecuted); ok {
		r.changeExecuted = append(r.changeExecuted, changeExecutedEntry{name, h})
	}
	if h, ok := p.(AfterExecute); ok {
		r.afterExecute = append(r.afterExecute, afterExecuteEntry{name, h})
	}
	if h, ok := p.(AuditRecorded); ok {
		r.auditRecorded = append(r.auditRecorded, auditRecordedEntry{name, h})
	}
	if h, ok := p.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin {
	if r == nil {
		return nil
	}
	return r.plugins
}

// ──────────────────────────────────────────────────
// Queue event emitters
// ──────────────────────────────────────────────────

// EmitChangeStaged notifies all plugins that implement ChangeStaged.
func (r *Registry) EmitChangeStaged(ctx context.Context, c *change.Change) {
	if r == nil {
		return
	}
	for _, e := range r.changeStaged {
		if err := e.hook.OnChangeStaged(ctx, c); err != nil {
			r.logHookError("OnChangeStaged", e.name, err)
		}
	}
}

// EmitChangeUnstaged notifies all plugins that implement ChangeUnstaged.
func (r *Registry) EmitChangeUnstaged(ctx context.Context, changeID id.ChangeID) {
	if r == nil {
		return
	}
	for _, e := range r.changeUnstaged {
		if err := e.hook.OnChangeUnstaged(ctx, changeID); err != nil {
			r.logHookError("OnChangeUnstaged", e.name, err)
		}
	}
}

// EmitQueueCleared notifies all plugins that implement QueueCleared.
func (r *Registry) EmitQueueCleared(ctx context.Context, removed int) {
	if r == nil {
		return
	}
	for _, e := range r.queueCleared {
		if err := e.hook.OnQueueCleared(ctx, removed); err != nil {
			r.logHookError("OnQueueCleared", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Execution event emitters
// ──────────────────────────────────────────────────

// EmitBeforeExecute notifies all plugins that implement BeforeExecute.
func (r *Registry) EmitBeforeExecute(ctx context.Context, passID id.PassID, changes []*change.Change) {
	if r == nil {
		return
	}
	for _, e := range r.beforeExecute {
		if err := e.hook.OnBeforeExecute(ctx, passID, changes); err != nil {
			r.logHookError("OnBeforeExecute", e.name, err)
		}
	}
}

// EmitChangeExecuted notifies all plugins that implement ChangeExecuted.
func (r *Registry) EmitChangeExecuted(ctx context.Context, c *change.Change, res change.Result) {
	if r == nil {
		return
	}
	for _, e := range r.changeExecuted {
		if err := e.hook.OnChangeExecuted(ctx, c, res); err != nil {
			r.logHookError("OnChangeExecuted", e.name, err)
		}
	}
}

// EmitAfterExecute notifies all plugins that implement AfterExecute.
func (r *Registry) EmitAfterExecute(ctx context.Context, rep *change.Report) {
	if r == nil {
		return
	}
	for _, e := range r.afterExecute {
		if err := e.hook.OnAfterExecute(ctx, rep); err != nil {
			r.logHookError("OnAfterExecute", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Audit event emitters
// ──────────────────────────────────────────────────

// EmitAuditRecorded notifies all plugins that implement AuditRecorded.
func (r *Registry) EmitAuditRecorded(ctx context.Context, entry *audit.Entry) {
	if r == nil {
		return
	}
	for _, e := range r.auditRecorded {
		if err := e.hook.OnAuditRecorded(ctx, entry); err != nil {
			r.logHookError("OnAuditRecorded", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Shutdown emitter
// ──────────────────────────────────────────────────

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	if r == nil {
		return
	}
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated.
func (r *Registry) logHookError(hook, pluginName string, err error) {
	r.logger.Warn("plugin hook error",
		slog.String("hook", hook),
		slog.String("plugin", pluginName),
		slog.String("error", err.Error()),
	)
}
