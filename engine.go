package steward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/steward/assignment"
	"github.com/xraph/steward/audit"
	"github.com/xraph/steward/catalog"
	"github.com/xraph/steward/change"
	"github.com/xraph/steward/effective"
	"github.com/xraph/steward/entity"
	"github.com/xraph/steward/exchange"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/lock"
	"github.com/xraph/steward/permission"
	"github.com/xraph/steward/plan"
	"github.com/xraph/steward/plugin"
	"github.com/xraph/steward/queue"
	"github.com/xraph/steward/store"
)

// Engine is the central access-management engine. It plans changes
// against the catalog, stages and executes them, and keeps the audit log.
type Engine struct {
	store     store.Store
	server    Server
	cat       *catalog.Catalog
	cache     Cache
	locker    lock.Locker
	plugins   *plugin.Registry
	logger    *slog.Logger
	config    Config
	now       func() time.Time
	planner   *plan.Planner
	resolver  *effective.Resolver
	queue     *queue.Queue
	recorder  *audit.Recorder
	retention *audit.Retention
}

// NewEngine creates a new Steward engine with the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: slog.Default(),
		config: DefaultConfig(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, ErrStoreRequired
	}
	if e.server == nil {
		return nil, ErrServerRequired
	}
	if e.cat == nil {
		e.cat = catalog.Default()
	}
	if e.locker == nil {
		e.locker = lock.NewLocal()
	}

	auditOpts := []audit.Option{
		audit.WithLogger(e.logger),
		audit.WithRecentDays(e.config.RecentDays),
		audit.WithClock(e.now),
	}
	if e.plugins != nil {
		auditOpts = append(auditOpts, audit.WithHook(e.plugins.EmitAuditRecorded))
	}
	e.recorder = audit.NewRecorder(e.store, auditOpts...)
	e.retention = audit.NewRetention(e.recorder, e.config.AuditRetention, e.config.RetentionSchedule, e.logger)
	e.planner = plan.New(e.cat, plan.WithLogger(e.logger))
	e.resolver = effective.NewResolver(e.server, e.server,
		effective.WithLogger(e.logger),
		effective.WithConcurrency(e.config.ResolveConcurrency),
	)
	e.queue = queue.New(e.server, e.recorder,
		queue.WithLogger(e.logger),
		queue.WithLocker(e.locker),
		queue.WithPlugins(e.plugins),
		queue.WithClock(e.now),
	)
	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry (may be nil).
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Catalog returns the privilege catalog.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// Planner returns the change planner.
func (e *Engine) Planner() *plan.Planner { return e.planner }

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.config }

// Start begins the scheduled audit purge.
func (e *Engine) Start(_ context.Context) error {
	if e.config.DisableRetention {
		return nil
	}
	if err := e.retention.Start(); err != nil {
		return fmt.Errorf("steward: start retention: %w", err)
	}
	return nil
}

// Stop halts the purge scheduler and notifies plugins.
func (e *Engine) Stop(ctx context.Context) error {
	e.retention.Stop()
	e.plugins.EmitShutdown(ctx)
	return nil
}

// ──────────────────────────────────────────────────
// Effective grants
// ──────────────────────────────────────────────────

// EffectiveGrants resolves everything identity holds, directly and through
// its roles, tagged with provenance.
func (e *Engine) EffectiveGrants(ctx context.Context, identity string) ([]permission.Extended, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, identity); ok {
			return cached, nil
		}
	}
	grants, err := e.resolver.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(ctx, identity, grants)
	}
	return grants, nil
}

// EffectiveSummary groups the effective grants of identity by grant, each
// listing every source that supplies it.
func (e *Engine) EffectiveSummary(ctx context.Context, identity string) ([]effective.Entry, error) {
	grants, err := e.EffectiveGrants(ctx, identity)
	if err != nil {
		return nil, err
	}
	return effective.Summarize(grants), nil
}

// ──────────────────────────────────────────────────
// Planning
// ──────────────────────────────────────────────────

// PlanGrants diffs the current direct grants of a user or role against
// desired.
func (e *Engine) PlanGrants(ctx context.Context, t entity.Type, name string, desired []permission.Grant) (*change.Change, error) {
	original, err := e.server.ListGrants(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("steward: read grants of %s: %w", name, err)
	}
	return e.planner.Grants(t, name, original, desired)
}

// PlanRoles diffs the current role assignments of a user or role against
// desired.
func (e *Engine) PlanRoles(ctx context.Context, t entity.Type, name string, desired []assignment.Assignment) (*change.Change, error) {
	original, err := e.server.ListRoleAssignments(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("steward: read roles of %s: %w", name, err)
	}
	return e.planner.Roles(t, name, original, desired)
}

// Plan returns the changes that bring d about, grants first. An identity
// already in the desired state yields no changes.
func (e *Engine) Plan(ctx context.Context, d Desired) ([]*change.Change, error) {
	if d.Type != entity.TypeUser && d.Type != entity.TypeRole {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEntity, d.Type)
	}
	var changes []*change.Change
	if d.Grants != nil {
		c, err := e.PlanGrants(ctx, d.Type, d.Name, d.Grants)
		switch {
		case errors.Is(err, plan.ErrNoChanges):
		case err != nil:
			return nil, err
		default:
			changes = append(changes, c)
		}
	}
	if d.Roles != nil {
		c, err := e.PlanRoles(ctx, d.Type, d.Name, d.Roles)
		switch {
		case errors.Is(err, plan.ErrNoChanges):
		case err != nil:
			return nil, err
		default:
			changes = append(changes, c)
		}
	}
	return changes, nil
}

// ──────────────────────────────────────────────────
// Staging and execution
// ──────────────────────────────────────────────────

// Stage appends c to the queue and returns its id.
func (e *Engine) Stage(ctx context.Context, c *change.Change) (id.ChangeID, error) {
	return e.queue.Add(ctx, c)
}

// Unstage removes one change from the queue.
func (e *Engine) Unstage(ctx context.Context, changeID id.ChangeID) error {
	return e.queue.Remove(ctx, changeID)
}

// ClearStaged empties the queue.
func (e *Engine) ClearStaged(ctx context.Context) error {
	return e.queue.Clear(ctx)
}

// Staged returns the queued changes in execution order.
func (e *Engine) Staged() []*change.Change { return e.queue.List() }

// StagedChange returns one queued change.
func (e *Engine) StagedChange(changeID id.ChangeID) (*change.Change, error) {
	return e.queue.Get(changeID)
}

// Execute runs the queue in order, stopping at the first failure. The
// actor is taken from ctx. Cached effective grants are dropped once any
// change has been applied.
func (e *Engine) Execute(ctx context.Context) (*change.Report, error) {
	report, err := e.queue.ExecuteAll(ctx, ActorFrom(ctx))
	if report != nil && report.Succeeded > 0 && e.cache != nil {
		e.cache.Flush(ctx)
	}
	return report, err
}

// ──────────────────────────────────────────────────
// Audit
// ──────────────────────────────────────────────────

// AuditLog returns entries matching filter, most recent first.
func (e *Engine) AuditLog(ctx context.Context, filter *audit.QueryFilter) ([]*audit.Entry, error) {
	return e.recorder.Query(ctx, filter)
}

// AuditCount returns the number of entries matching filter.
func (e *Engine) AuditCount(ctx context.Context, filter *audit.QueryFilter) (int64, error) {
	return e.recorder.Count(ctx, filter)
}

// AuditEntry returns one entry.
func (e *Engine) AuditEntry(ctx context.Context, entryID id.AuditEntryID) (*audit.Entry, error) {
	return e.recorder.Get(ctx, entryID)
}

// AuditStats summarizes the audit history.
func (e *Engine) AuditStats(ctx context.Context) (*audit.Stats, error) {
	return e.recorder.Stats(ctx)
}

// PurgeAudit removes entries older than the retention window now.
func (e *Engine) PurgeAudit(ctx context.Context) (int64, error) {
	return e.retention.PurgeNow(ctx)
}

// ──────────────────────────────────────────────────
// Export and import
// ──────────────────────────────────────────────────

// Export snapshots every access entity on the server.
func (e *Engine) Export(ctx context.Context) (*exchange.Document, error) {
	return exchange.Export(ctx, e.server, ActorFrom(ctx), e.now())
}

// Import plans CREATE changes for every entity in doc and, unless dryRun,
// stages them. The planned changes are returned either way.
func (e *Engine) Import(ctx context.Context, doc *exchange.Document, dryRun bool) ([]*change.Change, error) {
	changes, err := exchange.Changes(e.planner, doc)
	if err != nil {
		return nil, err
	}
	if dryRun {
		return changes, nil
	}
	for i, c := range changes {
		changeID, err := e.queue.Add(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("steward: stage import change %d of %d: %w", i+1, len(changes), err)
		}
		changes[i].ID = changeID
	}
	return changes, nil
}
