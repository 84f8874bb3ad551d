// Package queue holds staged changes and executes them in order against
// the database, one statement at a time.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/xraph/steward/audit"
	"github.com/xraph/steward/change"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/lock"
	"github.com/xraph/steward/plugin"
)

var (
	// ErrExecutionInProgress is returned when an execution pass is already
	// running, either for ExecuteAll or for a queue mutation.
	ErrExecutionInProgress = errors.New("queue: execution in progress")

	// ErrChangeNotFound is returned by Get for unknown ids.
	ErrChangeNotFound = errors.New("queue: change not found")

	// ErrEmptyChange is returned when a change carries no statements.
	ErrEmptyChange = errors.New("queue: change has no statements")

	// ErrInvalidChange is returned when a change names an unknown change
	// or entity type, no entity, or a blank statement.
	ErrInvalidChange = errors.New("queue: invalid change")
)

// Executor runs a single administrative statement.
type Executor interface {
	Execute(ctx context.Context, stmt string) error
}

// Recorder persists the outcome of each attempted change. It must not fail.
type Recorder interface {
	Record(ctx context.Context, c *change.Change, res change.Result, actor string) *audit.Entry
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(q *Queue) { q.logger = l } }

// WithLocker replaces the in-process execution lock.
func WithLocker(l lock.Locker) Option { return func(q *Queue) { q.locker = l } }

// WithPlugins sets the plugin registry notified of queue events.
func WithPlugins(r *plugin.Registry) Option { return func(q *Queue) { q.plugins = r } }

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(q *Queue) { q.now = now } }

// Queue is an ordered list of staged changes. Mutations are rejected while
// an execution pass is running.
type Queue struct {
	mu        sync.Mutex
	items     []*change.Change
	executing bool

	exec     Executor
	recorder Recorder
	locker   lock.Locker
	plugins  *plugin.Registry
	logger   *slog.Logger
	now      func() time.Time
}

// New creates an empty queue that runs statements with exec and records
// outcomes with recorder.
func New(exec Executor, recorder Recorder, opts ...Option) *Queue {
	q := &Queue{
		exec:     exec,
		recorder: recorder,
		locker:   lock.NewLocal(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Add stages c at the end of the queue, assigning its id and creation
// time, and returns the id.
func (q *Queue) Add(ctx context.Context, c *change.Change) (id.ChangeID, error) {
	if err := validate(c); err != nil {
		return id.Nil, err
	}

	q.mu.Lock()
	if q.executing {
		q.mu.Unlock()
		return id.Nil, ErrExecutionInProgress
	}
	staged := c.Clone()
	staged.ID = id.NewChangeID()
	staged.CreatedAt = q.now().UTC()
	staged.State = change.StateQueued
	q.items = append(q.items, staged)
	q.mu.Unlock()

	q.plugins.EmitChangeStaged(ctx, staged.Redacted())
	return staged.ID, nil
}

// Remove drops the change with the given id. Unknown ids are ignored.
func (q *Queue) Remove(ctx context.Context, changeID id.ChangeID) error {
	q.mu.Lock()
	if q.executing {
		q.mu.Unlock()
		return ErrExecutionInProgress
	}
	before := len(q.items)
	q.items = slices.DeleteFunc(q.items, func(c *change.Change) bool { return c.ID == changeID })
	removed := len(q.items) < before
	q.mu.Unlock()

	if removed {
		q.plugins.EmitChangeUnstaged(ctx, changeID)
	}
	return nil
}

// Clear drops every staged change.
func (q *Queue) Clear(ctx context.Context) error {
	q.mu.Lock()
	if q.executing {
		q.mu.Unlock()
		return ErrExecutionInProgress
	}
	n := len(q.items)
	q.items = nil
	q.mu.Unlock()

	q.plugins.EmitQueueCleared(ctx, n)
	return nil
}

// List returns copies of the staged changes in execution order.
func (q *Queue) List() []*change.Change {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*change.Change, len(q.items))
	for i, c := range q.items {
		out[i] = c.Clone()
	}
	return out
}

// Get returns a copy of one staged change.
func (q *Queue) Get(changeID id.ChangeID) (*change.Change, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, c := range q.items {
		if c.ID == changeID {
			return c.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrChangeNotFound, changeID)
}

// Len returns the number of staged changes.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Executing reports whether a pass is running.
func (q *Queue) Executing() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.executing
}

func validate(c *change.Change) error {
	switch {
	case !c.Type.Valid():
		return fmt.Errorf("%w: unknown change type %q", ErrInvalidChange, c.Type)
	case !c.EntityType.Valid():
		return fmt.Errorf("%w: unknown entity type %q", ErrInvalidChange, c.EntityType)
	case strings.TrimSpace(c.EntityName) == "":
		return fmt.Errorf("%w: entity name is required", ErrInvalidChange)
	case len(c.Statements) == 0:
		return ErrEmptyChange
	}
	for i, stmt := range c.Statements {
		if strings.TrimSpace(stmt) == "" {
			return fmt.Errorf("%w: statement %d is blank", ErrInvalidChange, i+1)
		}
	}
	return nil
}
