package audit

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/xraph/steward/change"
	"github.com/xraph/steward/id"
)

// statsPageSize bounds each read when aggregating statistics.
const statsPageSize = 1000

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(r *Recorder) { r.logger = l } }

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(r *Recorder) { r.now = now } }

// WithRecentDays sets how many days Stats breaks down by day.
func WithRecentDays(n int) Option { return func(r *Recorder) { r.recentDays = n } }

// WithHook registers a function called after every persisted entry.
func WithHook(fn func(ctx context.Context, e *Entry)) Option {
	return func(r *Recorder) { r.hooks = append(r.hooks, fn) }
}

// Recorder writes audit entries and serves queries over them.
type Recorder struct {
	store      Store
	logger     *slog.Logger
	now        func() time.Time
	recentDays int
	hooks      []func(context.Context, *Entry)
}

// NewRecorder creates a Recorder backed by store.
func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:      store,
		logger:     slog.Default(),
		now:        time.Now,
		recentDays: 7,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.recentDays < 1 {
		r.recentDays = 1
	}
	return r
}

// Record persists the outcome of one change execution. It never fails:
// persistence errors are logged, and the entry is returned either way.
// Writing continues even when ctx is canceled.
func (r *Recorder) Record(ctx context.Context, c *change.Change, res change.Result, actor string) *Entry {
	e := NewEntry(c, res, actor, r.now())
	ctx = context.WithoutCancel(ctx)

	if err := r.store.CreateAuditEntry(ctx, e); err != nil {
		r.logger.Error("audit entry not persisted",
			slog.String("change_id", c.ID.String()),
			slog.String("entity", c.EntityName),
			slog.Bool("success", res.Success),
			slog.String("error", err.Error()),
		)
		return e
	}
	for _, fn := range r.hooks {
		fn(ctx, e)
	}
	return e
}

// Get returns a single entry.
func (r *Recorder) Get(ctx context.Context, entryID id.AuditEntryID) (*Entry, error) {
	return r.store.GetAuditEntry(ctx, entryID)
}

// Query returns entries matching filter, most recent first.
func (r *Recorder) Query(ctx context.Context, filter *QueryFilter) ([]*Entry, error) {
	entries, err := r.store.ListAuditEntries(ctx, filter)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

// Count returns the number of entries matching filter.
func (r *Recorder) Count(ctx context.Context, filter *QueryFilter) (int64, error) {
	return r.store.CountAuditEntries(ctx, filter)
}

// Stats summarizes audit history.
type Stats struct {
	Total        int64            `json:"total"`
	Succeeded    int64            `json:"succeeded"`
	Failed       int64            `json:"failed"`
	ByActor      map[string]int64 `json:"by_actor"`
	ByChangeType map[string]int64 `json:"by_change_type"`

	// RecentByDay counts entries per UTC day ("2006-01-02") over the
	// recent window, including days with no entries.
	RecentByDay map[string]int64 `json:"recent_by_day"`
}

// Stats recomputes the summary from the store.
func (r *Recorder) Stats(ctx context.Context) (*Stats, error) {
	now := r.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	windowStart := today.AddDate(0, 0, -(r.recentDays - 1))

	st := &Stats{
		ByActor:      make(map[string]int64),
		ByChangeType: make(map[string]int64),
		RecentByDay:  make(map[string]int64, r.recentDays),
	}
	for d := 0; d < r.recentDays; d++ {
		st.RecentByDay[windowStart.AddDate(0, 0, d).Format(time.DateOnly)] = 0
	}

	for offset := 0; ; offset += statsPageSize {
		page, err := r.store.ListAuditEntries(ctx, &QueryFilter{Limit: statsPageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, e := range page {
			st.Total++
			if e.Success {
				st.Succeeded++
			} else {
				st.Failed++
			}
			st.ByActor[e.Actor]++
			st.ByChangeType[string(e.ChangeType)]++
			if ts := e.Timestamp.UTC(); !ts.Before(windowStart) {
				day := ts.Format(time.DateOnly)
				if _, ok := st.RecentByDay[day]; ok {
					st.RecentByDay[day]++
				}
			}
		}
		if len(page) < statsPageSize {
			break
		}
	}
	return st, nil
}

// Purge removes entries older than the retention window.
func (r *Recorder) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	return r.store.PurgeAuditEntries(ctx, r.now().Add(-retention))
}
