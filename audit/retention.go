package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultRetentionSchedule runs the purge once a day.
const DefaultRetentionSchedule = "@daily"

// Retention periodically purges entries older than the retention window.
type Retention struct {
	recorder *Recorder
	window   time.Duration
	schedule string
	logger   *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// NewRetention creates a retention job. A zero window uses DefaultRetention
// and an empty schedule uses DefaultRetentionSchedule.
func NewRetention(recorder *Recorder, window time.Duration, schedule string, logger *slog.Logger) *Retention {
	if window <= 0 {
		window = DefaultRetention
	}
	if schedule == "" {
		schedule = DefaultRetentionSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retention{recorder: recorder, window: window, schedule: schedule, logger: logger}
}

// Window returns the retention window.
func (r *Retention) Window() time.Duration { return r.window }

// Start registers the purge with a cron scheduler and starts it.
func (r *Retention) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(r.schedule, func() {
		if _, err := r.PurgeNow(context.Background()); err != nil {
			r.logger.Warn("audit retention purge failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	r.cron = c
	r.logger.Info("audit retention started", "schedule", r.schedule, "window", r.window)
	return nil
}

// Stop halts the scheduler and waits for a running purge to finish.
func (r *Retention) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	r.logger.Info("audit retention stopped")
}

// PurgeNow removes every entry older than the window.
func (r *Retention) PurgeNow(ctx context.Context) (int64, error) {
	n, err := r.recorder.Purge(ctx, r.window)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.logger.Info("audit entries purged", "count", n, "window", r.window)
	}
	return n, nil
}
