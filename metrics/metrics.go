// Package metrics exposes Prometheus metrics for staged changes and
// execution passes through the plugin hooks.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/xraph/steward/audit"
	"github.com/xraph/steward/change"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin         = (*Plugin)(nil)
	_ plugin.ChangeStaged   = (*Plugin)(nil)
	_ plugin.ChangeUnstaged = (*Plugin)(nil)
	_ plugin.QueueCleared   = (*Plugin)(nil)
	_ plugin.BeforeExecute  = (*Plugin)(nil)
	_ plugin.ChangeExecuted = (*Plugin)(nil)
	_ plugin.AfterExecute   = (*Plugin)(nil)
	_ plugin.AuditRecorded  = (*Plugin)(nil)
)

// Plugin records queue and execution metrics.
type Plugin struct {
	changes    *prometheus.CounterVec
	statements prometheus.Counter
	depth      prometheus.Gauge
	passes     prometheus.Histogram
	audits     *prometheus.CounterVec

	mu      sync.Mutex
	started map[id.PassID]time.Time
	now     func() time.Time
}

// New creates the plugin and registers its collectors on reg.
func New(reg prometheus.Registerer) (*Plugin, error) {
	p := &Plugin{
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "steward_changes_executed_total",
			Help: "Changes attempted, by entity type, change type and outcome",
		}, []string{"entity_type", "change_type", "outcome"}),
		statements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "steward_statements_executed_total",
			Help: "Administrative statements that completed successfully",
		}),
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "steward_queue_depth",
			Help: "Number of staged changes",
		}),
		passes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "steward_execution_pass_seconds",
			Help:    "Duration of execution passes",
			Buckets: prometheus.DefBuckets,
		}),
		audits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "steward_audit_records_total",
			Help: "Audit entries persisted, by outcome",
		}, []string{"outcome"}),
		started: make(map[id.PassID]time.Time),
		now:     time.Now,
	}
	for _, c := range []prometheus.Collector{p.changes, p.statements, p.depth, p.passes, p.audits} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return "metrics" }

// OnChangeStaged implements plugin.ChangeStaged.
func (p *Plugin) OnChangeStaged(context.Context, *change.Change) error {
	p.depth.Inc()
	return nil
}

// OnChangeUnstaged implements plugin.ChangeUnstaged.
func (p *Plugin) OnChangeUnstaged(context.Context, id.ChangeID) error {
	p.depth.Dec()
	return nil
}

// OnQueueCleared implements plugin.QueueCleared.
func (p *Plugin) OnQueueCleared(context.Context, int) error {
	p.depth.Set(0)
	return nil
}

// OnBeforeExecute implements plugin.BeforeExecute.
func (p *Plugin) OnBeforeExecute(_ context.Context, passID id.PassID, changes []*change.Change) error {
	p.mu.Lock()
	p.started[passID] = p.now()
	p.mu.Unlock()
	p.depth.Set(float64(len(changes)))
	return nil
}

// OnChangeExecuted implements plugin.ChangeExecuted.
func (p *Plugin) OnChangeExecuted(_ context.Context, c *change.Change, res change.Result) error {
	p.changes.WithLabelValues(string(c.EntityType), string(c.Type), outcome(res.Success)).Inc()
	p.statements.Add(float64(res.Executed))
	return nil
}

// OnAfterExecute implements plugin.AfterExecute.
func (p *Plugin) OnAfterExecute(_ context.Context, r *change.Report) error {
	p.mu.Lock()
	start, ok := p.started[r.PassID]
	delete(p.started, r.PassID)
	p.mu.Unlock()
	if ok {
		p.passes.Observe(p.now().Sub(start).Seconds())
	}
	p.depth.Sub(float64(r.Succeeded))
	return nil
}

// OnAuditRecorded implements plugin.AuditRecorded.
func (p *Plugin) OnAuditRecorded(_ context.Context, e *audit.Entry) error {
	p.audits.WithLabelValues(outcome(e.Success)).Inc()
	return nil
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// QueueDepth returns the queue depth gauge.
func (p *Plugin) QueueDepth() prometheus.Gauge { return p.depth }

// StatementsExecuted returns the statement counter.
func (p *Plugin) StatementsExecuted() prometheus.Counter { return p.statements }
