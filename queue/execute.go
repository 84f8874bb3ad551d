package queue

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/xraph/steward/change"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/statement"
)

// ExecuteAll runs every staged change in order. Statements of a change run
// sequentially; the pass stops at the first failing statement. Succeeded
// changes leave the queue, the failed change and everything after it stay.
// Each attempted change is recorded to the audit log.
//
// The returned error is non-nil only when the pass could not start or was
// cancelled between changes. Statement failures are reported in the Report.
func (q *Queue) ExecuteAll(ctx context.Context, actor string) (*change.Report, error) {
	q.mu.Lock()
	if q.executing {
		q.mu.Unlock()
		return nil, ErrExecutionInProgress
	}
	q.executing = true
	q.mu.Unlock()

	release, err := q.locker.Acquire(ctx)
	if err != nil {
		q.setExecuting(false)
		return nil, fmt.Errorf("%w: %w", ErrExecutionInProgress, err)
	}
	defer release()

	q.mu.Lock()
	snapshot := make([]*change.Change, len(q.items))
	copy(snapshot, q.items)
	q.mu.Unlock()

	passID := id.NewPassID()
	report := &change.Report{
		PassID:  passID,
		Actor:   actor,
		Total:   len(snapshot),
		Results: make([]change.Result, 0, len(snapshot)),
	}
	log := q.logger.With(slog.String("pass", passID.String()), slog.String("actor", actor))
	log.Info("execution pass started", slog.Int("changes", len(snapshot)))

	views := make([]*change.Change, len(snapshot))
	for i, c := range snapshot {
		views[i] = c.Redacted()
	}
	q.plugins.EmitBeforeExecute(ctx, passID, views)

	succeeded := make(map[id.ChangeID]bool, len(snapshot))
	var passErr error
	for _, c := range snapshot {
		if err := ctx.Err(); err != nil {
			passErr = err
			log.Warn("execution pass cancelled", slog.Int("remaining", report.Total-report.Attempted))
			break
		}

		q.setState(c, change.StateExecuting)
		res := q.run(ctx, c)
		report.Attempted++
		report.Results = append(report.Results, res)

		q.recorder.Record(ctx, c, res, actor)
		q.plugins.EmitChangeExecuted(ctx, c.Redacted(), res)

		if !res.Success {
			q.setState(c, change.StateFailed)
			report.Failure = &change.Failure{
				ChangeID:   c.ID,
				EntityName: c.EntityName,
				Statement:  res.FailedStatement,
				Error:      res.Error,
			}
			log.Error("change failed",
				slog.String("change", c.ID.String()),
				slog.String("entity", c.EntityName),
				slog.String("statement", res.FailedStatement),
				slog.String("error", res.Error),
			)
			break
		}
		q.setState(c, change.StateSucceeded)
		succeeded[c.ID] = true
		report.Succeeded++
	}

	q.mu.Lock()
	q.items = slices.DeleteFunc(q.items, func(c *change.Change) bool { return succeeded[c.ID] })
	q.executing = false
	q.mu.Unlock()

	log.Info("execution pass finished", slog.String("summary", report.Summary()))
	q.plugins.EmitAfterExecute(ctx, report)
	return report, passErr
}

// run executes the statements of c. Once a change has started, its
// statements are not interrupted by cancellation of ctx.
func (q *Queue) run(ctx context.Context, c *change.Change) change.Result {
	res := change.Result{ChangeID: c.ID}
	start := q.now()
	stmtCtx := context.WithoutCancel(ctx)
	for _, stmt := range c.Statements {
		if err := q.exec.Execute(stmtCtx, stmt); err != nil {
			res.Error = err.Error()
			res.FailedStatement = statement.Redact(stmt)
			res.Duration = q.now().Sub(start)
			return res
		}
		res.Executed++
	}
	res.Success = true
	res.Duration = q.now().Sub(start)
	return res
}

func (q *Queue) setExecuting(v bool) {
	q.mu.Lock()
	q.executing = v
	q.mu.Unlock()
}

func (q *Queue) setState(c *change.Change, s change.State) {
	q.mu.Lock()
	c.State = s
	q.mu.Unlock()
}
