package plugin

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/xraph/steward/audit"
	"github.com/xraph/steward/change"
	"github.com/xraph/steward/id"
)

// testPlugin implements Plugin + ChangeStaged + AfterExecute + AuditRecorded.
type testPlugin struct {
	stagedCalled       bool
	afterExecuteCalled bool
	auditCalls         int
}

func (t *testPlugin) Name() string { return "test-plugin" }

func (t *testPlugin) OnChangeStaged(_ context.Context, _ *change.Change) error {
	t.stagedCalled = true
	return nil
}

func (t *testPlugin) OnAfterExecute(_ context.Context, _ *change.Report) error {
	t.afterExecuteCalled = true
	return errors.New("hook errors are logged, not returned")
}

func (t *testPlugin) OnAuditRecorded(_ context.Context, _ *audit.Entry) error {
	t.auditCalls++
	return nil
}

// minimalPlugin only implements Plugin (no hooks).
type minimalPlugin struct{}

func (m *minimalPlugin) Name() string { return "minimal" }

func TestRegistryDispatch(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(slog.Default())

	tp := &testPlugin{}
	reg.Register(tp)
	reg.Register(&minimalPlugin{})

	if len(reg.Plugins()) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(reg.Plugins()))
	}

	reg.EmitChangeStaged(ctx, &change.Change{ID: id.NewChangeID()})
	if !tp.stagedCalled {
		t.Fatal("OnChangeStaged was not called")
	}

	reg.EmitAfterExecute(ctx, &change.Report{})
	if !tp.afterExecuteCalled {
		t.Fatal("OnAfterExecute was not called")
	}

	reg.EmitAuditRecorded(ctx, &audit.Entry{})
	reg.EmitAuditRecorded(ctx, &audit.Entry{})
	if tp.auditCalls != 2 {
		t.Fatalf("expected 2 audit calls, got %d", tp.auditCalls)
	}

	// Should not panic on hooks with no listeners.
	reg.EmitBeforeExecute(ctx, id.NewPassID(), nil)
	reg.EmitChangeUnstaged(ctx, id.NewChangeID())
	reg.EmitQueueCleared(ctx, 0)
	reg.EmitShutdown(ctx)
}

func TestNilRegistryIsNoop(t *testing.T) {
	var reg *Registry
	reg.EmitChangeStaged(context.Background(), &change.Change{})
	reg.EmitChangeExecuted(context.Background(), &change.Change{}, change.Result{})
	if reg.Plugins() != nil {
		t.Fatal("expected no plugins")
	}
}
