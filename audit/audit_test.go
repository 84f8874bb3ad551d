package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/steward/audit"
	"github.com/xraph/steward/catalog"
	"github.com/xraph/steward/change"
	"github.com/xraph/steward/entity"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/plan"
	"github.com/xraph/steward/store/memory"
)

type failingStore struct{ *memory.Store }

func (failingStore) CreateAuditEntry(context.Context, *audit.Entry) error {
	return errors.New("disk full")
}

func testChange(ct change.Type) *change.Change {
	return &change.Change{
		ID:          id.NewChangeID(),
		Type:        ct,
		EntityType:  entity.TypeUser,
		EntityName:  "alice",
		Description: "grant read on sales",
		Statements:  []string{"GRANT SELECT ON sales.* TO alice"},
	}
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestRecordSuccessAndFailure(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	var hooked int
	rec := audit.NewRecorder(st, audit.WithHook(func(context.Context, *audit.Entry) { hooked++ }))

	c := testChange(change.TypeGrant)
	ok := rec.Record(ctx, c, change.Result{ChangeID: c.ID, Success: true}, "ops")
	assert.True(t, ok.Success)
	assert.Empty(t, ok.ErrorMessage)

	bad := rec.Record(ctx, c, change.Result{ChangeID: c.ID, Success: false}, "ops")
	assert.False(t, bad.Success)
	assert.NotEmpty(t, bad.ErrorMessage)

	withMsg := rec.Record(ctx, c, change.Result{ChangeID: c.ID, Error: "code 497: access denied"}, "ops")
	assert.Equal(t, "code 497: access denied", withMsg.ErrorMessage)

	n, err := rec.Count(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.Equal(t, 3, hooked)

	got, err := rec.Get(ctx, ok.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Statements, got.Statements)
}

func TestRecordSwallowsStoreErrors(t *testing.T) {
	var hooked bool
	rec := audit.NewRecorder(failingStore{memory.New()}, audit.WithHook(func(context.Context, *audit.Entry) { hooked = true }))
	c := testChange(change.TypeGrant)

	e := rec.Record(context.Background(), c, change.Result{ChangeID: c.ID, Success: true}, "ops")
	require.NotNil(t, e)
	assert.False(t, hooked)
}

func TestRecordIgnoresCanceledContext(t *testing.T) {
	st := memory.New()
	rec := audit.NewRecorder(st)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := testChange(change.TypeRevoke)
	rec.Record(ctx, c, change.Result{ChangeID: c.ID, Success: true}, "ops")
	n, _ := st.CountAuditEntries(context.Background(), nil)
	assert.EqualValues(t, 1, n)
}

func TestQueryMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	clock := now
	rec := audit.NewRecorder(st, audit.WithClock(func() time.Time { return clock }))

	for i := range 3 {
		clock = now.Add(time.Duration(i) * time.Minute)
		c := testChange(change.TypeGrant)
		rec.Record(ctx, c, change.Result{ChangeID: c.ID, Success: i != 1}, []string{"ops", "dba", "ops"}[i])
	}

	entries, err := rec.Query(ctx, &audit.QueryFilter{Actor: "ops"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Timestamp.After(entries[1].Timestamp))

	failed := false
	entries, err = rec.Query(ctx, &audit.QueryFilter{Success: &failed})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "dba", entries[0].Actor)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

	add := func(at time.Time, actor string, ct change.Type, success bool) {
		rec := audit.NewRecorder(st, audit.WithClock(fixedClock(at)))
		c := testChange(ct)
		rec.Record(ctx, c, change.Result{ChangeID: c.ID, Success: success}, actor)
	}
	add(now, "ops", change.TypeGrant, true)
	add(now.Add(-24*time.Hour), "ops", change.TypeRevoke, false)
	add(now.Add(-30*24*time.Hour), "dba", change.TypeCreate, true)

	rec := audit.NewRecorder(st, audit.WithClock(fixedClock(now)), audit.WithRecentDays(7))
	stats, err := rec.Stats(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 3, stats.Total)
	assert.EqualValues(t, 2, stats.Succeeded)
	assert.EqualValues(t, 1, stats.Failed)
	assert.Equal(t, map[string]int64{"ops": 2, "dba": 1}, stats.ByActor)
	assert.Equal(t, map[string]int64{"GRANT": 1, "REVOKE": 1, "CREATE": 1}, stats.ByChangeType)
	assert.Len(t, stats.RecentByDay, 7)
	assert.EqualValues(t, 1, stats.RecentByDay["2026-05-10"])
	assert.EqualValues(t, 1, stats.RecentByDay["2026-05-09"])
	assert.EqualValues(t, 0, stats.RecentByDay["2026-05-04"])
}

func TestRetentionPurge(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

	old := audit.NewRecorder(st, audit.WithClock(fixedClock(now.Add(-91*24*time.Hour))))
	c := testChange(change.TypeGrant)
	old.Record(ctx, c, change.Result{ChangeID: c.ID, Success: true}, "ops")
	fresh := audit.NewRecorder(st, audit.WithClock(fixedClock(now)))
	fresh.Record(ctx, c, change.Result{ChangeID: c.ID, Success: true}, "ops")

	ret := audit.NewRetention(fresh, 0, "", nil)
	assert.Equal(t, audit.DefaultRetention, ret.Window())

	n, err := ret.PurgeNow(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, ret.Start())
	require.NoError(t, ret.Start())
	ret.Stop()
	ret.Stop()
}

func TestRetentionRejectsBadSchedule(t *testing.T) {
	ret := audit.NewRetention(audit.NewRecorder(memory.New()), time.Hour, "not a schedule", nil)
	assert.Error(t, ret.Start())
}

func TestRecordMasksPasswords(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	rec := audit.NewRecorder(st)

	c, err := plan.New(catalog.Default()).CreateUser(&entity.User{
		Name: "alice",
		Auth: entity.Auth{Secret: "hunter2"},
	})
	require.NoError(t, err)
	require.Contains(t, c.Statements[0], "hunter2")

	e := rec.Record(ctx, c, change.Result{ChangeID: c.ID, Success: true}, "ops")
	stored, err := rec.Get(ctx, e.ID)
	require.NoError(t, err)
	for _, s := range stored.Statements {
		assert.NotContains(t, s, "hunter2")
	}
	assert.Equal(t, "CREATE USER alice IDENTIFIED WITH sha256_password BY '[redacted]'", stored.Statements[0])
	assert.Contains(t, c.Statements[0], "hunter2", "recording must not alter the executable change")
}
