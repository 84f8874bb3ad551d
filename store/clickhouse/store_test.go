package clickhouse

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/steward/audit"
	"github.com/xraph/steward/change"
	"github.com/xraph/steward/entity"
	"github.com/xraph/steward/id"
)

type fakeRows struct {
	data [][]string
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	if len(dest) != len(row) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		p, ok := d.(*string)
		if !ok {
			return errors.New("unsupported scan destination")
		}
		*p = row[i]
	}
	return nil
}

type call struct {
	sql  string
	args []any
}

// fakeConn answers SELECT count() with count and any other query with rows.
type fakeConn struct {
	execs   []call
	queries []call
	rows    [][]string
	count   string
}

func (c *fakeConn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.execs = append(c.execs, call{sql, args})
	return pgconn.NewCommandTag("OK"), nil
}

func (c *fakeConn) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	c.queries = append(c.queries, call{sql, args})
	if strings.Contains(sql, "count()") {
		return &fakeRows{data: [][]string{{c.count}}}, nil
	}
	return &fakeRows{data: c.rows}, nil
}

func (c *fakeConn) Ping(context.Context) error { return nil }
func (c *fakeConn) Close()                     {}

func TestMigrateCreatesPartitionedTable(t *testing.T) {
	conn := &fakeConn{}
	require.NoError(t, New(conn).Migrate(context.Background()))
	require.Len(t, conn.execs, 1)

	sql := conn.execs[0].sql
	assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS steward_audit_log")
	assert.Contains(t, sql, "ENGINE = MergeTree")
	assert.Contains(t, sql, "PARTITION BY toYYYYMM(timestamp)")
	assert.Contains(t, sql, "ORDER BY (timestamp, actor)")
	assert.Contains(t, sql, "TTL toDateTime(timestamp) + INTERVAL 90 DAY")

	conn = &fakeConn{}
	require.NoError(t, New(conn, WithTTL(0), WithTable("ops.audit")).Migrate(context.Background()))
	assert.Contains(t, conn.execs[0].sql, "ops.audit")
	assert.NotContains(t, conn.execs[0].sql, "TTL")
}

func TestCreateAuditEntryEncodesRow(t *testing.T) {
	conn := &fakeConn{}
	e := &audit.Entry{
		ID:          id.NewAuditEntryID(),
		Timestamp:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Actor:       "ops",
		ChangeType:  change.TypeGrant,
		EntityType:  entity.TypeUser,
		EntityName:  "alice",
		Statements:  []string{"GRANT SELECT ON sales.* TO alice"},
		AfterState:  map[string]any{"grants": []any{"SELECT:sales.*"}},
		Success:     true,
		Description: "Update grants of user alice (+1 -0)",
	}
	require.NoError(t, New(conn).CreateAuditEntry(context.Background(), e))
	require.Len(t, conn.execs, 1)

	args := conn.execs[0].args
	require.Len(t, args, 12)
	assert.Equal(t, "2026-03-01 12:00:00.000", args[1])
	assert.Equal(t, `["GRANT SELECT ON sales.* TO alice"]`, args[7])
	assert.Equal(t, "", args[8])
	assert.Equal(t, 1, args[10])
}

func TestGetAuditEntry(t *testing.T) {
	eid := id.NewAuditEntryID()
	conn := &fakeConn{rows: [][]string{{
		eid.String(), "2026-03-01 12:00:00.000", "ops", "GRANT", "USER", "alice",
		"", `["GRANT SELECT ON sales.* TO alice"]`, "", `{"grants":["SELECT:sales.*"]}`, "0", "boom",
	}}}
	got, err := New(conn).GetAuditEntry(context.Background(), eid)
	require.NoError(t, err)
	assert.Equal(t, eid, got.ID)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), got.Timestamp)
	assert.False(t, got.Success)
	assert.Equal(t, "boom", got.ErrorMessage)
	assert.Nil(t, got.BeforeState)
	assert.Equal(t, []string{"GRANT SELECT ON sales.* TO alice"}, got.Statements)
	assert.Equal(t, []any{eid.String()}, conn.queries[0].args)

	_, err = New(&fakeConn{}).GetAuditEntry(context.Background(), eid)
	assert.ErrorIs(t, err, audit.ErrEntryNotFound)
}

func TestListAuditEntriesBuildsFilter(t *testing.T) {
	conn := &fakeConn{}
	failed := false
	after := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := New(conn).ListAuditEntries(context.Background(), &audit.QueryFilter{
		Actor:   "ops",
		Success: &failed,
		After:   &after,
		Limit:   10,
		Offset:  20,
	})
	require.NoError(t, err)

	q := conn.queries[0]
	assert.Contains(t, q.sql, " WHERE actor = $1 AND success = $2 AND timestamp >= $3")
	assert.Contains(t, q.sql, "ORDER BY timestamp DESC, id DESC LIMIT 10 OFFSET 20")
	assert.Equal(t, []any{"ops", 0, "2026-03-01 00:00:00.000"}, q.args)
}

func TestCountAndPurge(t *testing.T) {
	conn := &fakeConn{count: "3"}
	s := New(conn)

	n, err := s.CountAuditEntries(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	purged, err := s.PurgeAuditEntries(context.Background(), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(3), purged)
	require.Len(t, conn.execs, 1)
	assert.Equal(t, "DELETE FROM steward_audit_log WHERE timestamp < $1", conn.execs[0].sql)

	conn.count = "0"
	conn.execs = nil
	purged, err = s.PurgeAuditEntries(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, purged)
	assert.Empty(t, conn.execs)
}
