// Package clickhouse stores the audit log inside the managed server itself,
// in a MergeTree table reached over the same PostgreSQL wire interface the
// transport uses. Rows expire through a table TTL.
package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/xraph/steward/audit"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/store"
	"github.com/xraph/steward/transport"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// DefaultTable is the audit table name.
const DefaultTable = "steward_audit_log"

const timeLayout = "2006-01-02 15:04:05.000"

// Option configures the ClickHouse store.
type Option func(*Store)

// WithTable overrides the audit table. It may be database-qualified.
func WithTable(name string) Option { return func(s *Store) { s.table = name } }

// WithTTL sets the table TTL applied at migration. Zero disables it.
func WithTTL(d time.Duration) Option { return func(s *Store) { s.ttl = d } }

// Store is a ClickHouse implementation of the composite Steward store.
type Store struct {
	conn  transport.Conn
	table string
	ttl   time.Duration
}

// New creates a store over an open connection.
func New(conn transport.Conn, opts ...Option) *Store {
	s := &Store{
		conn:  conn,
		table: DefaultTable,
		ttl:   audit.DefaultRetention,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates the audit table.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.conn.Exec(ctx, s.createTableSQL()); err != nil {
		return fmt.Errorf("steward/clickhouse: migrate: %w", err)
	}
	return nil
}

func (s *Store) createTableSQL() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(s.table)
	b.WriteString(` (
    id            String,
    timestamp     DateTime64(3, 'UTC'),
    actor         String,
    change_type   LowCardinality(String),
    entity_type   LowCardinality(String),
    entity_name   String,
    description   String,
    statements    String,
    before_state  String,
    after_state   String,
    success       UInt8,
    error_message String
) ENGINE = MergeTree
PARTITION BY toYYYYMM(timestamp)
ORDER BY (timestamp, actor)`)
	if days := int(s.ttl / (24 * time.Hour)); days > 0 {
		fmt.Fprintf(&b, "\nTTL toDateTime(timestamp) + INTERVAL %d DAY", days)
	}
	return b.String()
}

// Ping verifies the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the connection.
func (s *Store) Close() error {
	s.conn.Close()
	return nil
}

// ──────────────────────────────────────────────────
// Audit operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAuditEntry(ctx context.Context, e *audit.Entry) error {
	r, err := toRow(e)
	if err != nil {
		return fmt.Errorf("steward: create audit entry: %w", err)
	}
	sql := "INSERT INTO " + s.table + " (" + columns +
		") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)"
	_, err = s.conn.Exec(ctx, sql,
		r.id, r.timestamp, r.actor, r.changeType, r.entityType, r.entityName,
		r.description, r.statements, r.beforeState, r.afterState, r.success, r.errorMessage)
	if err != nil {
		return fmt.Errorf("steward: create audit entry: %w", err)
	}
	return nil
}

func (s *Store) GetAuditEntry(ctx context.Context, entryID id.AuditEntryID) (*audit.Entry, error) {
	entries, err := s.selectEntries(ctx, " WHERE id = $1 LIMIT 1", entryID.String())
	if err != nil {
		return nil, fmt.Errorf("steward: get audit entry: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("audit entry %s: %w", entryID, audit.ErrEntryNotFound)
	}
	return entries[0], nil
}

func (s *Store) ListAuditEntries(ctx context.Context, filter *audit.QueryFilter) ([]*audit.Entry, error) {
	where, args := whereClause(filter)
	tail := where + " ORDER BY timestamp DESC, id DESC"
	if filter != nil {
		if filter.Limit > 0 {
			tail += " LIMIT " + strconv.Itoa(filter.Limit)
			if filter.Offset > 0 {
				tail += " OFFSET " + strconv.Itoa(filter.Offset)
			}
		} else if filter.Offset > 0 {
			tail += " LIMIT " + strconv.Itoa(filter.Offset) + ", 18446744073709551615"
		}
	}
	entries, err := s.selectEntries(ctx, tail, args...)
	if err != nil {
		return nil, fmt.Errorf("steward: list audit entries: %w", err)
	}
	return entries, nil
}

func (s *Store) CountAuditEntries(ctx context.Context, filter *audit.QueryFilter) (int64, error) {
	where, args := whereClause(filter)
	n, err := s.count(ctx, where, args...)
	if err != nil {
		return 0, fmt.Errorf("steward: count audit entries: %w", err)
	}
	return n, nil
}

// PurgeAuditEntries issues a lightweight delete. The server does not report
// affected rows, so the result is the count matched just before the delete.
func (s *Store) PurgeAuditEntries(ctx context.Context, before time.Time) (int64, error) {
	ts := before.UTC().Format(timeLayout)
	n, err := s.count(ctx, " WHERE timestamp < $1", ts)
	if err != nil {
		return 0, fmt.Errorf("steward: purge audit entries: %w", err)
	}
	if n == 0 {
		return 0, nil
	}
	if _, err := s.conn.Exec(ctx, "DELETE FROM "+s.table+" WHERE timestamp < $1", ts); err != nil {
		return 0, fmt.Errorf("steward: purge audit entries: %w", err)
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// Query helpers
// ──────────────────────────────────────────────────

const columns = "id, timestamp, actor, change_type, entity_type, entity_name, " +
	"description, statements, before_state, after_state, success, error_message"

// Every column is read back as text so rows scan uniformly over the
// simple protocol.
const selectColumns = "id, toString(timestamp), actor, change_type, entity_type, entity_name, " +
	"description, statements, before_state, after_state, toString(success), error_message"

func (s *Store) selectEntries(ctx context.Context, tail string, args ...any) ([]*audit.Entry, error) {
	rows, err := s.conn.Query(ctx, "SELECT "+selectColumns+" FROM "+s.table+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*audit.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) count(ctx context.Context, where string, args ...any) (int64, error) {
	rows, err := s.conn.Query(ctx, "SELECT toString(count()) FROM "+s.table+where, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var raw string
	if rows.Next() {
		if err := rows.Scan(&raw); err != nil {
			return 0, err
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, errors.New("count returned no rows")
	}
	return strconv.ParseInt(raw, 10, 64)
}

func scanEntry(rows pgx.Rows) (*audit.Entry, error) {
	var (
		r       row
		success string
	)
	if err := rows.Scan(&r.id, &r.timestamp, &r.actor, &r.changeType, &r.entityType, &r.entityName,
		&r.description, &r.statements, &r.beforeState, &r.afterState, &success, &r.errorMessage); err != nil {
		return nil, err
	}
	r.success = 0
	if success == "1" {
		r.success = 1
	}
	return r.toEntry()
}

func whereClause(filter *audit.QueryFilter) (string, []any) {
	if filter == nil {
		return "", nil
	}
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Actor != "" {
		add("actor = $%d", filter.Actor)
	}
	if filter.ChangeType != "" {
		add("change_type = $%d", string(filter.ChangeType))
	}
	if filter.EntityType != "" {
		add("entity_type = $%d", string(filter.EntityType))
	}
	if filter.EntityName != "" {
		add("entity_name = $%d", filter.EntityName)
	}
	if filter.Success != nil {
		v := 0
		if *filter.Success {
			v = 1
		}
		add("success = $%d", v)
	}
	if filter.After != nil {
		add("timestamp >= $%d", filter.After.UTC().Format(timeLayout))
	}
	if filter.Before != nil {
		add("timestamp <= $%d", filter.Before.UTC().Format(timeLayout))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
