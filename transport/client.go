// Package transport talks to the database server over its PostgreSQL wire
// interface. It executes administrative statements one at a time and reads
// access-control state back from the system tables.
package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xraph/steward/assignment"
	"github.com/xraph/steward/catalog"
	"github.com/xraph/steward/exchange"
	"github.com/xraph/steward/permission"
	"github.com/xraph/steward/statement"
)

// Compile-time interface checks.
var (
	_ permission.Reader     = (*Client)(nil)
	_ assignment.Reader     = (*Client)(nil)
	_ exchange.EntityReader = (*Client)(nil)
)

// ErrClosed is returned by a closed client.
var ErrClosed = errors.New("transport: client closed")

// Conn is the subset of *pgxpool.Pool the client uses.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

// WithCatalog sets the catalog used to map server privilege keywords back
// to capability ids.
func WithCatalog(cat *catalog.Catalog) Option { return func(c *Client) { c.cat = cat } }

// WithStatementTimeout bounds each statement. Zero disables the bound.
func WithStatementTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// Client executes statements and reads access-control state.
type Client struct {
	conn    Conn
	cat     *catalog.Catalog
	timeout time.Duration
	logger  *slog.Logger
}

// Open opens a pool to dsn and checks it. The server's PostgreSQL interface
// does not support extended-protocol prepared statements, so every query
// uses the simple protocol.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("transport: parse dsn: %w", err)
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("transport: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("transport: ping: %w", err)
	}
	return pool, nil
}

// Connect opens a pool to dsn and wraps it in a Client.
func Connect(ctx context.Context, dsn string, opts ...Option) (*Client, error) {
	pool, err := Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return New(pool, opts...), nil
}

// New wraps an existing connection.
func New(conn Conn, opts ...Option) *Client {
	c := &Client{
		conn:    conn,
		cat:     catalog.Default(),
		timeout: 30 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs one administrative statement. A timeout surfaces as an
// ordinary error.
func (c *Client) Execute(ctx context.Context, stmt string) error {
	if c.conn == nil {
		return ErrClosed
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	start := time.Now()
	if _, err := c.conn.Exec(ctx, stmt); err != nil {
		c.logger.Debug("statement failed", slog.String("statement", statement.Redact(stmt)), slog.String("error", err.Error()))
		return err
	}
	c.logger.Debug("statement executed", slog.String("statement", statement.Redact(stmt)), slog.Duration("elapsed", time.Since(start)))
	return nil
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if c.conn == nil {
		return ErrClosed
	}
	return c.conn.Ping(ctx)
}

// Close releases the connection pool.
func (c *Client) Close() error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	return nil
}

// query runs sql and calls fn for every row.
func (c *Client) query(ctx context.Context, fn func(pgx.Rows) error, sql string, args ...any) error {
	if c.conn == nil {
		return ErrClosed
	}
	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
