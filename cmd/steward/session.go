package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/xraph/steward"
	"github.com/xraph/steward/cache"
	"github.com/xraph/steward/internal/cli"
	"github.com/xraph/steward/lock"
	"github.com/xraph/steward/metrics"
	"github.com/xraph/steward/store"
	chstore "github.com/xraph/steward/store/clickhouse"
	"github.com/xraph/steward/store/memory"
	"github.com/xraph/steward/transport"
)

// session is an engine wired to the configured server for one command.
type session struct {
	eng      *steward.Engine
	client   *transport.Client
	store    store.Store
	redis    *redis.Client
	registry *prometheus.Registry
	logger   *slog.Logger
}

// openSession connects to the server, migrates the audit store and builds
// the engine.
func openSession(ctx context.Context, withMetrics bool) (*session, error) {
	log := logger()

	dsn, err := cfg.DSN()
	if err != nil {
		return nil, cli.ConfigError("resolving database connection", err)
	}
	pool, err := transport.Open(ctx, dsn)
	if err != nil {
		return nil, cli.DBConnectError("connecting to server", err)
	}

	s := &session{logger: log}
	s.client = transport.New(pool,
		transport.WithLogger(log),
		transport.WithStatementTimeout(cfg.Database.StatementTimeout),
	)

	switch cfg.Audit.Backend {
	case cli.AuditBackendMemory:
		s.store = memory.New()
	default:
		s.store = chstore.New(pool,
			chstore.WithTable(cfg.Audit.Table),
			chstore.WithTTL(cfg.Audit.Retention),
		)
	}
	if err := s.store.Migrate(ctx); err != nil {
		s.close()
		return nil, cli.DBConnectError("migrating audit store", err)
	}

	engCfg := steward.DefaultConfig()
	engCfg.AuditRetention = cfg.Audit.Retention
	engCfg.DisableRetention = true

	opts := []steward.Option{
		steward.WithStore(s.store),
		steward.WithServer(s.client),
		steward.WithLogger(log),
		steward.WithConfig(engCfg),
		steward.WithCache(cache.NewMemory()),
	}

	if cfg.Lock.RedisAddr != "" {
		s.redis = redis.NewClient(&redis.Options{Addr: cfg.Lock.RedisAddr})
		opts = append(opts, steward.WithLocker(lock.NewRedis(s.redis,
			lock.WithKey(cfg.Lock.Key),
			lock.WithTTL(cfg.Lock.TTL),
			lock.WithLogger(log),
		)))
	}

	if withMetrics || cfg.Metrics.Enabled {
		s.registry = prometheus.NewRegistry()
		p, err := metrics.New(s.registry)
		if err != nil {
			s.close()
			return nil, cli.GeneralError("registering metrics", err)
		}
		opts = append(opts, steward.WithPlugin(p))
	}

	s.eng, err = steward.NewEngine(opts...)
	if err != nil {
		s.close()
		return nil, cli.GeneralError("building engine", err)
	}
	return s, nil
}

// actorContext attributes changes made by this command.
func (s *session) actorContext(ctx context.Context) context.Context {
	return steward.WithActor(ctx, resolveString(actor, cfg.Actor, os.Getenv("USER"), steward.SystemActor))
}

func (s *session) close() {
	if s.eng != nil {
		if err := s.eng.Stop(context.Background()); err != nil {
			s.logger.Warn("stopping engine", slog.String("error", err.Error()))
		}
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.store != nil {
		_ = s.store.Close()
	}
	if s.client != nil {
		_ = s.client.Close()
	}
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderer returns a terminal renderer that prints nothing under -q.
func renderer() *cli.Renderer {
	if quiet {
		return cli.NewRenderer(io.Discard)
	}
	return cli.NewRenderer(os.Stdout)
}
