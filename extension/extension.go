// Package extension provides a Forge extension entry point for Steward.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/steward"
	"github.com/xraph/steward/api"
	"github.com/xraph/steward/cache"
	"github.com/xraph/steward/plugin"
	"github.com/xraph/steward/store"
	"github.com/xraph/steward/transport"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "steward"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Access management for ClickHouse: staged grant changes with audit"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Steward as a Forge extension.
type Extension struct {
	config      Config
	eng         *steward.Engine
	server      steward.Server
	client      *transport.Client
	apiHandler  *api.API
	logger      *slog.Logger
	stewardOpts []steward.Option
	plugins     []plugin.Plugin
}

// New creates a Steward Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{config: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return ExtensionName }

// Description returns the extension description.
func (e *Extension) Description() string { return ExtensionDescription }

// Version returns the extension version.
func (e *Extension) Version() string { return ExtensionVersion }

// Dependencies returns the list of extension names this extension depends on.
func (e *Extension) Dependencies() []string { return []string{} }

// Engine returns the underlying Steward engine.
func (e *Extension) Engine() *steward.Engine { return e.eng }

// API returns the API handler.
func (e *Extension) API() *api.API { return e.apiHandler }

// Register implements [forge.Extension]. It initializes the engine,
// registers it in the DI container, and optionally registers HTTP routes.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.init(fapp); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*steward.Engine, error) {
		return e.eng, nil
	}); err != nil {
		return fmt.Errorf("steward: register engine in container: %w", err)
	}

	return nil
}

func (e *Extension) init(fapp forge.App) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	server := e.server
	if server == nil {
		if e.config.DSN == "" {
			return errors.New("steward: no server configured (set dsn or use WithServer)")
		}
		client, err := transport.Connect(context.Background(), e.config.DSN,
			transport.WithLogger(logger),
			transport.WithStatementTimeout(e.config.StatementTimeout),
		)
		if err != nil {
			return fmt.Errorf("steward: connect: %w", err)
		}
		e.client = client
		server = client
	}

	opts := make([]steward.Option, 0, len(e.stewardOpts)+len(e.plugins)+5)
	opts = append(opts, steward.WithLogger(logger), steward.WithConfig(e.engineConfig()), steward.WithServer(server))
	if c := e.cache(); c != nil {
		opts = append(opts, steward.WithCache(c))
	}

	// Try to resolve store from DI container, fall back to option-provided store.
	if s, err := forge.Inject[store.Store](fapp.Container()); err == nil {
		opts = append(opts, steward.WithStore(s))
	}

	// Append user-provided options (may override store).
	opts = append(opts, e.stewardOpts...)

	for _, x := range e.plugins {
		opts = append(opts, steward.WithPlugin(x))
	}

	eng, err := steward.NewEngine(opts...)
	if err != nil {
		return fmt.Errorf("steward: create engine: %w", err)
	}
	e.eng = eng

	e.apiHandler = api.New(eng, fapp.Router())

	if !e.config.DisableRoutes {
		if err := e.apiHandler.RegisterRoutes(fapp.Router()); err != nil {
			return fmt.Errorf("steward: register routes: %w", err)
		}
	}

	return nil
}

// engineConfig maps the extension configuration onto engine defaults.
func (e *Extension) engineConfig() steward.Config {
	cfg := steward.DefaultConfig()
	if e.config.AuditRetention > 0 {
		cfg.AuditRetention = e.config.AuditRetention
	}
	if e.config.RetentionSchedule != "" {
		cfg.RetentionSchedule = e.config.RetentionSchedule
	}
	cfg.DisableRetention = e.config.DisableRetention
	return cfg
}

// cache returns the effective-grant cache, or nil when CacheTTL is unset.
func (e *Extension) cache() steward.Cache {
	if e.config.CacheTTL <= 0 {
		return nil
	}
	return cache.NewMemory(cache.WithTTL(e.config.CacheTTL))
}

// Start runs migrations if enabled and starts the retention scheduler.
func (e *Extension) Start(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("steward: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.eng.Store().Migrate(ctx); err != nil {
			return fmt.Errorf("steward: migration failed: %w", err)
		}
	}

	return e.eng.Start(ctx)
}

// Stop gracefully shuts down the engine and the server connection it owns.
func (e *Extension) Stop(ctx context.Context) error {
	if e.eng == nil {
		return nil
	}
	err := e.eng.Stop(ctx)
	if e.client != nil {
		err = errors.Join(err, e.client.Close())
	}
	return err
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("steward: extension not initialized")
	}
	if err := e.eng.Store().Ping(ctx); err != nil {
		return fmt.Errorf("steward: store: %w", err)
	}
	if e.client != nil {
		if err := e.client.Ping(ctx); err != nil {
			return fmt.Errorf("steward: server: %w", err)
		}
	}
	return nil
}

// Handler returns the HTTP handler for all API routes.
func (e *Extension) Handler() http.Handler {
	if e.apiHandler == nil {
		return http.NotFoundHandler()
	}
	return e.apiHandler.Handler()
}

// RegisterRoutes registers all steward API routes into a Forge router.
func (e *Extension) RegisterRoutes(router forge.Router) error {
	if e.apiHandler != nil {
		return e.apiHandler.RegisterRoutes(router)
	}
	return nil
}
