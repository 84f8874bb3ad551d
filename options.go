package steward

import (
	"log/slog"

	"github.com/xraph/steward/catalog"
	"github.com/xraph/steward/lock"
	"github.com/xraph/steward/plugin"
	"github.com/xraph/steward/store"
)

// Option is a functional option for the Engine.
type Option func(*Engine)

// WithStore sets the composite store that holds the audit log.
func WithStore(s store.Store) Option { return func(e *Engine) { e.store = s } }

// WithServer sets the managed database server.
func WithServer(s Server) Option { return func(e *Engine) { e.server = s } }

// WithCatalog sets the privilege catalog. Defaults to catalog.Default().
func WithCatalog(c *catalog.Catalog) Option { return func(e *Engine) { e.cat = c } }

// WithCache sets the effective-grant cache.
func WithCache(c Cache) Option { return func(e *Engine) { e.cache = c } }

// WithLocker sets the guard that keeps execution passes exclusive.
// Defaults to an in-process lock.
func WithLocker(l lock.Locker) Option { return func(e *Engine) { e.locker = l } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithConfig sets the engine configuration.
func WithConfig(c Config) Option { return func(e *Engine) { e.config = c } }

// WithPlugin registers a plugin with the engine.
func WithPlugin(x plugin.Plugin) Option {
	return func(e *Engine) {
		if e.plugins == nil {
			e.plugins = plugin.NewRegistry(e.logger)
		}
		e.plugins.Register(x)
	}
}
