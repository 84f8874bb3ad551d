package extension

import "time"

// Config holds the Steward extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.steward" or "steward" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for steward routes (default: "/steward").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// DSN is the PostgreSQL-wire address of the managed server. Used when
	// no server is supplied with WithServer.
	DSN string `json:"dsn" mapstructure:"dsn" yaml:"dsn"`

	// StatementTimeout bounds each administrative statement.
	StatementTimeout time.Duration `json:"statement_timeout" mapstructure:"statement_timeout" yaml:"statement_timeout"`

	// AuditRetention is how long audit entries are kept.
	AuditRetention time.Duration `json:"audit_retention" mapstructure:"audit_retention" yaml:"audit_retention"`

	// RetentionSchedule is the cron spec of the audit purge.
	RetentionSchedule string `json:"retention_schedule" mapstructure:"retention_schedule" yaml:"retention_schedule"`

	// DisableRetention turns off the scheduled audit purge.
	DisableRetention bool `json:"disable_retention" mapstructure:"disable_retention" yaml:"disable_retention"`

	// CacheTTL enables the effective-grant cache when positive.
	CacheTTL time.Duration `json:"cache_ttl" mapstructure:"cache_ttl" yaml:"cache_ttl"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:          "/steward",
		StatementTimeout:  30 * time.Second,
		AuditRetention:    90 * 24 * time.Hour,
		RetentionSchedule: "@daily",
	}
}
