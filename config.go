package steward

import "time"

// Config holds configuration for the Steward engine.
type Config struct {
	// AuditRetention is how long audit entries are kept.
	// Defaults to 90 days.
	AuditRetention time.Duration `json:"audit_retention,omitempty"`

	// RetentionSchedule is the cron spec of the audit purge.
	// Defaults to "@daily".
	RetentionSchedule string `json:"retention_schedule,omitempty"`

	// DisableRetention turns off the scheduled purge.
	DisableRetention bool `json:"disable_retention,omitempty"`

	// RecentDays is the window of the per-day audit statistics.
	// Defaults to 7.
	RecentDays int `json:"recent_days,omitempty"`

	// ResolveConcurrency bounds parallel per-role grant reads during
	// effective-grant resolution. Defaults to 8.
	ResolveConcurrency int `json:"resolve_concurrency,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		AuditRetention:     90 * 24 * time.Hour,
		RetentionSchedule:  "@daily",
		RecentDays:         7,
		ResolveConcurrency: 8,
	}
}
