package cli

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	maxWalkDepth = 25
)

// Audit backends selectable from the config file.
const (
	AuditBackendClickHouse = "clickhouse"
	AuditBackendMemory     = "memory"
)

// Config represents the steward configuration from steward.yaml.
type Config struct {
	// Actor is recorded in the audit log for changes executed by this CLI.
	Actor string `mapstructure:"actor"`

	Database DatabaseConfig `mapstructure:"database"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Lock     LockConfig     `mapstructure:"lock"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// DatabaseConfig holds the ClickHouse connection settings. Steward talks to
// ClickHouse over its PostgreSQL wire interface.
type DatabaseConfig struct {
	URL              string        `mapstructure:"url"`
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	Name             string        `mapstructure:"name"`
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	SSLMode          string        `mapstructure:"sslmode"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
}

// AuditConfig selects where the audit log is kept.
type AuditConfig struct {
	Backend   string        `mapstructure:"backend"`
	Table     string        `mapstructure:"table"`
	Retention time.Duration `mapstructure:"retention"`
}

// LockConfig enables the cross-process execution lock. Without an address
// the lock is local to the process.
type LockConfig struct {
	RedisAddr string        `mapstructure:"redis_addr"`
	Key       string        `mapstructure:"key"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// MetricsConfig enables metric collection for the command run.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("STEWARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, configPath, err
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("actor", "")

	// Database defaults
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 9005)
	v.SetDefault("database.name", "default")
	v.SetDefault("database.user", "default")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.statement_timeout", 30*time.Second)

	// Audit defaults
	v.SetDefault("audit.backend", AuditBackendClickHouse)
	v.SetDefault("audit.table", "steward_audit_log")
	v.SetDefault("audit.retention", 90*24*time.Hour)

	// Lock defaults
	v.SetDefault("lock.redis_addr", "")
	v.SetDefault("lock.key", "steward:execution-lock")
	v.SetDefault("lock.ttl", 30*time.Second)

	v.SetDefault("metrics.enabled", false)
}

// Validate checks settings that have no sensible fallback.
func (c *Config) Validate() error {
	switch c.Audit.Backend {
	case AuditBackendClickHouse, AuditBackendMemory:
	default:
		return fmt.Errorf("audit.backend must be %q or %q, got %q",
			AuditBackendClickHouse, AuditBackendMemory, c.Audit.Backend)
	}
	if c.Audit.Retention < 0 {
		return fmt.Errorf("audit.retention must not be negative")
	}
	return nil
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for steward.yaml or steward.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range []string{"steward.yaml", "steward.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}

// DSN returns the database connection string.
// If database.url is set, it's returned directly.
// Otherwise, builds a DSN from discrete fields.
func (c *Config) DSN() (string, error) {
	db := c.Database

	if db.URL != "" {
		return db.URL, nil
	}

	if db.Host == "" {
		return "", fmt.Errorf("database.host is required when database.url is not set")
	}
	if db.User == "" {
		return "", fmt.Errorf("database.user is required when database.url is not set")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   "/" + db.Name,
	}

	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	} else {
		u.User = url.User(db.User)
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}
