package extension

import (
	"testing"
	"time"

	"github.com/xraph/steward"
)

func TestEngineConfig(t *testing.T) {
	e := New(WithConfig(Config{
		AuditRetention:    24 * time.Hour,
		RetentionSchedule: "@hourly",
		DisableRetention:  true,
	}))
	cfg := e.engineConfig()
	if cfg.AuditRetention != 24*time.Hour || cfg.RetentionSchedule != "@hourly" || !cfg.DisableRetention {
		t.Fatalf("unexpected engine config: %+v", cfg)
	}
	if cfg.RecentDays != steward.DefaultConfig().RecentDays {
		t.Fatalf("RecentDays = %d, want default", cfg.RecentDays)
	}

	def := New().engineConfig()
	if def.AuditRetention != steward.DefaultConfig().AuditRetention || def.RetentionSchedule != "@daily" {
		t.Fatalf("defaults not kept: %+v", def)
	}
}

func TestCacheFollowsTTL(t *testing.T) {
	if c := New().cache(); c != nil {
		t.Fatal("cache enabled without a TTL")
	}
	if c := New(WithConfig(Config{CacheTTL: time.Minute})).cache(); c == nil {
		t.Fatal("cache disabled with a TTL")
	}
}
