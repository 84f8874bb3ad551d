package cache

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/steward/catalog"
	"github.com/xraph/steward/permission"
)

func grants(role string) []permission.Extended {
	sel := permission.New("SELECT", catalog.Database("sales"))
	if role == "" {
		return []permission.Extended{permission.Direct(sel)}
	}
	return []permission.Extended{permission.FromRole(sel, role)}
}

func TestMemoryCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))

	// Miss
	if _, ok := c.Get(ctx, "alice"); ok {
		t.Fatal("expected cache miss")
	}

	// Set + Hit
	c.Set(ctx, "alice", grants("analyst"))
	got, ok := c.Get(ctx, "alice")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 1 || got[0].Provenance() != "role:analyst" {
		t.Fatalf("unexpected cached grants: %v", got)
	}

	// Returned slices do not alias the cache.
	got[0].Role = "mutated"
	again, _ := c.Get(ctx, "alice")
	if again[0].Role != "analyst" {
		t.Fatal("cache returned aliased grants")
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(1 * time.Millisecond))

	c.Set(ctx, "alice", grants(""))
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get(ctx, "alice"); ok {
		t.Fatal("expected cache miss after TTL expiry")
	}
}

func TestMemoryCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.Set(ctx, "alice", grants(""))
	c.Set(ctx, "bob", grants(""))

	c.Invalidate(ctx, "alice")

	if _, ok := c.Get(ctx, "alice"); ok {
		t.Fatal("alice should be invalidated")
	}
	if _, ok := c.Get(ctx, "bob"); !ok {
		t.Fatal("bob should still be cached")
	}
}

func TestMemoryCacheFlush(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.Set(ctx, "alice", grants(""))
	c.Set(ctx, "bob", grants("analyst"))
	c.Flush(ctx)

	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", c.Len())
	}
}

func TestMemoryCacheMaxSize(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(2))

	for i := 0; i < 5; i++ {
		c.Set(ctx, string(rune('a'+i)), grants(""))
	}

	if c.Len() > 2 {
		t.Fatalf("expected max 2 entries, got %d", c.Len())
	}
}
