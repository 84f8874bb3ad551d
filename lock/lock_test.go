package lock_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/steward/lock"
)

func TestLocal(t *testing.T) {
	ctx := context.Background()
	l := lock.NewLocal()

	release, err := l.Acquire(ctx)
	require.NoError(t, err)

	_, err = l.Acquire(ctx)
	assert.ErrorIs(t, err, lock.ErrHeld)

	release()
	release()

	release, err = l.Acquire(ctx)
	require.NoError(t, err)
	release()
}

func TestRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	a := lock.NewRedis(client, lock.WithKey("test-lock"), lock.WithTTL(3*time.Second))
	b := lock.NewRedis(client, lock.WithKey("test-lock"))

	release, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test-lock"))

	_, err = b.Acquire(ctx)
	assert.ErrorIs(t, err, lock.ErrHeld)

	release()
	assert.False(t, mr.Exists("test-lock"))

	release, err = b.Acquire(ctx)
	require.NoError(t, err)
	release()
}

func TestRedisReleaseKeepsForeignToken(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := lock.NewRedis(client, lock.WithKey("k"), lock.WithTTL(time.Second))
	release, err := l.Acquire(ctx)
	require.NoError(t, err)

	// Simulate expiry and takeover by another holder.
	require.NoError(t, mr.Set("k", "someone-else"))
	release()

	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisNonPositiveTTLUsesDefault(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	for _, ttl := range []time.Duration{0, -time.Second, 2} {
		l := lock.NewRedis(client, lock.WithKey("ttl-lock"), lock.WithTTL(ttl))
		release, err := l.Acquire(ctx)
		require.NoError(t, err, ttl)
		assert.Equal(t, lock.DefaultTTL, mr.TTL("ttl-lock"), ttl)
		release()
	}
}
