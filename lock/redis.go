package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis key used when none is configured.
const DefaultKey = "steward:execution-lock"

// DefaultTTL bounds how long a crashed holder keeps the lock.
const DefaultTTL = 30 * time.Second

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Redis is a Locker shared by every process using the same key. The lock
// expires after the TTL unless its holder is alive to refresh it.
type Redis struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

// RedisOption configures a Redis lock.
type RedisOption func(*Redis)

// WithKey sets the Redis key.
func WithKey(key string) RedisOption { return func(r *Redis) { r.key = key } }

// WithTTL sets the lock expiry. Values under a millisecond fall back to
// DefaultTTL.
func WithTTL(ttl time.Duration) RedisOption { return func(r *Redis) { r.ttl = ttl } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) RedisOption { return func(r *Redis) { r.logger = l } }

// NewRedis creates a Redis-backed lock.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{client: client, key: DefaultKey, ttl: DefaultTTL, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	if r.ttl < time.Millisecond {
		r.ttl = DefaultTTL
	}
	return r
}

// Acquire sets the key if absent and keeps it alive until release is called.
func (r *Redis) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("lock: acquire %s: %w", r.key, err)
	}
	if !ok {
		return nil, ErrHeld
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go r.keepAlive(token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			if err := releaseScript.Run(context.Background(), r.client, []string{r.key}, token).Err(); err != nil {
				r.logger.Warn("execution lock release failed", "key", r.key, "error", err)
			}
		})
	}, nil
}

func (r *Redis) keepAlive(token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(r.ttl / 3)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			err := refreshScript.Run(context.Background(), r.client, []string{r.key}, token, r.ttl.Milliseconds()).Err()
			if err != nil {
				r.logger.Warn("execution lock refresh failed", "key", r.key, "error", err)
			}
		}
	}
}
