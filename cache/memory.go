// Package cache provides caching implementations for effective-grant
// resolutions.
package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/xraph/steward"
	"github.com/xraph/steward/permission"
)

// Compile-time interface check.
var _ steward.Cache = (*Memory)(nil)

// Memory is an in-memory cache with TTL-based expiration.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	maxSize int
}

type entry struct {
	grants    []permission.Extended
	expiresAt time.Time
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the cache entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of cache entries.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates a new in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]*entry),
		ttl:     time.Minute,
		maxSize: 1000,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a copy of the cached resolution.
func (m *Memory) Get(_ context.Context, identity string) ([]permission.Extended, bool) {
	m.mu.RLock()
	e, ok := m.entries[identity]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, identity)
		m.mu.Unlock()
		return nil, false
	}
	return slices.Clone(e.grants), true
}

// Set stores a copy of grants.
func (m *Memory) Set(_ context.Context, identity string, grants []permission.Extended) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[identity]; !exists && len(m.entries) >= m.maxSize {
		m.evictExpired()
		if len(m.entries) >= m.maxSize {
			m.evictOne()
		}
	}

	m.entries[identity] = &entry{
		grants:    slices.Clone(grants),
		expiresAt: time.Now().Add(m.ttl),
	}
}

// Invalidate removes one identity's resolution.
func (m *Memory) Invalidate(_ context.Context, identity string) {
	m.mu.Lock()
	delete(m.entries, identity)
	m.mu.Unlock()
}

// Flush removes every resolution. Role changes can affect any identity
// holding the role, so execution passes flush rather than invalidate.
func (m *Memory) Flush(_ context.Context) {
	m.mu.Lock()
	clear(m.entries)
	m.mu.Unlock()
}

// Len returns the number of cached resolutions, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// evictExpired removes all expired entries. Must hold write lock.
func (m *Memory) evictExpired() {
	now := time.Now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// evictOne removes the entry closest to expiry. Must hold write lock.
func (m *Memory) evictOne() {
	var (
		oldest string
		at     time.Time
	)
	for k, e := range m.entries {
		if oldest == "" || e.expiresAt.Before(at) {
			oldest, at = k, e.expiresAt
		}
	}
	delete(m.entries, oldest)
}
