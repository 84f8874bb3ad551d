// Package memory provides an in-memory implementation of the Steward
// composite store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/xraph/steward/audit"
	"github.com/xraph/steward/id"
)

// Compile-time interface checks.
var _ audit.Store = (*Store)(nil)

// Store is a thread-safe in-memory store.
type Store struct {
	mu sync.RWMutex

	auditEntries map[string]*audit.Entry
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		auditEntries: make(map[string]*audit.Entry),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Audit Store
// ──────────────────────────────────────────────────

func (s *Store) CreateAuditEntry(_ context.Context, e *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.auditEntries[e.ID.String()]; exists {
		return fmt.Errorf("audit entry %s already exists", e.ID)
	}
	s.auditEntries[e.ID.String()] = copyAuditEntry(e)
	return nil
}

func (s *Store) GetAuditEntry(_ context.Context, entryID id.AuditEntryID) (*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.auditEntries[entryID.String()]
	if !ok {
		return nil, fmt.Errorf("audit entry %s: %w", entryID, audit.ErrEntryNotFound)
	}
	return copyAuditEntry(e), nil
}

func (s *Store) ListAuditEntries(_ context.Context, filter *audit.QueryFilter) ([]*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*audit.Entry, 0, len(s.auditEntries))
	for _, e := range s.auditEntries {
		if filter.Match(e) {
			result = append(result, copyAuditEntry(e))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].ID.String() > result[j].ID.String()
		}
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return applyPagination(result, paginationOpts(filter)), nil
}

func (s *Store) CountAuditEntries(_ context.Context, filter *audit.QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, e := range s.auditEntries {
		if filter.Match(e) {
			n++
		}
	}
	return n, nil
}

func (s *Store) PurgeAuditEntries(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for k, e := range s.auditEntries {
		if e.Timestamp.Before(before) {
			delete(s.auditEntries, k)
			count++
		}
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func copyAuditEntry(e *audit.Entry) *audit.Entry {
	c := *e
	c.Statements = slices.Clone(e.Statements)
	c.BeforeState = maps.Clone(e.BeforeState)
	c.AfterState = maps.Clone(e.AfterState)
	return &c
}

type pagOpts struct{ limit, offset int }

func paginationOpts(f *audit.QueryFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func applyPagination[T any](items []*T, p pagOpts) []*T {
	if p.offset > 0 && p.offset < len(items) {
		items = items[p.offset:]
	} else if p.offset >= len(items) && p.offset > 0 {
		return nil
	}
	if p.limit > 0 && p.limit < len(items) {
		items = items[:p.limit]
	}
	return items
}
