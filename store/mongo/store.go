// Package mongo provides a MongoDB implementation of the Steward composite
// store using grove's mongo driver.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/steward/audit"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/store"
)

// Collection name constants.
const (
	colAuditLog = "steward_audit_log"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Option configures the MongoDB store.
type Option func(*Store)

// WithTTL sets the expiry of audit documents. Mongo removes expired
// documents in the background; zero disables the TTL index.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// Store is a MongoDB implementation of the composite Steward store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
	ttl time.Duration
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB, opts ...Option) *Store {
	s := &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
		ttl: audit.DefaultRetention,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates indexes for all steward collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes(s.ttl)
	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("steward/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all steward collections.
func migrationIndexes(ttl time.Duration) map[string][]mongod.IndexModel {
	timestamp := mongod.IndexModel{Keys: bson.D{{Key: "timestamp", Value: -1}}}
	if ttl > 0 {
		timestamp = mongod.IndexModel{
			Keys:    bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(ttl / time.Second)),
		}
	}
	return map[string][]mongod.IndexModel{
		colAuditLog: {
			timestamp,
			{Keys: bson.D{{Key: "actor", Value: 1}, {Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "entity_type", Value: 1}, {Key: "entity_name", Value: 1}}},
			{Keys: bson.D{{Key: "success", Value: 1}}},
		},
	}
}

// ──────────────────────────────────────────────────
// Audit operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAuditEntry(ctx context.Context, e *audit.Entry) error {
	m := auditEntryToModel(e)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("steward: create audit entry: %w", err)
	}
	return nil
}

func (s *Store) GetAuditEntry(ctx context.Context, entryID id.AuditEntryID) (*audit.Entry, error) {
	var m auditEntryModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": entryID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("audit entry %s: %w", entryID, audit.ErrEntryNotFound)
		}
		return nil, fmt.Errorf("steward: get audit entry: %w", err)
	}
	return auditEntryFromModel(&m), nil
}

func (s *Store) ListAuditEntries(ctx context.Context, filter *audit.QueryFilter) ([]*audit.Entry, error) {
	var models []auditEntryModel
	q := s.mdb.NewFind(&models).
		Filter(auditFilter(filter)).
		Sort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("steward: list audit entries: %w", err)
	}
	result := make([]*audit.Entry, len(models))
	for i := range models {
		result[i] = auditEntryFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountAuditEntries(ctx context.Context, filter *audit.QueryFilter) (int64, error) {
	count, err := s.mdb.NewFind((*auditEntryModel)(nil)).
		Filter(auditFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("steward: count audit entries: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeAuditEntries(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*auditEntryModel)(nil)).
		Many().
		Filter(bson.M{"timestamp": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("steward: purge audit entries: %w", err)
	}
	return res.DeletedCount(), nil
}

func auditFilter(filter *audit.QueryFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.Actor != "" {
		f["actor"] = filter.Actor
	}
	if filter.ChangeType != "" {
		f["change_type"] = string(filter.ChangeType)
	}
	if filter.EntityType != "" {
		f["entity_type"] = string(filter.EntityType)
	}
	if filter.EntityName != "" {
		f["entity_name"] = filter.EntityName
	}
	if filter.Success != nil {
		f["success"] = *filter.Success
	}
	if filter.After != nil || filter.Before != nil {
		dateFilter := bson.M{}
		if filter.After != nil {
			dateFilter["$gte"] = *filter.After
		}
		if filter.Before != nil {
			dateFilter["$lte"] = *filter.Before
		}
		f["timestamp"] = dateFilter
	}
	return f
}
