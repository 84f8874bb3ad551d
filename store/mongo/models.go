package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/steward/audit"
	"github.com/xraph/steward/change"
	"github.com/xraph/steward/entity"
	"github.com/xraph/steward/id"
)

// ──────────────────────────────────────────────────
// Audit entry model
// ──────────────────────────────────────────────────

type auditEntryModel struct {
	grove.BaseModel `grove:"table:steward_audit_log"`
	ID              string         `grove:"id,pk"           bson:"_id"`
	Timestamp       time.Time      `grove:"timestamp"       bson:"timestamp"`
	Actor           string         `grove:"actor"           bson:"actor"`
	ChangeType      string         `grove:"change_type"     bson:"change_type"`
	EntityType      string         `grove:"entity_type"     bson:"entity_type"`
	EntityName      string         `grove:"entity_name"     bson:"entity_name"`
	Description     string         `grove:"description"     bson:"description"`
	Statements      []string       `grove:"statements"      bson:"statements"`
	BeforeState     map[string]any `grove:"before_state"    bson:"before_state,omitempty"`
	AfterState      map[string]any `grove:"after_state"     bson:"after_state,omitempty"`
	Success         bool           `grove:"success"         bson:"success"`
	ErrorMessage    string         `grove:"error_message"   bson:"error_message,omitempty"`
}

func auditEntryToModel(e *audit.Entry) *auditEntryModel {
	return &auditEntryModel{
		ID:           e.ID.String(),
		Timestamp:    e.Timestamp,
		Actor:        e.Actor,
		ChangeType:   string(e.ChangeType),
		EntityType:   string(e.EntityType),
		EntityName:   e.EntityName,
		Description:  e.Description,
		Statements:   e.Statements,
		BeforeState:  e.BeforeState,
		AfterState:   e.AfterState,
		Success:      e.Success,
		ErrorMessage: e.ErrorMessage,
	}
}

func auditEntryFromModel(m *auditEntryModel) *audit.Entry {
	eid, _ := id.ParseAuditEntryID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &audit.Entry{
		ID:           eid,
		Timestamp:    m.Timestamp.UTC(),
		Actor:        m.Actor,
		ChangeType:   change.Type(m.ChangeType),
		EntityType:   entity.Type(m.EntityType),
		EntityName:   m.EntityName,
		Description:  m.Description,
		Statements:   m.Statements,
		BeforeState:  m.BeforeState,
		AfterState:   m.AfterState,
		Success:      m.Success,
		ErrorMessage: m.ErrorMessage,
	}
}
