package postgres

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
	ID              string         `grove:"id,pk"`
	CreatedAt       time.Time      `grove:"created_at,pk"`
	Actor           string         `grove:"actor,pk"`
	ChangeType      string         `grove:"change_type,notnull"`
	EntityType      string         `grove:"entity_type,notnull"`
	EntityName      string         `grove:"entity_name,notnull"`
	Description     string         `grove:"description"`
	Statements      []string       `grove:"statements,type:jsonb"`
	BeforeState     map[string]any `grove:"before_state,type:jsonb"`
	AfterState      map[string]any `grove:"after_state,type:jsonb"`
	Success         bool           `grove:"success,notnull"`
	ErrorMessage    string         `grove:"error_message"`
}

func auditEntryToModel(e *audit.Entry) *auditEntryModel {
	return &auditEntryModel{
		ID:           e.ID.String(),
		CreatedAt:    e.Timestamp,
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
		Timestamp:    m.CreatedAt.UTC(),
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
