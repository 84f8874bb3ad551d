package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/steward/audit"
	"github.com/xraph/steward/change"
	"github.com/xraph/steward/entity"
	"github.com/xraph/steward/id"
)

type auditEntryModel struct {
	grove.BaseModel `grove:"table:steward_audit_log"`
	ID              string    `grove:"id,pk"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	Actor           string    `grove:"actor,notnull"`
	ChangeType      string    `grove:"change_type,notnull"`
	EntityType      string    `grove:"entity_type,notnull"`
	EntityName      string    `grove:"entity_name,notnull"`
	Description     string    `grove:"description"`
	Statements      string    `grove:"statements"`   // JSON text
	BeforeState     string    `grove:"before_state"` // JSON text
	AfterState      string    `grove:"after_state"`  // JSON text
	Success         bool      `grove:"success,notnull"`
	ErrorMessage    string    `grove:"error_message"`
}

func auditEntryToModel(e *audit.Entry) (*auditEntryModel, error) {
	statements, err := json.Marshal(e.Statements)
	if err != nil {
		return nil, fmt.Errorf("marshal audit statements: %w", err)
	}
	before, err := marshalState(e.BeforeState)
	if err != nil {
		return nil, fmt.Errorf("marshal audit before state: %w", err)
	}
	after, err := marshalState(e.AfterState)
	if err != nil {
		return nil, fmt.Errorf("marshal audit after state: %w", err)
	}
	return &auditEntryModel{
		ID:           e.ID.String(),
		CreatedAt:    e.Timestamp,
		Actor:        e.Actor,
		ChangeType:   string(e.ChangeType),
		EntityType:   string(e.EntityType),
		EntityName:   e.EntityName,
		Description:  e.Description,
		Statements:   string(statements),
		BeforeState:  before,
		AfterState:   after,
		Success:      e.Success,
		ErrorMessage: e.ErrorMessage,
	}, nil
}

func auditEntryFromModel(m *auditEntryModel) (*audit.Entry, error) {
	eid, _ := id.ParseAuditEntryID(m.ID) //nolint:errcheck // stored IDs are always valid
	var statements []string
	if m.Statements != "" {
		if err := json.Unmarshal([]byte(m.Statements), &statements); err != nil {
			return nil, fmt.Errorf("unmarshal audit statements: %w", err)
		}
	}
	before, err := unmarshalState(m.BeforeState)
	if err != nil {
		return nil, fmt.Errorf("unmarshal audit before state: %w", err)
	}
	after, err := unmarshalState(m.AfterState)
	if err != nil {
		return nil, fmt.Errorf("unmarshal audit after state: %w", err)
	}
	return &audit.Entry{
		ID:           eid,
		Timestamp:    m.CreatedAt.UTC(),
		Actor:        m.Actor,
		ChangeType:   change.Type(m.ChangeType),
		EntityType:   entity.Type(m.EntityType),
		EntityName:   m.EntityName,
		Description:  m.Description,
		Statements:   statements,
		BeforeState:  before,
		AfterState:   after,
		Success:      m.Success,
		ErrorMessage: m.ErrorMessage,
	}, nil
}

// Absent states are stored as empty text, not "null".
func marshalState(state map[string]any) (string, error) {
	if state == nil {
		return "", nil
	}
	b, err := json.Marshal(state)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalState(s string) (map[string]any, error) {
	if s == "" {
		return nil, nil
	}
	var state map[string]any
	if err := json.Unmarshal([]byte(s), &state); err != nil {
		return nil, err
	}
	return state, nil
}
