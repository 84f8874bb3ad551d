package clickhouse

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/steward/audit"
	"github.com/xraph/steward/change"
	"github.com/xraph/steward/entity"
	"github.com/xraph/steward/id"
)

// row is the text encoding of an audit entry.
type row struct {
	id           string
	timestamp    string
	actor        string
	changeType   string
	entityType   string
	entityName   string
	description  string
	statements   string
	beforeState  string
	afterState   string
	success      int
	errorMessage string
}

func toRow(e *audit.Entry) (row, error) {
	statements, err := json.Marshal(e.Statements)
	if err != nil {
		return row{}, fmt.Errorf("marshal audit statements: %w", err)
	}
	before, err := marshalState(e.BeforeState)
	if err != nil {
		return row{}, fmt.Errorf("marshal audit before state: %w", err)
	}
	after, err := marshalState(e.AfterState)
	if err != nil {
		return row{}, fmt.Errorf("marshal audit after state: %w", err)
	}
	r := row{
		id:           e.ID.String(),
		timestamp:    e.Timestamp.UTC().Format(timeLayout),
		actor:        e.Actor,
		changeType:   string(e.ChangeType),
		entityType:   string(e.EntityType),
		entityName:   e.EntityName,
		description:  e.Description,
		statements:   string(statements),
		beforeState:  before,
		afterState:   after,
		errorMessage: e.ErrorMessage,
	}
	if e.Success {
		r.success = 1
	}
	return r, nil
}

func (r row) toEntry() (*audit.Entry, error) {
	eid, _ := id.ParseAuditEntryID(r.id) //nolint:errcheck // stored IDs are always valid
	ts, err := time.ParseInLocation(timeLayout, r.timestamp, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parse audit timestamp: %w", err)
	}
	var statements []string
	if r.statements != "" {
		if err := json.Unmarshal([]byte(r.statements), &statements); err != nil {
			return nil, fmt.Errorf("unmarshal audit statements: %w", err)
		}
	}
	before, err := unmarshalState(r.beforeState)
	if err != nil {
		return nil, fmt.Errorf("unmarshal audit before state: %w", err)
	}
	after, err := unmarshalState(r.afterState)
	if err != nil {
		return nil, fmt.Errorf("unmarshal audit after state: %w", err)
	}
	return &audit.Entry{
		ID:           eid,
		Timestamp:    ts,
		Actor:        r.actor,
		ChangeType:   change.Type(r.changeType),
		EntityType:   entity.Type(r.entityType),
		EntityName:   r.entityName,
		Description:  r.description,
		Statements:   statements,
		BeforeState:  before,
		AfterState:   after,
		Success:      r.success == 1,
		ErrorMessage: r.errorMessage,
	}, nil
}

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
