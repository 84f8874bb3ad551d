// Package audit records every executed change, successful or not, and
// answers queries and statistics over the history.
package audit

import (
	"errors"
	"time"

	"github.com/xraph/steward/change"
	"github.com/xraph/steward/entity"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/statement"
)

// ErrEntryNotFound is returned when an audit entry does not exist.
var ErrEntryNotFound = errors.New("audit: entry not found")

// DefaultRetention is how long entries are kept.
const DefaultRetention = 90 * 24 * time.Hour

// Entry is an immutable record of one change execution attempt.
type Entry struct {
	ID           id.AuditEntryID `json:"id" db:"id"`
	Timestamp    time.Time       `json:"timestamp" db:"timestamp"`
	Actor        string          `json:"actor" db:"actor"`
	ChangeType   change.Type     `json:"change_type" db:"change_type"`
	EntityType   entity.Type     `json:"entity_type" db:"entity_type"`
	EntityName   string          `json:"entity_name" db:"entity_name"`
	Description  string          `json:"description" db:"description"`
	Statements   []string        `json:"statements" db:"statements"`
	BeforeState  map[string]any  `json:"before_state,omitempty" db:"before_state"`
	AfterState   map[string]any  `json:"after_state,omitempty" db:"after_state"`
	Success      bool            `json:"success" db:"success"`
	ErrorMessage string          `json:"error_message,omitempty" db:"error_message"`
}

// QueryFilter contains filters for querying audit entries.
type QueryFilter struct {
	Actor      string      `json:"actor,omitempty"`
	ChangeType change.Type `json:"change_type,omitempty"`
	EntityType entity.Type `json:"entity_type,omitempty"`
	EntityName string      `json:"entity_name,omitempty"`
	Success    *bool       `json:"success,omitempty"`
	After      *time.Time  `json:"after,omitempty"`
	Before     *time.Time  `json:"before,omitempty"`
	Limit      int         `json:"limit,omitempty"`
	Offset     int         `json:"offset,omitempty"`
}

// Match reports whether e passes every set filter. After and Before are
// inclusive bounds. Limit and Offset are ignored.
func (f *QueryFilter) Match(e *Entry) bool {
	if f == nil {
		return true
	}
	switch {
	case f.Actor != "" && e.Actor != f.Actor:
		return false
	case f.ChangeType != "" && e.ChangeType != f.ChangeType:
		return false
	case f.EntityType != "" && e.EntityType != f.EntityType:
		return false
	case f.EntityName != "" && e.EntityName != f.EntityName:
		return false
	case f.Success != nil && e.Success != *f.Success:
		return false
	case f.After != nil && e.Timestamp.Before(*f.After):
		return false
	case f.Before != nil && e.Timestamp.After(*f.Before):
		return false
	}
	return true
}

// NewEntry builds the audit entry for one execution result.
func NewEntry(c *change.Change, res change.Result, actor string, at time.Time) *Entry {
	e := &Entry{
		ID:          id.NewAuditEntryID(),
		Timestamp:   at.UTC(),
		Actor:       actor,
		ChangeType:  c.Type,
		EntityType:  c.EntityType,
		EntityName:  c.EntityName,
		Description: c.Description,
		Statements:  statement.RedactAll(c.Statements),
		BeforeState: c.BeforeState,
		AfterState:  c.AfterState,
		Success:     res.Success,
	}
	if !res.Success {
		e.ErrorMessage = res.Error
		if e.ErrorMessage == "" {
			e.ErrorMessage = "execution failed"
		}
	}
	return e
}
