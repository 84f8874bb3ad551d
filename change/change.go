// Package change defines staged changes: reviewable units of
// administrative statements representing one entity mutation.
package change

import (
	"maps"
	"slices"
	"time"

	"github.com/xraph/steward/entity"
	"github.com/xraph/steward/id"
	"github.com/xraph/steward/statement"
)

// Type is the kind of mutation a change performs.
type Type string

// Change types.
const (
	TypeCreate Type = "CREATE"
	TypeAlter  Type = "ALTER"
	TypeDrop   Type = "DROP"
	TypeGrant  Type = "GRANT"
	TypeRevoke Type = "REVOKE"
)

// Valid reports whether t is a known change type.
func (t Type) Valid() bool {
	switch t {
	case TypeCreate, TypeAlter, TypeDrop, TypeGrant, TypeRevoke:
		return true
	}
	return false
}

// State is the lifecycle position of a change.
type State string

// Change states.
const (
	StateQueued    State = "queued"
	StateExecuting State = "executing"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Change is a pending mutation of one entity. ID and CreatedAt are
// assigned when the change is staged.
type Change struct {
	ID          id.ChangeID    `json:"id"`
	Type        Type           `json:"change_type"`
	EntityType  entity.Type    `json:"entity_type"`
	EntityName  string         `json:"entity_name"`
	Description string         `json:"description"`
	Statements  []string       `json:"statements"`
	BeforeState map[string]any `json:"before_state,omitempty"`
	AfterState  map[string]any `json:"after_state,omitempty"`
	State       State          `json:"state"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Clone returns a copy that shares no slices with c. State maps are
// shallow-copied.
func (c *Change) Clone() *Change {
	out := *c
	out.Statements = slices.Clone(c.Statements)
	out.BeforeState = maps.Clone(c.BeforeState)
	out.AfterState = maps.Clone(c.AfterState)
	return &out
}

// Redacted returns a clone whose statements have password literals
// masked. Everything outside execution sees this form.
func (c *Change) Redacted() *Change {
	out := c.Clone()
	out.Statements = statement.RedactAll(c.Statements)
	return out
}

// RedactAll returns masked clones of changes for display.
func RedactAll(changes []*Change) []*Change {
	out := make([]*Change, len(changes))
	for i, c := range changes {
		out[i] = c.Redacted()
	}
	return out
}

// Result is the outcome of executing one change.
type Result struct {
	ChangeID id.ChangeID `json:"change_id"`
	Success  bool        `json:"success"`
	Error    string      `json:"error,omitempty"`

	// FailedStatement is the statement that failed, verbatim apart from
	// masked password literals.
	FailedStatement string `json:"failed_statement,omitempty"`

	// Executed counts statements that completed before the failure.
	Executed int `json:"executed"`

	Duration time.Duration `json:"duration"`
}
