package change

import (
	"fmt"

	"github.com/xraph/steward/id"
)

// Failure identifies the change and statement that stopped a pass.
type Failure struct {
	ChangeID   id.ChangeID `json:"change_id"`
	EntityName string      `json:"entity_name"`
	Statement  string      `json:"statement"`
	Error      string      `json:"error"`
}

// Report summarizes one execution pass.
type Report struct {
	PassID id.PassID `json:"pass_id"`
	Actor  string    `json:"actor"`

	// Total is the number of changes queued when the pass started.
	Total     int `json:"total"`
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`

	// Results holds one entry per attempted change, in queue order.
	Results []Result `json:"results"`

	// Failure is set when a change failed.
	Failure *Failure `json:"failure,omitempty"`
}

// OK reports whether every queued change succeeded.
func (r *Report) OK() bool { return r.Failure == nil && r.Succeeded == r.Total }

// Summary renders a one-line, human-readable outcome.
func (r *Report) Summary() string {
	s := fmt.Sprintf("%d of %d changes succeeded", r.Succeeded, r.Total)
	if r.Failure != nil {
		s += fmt.Sprintf("; %s failed at [%s]: %s", r.Failure.EntityName, r.Failure.Statement, r.Failure.Error)
	} else if r.Attempted < r.Total {
		s += fmt.Sprintf("; %d not attempted", r.Total-r.Attempted)
	}
	return s
}
