package entity

import "strings"

// RowPolicy filters the rows of one table that its holders can read.
type RowPolicy struct {
	Name        string   `json:"name" yaml:"name"`
	Database    string   `json:"database" yaml:"database"`
	Table       string   `json:"table" yaml:"table"`
	Condition   string   `json:"condition" yaml:"condition"`
	Restrictive bool     `json:"restrictive,omitempty" yaml:"restrictive,omitempty"`
	Apply       []string `json:"apply_to,omitempty" yaml:"apply_to,omitempty"`
}

// Validate checks required fields.
func (p *RowPolicy) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return invalid(TypeRowPolicy, "", "name", "is required")
	case p.Database == "":
		return invalid(TypeRowPolicy, p.Name, "database", "is required")
	case p.Table == "":
		return invalid(TypeRowPolicy, p.Name, "table", "is required")
	case strings.TrimSpace(p.Condition) == "":
		return invalid(TypeRowPolicy, p.Name, "condition", "is required")
	}
	return nil
}

// State returns an audit snapshot.
func (p *RowPolicy) State() map[string]any { return state(p) }
