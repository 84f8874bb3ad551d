package entity

import (
	"strings"

	"github.com/xraph/steward/assignment"
	"github.com/xraph/steward/permission"
)

// Role is a named bundle of grants that users and other roles can hold.
type Role struct {
	Name            string                  `json:"name" yaml:"name"`
	SettingsProfile string                  `json:"settings_profile,omitempty" yaml:"settings_profile,omitempty"`
	Settings        []Setting               `json:"settings,omitempty" yaml:"settings,omitempty"`
	Grants          []permission.Grant      `json:"grants,omitempty" yaml:"grants,omitempty"`
	Roles           []assignment.Assignment `json:"roles,omitempty" yaml:"roles,omitempty"`
}

// Validate checks required fields.
func (r *Role) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid(TypeRole, "", "name", "is required")
	}
	for _, a := range r.Roles {
		if a.Role == r.Name {
			return invalid(TypeRole, r.Name, "roles", "cannot include the role itself")
		}
	}
	return validateSettings(TypeRole, r.Name, r.Settings)
}

// State returns an audit snapshot.
func (r *Role) State() map[string]any { return state(r) }
