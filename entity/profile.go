package entity

import "strings"

// SettingsProfile is a reusable set of settings and constraints.
type SettingsProfile struct {
	Name     string    `json:"name" yaml:"name"`
	Inherit  []string  `json:"inherit,omitempty" yaml:"inherit,omitempty"`
	ReadOnly bool      `json:"readonly,omitempty" yaml:"readonly,omitempty"`
	Settings []Setting `json:"settings,omitempty" yaml:"settings,omitempty"`
	Apply    []string  `json:"apply_to,omitempty" yaml:"apply_to,omitempty"`
}

// Validate checks required fields.
func (p *SettingsProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid(TypeSettingsProfile, "", "name", "is required")
	}
	for _, parent := range p.Inherit {
		if parent == p.Name {
			return invalid(TypeSettingsProfile, p.Name, "inherit", "cannot inherit from itself")
		}
	}
	return validateSettings(TypeSettingsProfile, p.Name, p.Settings)
}

// EffectiveSettings returns the profile's settings with the read-only flag applied.
func (p *SettingsProfile) EffectiveSettings() []Setting {
	return mergeReadonly(p.Settings, p.ReadOnly)
}

// State returns an audit snapshot.
func (p *SettingsProfile) State() map[string]any { return state(p) }
