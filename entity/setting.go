package entity

import (
	"slices"
	"strconv"
	"strings"
)

// Constraint restricts whether a setting may be changed by the holder.
type Constraint string

// Setting constraints.
const (
	ConstraintNone                 Constraint = ""
	ConstraintConst                Constraint = "CONST"
	ConstraintWritable             Constraint = "WRITABLE"
	ConstraintChangeableInReadonly Constraint = "CHANGEABLE_IN_READONLY"
)

// Setting is a server setting with an optional value range and constraint.
type Setting struct {
	Name       string     `json:"name" yaml:"name"`
	Value      string     `json:"value,omitempty" yaml:"value,omitempty"`
	Min        string     `json:"min,omitempty" yaml:"min,omitempty"`
	Max        string     `json:"max,omitempty" yaml:"max,omitempty"`
	Constraint Constraint `json:"constraint,omitempty" yaml:"constraint,omitempty"`
}

// ReadonlySetting is the setting behind the read-only flag.
const ReadonlySetting = "readonly"

func validateSettings(t Type, name string, settings []Setting) error {
	seen := make(map[string]struct{}, len(settings))
	for _, s := range settings {
		if strings.TrimSpace(s.Name) == "" {
			return invalid(t, name, "settings", "contains a setting without a name")
		}
		if !isSettingName(s.Name) {
			return invalid(t, name, "settings", "has invalid setting name "+strconv.Quote(s.Name))
		}
		if _, dup := seen[s.Name]; dup {
			return invalid(t, name, "settings", "sets "+s.Name+" twice")
		}
		seen[s.Name] = struct{}{}
		switch s.Constraint {
		case ConstraintNone, ConstraintConst, ConstraintWritable, ConstraintChangeableInReadonly:
		default:
			return invalid(t, name, "settings", "has unknown constraint "+string(s.Constraint))
		}
	}
	return nil
}

// isSettingName reports whether n is a plain identifier, the only form
// server setting names take.
func isSettingName(n string) bool {
	for i, r := range n {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return n != ""
}

// IsNumeric reports whether v can be emitted without quoting.
func IsNumeric(v string) bool {
	if v == "" {
		return false
	}
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}

// SettingsEqual compares two setting lists ignoring order.
func SettingsEqual(a, b []Setting) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := sortedSettings(a), sortedSettings(b)
	return slices.Equal(sa, sb)
}

func sortedSettings(in []Setting) []Setting {
	out := slices.Clone(in)
	slices.SortFunc(out, func(x, y Setting) int { return strings.Compare(x.Name, y.Name) })
	return out
}

// SplitReadonly separates the readonly setting from the others and reports
// whether it was set to a non-zero value.
func SplitReadonly(settings []Setting) (bool, []Setting) {
	on := false
	rest := make([]Setting, 0, len(settings))
	for _, s := range settings {
		if s.Name == ReadonlySetting {
			on = s.Value != "" && s.Value != "0"
			continue
		}
		rest = append(rest, s)
	}
	return on, rest
}

// mergeReadonly appends readonly = 1 when on is set.
func mergeReadonly(settings []Setting, on bool) []Setting {
	_, rest := SplitReadonly(settings)
	if on {
		rest = append(rest, Setting{Name: ReadonlySetting, Value: "1"})
	}
	return rest
}
