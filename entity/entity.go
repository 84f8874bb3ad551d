// Package entity defines the access-control entities Steward manages:
// users, roles, quotas, row policies and settings profiles.
package entity

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Type names an entity kind.
type Type string

// Entity types.
const (
	TypeUser            Type = "USER"
	TypeRole            Type = "ROLE"
	TypeQuota           Type = "QUOTA"
	TypeRowPolicy       Type = "ROW_POLICY"
	TypeSettingsProfile Type = "SETTINGS_PROFILE"
)

// Valid reports whether t is a known entity type.
func (t Type) Valid() bool {
	switch t {
	case TypeUser, TypeRole, TypeQuota, TypeRowPolicy, TypeSettingsProfile:
		return true
	}
	return false
}

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("entity: validation failed")

// ValidationError reports an invalid field on a named entity.
type ValidationError struct {
	Entity Type
	Name   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %s %s", e.Entity, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s %s", e.Entity, e.Name, e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(t Type, name, field, reason string) error {
	return &ValidationError{Entity: t, Name: name, Field: field, Reason: reason}
}

// state converts a definition to a generic map for audit snapshots.
func state(v any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}
