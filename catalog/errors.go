package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNodeNotFound is returned when a capability id is not in the catalog.
	ErrNodeNotFound = errors.New("catalog: capability not found")

	// ErrInvalidScope is returned when a scope is malformed.
	ErrInvalidScope = errors.New("catalog: invalid scope")

	// ErrInvalidScopeKind is returned when a capability cannot be granted at a scope kind.
	ErrInvalidScopeKind = errors.New("catalog: invalid scope kind")

	// ErrInvalidCatalog is returned when a catalog definition breaks the tree invariants.
	ErrInvalidCatalog = errors.New("catalog: invalid definition")
)

// ScopeError describes a scope that a capability does not allow.
type ScopeError struct {
	CapabilityID string
	Kind         ScopeKind
	Allowed      []ScopeKind
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("catalog: capability %s cannot be granted at %s scope (allowed: %v)",
		e.CapabilityID, e.Kind, e.Allowed)
}

// Unwrap lets errors.Is match ErrInvalidScopeKind.
func (e *ScopeError) Unwrap() error { return ErrInvalidScopeKind }
