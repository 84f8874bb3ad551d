package permission

import "context"

// Reader reads the grants held directly by an identity (a user or a role).
type Reader interface {
	// ListGrants returns the grants held directly by identity.
	ListGrants(ctx context.Context, identity string) ([]Grant, error)
}
