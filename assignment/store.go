package assignment

import "context"

// Reader reads the roles assigned to an identity.
type Reader interface {
	// ListRoleAssignments returns the roles granted to identity.
	ListRoleAssignments(ctx context.Context, identity string) ([]Assignment, error)
}
