// Package diff turns before and after snapshots of access-control state
// into the ordered administrative statements that move one to the other.
// Every function is pure over its inputs and the static catalog.
package diff

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/xraph/steward/catalog"
	"github.com/xraph/steward/permission"
	"github.com/xraph/steward/statement"
)

// GrantPlan is the outcome of diffing two grant sets.
type GrantPlan struct {
	// Statements holds every REVOKE followed by every GRANT.
	Statements []string

	Revoked    []permission.Grant
	Granted    []permission.Grant
	Suppressed []permission.Grant

	// Skipped holds entries whose capability is no longer in the catalog.
	Skipped []permission.Grant
}

// Empty reports whether no statement is needed.
func (p GrantPlan) Empty() bool { return len(p.Statements) == 0 }

// RevokesOnly reports whether the plan only removes access.
func (p GrantPlan) RevokesOnly() bool { return len(p.Revoked) > 0 && len(p.Granted) == 0 }

// Grants computes the statements that turn original into desired for
// grantee. Revokes come first. A new grant is suppressed when its direct
// parent capability appears anywhere in desired, at any scope.
func Grants(cat *catalog.Catalog, grantee string, original, desired []permission.Grant) GrantPlan {
	var plan GrantPlan

	originalKeys := mapset.NewThreadUnsafeSet[string]()
	for _, g := range original {
		originalKeys.Add(g.Key())
	}
	desiredKeys := mapset.NewThreadUnsafeSet[string]()
	desiredIDs := mapset.NewThreadUnsafeSet[string]()
	for _, g := range desired {
		desiredKeys.Add(g.Key())
		desiredIDs.Add(g.PermissionID)
	}

	revoked := mapset.NewThreadUnsafeSet[string]()
	for _, g := range original {
		if desiredKeys.Contains(g.Key()) || !revoked.Add(g.Key()) {
			continue
		}
		node, err := cat.Lookup(g.PermissionID)
		if err != nil {
			plan.Skipped = append(plan.Skipped, g)
			continue
		}
		plan.Revoked = append(plan.Revoked, g)
		plan.Statements = append(plan.Statements, statement.Revoke(node.Keyword, g.Scope, grantee))
	}

	emitted := mapset.NewThreadUnsafeSet[string]()
	for _, g := range desired {
		if originalKeys.Contains(g.Key()) {
			continue
		}
		if parent, ok := cat.ParentOf(g.PermissionID); ok && desiredIDs.Contains(parent) {
			plan.Suppressed = append(plan.Suppressed, g)
			continue
		}
		node, err := cat.Lookup(g.PermissionID)
		if err != nil {
			plan.Skipped = append(plan.Skipped, g)
			continue
		}
		if !emitted.Add(node.Keyword + ":" + catalog.FormatScope(g.Scope)) {
			continue
		}
		plan.Granted = append(plan.Granted, g)
		plan.Statements = append(plan.Statements, statement.Grant(node.Keyword, g.Scope, grantee))
	}

	return plan
}
