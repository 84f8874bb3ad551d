package diff

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/xraph/steward/assignment"
	"github.com/xraph/steward/statement"
)

// Roles computes the statements that turn the original role assignments
// of grantee into desired. Removed roles are revoked, then new roles are
// granted, then admin options are adjusted on kept roles. When the desired
// role set is non-empty and differs from the original, the default roles
// are reset to exactly the desired set.
func Roles(grantee string, original, desired []assignment.Assignment) []string {
	var out []string

	before := make(map[string]assignment.Assignment, len(original))
	for _, a := range original {
		before[a.Role] = a
	}
	after := make(map[string]assignment.Assignment, len(desired))
	for _, a := range desired {
		after[a.Role] = a
	}

	for _, a := range original {
		if _, keep := after[a.Role]; !keep {
			out = append(out, statement.RevokeRole(a.Role, grantee))
		}
	}
	for _, a := range desired {
		if _, had := before[a.Role]; !had {
			out = append(out, statement.GrantRole(a.Role, grantee, a.AdminOption))
		}
	}
	for _, a := range desired {
		prev, had := before[a.Role]
		if !had || prev.AdminOption == a.AdminOption {
			continue
		}
		if a.AdminOption {
			out = append(out, statement.GrantRole(a.Role, grantee, true))
		} else {
			out = append(out, statement.RevokeAdminOption(a.Role, grantee))
		}
	}

	originalNames := mapset.NewThreadUnsafeSet(assignment.Names(original)...)
	desiredNames := mapset.NewThreadUnsafeSet(assignment.Names(desired)...)
	if desiredNames.Cardinality() > 0 && !desiredNames.Equal(originalNames) {
		out = append(out, statement.SetDefaultRole(unique(assignment.Names(desired)), grantee))
	}
	return out
}

func unique(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
