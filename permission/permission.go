// Package permission defines granted permissions: a capability from the
// catalog bound to a scope, optionally tagged with where it came from.
package permission

import (
	"fmt"

	"github.com/xraph/steward/catalog"
)

// Grant is a capability granted at a scope. Two grants are the same grant
// when both the capability and the scope match.
type Grant struct {
	PermissionID string        `json:"permission_id" yaml:"permission"`
	Scope        catalog.Scope `json:"scope" yaml:"scope"`
}

// New returns a grant of permissionID at scope.
func New(permissionID string, scope catalog.Scope) Grant {
	return Grant{PermissionID: permissionID, Scope: scope}
}

// Key identifies the grant for set operations.
func (g Grant) Key() string {
	return g.PermissionID + "@" + catalog.FormatScope(g.Scope)
}

func (g Grant) String() string { return g.Key() }

// Source records where an effective grant came from.
type Source string

// Grant sources.
const (
	SourceDirect Source = "direct"
	SourceRole   Source = "role"
)

// Extended is a grant with its provenance. Role is set when Source is
// SourceRole.
type Extended struct {
	Grant
	Source Source `json:"source"`
	Role   string `json:"role,omitempty"`
}

// Direct tags g as held directly by the identity.
func Direct(g Grant) Extended { return Extended{Grant: g, Source: SourceDirect} }

// FromRole tags g as inherited through role.
func FromRole(g Grant, role string) Extended {
	return Extended{Grant: g, Source: SourceRole, Role: role}
}

// Provenance renders the source as "direct" or "role:<name>".
func (e Extended) Provenance() string {
	if e.Source == SourceRole {
		return fmt.Sprintf("role:%s", e.Role)
	}
	return string(e.Source)
}

// Dedup drops repeated grants, keeping the first occurrence.
func Dedup(grants []Grant) []Grant {
	seen := make(map[string]struct{}, len(grants))
	out := make([]Grant, 0, len(grants))
	for _, g := range grants {
		k := g.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, g)
	}
	return out
}

// Validate resolves every grant's scope against the catalog and returns
// the normalized grants.
func Validate(cat *catalog.Catalog, grants []Grant) ([]Grant, error) {
	out := make([]Grant, 0, len(grants))
	for _, g := range grants {
		s, err := cat.ResolveScope(g.PermissionID, g.Scope)
		if err != nil {
			return nil, err
		}
		out = append(out, Grant{PermissionID: g.PermissionID, Scope: s})
	}
	return out, nil
}
