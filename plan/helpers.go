package plan

import (
	"fmt"
	"strings"

	"github.com/xraph/steward/change"
	"github.com/xraph/steward/diff"
	"github.com/xraph/steward/entity"
	"github.com/xraph/steward/permission"
)

// validGrants resolves the scopes of grants, attributing failures to the
// named entity.
func (p *Planner) validGrants(t entity.Type, name string, grants []permission.Grant) ([]permission.Grant, error) {
	out, err := permission.Validate(p.cat, grants)
	if err != nil {
		return nil, fmt.Errorf("%s %q: grants: %w", t, name, err)
	}
	return out, nil
}

func grantee(t entity.Type, name string) error {
	if t != entity.TypeUser && t != entity.TypeRole {
		return &entity.ValidationError{Entity: t, Name: name, Field: "type", Reason: "cannot hold grants"}
	}
	if strings.TrimSpace(name) == "" {
		return &entity.ValidationError{Entity: t, Field: "name", Reason: "is required"}
	}
	return nil
}

func sameName(t entity.Type, before, after string) error {
	if before != after {
		return &entity.ValidationError{Entity: t, Name: before, Field: "name", Reason: "cannot be changed to " + after}
	}
	return nil
}

func grantChangeType(gp diff.GrantPlan) change.Type {
	if gp.RevokesOnly() {
		return change.TypeRevoke
	}
	return change.TypeGrant
}

func grantState(grants []permission.Grant) map[string]any {
	keys := make([]string, len(grants))
	for i, g := range grants {
		keys[i] = g.Key()
	}
	return map[string]any{"grants": keys}
}

func simple(ct change.Type, t entity.Type, name, stmt string, before, after map[string]any) *change.Change {
	verb := map[change.Type]string{
		change.TypeCreate: "Create",
		change.TypeAlter:  "Update",
		change.TypeDrop:   "Drop",
	}[ct]
	return &change.Change{
		Type:        ct,
		EntityType:  t,
		EntityName:  name,
		Description: fmt.Sprintf("%s %s %s", verb, noun(t), name),
		Statements:  []string{stmt},
		BeforeState: before,
		AfterState:  after,
	}
}

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func noun(t entity.Type) string {
	return strings.ToLower(strings.ReplaceAll(string(t), "_", " "))
}

func describeCreate(t entity.Type, name string, grants, roles int) string {
	s := fmt.Sprintf("Create %s %s", noun(t), name)
	var extra []string
	if grants > 0 {
		extra = append(extra, plural(grants, "grant"))
	}
	if roles > 0 {
		extra = append(extra, plural(roles, "role"))
	}
	if len(extra) > 0 {
		s += " with " + strings.Join(extra, " and ")
	}
	return s
}

func describeUpdate(t entity.Type, name string, attrs int, gp diff.GrantPlan, roles int) string {
	var parts []string
	if attrs > 0 {
		parts = append(parts, plural(attrs, "attribute change"))
	}
	if !gp.Empty() {
		parts = append(parts, fmt.Sprintf("+%d -%d grants", len(gp.Granted), len(gp.Revoked)))
	}
	if roles > 0 {
		parts = append(parts, plural(roles, "role statement"))
	}
	return fmt.Sprintf("Update %s %s (%s)", noun(t), name, strings.Join(parts, ", "))
}

func describeGrants(t entity.Type, name string, gp diff.GrantPlan) string {
	return fmt.Sprintf("Update grants of %s %s (+%d -%d)", noun(t), name, len(gp.Granted), len(gp.Revoked))
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
