package diff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/steward/assignment"
	"github.com/xraph/steward/catalog"
	"github.com/xraph/steward/diff"
	"github.com/xraph/steward/entity"
	"github.com/xraph/steward/permission"
)

var (
	sales  = catalog.Database("sales")
	orders = catalog.Table("sales", "orders")
)

func grant(id string, s catalog.Scope) permission.Grant { return permission.New(id, s) }

func TestGrantsIdempotent(t *testing.T) {
	cat := catalog.Default()
	set := []permission.Grant{
		grant("SELECT", sales),
		grant("ALTER_TABLE", orders),
		grant("ALTER_ADD_COLUMN", orders),
		grant("SYSTEM", catalog.Global()),
	}
	plan := diff.Grants(cat, "alice", set, set)
	assert.True(t, plan.Empty())
	assert.Empty(t, plan.Revoked)
	assert.Empty(t, plan.Granted)
}

func TestGrantsParentSuppression(t *testing.T) {
	cat := catalog.Default()
	desired := []permission.Grant{grant("ALTER_TABLE", orders), grant("ALTER_ADD_COLUMN", orders)}

	plan := diff.Grants(cat, "alice", nil, desired)
	assert.Equal(t, []string{"GRANT ALTER TABLE ON sales.orders TO alice"}, plan.Statements)
	assert.Equal(t, []permission.Grant{grant("ALTER_ADD_COLUMN", orders)}, plan.Suppressed)
}

func TestGrantsSuppressionIgnoresParentScope(t *testing.T) {
	cat := catalog.Default()
	desired := []permission.Grant{grant("ALTER_TABLE", catalog.Database("other")), grant("ALTER_ADD_COLUMN", orders)}

	plan := diff.Grants(cat, "alice", nil, desired)
	assert.Equal(t, []string{"GRANT ALTER TABLE ON other.* TO alice"}, plan.Statements)
}

func TestGrantsSuppressionIsSingleLevel(t *testing.T) {
	cat := catalog.Default()
	desired := []permission.Grant{grant("ALTER", orders), grant("ALTER_ADD_COLUMN", orders)}

	plan := diff.Grants(cat, "alice", nil, desired)
	assert.Equal(t, []string{
		"GRANT ALTER ON sales.orders TO alice",
		"GRANT ALTER ADD COLUMN ON sales.orders TO alice",
	}, plan.Statements)
	assert.Empty(t, plan.Suppressed)
}

func TestGrantsRevokesAreNotSuppressed(t *testing.T) {
	cat := catalog.Default()
	original := []permission.Grant{grant("ALTER_TABLE", orders), grant("ALTER_ADD_COLUMN", orders)}

	plan := diff.Grants(cat, "alice", original, nil)
	assert.Equal(t, []string{
		"REVOKE ALTER TABLE ON sales.orders FROM alice",
		"REVOKE ALTER ADD COLUMN ON sales.orders FROM alice",
	}, plan.Statements)
	assert.True(t, plan.RevokesOnly())
}

func TestGrantsRevokeBeforeGrantOnNarrowing(t *testing.T) {
	cat := catalog.Default()
	plan := diff.Grants(cat, "alice",
		[]permission.Grant{grant("SELECT", sales)},
		[]permission.Grant{grant("SELECT", orders)},
	)
	require.Len(t, plan.Statements, 2)
	assert.Equal(t, "REVOKE SELECT ON sales.* FROM alice", plan.Statements[0])
	assert.Equal(t, "GRANT SELECT ON sales.orders TO alice", plan.Statements[1])
	assert.False(t, plan.RevokesOnly())
}

func TestGrantsDisjointRoundTrip(t *testing.T) {
	cat := catalog.Default()
	a := []permission.Grant{grant("SELECT", sales), grant("INSERT", orders)}
	b := []permission.Grant{grant("TRUNCATE", orders), grant("SHOW_TABLES", catalog.Global())}

	plan := diff.Grants(cat, "alice", a, b)
	assert.Equal(t, a, plan.Revoked)
	assert.Equal(t, b, plan.Granted)

	// Applying the plan to a yields b.
	state := map[string]permission.Grant{}
	for _, g := range a {
		state[g.Key()] = g
	}
	for _, g := range plan.Revoked {
		delete(state, g.Key())
	}
	for _, g := range plan.Granted {
		state[g.Key()] = g
	}
	assert.Len(t, state, len(b))
	for _, g := range b {
		assert.Contains(t, state, g.Key())
	}
}

func TestGrantsSkipsStaleIDs(t *testing.T) {
	cat := catalog.Default()
	plan := diff.Grants(cat, "alice",
		[]permission.Grant{grant("RETIRED_PRIVILEGE", sales)},
		[]permission.Grant{grant("SELECT", sales)},
	)
	assert.Equal(t, []string{"GRANT SELECT ON sales.* TO alice"}, plan.Statements)
	assert.Equal(t, []permission.Grant{grant("RETIRED_PRIVILEGE", sales)}, plan.Skipped)
}

func TestGrantsDedupOnKeywordAndScope(t *testing.T) {
	cat := catalog.Default()
	plan := diff.Grants(cat, "alice", nil, []permission.Grant{
		grant("SELECT", sales),
		grant("SELECT", catalog.Scope{Kind: catalog.ScopeDatabase, Database: "sales"}),
		grant("SELECT", orders),
	})
	assert.Equal(t, []string{
		"GRANT SELECT ON sales.* TO alice",
		"GRANT SELECT ON sales.orders TO alice",
	}, plan.Statements)
}

func TestRoles(t *testing.T) {
	original := []assignment.Assignment{{Role: "analyst"}, {Role: "auditor", AdminOption: true}, {Role: "legacy"}}
	desired := []assignment.Assignment{{Role: "analyst", AdminOption: true}, {Role: "auditor"}, {Role: "writer"}}

	assert.Equal(t, []string{
		"REVOKE legacy FROM alice",
		"GRANT writer TO alice",
		"GRANT analyst TO alice WITH ADMIN OPTION",
		"REVOKE ADMIN OPTION FOR auditor FROM alice",
		"SET DEFAULT ROLE analyst, auditor, writer TO alice",
	}, diff.Roles("alice", original, desired))
}

func TestRolesNoDefaultResetWhenEmptyOrUnchanged(t *testing.T) {
	assert.Equal(t, []string{"REVOKE analyst FROM alice"},
		diff.Roles("alice", assignment.FromNames("analyst"), nil))
	assert.Empty(t, diff.Roles("alice", assignment.FromNames("a", "b"), assignment.FromNames("b", "a")))
}

func TestUserAttributes(t *testing.T) {
	before := &entity.User{Name: "alice", DefaultDatabase: "sales"}
	after := &entity.User{
		Name:            "alice",
		DefaultDatabase: "marketing",
		Hosts:           entity.Hosts{IP: []string{"10.0.0.0/8"}},
		ReadOnly:        true,
		Grantees:        entity.Grantees{None: true},
	}
	assert.Equal(t, []string{
		"ALTER USER alice HOST IP '10.0.0.0/8'",
		"ALTER USER alice DEFAULT DATABASE marketing",
		"ALTER USER alice SETTINGS readonly = 1",
		"ALTER USER alice GRANTEES NONE",
	}, diff.UserAttributes(before, after))

	assert.Empty(t, diff.UserAttributes(after, after))

	pw := &entity.User{Name: "alice", Auth: entity.Auth{Secret: "new"}}
	assert.Equal(t, []string{"ALTER USER alice IDENTIFIED WITH sha256_password BY 'new'"},
		diff.UserAttributes(&entity.User{Name: "alice"}, pw))
}

func TestUserAttributesCombineSettings(t *testing.T) {
	before := &entity.User{Name: "alice"}
	after := &entity.User{
		Name:            "alice",
		SettingsProfile: "analysts",
		ReadOnly:        true,
		Settings:        []entity.Setting{{Name: "max_threads", Value: "4"}},
	}
	assert.Equal(t, []string{
		"ALTER USER alice SETTINGS PROFILE 'analysts', max_threads = 4, readonly = 1",
	}, diff.UserAttributes(before, after))
}

func TestRoleAndProfileAttributes(t *testing.T) {
	assert.Equal(t, []string{"ALTER ROLE analyst SETTINGS PROFILE 'readers'"},
		diff.RoleAttributes(&entity.Role{Name: "analyst"}, &entity.Role{Name: "analyst", SettingsProfile: "readers"}))
	assert.Empty(t, diff.RoleAttributes(&entity.Role{Name: "analyst"}, &entity.Role{Name: "analyst"}))

	before := &entity.SettingsProfile{Name: "p"}
	after := &entity.SettingsProfile{Name: "p", ReadOnly: true}
	assert.Equal(t, []string{"ALTER SETTINGS PROFILE p SETTINGS readonly = 1"}, diff.ProfileAttributes(before, after))
	assert.Empty(t, diff.ProfileAttributes(after, after))
}
