package plan_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/steward/assignment"
	"github.com/xraph/steward/catalog"
	"github.com/xraph/steward/change"
	"github.com/xraph/steward/entity"
	"github.com/xraph/steward/permission"
	"github.com/xraph/steward/plan"
)

func newPlanner() *plan.Planner { return plan.New(catalog.Default()) }

func TestCreateUser(t *testing.T) {
	u := &entity.User{
		Name:   "alice",
		Auth:   entity.Auth{Secret: "pw"},
		Grants: []permission.Grant{permission.New("SELECT", catalog.Database("sales"))},
		Roles:  assignment.FromNames("analyst"),
	}
	c, err := newPlanner().CreateUser(u)
	require.NoError(t, err)

	assert.Equal(t, change.TypeCreate, c.Type)
	assert.Equal(t, entity.TypeUser, c.EntityType)
	assert.Equal(t, "alice", c.EntityName)
	assert.Equal(t, []string{
		"CREATE USER alice IDENTIFIED WITH sha256_password BY 'pw'",
		"GRANT SELECT ON sales.* TO alice",
		"GRANT analyst TO alice",
		"SET DEFAULT ROLE analyst TO alice",
	}, c.Statements)
	assert.Nil(t, c.BeforeState)
	assert.Equal(t, "[redacted]", c.AfterState["auth"].(map[string]any)["secret"])
	assert.Equal(t, "Create user alice with 1 grant and 1 role", c.Description)
}

func TestCreateUserRejectsInvalidInput(t *testing.T) {
	p := newPlanner()

	_, err := p.CreateUser(&entity.User{})
	assert.ErrorIs(t, err, entity.ErrValidation)

	_, err = p.CreateUser(&entity.User{
		Name:   "alice",
		Grants: []permission.Grant{permission.New("ACCESS_MANAGEMENT", catalog.Database("sales"))},
	})
	assert.ErrorIs(t, err, catalog.ErrInvalidScopeKind)
	assert.Contains(t, err.Error(), "alice")

	_, err = p.CreateUser(&entity.User{
		Name:   "alice",
		Grants: []permission.Grant{permission.New("NOT_A_THING", catalog.Global())},
	})
	assert.ErrorIs(t, err, catalog.ErrNodeNotFound)
}

func TestUpdateUser(t *testing.T) {
	before := &entity.User{
		Name:   "alice",
		Grants: []permission.Grant{permission.New("SELECT", catalog.Database("sales"))},
	}
	after := &entity.User{
		Name:            "alice",
		DefaultDatabase: "sales",
		Grants:          []permission.Grant{permission.New("SELECT", catalog.Table("sales", "orders"))},
	}
	c, err := newPlanner().UpdateUser(before, after)
	require.NoError(t, err)
	assert.Equal(t, change.TypeAlter, c.Type)
	assert.Equal(t, []string{
		"ALTER USER alice DEFAULT DATABASE sales",
		"REVOKE SELECT ON sales.* FROM alice",
		"GRANT SELECT ON sales.orders TO alice",
	}, c.Statements)
	assert.NotNil(t, c.BeforeState)
	assert.NotNil(t, c.AfterState)
}

func TestUpdateUserGrantsOnlyUsesGrantType(t *testing.T) {
	before := &entity.User{
		Name:   "alice",
		Grants: []permission.Grant{permission.New("SELECT", catalog.Database("sales"))},
	}
	after := &entity.User{Name: "alice"}
	c, err := newPlanner().UpdateUser(before, after)
	require.NoError(t, err)
	assert.Equal(t, change.TypeRevoke, c.Type)
}

func TestUpdateUserNoChanges(t *testing.T) {
	u := &entity.User{Name: "alice", Grants: []permission.Grant{permission.New("SELECT", catalog.Global())}}
	_, err := newPlanner().UpdateUser(u, u)
	assert.ErrorIs(t, err, plan.ErrNoChanges)
}

func TestUpdateUserRenameRejected(t *testing.T) {
	_, err := newPlanner().UpdateUser(&entity.User{Name: "alice"}, &entity.User{Name: "bob"})
	var ve *entity.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)
}

func TestGrantsPlan(t *testing.T) {
	p := newPlanner()
	desired := []permission.Grant{
		permission.New("ALTER_TABLE", catalog.Database("sales")),
		permission.New("ALTER_ADD_COLUMN", catalog.Database("sales")),
	}
	c, err := p.Grants(entity.TypeRole, "writer", nil, desired)
	require.NoError(t, err)
	assert.Equal(t, change.TypeGrant, c.Type)
	assert.Equal(t, entity.TypeRole, c.EntityType)
	assert.Equal(t, []string{"GRANT ALTER TABLE ON sales.* TO writer"}, c.Statements)
	assert.Equal(t, "Update grants of role writer (+1 -0)", c.Description)

	c, err = p.Grants(entity.TypeRole, "writer", desired, nil)
	require.NoError(t, err)
	assert.Equal(t, change.TypeRevoke, c.Type)
	assert.Len(t, c.Statements, 2)

	_, err = p.Grants(entity.TypeRole, "writer", desired, desired)
	assert.ErrorIs(t, err, plan.ErrNoChanges)

	_, err = p.Grants(entity.TypeQuota, "q", nil, desired)
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestRolesPlan(t *testing.T) {
	p := newPlanner()
	c, err := p.Roles(entity.TypeUser, "alice", assignment.FromNames("analyst"), assignment.FromNames("writer"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"REVOKE analyst FROM alice",
		"GRANT writer TO alice",
		"SET DEFAULT ROLE writer TO alice",
	}, c.Statements)

	_, err = p.Roles(entity.TypeRole, "writer", nil, assignment.FromNames("writer"))
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestQuotaLifecycle(t *testing.T) {
	p := newPlanner()
	q := &entity.Quota{
		Name:      "daily",
		Intervals: []entity.QuotaInterval{{Length: 1, Unit: "day", Limits: []entity.QuotaLimit{{Resource: "queries", Max: "1000"}}}},
		Apply:     []string{"alice"},
	}
	c, err := p.CreateQuota(q)
	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE QUOTA daily FOR INTERVAL 1 day MAX queries = 1000 TO alice"}, c.Statements)

	_, err = p.UpdateQuota(q, q)
	assert.ErrorIs(t, err, plan.ErrNoChanges)

	next := *q
	next.Apply = []string{"bob"}
	c, err = p.UpdateQuota(q, &next)
	require.NoError(t, err)
	assert.Equal(t, change.TypeAlter, c.Type)
	assert.Equal(t, []string{"CREATE QUOTA OR REPLACE daily FOR INTERVAL 1 day MAX queries = 1000 TO bob"}, c.Statements)

	c, err = p.DropQuota(q)
	require.NoError(t, err)
	assert.Equal(t, []string{"DROP QUOTA daily"}, c.Statements)
	assert.NotNil(t, c.BeforeState)
	assert.Nil(t, c.AfterState)
}

func TestRowPolicyLifecycle(t *testing.T) {
	p := newPlanner()
	rp := &entity.RowPolicy{Name: "eu_only", Database: "sales", Table: "orders", Condition: "region = 'EU'", Apply: []string{"alice"}}

	c, err := p.CreateRowPolicy(rp)
	require.NoError(t, err)
	assert.Equal(t, "Create row policy eu_only", c.Description)
	assert.Equal(t, entity.TypeRowPolicy, c.EntityType)

	moved := *rp
	moved.Table = "invoices"
	_, err = p.UpdateRowPolicy(rp, &moved)
	assert.ErrorIs(t, err, entity.ErrValidation)

	c, err = p.DropRowPolicy(&entity.RowPolicy{Name: "eu_only", Database: "sales", Table: "orders"})
	require.NoError(t, err)
	assert.Equal(t, []string{"DROP ROW POLICY eu_only ON sales.orders"}, c.Statements)
}

func TestSettingsProfileLifecycle(t *testing.T) {
	p := newPlanner()
	sp := &entity.SettingsProfile{Name: "analysts", Settings: []entity.Setting{{Name: "max_threads", Value: "4"}}}

	c, err := p.CreateSettingsProfile(sp)
	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE SETTINGS PROFILE analysts SETTINGS max_threads = 4"}, c.Statements)

	_, err = p.UpdateSettingsProfile(sp, sp)
	assert.ErrorIs(t, err, plan.ErrNoChanges)

	ro := *sp
	ro.ReadOnly = true
	c, err = p.UpdateSettingsProfile(sp, &ro)
	require.NoError(t, err)
	require.Len(t, c.Statements, 1)
	assert.Contains(t, c.Statements[0], "ALTER SETTINGS PROFILE analysts SETTINGS")
	assert.Contains(t, c.Statements[0], "readonly = 1")

	c, err = p.DropSettingsProfile(sp)
	require.NoError(t, err)
	assert.Equal(t, []string{"DROP SETTINGS PROFILE analysts"}, c.Statements)
}

func TestRoleLifecycle(t *testing.T) {
	p := newPlanner()
	r := &entity.Role{Name: "analyst", Grants: []permission.Grant{permission.New("SELECT", catalog.Global())}}

	c, err := p.CreateRole(r)
	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE ROLE analyst", "GRANT SELECT ON *.* TO analyst"}, c.Statements)

	next := *r
	next.Settings = []entity.Setting{{Name: "max_memory_usage", Value: "1000000"}}
	c, err = p.UpdateRole(r, &next)
	require.NoError(t, err)
	assert.Equal(t, []string{"ALTER ROLE analyst SETTINGS max_memory_usage = 1000000"}, c.Statements)

	c, err = p.DropRole(r)
	require.NoError(t, err)
	assert.Equal(t, []string{"DROP ROLE analyst"}, c.Statements)
}

func TestGrantsLogsSuppressedAndSkipped(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := plan.New(catalog.Default(), plan.WithLogger(logger))

	orders := catalog.Table("sales", "orders")
	c, err := p.Grants(entity.TypeUser, "alice",
		[]permission.Grant{permission.New("RETIRED_PRIVILEGE", catalog.Database("sales"))},
		[]permission.Grant{permission.New("ALTER_TABLE", orders), permission.New("ALTER_ADD_COLUMN", orders)},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"GRANT ALTER TABLE ON sales.orders TO alice"}, c.Statements)

	out := buf.String()
	assert.Contains(t, out, "grant implied by parent")
	assert.Contains(t, out, "stale capabilities skipped")
	assert.Contains(t, out, "grantee=alice")
}
