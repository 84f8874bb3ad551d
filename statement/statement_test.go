package statement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/steward/catalog"
	"github.com/xraph/steward/entity"
	"github.com/xraph/steward/statement"
)

func TestGrantRevoke(t *testing.T) {
	assert.Equal(t, "GRANT SELECT ON sales.* TO alice",
		statement.Grant("SELECT", catalog.Database("sales"), "alice"))
	assert.Equal(t, "REVOKE ALTER ADD COLUMN ON sales.orders FROM alice",
		statement.Revoke("ALTER ADD COLUMN", catalog.Table("sales", "orders"), "alice"))
	assert.Equal(t, "GRANT INSERT ON *.* TO `data-team`",
		statement.Grant("INSERT", catalog.Global(), "data-team"))
}

func TestRoleStatements(t *testing.T) {
	assert.Equal(t, "GRANT analyst TO alice", statement.GrantRole("analyst", "alice", false))
	assert.Equal(t, "GRANT analyst TO alice WITH ADMIN OPTION", statement.GrantRole("analyst", "alice", true))
	assert.Equal(t, "REVOKE analyst FROM alice", statement.RevokeRole("analyst", "alice"))
	assert.Equal(t, "REVOKE ADMIN OPTION FOR analyst FROM alice", statement.RevokeAdminOption("analyst", "alice"))
	assert.Equal(t, "SET DEFAULT ROLE analyst, writer TO alice", statement.SetDefaultRole([]string{"analyst", "writer"}, "alice"))
	assert.Equal(t, "SET DEFAULT ROLE NONE TO alice", statement.SetDefaultRole(nil, "alice"))
}

func TestStringLiteralEscaping(t *testing.T) {
	assert.Equal(t, `'it\'s'`, statement.String("it's"))
	assert.Equal(t, `'a\\b'`, statement.String(`a\b`))
}

func TestCreateUser(t *testing.T) {
	u := &entity.User{
		Name:            "alice",
		Auth:            entity.Auth{Secret: "pw"},
		Hosts:           entity.Hosts{IP: []string{"10.0.0.0/8"}},
		DefaultDatabase: "sales",
		SettingsProfile: "analysts",
		ReadOnly:        true,
		Grantees:        entity.Grantees{None: true},
	}
	assert.Equal(t,
		"CREATE USER alice IDENTIFIED WITH sha256_password BY 'pw' HOST IP '10.0.0.0/8' "+
			"DEFAULT DATABASE sales SETTINGS PROFILE 'analysts', readonly = 1 GRANTEES NONE",
		statement.CreateUser(u))

	assert.Equal(t, "CREATE USER bob IDENTIFIED WITH no_password", statement.CreateUser(&entity.User{Name: "bob"}))
}

func TestClauses(t *testing.T) {
	assert.Equal(t, "HOST ANY", statement.Host(entity.Hosts{}))
	assert.Equal(t, "HOST LOCAL, LIKE '%.corp'", statement.Host(entity.Hosts{Local: true, Like: []string{"%.corp"}}))
	assert.Equal(t, "DEFAULT DATABASE NONE", statement.DefaultDatabase(""))
	assert.Equal(t, "GRANTEES ANY", statement.Grantees(entity.Grantees{}))
	assert.Equal(t, "GRANTEES ANY EXCEPT bob", statement.Grantees(entity.Grantees{Except: []string{"bob"}}))
	assert.Equal(t, "GRANTEES alice, carol", statement.Grantees(entity.Grantees{Names: []string{"alice", "carol"}}))
	assert.Equal(t, "SETTINGS NONE", statement.Settings("", nil))
	assert.Equal(t, "max_threads = 4 MIN 1 MAX 8 CONST",
		statement.Setting(entity.Setting{Name: "max_threads", Value: "4", Min: "1", Max: "8", Constraint: entity.ConstraintConst}))
	assert.Equal(t, "load_balancing = 'random'", statement.Setting(entity.Setting{Name: "load_balancing", Value: "random"}))
}

func TestSettingNameIsQuoted(t *testing.T) {
	p := &entity.SettingsProfile{
		Name:     "p",
		Settings: []entity.Setting{{Name: "max_threads = 1 TO ALL; DROP USER admin --", Value: "2"}},
	}
	assert.Equal(t, "CREATE SETTINGS PROFILE p SETTINGS `max_threads = 1 TO ALL; DROP USER admin --` = 2",
		statement.CreateSettingsProfile(p))
}

func TestQuota(t *testing.T) {
	q := &entity.Quota{
		Name:    "daily",
		KeyedBy: "user_name",
		Intervals: []entity.QuotaInterval{
			{Length: 1, Unit: "hour", Limits: []entity.QuotaLimit{{Resource: "queries", Max: "100"}, {Resource: "errors", Max: "10"}}},
			{Length: 1, Unit: "day", Randomized: true},
		},
		Apply: []string{"analyst"},
	}
	assert.Equal(t,
		"CREATE QUOTA daily KEYED BY user_name FOR INTERVAL 1 hour MAX queries = 100, errors = 10, "+
			"FOR RANDOMIZED INTERVAL 1 day NO LIMITS TO analyst",
		statement.CreateQuota(q))
	assert.Equal(t, "DROP QUOTA daily", statement.DropQuota("daily"))
}

func TestRowPolicy(t *testing.T) {
	p := &entity.RowPolicy{Name: "eu", Database: "sales", Table: "orders", Condition: "region = 'eu'", Apply: []string{"analyst"}}
	assert.Equal(t, "CREATE ROW POLICY eu ON sales.orders AS PERMISSIVE FOR SELECT USING region = 'eu' TO analyst",
		statement.CreateRowPolicy(p))
	assert.Equal(t, "DROP ROW POLICY eu ON sales.orders", statement.DropRowPolicy("eu", "sales", "orders"))
}

func TestSettingsProfile(t *testing.T) {
	p := &entity.SettingsProfile{
		Name:     "ro",
		Inherit:  []string{"default"},
		ReadOnly: true,
		Settings: []entity.Setting{{Name: "max_memory_usage", Value: "10000000"}},
	}
	assert.Equal(t, "CREATE SETTINGS PROFILE ro SETTINGS INHERIT 'default', max_memory_usage = 10000000, readonly = 1",
		statement.CreateSettingsProfile(p))
	assert.Equal(t, "ALTER SETTINGS PROFILE ro SETTINGS INHERIT 'default', max_memory_usage = 10000000, readonly = 1",
		statement.AlterSettingsProfile(p))
	assert.Equal(t, "ALTER SETTINGS PROFILE empty SETTINGS NONE",
		statement.AlterSettingsProfile(&entity.SettingsProfile{Name: "empty"}))
	assert.Equal(t, "DROP SETTINGS PROFILE ro", statement.DropSettingsProfile("ro"))
}

func TestRedact(t *testing.T) {
	tests := []struct{ in, want string }{
		{
			statement.CreateUser(&entity.User{Name: "alice", Auth: entity.Auth{Secret: `it's\secret`}}),
			"CREATE USER alice IDENTIFIED WITH sha256_password BY '[redacted]'",
		},
		{
			"ALTER USER bob IDENTIFIED BY 'pw' DEFAULT DATABASE sales",
			"ALTER USER bob IDENTIFIED BY '[redacted]' DEFAULT DATABASE sales",
		},
		{
			"CREATE USER carol IDENTIFIED WITH no_password",
			"CREATE USER carol IDENTIFIED WITH no_password",
		},
		{
			"GRANT SELECT ON sales.* TO alice",
			"GRANT SELECT ON sales.* TO alice",
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statement.Redact(tt.in))
	}
	assert.Nil(t, statement.RedactAll(nil))
}
