package diff

import (
	"slices"

	"github.com/xraph/steward/entity"
	"github.com/xraph/steward/statement"
)

// UserAttributes emits one ALTER USER statement per changed scalar field.
// An empty Auth in after keeps the current credentials. The settings
// profile, read-only flag and settings share a single SETTINGS clause, so
// any combination of changes among them yields one statement.
func UserAttributes(before, after *entity.User) []string {
	var out []string
	name := after.Name

	if !after.Auth.IsZero() && after.Auth.Normalized() != before.Auth.Normalized() {
		out = append(out, statement.AlterUser(name, statement.Identified(after.Auth)))
	}
	if !after.Hosts.Equal(before.Hosts) {
		out = append(out, statement.AlterUser(name, statement.Host(after.Hosts)))
	}
	if after.DefaultDatabase != before.DefaultDatabase {
		out = append(out, statement.AlterUser(name, statement.DefaultDatabase(after.DefaultDatabase)))
	}
	if after.SettingsProfile != before.SettingsProfile ||
		after.ReadOnly != before.ReadOnly ||
		!entity.SettingsEqual(after.Settings, before.Settings) {
		out = append(out, statement.AlterUser(name, statement.Settings(after.SettingsProfile, after.EffectiveSettings())))
	}
	if !after.Grantees.Equal(before.Grantees) {
		out = append(out, statement.AlterUser(name, statement.Grantees(after.Grantees)))
	}
	return out
}

// RoleAttributes emits an ALTER ROLE statement when the role's settings
// profile or settings changed.
func RoleAttributes(before, after *entity.Role) []string {
	if after.SettingsProfile == before.SettingsProfile && entity.SettingsEqual(after.Settings, before.Settings) {
		return nil
	}
	return []string{statement.AlterRole(after.Name, statement.Settings(after.SettingsProfile, after.Settings))}
}

// ProfileAttributes emits an ALTER SETTINGS PROFILE statement when the
// read-only flag, inherited profiles or settings changed.
func ProfileAttributes(before, after *entity.SettingsProfile) []string {
	if after.ReadOnly == before.ReadOnly &&
		slices.Equal(after.Inherit, before.Inherit) &&
		entity.SettingsEqual(after.Settings, before.Settings) {
		return nil
	}
	return []string{statement.AlterSettingsProfile(after)}
}
