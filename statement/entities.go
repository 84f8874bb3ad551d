package statement

import (
	"strconv"
	"strings"

	"github.com/xraph/steward/entity"
)

// CreateUser renders CREATE USER with every clause the definition sets.
func CreateUser(u *entity.User) string {
	parts := []string{"CREATE USER " + Ident(u.Name), Identified(u.Auth)}
	if !u.Hosts.IsAny() {
		parts = append(parts, Host(u.Hosts))
	}
	if u.DefaultDatabase != "" {
		parts = append(parts, DefaultDatabase(u.DefaultDatabase))
	}
	if settings := u.EffectiveSettings(); u.SettingsProfile != "" || len(settings) > 0 {
		parts = append(parts, Settings(u.SettingsProfile, settings))
	}
	if !u.Grantees.Equal(entity.Grantees{}) {
		parts = append(parts, Grantees(u.Grantees))
	}
	return strings.Join(parts, " ")
}

// AlterUser renders ALTER USER <name> <clause>.
func AlterUser(name, clause string) string {
	return "ALTER USER " + Ident(name) + " " + clause
}

// DropUser renders DROP USER.
func DropUser(name string) string { return "DROP USER " + Ident(name) }

// CreateRole renders CREATE ROLE, with settings when present.
func CreateRole(r *entity.Role) string {
	s := "CREATE ROLE " + Ident(r.Name)
	if r.SettingsProfile != "" || len(r.Settings) > 0 {
		s += " " + Settings(r.SettingsProfile, r.Settings)
	}
	return s
}

// AlterRole renders ALTER ROLE <name> <clause>.
func AlterRole(name, clause string) string {
	return "ALTER ROLE " + Ident(name) + " " + clause
}

// DropRole renders DROP ROLE.
func DropRole(name string) string { return "DROP ROLE " + Ident(name) }

// CreateQuota renders CREATE QUOTA.
func CreateQuota(q *entity.Quota) string {
	var b strings.Builder
	b.WriteString("CREATE QUOTA ")
	b.WriteString(Ident(q.Name))
	if q.KeyedBy != "" {
		b.WriteString(" KEYED BY ")
		b.WriteString(q.KeyedBy)
	}
	for i, iv := range q.Intervals {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(" FOR ")
		if iv.Randomized {
			b.WriteString("RANDOMIZED ")
		}
		b.WriteString("INTERVAL ")
		b.WriteString(strconv.Itoa(iv.Length))
		b.WriteString(" ")
		b.WriteString(strings.ToLower(iv.Unit))
		if len(iv.Limits) == 0 {
			b.WriteString(" NO LIMITS")
			continue
		}
		limits := make([]string, len(iv.Limits))
		for j, l := range iv.Limits {
			limits[j] = l.Resource + " = " + l.Max
		}
		b.WriteString(" MAX ")
		b.WriteString(strings.Join(limits, ", "))
	}
	b.WriteString(toClause(q.Apply))
	return b.String()
}

// DropQuota renders DROP QUOTA.
func DropQuota(name string) string { return "DROP QUOTA " + Ident(name) }

// CreateRowPolicy renders CREATE ROW POLICY.
func CreateRowPolicy(p *entity.RowPolicy) string {
	kind := "PERMISSIVE"
	if p.Restrictive {
		kind = "RESTRICTIVE"
	}
	return "CREATE ROW POLICY " + Ident(p.Name) + " ON " + Ident(p.Database) + "." + Ident(p.Table) +
		" AS " + kind + " FOR SELECT USING " + p.Condition + toClause(p.Apply)
}

// DropRowPolicy renders DROP ROW POLICY.
func DropRowPolicy(name, database, table string) string {
	return "DROP ROW POLICY " + Ident(name) + " ON " + Ident(database) + "." + Ident(table)
}

// CreateSettingsProfile renders CREATE SETTINGS PROFILE.
func CreateSettingsProfile(p *entity.SettingsProfile) string {
	s := "CREATE SETTINGS PROFILE " + Ident(p.Name)
	if clause := profileSettings(p); clause != "" {
		s += " " + clause
	}
	return s + toClause(p.Apply)
}

// AlterSettingsProfile renders ALTER SETTINGS PROFILE with the full
// settings list of p.
func AlterSettingsProfile(p *entity.SettingsProfile) string {
	clause := profileSettings(p)
	if clause == "" {
		clause = "SETTINGS NONE"
	}
	return "ALTER SETTINGS PROFILE " + Ident(p.Name) + " " + clause
}

// DropSettingsProfile renders DROP SETTINGS PROFILE.
func DropSettingsProfile(name string) string {
	return "DROP SETTINGS PROFILE " + Ident(name)
}

func profileSettings(p *entity.SettingsProfile) string {
	var parts []string
	for _, parent := range p.Inherit {
		parts = append(parts, "INHERIT "+String(parent))
	}
	for _, s := range p.EffectiveSettings() {
		parts = append(parts, Setting(s))
	}
	if len(parts) == 0 {
		return ""
	}
	return "SETTINGS " + strings.Join(parts, ", ")
}

// ReplaceQuota renders CREATE QUOTA OR REPLACE for an updated definition.
func ReplaceQuota(q *entity.Quota) string {
	return "CREATE QUOTA OR REPLACE " + strings.TrimPrefix(CreateQuota(q), "CREATE QUOTA ")
}

// ReplaceRowPolicy renders CREATE ROW POLICY OR REPLACE for an updated definition.
func ReplaceRowPolicy(p *entity.RowPolicy) string {
	return "CREATE ROW POLICY OR REPLACE " + strings.TrimPrefix(CreateRowPolicy(p), "CREATE ROW POLICY ")
}
