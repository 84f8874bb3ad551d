// Package statement renders the administrative statements Steward emits.
// Every function is pure: identical input yields identical text.
package statement

import (
	"strings"

	"github.com/xraph/steward/catalog"
	"github.com/xraph/steward/entity"
)

// Ident quotes name when it is not a plain identifier.
func Ident(name string) string { return catalog.QuoteIdent(name) }

// String renders a single-quoted string literal.
func String(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}

func identList(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = Ident(n)
	}
	return strings.Join(out, ", ")
}

func stringList(values []string) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = String(v)
	}
	return strings.Join(out, ", ")
}

// Grant renders GRANT <keyword> ON <scope> TO <entity>.
func Grant(keyword string, scope catalog.Scope, grantee string) string {
	return "GRANT " + keyword + " ON " + catalog.FormatScope(scope) + " TO " + Ident(grantee)
}

// Revoke renders REVOKE <keyword> ON <scope> FROM <entity>.
func Revoke(keyword string, scope catalog.Scope, grantee string) string {
	return "REVOKE " + keyword + " ON " + catalog.FormatScope(scope) + " FROM " + Ident(grantee)
}

// GrantRole renders GRANT <role> TO <entity>, optionally WITH ADMIN OPTION.
func GrantRole(role, grantee string, adminOption bool) string {
	s := "GRANT " + Ident(role) + " TO " + Ident(grantee)
	if adminOption {
		s += " WITH ADMIN OPTION"
	}
	return s
}

// RevokeRole renders REVOKE <role> FROM <entity>.
func RevokeRole(role, grantee string) string {
	return "REVOKE " + Ident(role) + " FROM " + Ident(grantee)
}

// RevokeAdminOption renders REVOKE ADMIN OPTION FOR <role> FROM <entity>.
func RevokeAdminOption(role, grantee string) string {
	return "REVOKE ADMIN OPTION FOR " + Ident(role) + " FROM " + Ident(grantee)
}

// SetDefaultRole renders SET DEFAULT ROLE <list> TO <entity>. An empty
// list renders NONE.
func SetDefaultRole(roles []string, grantee string) string {
	list := "NONE"
	if len(roles) > 0 {
		list = identList(roles)
	}
	return "SET DEFAULT ROLE " + list + " TO " + Ident(grantee)
}

// Identified renders the IDENTIFIED clause.
func Identified(a entity.Auth) string {
	n := a.Normalized()
	if n.Method == entity.AuthNoPassword {
		return "IDENTIFIED WITH no_password"
	}
	return "IDENTIFIED WITH " + string(n.Method) + " BY " + String(n.Secret)
}

// Host renders the HOST clause.
func Host(h entity.Hosts) string {
	if h.IsAny() {
		return "HOST ANY"
	}
	var parts []string
	if h.Local {
		parts = append(parts, "LOCAL")
	}
	for _, v := range h.IP {
		parts = append(parts, "IP "+String(v))
	}
	for _, v := range h.Name {
		parts = append(parts, "NAME "+String(v))
	}
	for _, v := range h.Like {
		parts = append(parts, "LIKE "+String(v))
	}
	for _, v := range h.Regexp {
		parts = append(parts, "REGEXP "+String(v))
	}
	return "HOST " + strings.Join(parts, ", ")
}

// DefaultDatabase renders the DEFAULT DATABASE clause.
func DefaultDatabase(db string) string {
	if db == "" {
		return "DEFAULT DATABASE NONE"
	}
	return "DEFAULT DATABASE " + Ident(db)
}

// Grantees renders the GRANTEES clause.
func Grantees(g entity.Grantees) string {
	switch {
	case g.None:
		return "GRANTEES NONE"
	case len(g.Names) > 0:
		s := "GRANTEES " + identList(g.Names)
		if len(g.Except) > 0 {
			s += " EXCEPT " + identList(g.Except)
		}
		return s
	case len(g.Except) > 0:
		return "GRANTEES ANY EXCEPT " + identList(g.Except)
	}
	return "GRANTEES ANY"
}

// Setting renders one setting element.
func Setting(s entity.Setting) string {
	var b strings.Builder
	b.WriteString(Ident(s.Name))
	if s.Value != "" {
		b.WriteString(" = ")
		b.WriteString(literal(s.Value))
	}
	if s.Min != "" {
		b.WriteString(" MIN ")
		b.WriteString(literal(s.Min))
	}
	if s.Max != "" {
		b.WriteString(" MAX ")
		b.WriteString(literal(s.Max))
	}
	if s.Constraint != entity.ConstraintNone {
		b.WriteString(" ")
		b.WriteString(string(s.Constraint))
	}
	return b.String()
}

// Settings renders a SETTINGS clause from a profile name and settings. It
// returns "SETTINGS NONE" when both are empty.
func Settings(profile string, settings []entity.Setting) string {
	var parts []string
	if profile != "" {
		parts = append(parts, "PROFILE "+String(profile))
	}
	for _, s := range settings {
		parts = append(parts, Setting(s))
	}
	if len(parts) == 0 {
		return "SETTINGS NONE"
	}
	return "SETTINGS " + strings.Join(parts, ", ")
}

func literal(v string) string {
	if entity.IsNumeric(v) || v == "true" || v == "false" {
		return v
	}
	return String(v)
}

func toClause(apply []string) string {
	if len(apply) == 0 {
		return ""
	}
	return " TO " + identList(apply)
}
