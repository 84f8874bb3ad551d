package entity

import (
	"slices"
	"strings"

	"github.com/xraph/steward/assignment"
	"github.com/xraph/steward/permission"
)

// AuthMethod is the authentication type of a user.
type AuthMethod string

// Authentication methods.
const (
	AuthNoPassword         AuthMethod = "no_password"
	AuthPlaintextPassword  AuthMethod = "plaintext_password"
	AuthSHA256Password     AuthMethod = "sha256_password"
	AuthSHA256Hash         AuthMethod = "sha256_hash"
	AuthDoubleSHA1Password AuthMethod = "double_sha1_password"
	AuthDoubleSHA1Hash     AuthMethod = "double_sha1_hash"
	AuthBcryptPassword     AuthMethod = "bcrypt_password"
	AuthBcryptHash         AuthMethod = "bcrypt_hash"
)

// Auth is how a user authenticates. An empty method with a secret means
// sha256_password.
type Auth struct {
	Method AuthMethod `json:"method,omitempty" yaml:"method,omitempty"`
	Secret string     `json:"secret,omitempty" yaml:"secret,omitempty"`
}

// Normalized fills in the default method.
func (a Auth) Normalized() Auth {
	switch {
	case a.Method == "" && a.Secret == "":
		return Auth{Method: AuthNoPassword}
	case a.Method == "":
		return Auth{Method: AuthSHA256Password, Secret: a.Secret}
	}
	return a
}

// IsZero reports whether no authentication was specified.
func (a Auth) IsZero() bool { return a.Method == "" && a.Secret == "" }

func (a Auth) validate(name string) error {
	n := a.Normalized()
	switch n.Method {
	case AuthNoPassword:
		if n.Secret != "" {
			return invalid(TypeUser, name, "auth", "no_password cannot carry a secret")
		}
		return nil
	case AuthPlaintextPassword, AuthSHA256Password, AuthSHA256Hash,
		AuthDoubleSHA1Password, AuthDoubleSHA1Hash, AuthBcryptPassword, AuthBcryptHash:
		if n.Secret == "" {
			return invalid(TypeUser, name, "auth", string(n.Method)+" requires a secret")
		}
		return nil
	}
	return invalid(TypeUser, name, "auth", "has unknown method "+string(a.Method))
}

// Hosts restricts where a user may connect from. The zero value allows any host.
type Hosts struct {
	Local  bool     `json:"local,omitempty" yaml:"local,omitempty"`
	IP     []string `json:"ip,omitempty" yaml:"ip,omitempty"`
	Name   []string `json:"name,omitempty" yaml:"name,omitempty"`
	Like   []string `json:"like,omitempty" yaml:"like,omitempty"`
	Regexp []string `json:"regexp,omitempty" yaml:"regexp,omitempty"`
}

// IsAny reports whether no restriction applies.
func (h Hosts) IsAny() bool {
	return !h.Local && len(h.IP) == 0 && len(h.Name) == 0 && len(h.Like) == 0 && len(h.Regexp) == 0
}

// Equal compares two host restrictions.
func (h Hosts) Equal(o Hosts) bool {
	return h.Local == o.Local &&
		slices.Equal(h.IP, o.IP) &&
		slices.Equal(h.Name, o.Name) &&
		slices.Equal(h.Like, o.Like) &&
		slices.Equal(h.Regexp, o.Regexp)
}

// Grantees limits to whom a user may pass on grants made WITH GRANT OPTION.
// The zero value allows anyone.
type Grantees struct {
	None   bool     `json:"none,omitempty" yaml:"none,omitempty"`
	Names  []string `json:"names,omitempty" yaml:"names,omitempty"`
	Except []string `json:"except,omitempty" yaml:"except,omitempty"`
}

// Equal compares two grantee policies.
func (g Grantees) Equal(o Grantees) bool {
	return g.None == o.None && slices.Equal(g.Names, o.Names) && slices.Equal(g.Except, o.Except)
}

func (g Grantees) validate(name string) error {
	if g.None && (len(g.Names) > 0 || len(g.Except) > 0) {
		return invalid(TypeUser, name, "grantees", "NONE cannot list names")
	}
	return nil
}

// User is a database login.
type User struct {
	Name            string                  `json:"name" yaml:"name"`
	Auth            Auth                    `json:"auth,omitzero" yaml:"auth,omitempty"`
	Hosts           Hosts                   `json:"hosts,omitzero" yaml:"hosts,omitempty"`
	DefaultDatabase string                  `json:"default_database,omitempty" yaml:"default_database,omitempty"`
	SettingsProfile string                  `json:"settings_profile,omitempty" yaml:"settings_profile,omitempty"`
	ReadOnly        bool                    `json:"readonly,omitempty" yaml:"readonly,omitempty"`
	Settings        []Setting               `json:"settings,omitempty" yaml:"settings,omitempty"`
	Grantees        Grantees                `json:"grantees,omitzero" yaml:"grantees,omitempty"`
	Grants          []permission.Grant      `json:"grants,omitempty" yaml:"grants,omitempty"`
	Roles           []assignment.Assignment `json:"roles,omitempty" yaml:"roles,omitempty"`
}

// Validate checks required fields and nested definitions.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return invalid(TypeUser, "", "name", "is required")
	}
	if err := u.Auth.validate(u.Name); err != nil {
		return err
	}
	if err := u.Grantees.validate(u.Name); err != nil {
		return err
	}
	if err := validateSettings(TypeUser, u.Name, u.Settings); err != nil {
		return err
	}
	for _, r := range u.Roles {
		if strings.TrimSpace(r.Role) == "" {
			return invalid(TypeUser, u.Name, "roles", "contains an empty role name")
		}
	}
	return nil
}

// EffectiveSettings returns the user's settings with the read-only flag applied.
func (u *User) EffectiveSettings() []Setting {
	return mergeReadonly(u.Settings, u.ReadOnly)
}

// Redacted replaces secrets in audit snapshots and displayed statements.
const Redacted = "[redacted]"

// State returns an audit snapshot with the secret redacted.
func (u *User) State() map[string]any {
	c := *u
	if c.Auth.Secret != "" {
		c.Auth.Secret = Redacted
	}
	return state(c)
}
