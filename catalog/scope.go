package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ScopeKind is the breadth at which a capability is granted.
type ScopeKind string

// Scope kinds.
const (
	ScopeGlobal   ScopeKind = "global"
	ScopeDatabase ScopeKind = "database"
	ScopeTable    ScopeKind = "table"
)

// Valid reports whether k is a known scope kind.
func (k ScopeKind) Valid() bool {
	switch k {
	case ScopeGlobal, ScopeDatabase, ScopeTable:
		return true
	}
	return false
}

// ParseScopeKind parses a scope kind name, case-insensitively.
func ParseScopeKind(s string) (ScopeKind, error) {
	k := ScopeKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidScope, s)
	}
	return k, nil
}

// Scope is the target of a grant: everything, one database, or one table.
type Scope struct {
	Kind     ScopeKind `json:"kind" yaml:"kind"`
	Database string    `json:"database,omitempty" yaml:"database,omitempty"`
	Table    string    `json:"table,omitempty" yaml:"table,omitempty"`
}

// Global returns the global scope.
func Global() Scope { return Scope{Kind: ScopeGlobal} }

// Database returns a scope covering every table of db.
func Database(db string) Scope { return Scope{Kind: ScopeDatabase, Database: db} }

// Table returns a scope covering a single table.
func Table(db, table string) Scope { return Scope{Kind: ScopeTable, Database: db, Table: table} }

// Validate checks the field requirements of the scope kind.
func (s Scope) Validate() error {
	switch s.Kind {
	case ScopeGlobal:
		return nil
	case ScopeDatabase:
		if s.Database == "" {
			return fmt.Errorf("%w: database scope requires a database", ErrInvalidScope)
		}
		return nil
	case ScopeTable:
		if s.Database == "" || s.Table == "" {
			return fmt.Errorf("%w: table scope requires a database and a table", ErrInvalidScope)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidScope, s.Kind)
	}
}

// normalize drops fields that the kind does not use.
func (s Scope) normalize() Scope {
	switch s.Kind {
	case ScopeGlobal:
		return Scope{Kind: ScopeGlobal}
	case ScopeDatabase:
		return Scope{Kind: ScopeDatabase, Database: s.Database}
	}
	return s
}

// String renders the scope as FormatScope does.
func (s Scope) String() string { return FormatScope(s) }

// FormatScope renders the canonical target descriptor used in statements:
// "*.*", "db.*" or "db.table". Identifiers that need quoting are back-quoted.
func FormatScope(s Scope) string {
	switch s.Kind {
	case ScopeDatabase:
		return QuoteIdent(s.Database) + ".*"
	case ScopeTable:
		return QuoteIdent(s.Database) + "." + QuoteIdent(s.Table)
	default:
		return "*.*"
	}
}

// ParseScope parses a descriptor produced by FormatScope. Back-quoted
// identifiers are not supported; use the structured form for those.
func ParseScope(s string) (Scope, error) {
	s = strings.TrimSpace(s)
	if s == "*.*" || s == "*" {
		return Global(), nil
	}
	db, table, ok := strings.Cut(s, ".")
	if !ok || db == "" || db == "*" {
		return Scope{}, fmt.Errorf("%w: cannot parse %q", ErrInvalidScope, s)
	}
	if table == "*" {
		return Database(db), nil
	}
	if table == "" {
		return Scope{}, fmt.Errorf("%w: cannot parse %q", ErrInvalidScope, s)
	}
	return Table(db, table), nil
}

// UnmarshalText accepts the "db.table" descriptor form.
func (s *Scope) UnmarshalText(b []byte) error {
	parsed, err := ParseScope(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// UnmarshalJSON accepts both the structured form and a descriptor string.
func (s *Scope) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		return s.UnmarshalText([]byte(str))
	}
	type plain Scope
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*s = Scope(p)
	return nil
}

// QuoteIdent returns name unchanged when it is a plain identifier and
// back-quoted otherwise.
func QuoteIdent(name string) string {
	if isPlainIdent(name) {
		return name
	}
	return "`" + strings.ReplaceAll(strings.ReplaceAll(name, `\`, `\\`), "`", "\\`") + "`"
}

func isPlainIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
