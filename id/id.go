// Package id defines the identifiers of staged changes, audit entries and
// execution passes. Each is a TypeID ("chg_01h2x...") whose prefix names
// the kind of record; IDs sort by creation time.
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix names the kind of record an ID belongs to.
type Prefix string

// Record prefixes.
const (
	PrefixChange     Prefix = "chg"
	PrefixAuditEntry Prefix = "audit"
	PrefixPass       Prefix = "pass"
)

// ID is a prefixed TypeID. The zero value is Nil and renders as "".
//
//nolint:recvcheck // UnmarshalText and Scan need pointer receivers.
type ID struct {
	tid typeid.TypeID
	set bool
}

// Nil is the zero-value ID.
var Nil ID

// ChangeID identifies a staged change.
type ChangeID = ID

// AuditEntryID identifies an audit log entry.
type AuditEntryID = ID

// PassID identifies one execution pass over the staged queue.
type PassID = ID

// New returns a fresh ID. It panics on a malformed prefix, which only a
// programming error can produce.
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}
	return ID{tid: tid, set: true}
}

// NewChangeID returns a fresh change ID.
func NewChangeID() ID { return New(PrefixChange) }

// NewAuditEntryID returns a fresh audit entry ID.
func NewAuditEntryID() ID { return New(PrefixAuditEntry) }

// NewPassID returns a fresh pass ID.
func NewPassID() ID { return New(PrefixPass) }

// Parse reads an ID of any prefix.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse: empty string")
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{tid: tid, set: true}, nil
}

func parseAs(s string, want Prefix) (ID, error) {
	v, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if v.Prefix() != want {
		return Nil, fmt.Errorf("id: %q is not a %q id", s, want)
	}
	return v, nil
}

// ParseChangeID reads an ID and requires the "chg" prefix.
func ParseChangeID(s string) (ID, error) { return parseAs(s, PrefixChange) }

// ParseAuditEntryID reads an ID and requires the "audit" prefix.
func ParseAuditEntryID(s string) (ID, error) { return parseAs(s, PrefixAuditEntry) }

// ParsePassID reads an ID and requires the "pass" prefix.
func ParsePassID(s string) (ID, error) { return parseAs(s, PrefixPass) }

func (i ID) String() string {
	if !i.set {
		return ""
	}
	return i.tid.String()
}

// Prefix returns the record prefix, or "" for Nil.
func (i ID) Prefix() Prefix {
	if !i.set {
		return ""
	}
	return Prefix(i.tid.Prefix())
}

// IsNil reports whether i is the zero value.
func (i ID) IsNil() bool { return !i.set }

// MarshalText implements encoding.TextMarshaler. Nil marshals to "".
func (i ID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler. "" decodes to Nil.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	v, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

// Value implements driver.Valuer. Nil is stored as NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.set {
		return nil, nil //nolint:nilnil // NULL
	}
	return i.tid.String(), nil
}

// Scan implements sql.Scanner.
func (i *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = Nil
		return nil
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T", src)
	}
}
