// Package exchange exports access-control entities to a versioned JSON
// document and plans their re-creation from one.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/steward/change"
	"github.com/xraph/steward/entity"
	"github.com/xraph/steward/plan"
)

// Version is the document format version. Import requires an exact match.
const Version = "1.0"

var (
	// ErrVersionMismatch is returned when a document's version differs
	// from Version.
	ErrVersionMismatch = errors.New("exchange: version mismatch")

	// ErrMalformed is returned when a document cannot be decoded.
	ErrMalformed = errors.New("exchange: malformed document")
)

// Document is the export format. Entity arrays are optional.
type Document struct {
	Version          string                    `json:"version"`
	ExportedAt       time.Time                 `json:"exportedAt"`
	ExportedBy       string                    `json:"exportedBy,omitempty"`
	Users            []*entity.User            `json:"users,omitempty"`
	Roles            []*entity.Role            `json:"roles,omitempty"`
	Quotas           []*entity.Quota           `json:"quotas,omitempty"`
	RowPolicies      []*entity.RowPolicy       `json:"row_policies,omitempty"`
	SettingsProfiles []*entity.SettingsProfile `json:"settings_profiles,omitempty"`
}

// Len returns the number of entities in the document.
func (d *Document) Len() int {
	return len(d.Users) + len(d.Roles) + len(d.Quotas) + len(d.RowPolicies) + len(d.SettingsProfiles)
}

// EntityReader lists the entities defined on the server.
type EntityReader interface {
	ListUsers(ctx context.Context) ([]*entity.User, error)
	ListRoles(ctx context.Context) ([]*entity.Role, error)
	ListQuotas(ctx context.Context) ([]*entity.Quota, error)
	ListRowPolicies(ctx context.Context) ([]*entity.RowPolicy, error)
	ListSettingsProfiles(ctx context.Context) ([]*entity.SettingsProfile, error)
}

// Export reads every entity kind concurrently and assembles a document.
// Credentials are never exported: users come back with no authentication
// set and must be given one before they can log in.
func Export(ctx context.Context, r EntityReader, actor string, now time.Time) (*Document, error) {
	doc := &Document{Version: Version, ExportedAt: now.UTC(), ExportedBy: actor}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		doc.Users, err = r.ListUsers(gctx)
		return wrap("users", err)
	})
	g.Go(func() (err error) {
		doc.Roles, err = r.ListRoles(gctx)
		return wrap("roles", err)
	})
	g.Go(func() (err error) {
		doc.Quotas, err = r.ListQuotas(gctx)
		return wrap("quotas", err)
	})
	g.Go(func() (err error) {
		doc.RowPolicies, err = r.ListRowPolicies(gctx)
		return wrap("row policies", err)
	})
	g.Go(func() (err error) {
		doc.SettingsProfiles, err = r.ListSettingsProfiles(gctx)
		return wrap("settings profiles", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, u := range doc.Users {
		u.Auth = entity.Auth{}
	}
	return doc, nil
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("exchange: list %s: %w", what, err)
}

// Encode writes doc as indented JSON.
func Encode(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Decode reads a document and checks its version.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrVersionMismatch, doc.Version, Version)
	}
	return &doc, nil
}

// Changes plans one CREATE change per entity in dependency order:
// settings profiles, roles, users, quotas, row policies. The first invalid
// entity aborts planning.
func Changes(p *plan.Planner, doc *Document) ([]*change.Change, error) {
	out := make([]*change.Change, 0, doc.Len())
	add := func(c *change.Change, err error) error {
		if err != nil {
			return err
		}
		out = append(out, c)
		return nil
	}
	for _, sp := range doc.SettingsProfiles {
		if err := add(p.CreateSettingsProfile(sp)); err != nil {
			return nil, err
		}
	}
	for _, r := range doc.Roles {
		if err := add(p.CreateRole(r)); err != nil {
			return nil, err
		}
	}
	for _, u := range doc.Users {
		if err := add(p.CreateUser(u)); err != nil {
			return nil, err
		}
	}
	for _, q := range doc.Quotas {
		if err := add(p.CreateQuota(q)); err != nil {
			return nil, err
		}
	}
	for _, rp := range doc.RowPolicies {
		if err := add(p.CreateRowPolicy(rp)); err != nil {
			return nil, err
		}
	}
	return out, nil
}
