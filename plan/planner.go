// Package plan composes staged changes from entity definitions. Input is
// validated before any statement is built, so invalid definitions never
// reach the queue.
package plan

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/xraph/steward/assignment"
	"github.com/xraph/steward/catalog"
	"github.com/xraph/steward/change"
	"github.com/xraph/steward/diff"
	"github.com/xraph/steward/entity"
	"github.com/xraph/steward/permission"
	"github.com/xraph/steward/statement"
)

// ErrNoChanges is returned when the before and after definitions are
// equivalent.
var ErrNoChanges = errors.New("plan: no changes")

// Option configures a Planner.
type Option func(*Planner)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(p *Planner) { p.logger = l } }

// Planner builds changes against a privilege catalog.
type Planner struct {
	cat    *catalog.Catalog
	logger *slog.Logger
}

// New creates a planner over cat.
func New(cat *catalog.Catalog, opts ...Option) *Planner {
	p := &Planner{cat: cat, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// diffGrants runs the grant diff and logs what it left out.
func (p *Planner) diffGrants(grantee string, original, desired []permission.Grant) diff.GrantPlan {
	gp := diff.Grants(p.cat, grantee, original, desired)
	for _, g := range gp.Suppressed {
		p.logger.Debug("grant implied by parent", slog.String("grantee", grantee), slog.String("grant", g.Key()))
	}
	if len(gp.Skipped) > 0 {
		p.logger.Warn("stale capabilities skipped", slog.String("grantee", grantee), slog.Int("skipped", len(gp.Skipped)))
	}
	return gp
}

// Catalog returns the catalog the planner resolves capabilities against.
func (p *Planner) Catalog() *catalog.Catalog { return p.cat }

// ──────────────────────────────────────────────────
// Users
// ──────────────────────────────────────────────────

// CreateUser plans CREATE USER followed by the user's grants and roles.
func (p *Planner) CreateUser(u *entity.User) (*change.Change, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	grants, err := p.validGrants(entity.TypeUser, u.Name, u.Grants)
	if err != nil {
		return nil, err
	}
	stmts := []string{statement.CreateUser(u)}
	stmts = append(stmts, p.diffGrants(u.Name, nil, grants).Statements...)
	stmts = append(stmts, diff.Roles(u.Name, nil, u.Roles)...)

	return &change.Change{
		Type:        change.TypeCreate,
		EntityType:  entity.TypeUser,
		EntityName:  u.Name,
		Description: describeCreate(entity.TypeUser, u.Name, len(grants), len(u.Roles)),
		Statements:  stmts,
		AfterState:  u.State(),
	}, nil
}

// UpdateUser plans the statements that turn before into after: scalar
// attributes, then grants, then roles. Renames are not supported.
func (p *Planner) UpdateUser(before, after *entity.User) (*change.Change, error) {
	if err := after.Validate(); err != nil {
		return nil, err
	}
	if err := sameName(entity.TypeUser, before.Name, after.Name); err != nil {
		return nil, err
	}
	grants, err := p.validGrants(entity.TypeUser, after.Name, after.Grants)
	if err != nil {
		return nil, err
	}

	attrs := diff.UserAttributes(before, after)
	gp := p.diffGrants(after.Name, before.Grants, grants)
	roles := diff.Roles(after.Name, before.Roles, after.Roles)

	stmts := concat(attrs, gp.Statements, roles)
	if len(stmts) == 0 {
		return nil, ErrNoChanges
	}
	ct := change.TypeAlter
	if len(attrs) == 0 && len(roles) == 0 {
		ct = grantChangeType(gp)
	}
	return &change.Change{
		Type:        ct,
		EntityType:  entity.TypeUser,
		EntityName:  after.Name,
		Description: describeUpdate(entity.TypeUser, after.Name, len(attrs), gp, len(roles)),
		Statements:  stmts,
		BeforeState: before.State(),
		AfterState:  after.State(),
	}, nil
}

// DropUser plans DROP USER.
func (p *Planner) DropUser(u *entity.User) (*change.Change, error) {
	if strings.TrimSpace(u.Name) == "" {
		return nil, &entity.ValidationError{Entity: entity.TypeUser, Field: "name", Reason: "is required"}
	}
	return &change.Change{
		Type:        change.TypeDrop,
		EntityType:  entity.TypeUser,
		EntityName:  u.Name,
		Description: "Drop user " + u.Name,
		Statements:  []string{statement.DropUser(u.Name)},
		BeforeState: u.State(),
	}, nil
}

// ──────────────────────────────────────────────────
// Roles
// ──────────────────────────────────────────────────

// CreateRole plans CREATE ROLE followed by the role's grants and roles.
func (p *Planner) CreateRole(r *entity.Role) (*change.Change, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	grants, err := p.validGrants(entity.TypeRole, r.Name, r.Grants)
	if err != nil {
		return nil, err
	}
	stmts := []string{statement.CreateRole(r)}
	stmts = append(stmts, p.diffGrants(r.Name, nil, grants).Statements...)
	stmts = append(stmts, diff.Roles(r.Name, nil, r.Roles)...)

	return &change.Change{
		Type:        change.TypeCreate,
		EntityType:  entity.TypeRole,
		EntityName:  r.Name,
		Description: describeCreate(entity.TypeRole, r.Name, len(grants), len(r.Roles)),
		Statements:  stmts,
		AfterState:  r.State(),
	}, nil
}

// UpdateRole plans the statements that turn before into after.
func (p *Planner) UpdateRole(before, after *entity.Role) (*change.Change, error) {
	if err := after.Validate(); err != nil {
		return nil, err
	}
	if err := sameName(entity.TypeRole, before.Name, after.Name); err != nil {
		return nil, err
	}
	grants, err := p.validGrants(entity.TypeRole, after.Name, after.Grants)
	if err != nil {
		return nil, err
	}

	attrs := diff.RoleAttributes(before, after)
	gp := p.diffGrants(after.Name, before.Grants, grants)
	roles := diff.Roles(after.Name, before.Roles, after.Roles)

	stmts := concat(attrs, gp.Statements, roles)
	if len(stmts) == 0 {
		return nil, ErrNoChanges
	}
	ct := change.TypeAlter
	if len(attrs) == 0 && len(roles) == 0 {
		ct = grantChangeType(gp)
	}
	return &change.Change{
		Type:        ct,
		EntityType:  entity.TypeRole,
		EntityName:  after.Name,
		Description: describeUpdate(entity.TypeRole, after.Name, len(attrs), gp, len(roles)),
		Statements:  stmts,
		BeforeState: before.State(),
		AfterState:  after.State(),
	}, nil
}

// DropRole plans DROP ROLE.
func (p *Planner) DropRole(r *entity.Role) (*change.Change, error) {
	if strings.TrimSpace(r.Name) == "" {
		return nil, &entity.ValidationError{Entity: entity.TypeRole, Field: "name", Reason: "is required"}
	}
	return &change.Change{
		Type:        change.TypeDrop,
		EntityType:  entity.TypeRole,
		EntityName:  r.Name,
		Description: "Drop role " + r.Name,
		Statements:  []string{statement.DropRole(r.Name)},
		BeforeState: r.State(),
	}, nil
}

// ──────────────────────────────────────────────────
// Grants and role assignments
// ──────────────────────────────────────────────────

// Grants plans the grant diff for a user or role. The change type is
// REVOKE when only revokes are emitted, GRANT otherwise.
func (p *Planner) Grants(t entity.Type, name string, original, desired []permission.Grant) (*change.Change, error) {
	if err := grantee(t, name); err != nil {
		return nil, err
	}
	valid, err := p.validGrants(t, name, desired)
	if err != nil {
		return nil, err
	}
	gp := p.diffGrants(name, original, valid)
	if gp.Empty() {
		return nil, ErrNoChanges
	}
	return &change.Change{
		Type:        grantChangeType(gp),
		EntityType:  t,
		EntityName:  name,
		Description: describeGrants(t, name, gp),
		Statements:  gp.Statements,
		BeforeState: grantState(original),
		AfterState:  grantState(valid),
	}, nil
}

// Roles plans the role assignment diff for a user or role.
func (p *Planner) Roles(t entity.Type, name string, original, desired []assignment.Assignment) (*change.Change, error) {
	if err := grantee(t, name); err != nil {
		return nil, err
	}
	for _, a := range desired {
		if strings.TrimSpace(a.Role) == "" {
			return nil, &entity.ValidationError{Entity: t, Name: name, Field: "roles", Reason: "contains an empty role name"}
		}
		if t == entity.TypeRole && a.Role == name {
			return nil, &entity.ValidationError{Entity: t, Name: name, Field: "roles", Reason: "cannot include the role itself"}
		}
	}
	stmts := diff.Roles(name, original, desired)
	if len(stmts) == 0 {
		return nil, ErrNoChanges
	}
	ct := change.TypeGrant
	if len(desired) == 0 {
		ct = change.TypeRevoke
	}
	return &change.Change{
		Type:        ct,
		EntityType:  t,
		EntityName:  name,
		Description: fmt.Sprintf("Update roles of %s %s", noun(t), name),
		Statements:  stmts,
		BeforeState: map[string]any{"roles": assignment.Names(original)},
		AfterState:  map[string]any{"roles": assignment.Names(desired)},
	}, nil
}

// ──────────────────────────────────────────────────
// Quotas, row policies, settings profiles
// ──────────────────────────────────────────────────

// CreateQuota plans CREATE QUOTA.
func (p *Planner) CreateQuota(q *entity.Quota) (*change.Change, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return simple(change.TypeCreate, entity.TypeQuota, q.Name, statement.CreateQuota(q), nil, q.State()), nil
}

// UpdateQuota replaces the quota definition.
func (p *Planner) UpdateQuota(before, after *entity.Quota) (*change.Change, error) {
	if err := after.Validate(); err != nil {
		return nil, err
	}
	if err := sameName(entity.TypeQuota, before.Name, after.Name); err != nil {
		return nil, err
	}
	if reflect.DeepEqual(before.State(), after.State()) {
		return nil, ErrNoChanges
	}
	return simple(change.TypeAlter, entity.TypeQuota, after.Name, statement.ReplaceQuota(after), before.State(), after.State()), nil
}

// DropQuota plans DROP QUOTA.
func (p *Planner) DropQuota(q *entity.Quota) (*change.Change, error) {
	if strings.TrimSpace(q.Name) == "" {
		return nil, &entity.ValidationError{Entity: entity.TypeQuota, Field: "name", Reason: "is required"}
	}
	return simple(change.TypeDrop, entity.TypeQuota, q.Name, statement.DropQuota(q.Name), q.State(), nil), nil
}

// CreateRowPolicy plans CREATE ROW POLICY.
func (p *Planner) CreateRowPolicy(rp *entity.RowPolicy) (*change.Change, error) {
	if err := rp.Validate(); err != nil {
		return nil, err
	}
	return simple(change.TypeCreate, entity.TypeRowPolicy, rp.Name, statement.CreateRowPolicy(rp), nil, rp.State()), nil
}

// UpdateRowPolicy replaces the row policy definition. The policy's table
// may not change.
func (p *Planner) UpdateRowPolicy(before, after *entity.RowPolicy) (*change.Change, error) {
	if err := after.Validate(); err != nil {
		return nil, err
	}
	if err := sameName(entity.TypeRowPolicy, before.Name, after.Name); err != nil {
		return nil, err
	}
	if before.Database != after.Database || before.Table != after.Table {
		return nil, &entity.ValidationError{Entity: entity.TypeRowPolicy, Name: after.Name, Field: "table", Reason: "cannot be changed"}
	}
	if reflect.DeepEqual(before.State(), after.State()) {
		return nil, ErrNoChanges
	}
	return simple(change.TypeAlter, entity.TypeRowPolicy, after.Name, statement.ReplaceRowPolicy(after), before.State(), after.State()), nil
}

// DropRowPolicy plans DROP ROW POLICY.
func (p *Planner) DropRowPolicy(rp *entity.RowPolicy) (*change.Change, error) {
	if strings.TrimSpace(rp.Name) == "" || rp.Database == "" || rp.Table == "" {
		return nil, &entity.ValidationError{Entity: entity.TypeRowPolicy, Name: rp.Name, Field: "target", Reason: "requires name, database and table"}
	}
	return simple(change.TypeDrop, entity.TypeRowPolicy, rp.Name, statement.DropRowPolicy(rp.Name, rp.Database, rp.Table), rp.State(), nil), nil
}

// CreateSettingsProfile plans CREATE SETTINGS PROFILE.
func (p *Planner) CreateSettingsProfile(sp *entity.SettingsProfile) (*change.Change, error) {
	if err := sp.Validate(); err != nil {
		return nil, err
	}
	return simple(change.TypeCreate, entity.TypeSettingsProfile, sp.Name, statement.CreateSettingsProfile(sp), nil, sp.State()), nil
}

// UpdateSettingsProfile plans ALTER SETTINGS PROFILE when the profile's
// settings changed.
func (p *Planner) UpdateSettingsProfile(before, after *entity.SettingsProfile) (*change.Change, error) {
	if err := after.Validate(); err != nil {
		return nil, err
	}
	if err := sameName(entity.TypeSettingsProfile, before.Name, after.Name); err != nil {
		return nil, err
	}
	stmts := diff.ProfileAttributes(before, after)
	if len(stmts) == 0 {
		return nil, ErrNoChanges
	}
	return &change.Change{
		Type:        change.TypeAlter,
		EntityType:  entity.TypeSettingsProfile,
		EntityName:  after.Name,
		Description: "Update settings profile " + after.Name,
		Statements:  stmts,
		BeforeState: before.State(),
		AfterState:  after.State(),
	}, nil
}

// DropSettingsProfile plans DROP SETTINGS PROFILE.
func (p *Planner) DropSettingsProfile(sp *entity.SettingsProfile) (*change.Change, error) {
	if strings.TrimSpace(sp.Name) == "" {
		return nil, &entity.ValidationError{Entity: entity.TypeSettingsProfile, Field: "name", Reason: "is required"}
	}
	return simple(change.TypeDrop, entity.TypeSettingsProfile, sp.Name, statement.DropSettingsProfile(sp.Name), sp.State(), nil), nil
}
