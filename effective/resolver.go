// Package effective resolves the effective grants of an identity: its own
// grants plus every grant inherited through its assigned roles, each tagged
// with where it came from.
package effective

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/steward/assignment"
	"github.com/xraph/steward/permission"
)

// DefaultConcurrency bounds the number of role grant reads in flight.
const DefaultConcurrency = 8

// Resolution steps reported by ResolutionError.
const (
	StepDirectGrants = "direct_grants"
	StepRoles        = "role_assignments"
	StepRoleGrants   = "role_grants"
)

// ResolutionError reports the read that failed. No partial result
// accompanies it.
type ResolutionError struct {
	Identity string
	Step     string
	Role     string
	Err      error
}

func (e *ResolutionError) Error() string {
	if e.Role != "" {
		return fmt.Sprintf("effective: resolve %s: %s of role %s: %v", e.Identity, e.Step, e.Role, e.Err)
	}
	return fmt.Sprintf("effective: resolve %s: %s: %v", e.Identity, e.Step, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(r *Resolver) { r.logger = l } }

// WithConcurrency bounds concurrent role grant reads. Values below 1 are
// ignored.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// Resolver merges direct and role-inherited grants.
type Resolver struct {
	grants      permission.Reader
	roles       assignment.Reader
	concurrency int
	logger      *slog.Logger
}

// NewResolver creates a resolver reading grants and role assignments from
// the given sources.
func NewResolver(grants permission.Reader, roles assignment.Reader, opts ...Option) *Resolver {
	r := &Resolver{
		grants:      grants,
		roles:       roles,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the effective grants of identity. Direct grants come
// first, followed by each role's grants in assignment order. Identical
// grants from different sources are all kept. Any failed read aborts the
// resolution.
func (r *Resolver) Resolve(ctx context.Context, identity string) ([]permission.Extended, error) {
	var (
		direct []permission.Grant
		roles  []assignment.Assignment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		direct, err = r.grants.ListGrants(gctx, identity)
		if err != nil {
			return &ResolutionError{Identity: identity, Step: StepDirectGrants, Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		roles, err = r.roles.ListRoleAssignments(gctx, identity)
		if err != nil {
			return &ResolutionError{Identity: identity, Step: StepRoles, Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	perRole := make([][]permission.Grant, len(roles))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, a := range roles {
		g.Go(func() error {
			grants, err := r.grants.ListGrants(gctx, a.Role)
			if err != nil {
				return &ResolutionError{Identity: identity, Step: StepRoleGrants, Role: a.Role, Err: err}
			}
			perRole[i] = grants
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	size := len(direct)
	for _, gs := range perRole {
		size += len(gs)
	}
	out := make([]permission.Extended, 0, size)
	for _, gr := range direct {
		out = append(out, permission.Direct(gr))
	}
	for i, a := range roles {
		for _, gr := range perRole[i] {
			out = append(out, permission.FromRole(gr, a.Role))
		}
	}

	r.logger.Debug("effective grants resolved",
		slog.String("identity", identity),
		slog.Int("direct", len(direct)),
		slog.Int("roles", len(roles)),
		slog.Int("total", len(out)),
	)
	return out, nil
}
