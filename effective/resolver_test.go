package effective_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/steward/assignment"
	"github.com/xraph/steward/catalog"
	"github.com/xraph/steward/effective"
	"github.com/xraph/steward/permission"
)

type source struct {
	grants   map[string][]permission.Grant
	roles    map[string][]assignment.Assignment
	failOn   string
	grantHit atomic.Int32
}

func (s *source) ListGrants(_ context.Context, identity string) ([]permission.Grant, error) {
	s.grantHit.Add(1)
	if identity == s.failOn {
		return nil, errors.New("connection reset")
	}
	return s.grants[identity], nil
}

func (s *source) ListRoleAssignments(_ context.Context, identity string) ([]assignment.Assignment, error) {
	if "roles:"+identity == s.failOn {
		return nil, errors.New("connection reset")
	}
	return s.roles[identity], nil
}

func TestResolveKeepsProvenance(t *testing.T) {
	src := &source{
		grants: map[string][]permission.Grant{
			"alice":   {permission.New("SELECT", catalog.Database("sales"))},
			"analyst": {permission.New("INSERT", catalog.Database("sales"))},
		},
		roles: map[string][]assignment.Assignment{
			"alice": assignment.FromNames("analyst"),
		},
	}
	r := effective.NewResolver(src, src)

	got, err := r.Resolve(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "SELECT", got[0].PermissionID)
	assert.Equal(t, "direct", got[0].Provenance())
	assert.Equal(t, "INSERT", got[1].PermissionID)
	assert.Equal(t, "role:analyst", got[1].Provenance())
}

func TestResolveDoesNotMergeDuplicates(t *testing.T) {
	sel := permission.New("SELECT", catalog.Database("sales"))
	src := &source{
		grants: map[string][]permission.Grant{
			"alice":   {sel},
			"analyst": {sel},
			"auditor": {sel},
		},
		roles: map[string][]assignment.Assignment{
			"alice": assignment.FromNames("analyst", "auditor"),
		},
	}
	got, err := effective.NewResolver(src, src, effective.WithConcurrency(1)).Resolve(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "role:analyst", got[1].Provenance())
	assert.Equal(t, "role:auditor", got[2].Provenance())

	summary := effective.Summarize(got)
	require.Len(t, summary, 1)
	assert.True(t, summary[0].Direct())
	assert.Equal(t, []string{"analyst", "auditor"}, summary[0].InheritedFrom())
	assert.Len(t, effective.Grants(got), 1)
}

func TestResolveFailureReturnsNoData(t *testing.T) {
	base := func() *source {
		return &source{
			grants: map[string][]permission.Grant{
				"alice":   {permission.New("SELECT", catalog.Global())},
				"analyst": {permission.New("INSERT", catalog.Global())},
			},
			roles: map[string][]assignment.Assignment{"alice": assignment.FromNames("analyst")},
		}
	}

	cases := []struct {
		failOn string
		step   string
		role   string
	}{
		{"alice", effective.StepDirectGrants, ""},
		{"roles:alice", effective.StepRoles, ""},
		{"analyst", effective.StepRoleGrants, "analyst"},
	}
	for _, tc := range cases {
		t.Run(tc.step, func(t *testing.T) {
			src := base()
			src.failOn = tc.failOn
			got, err := effective.NewResolver(src, src).Resolve(context.Background(), "alice")
			assert.Nil(t, got)

			var re *effective.ResolutionError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, "alice", re.Identity)
			assert.Equal(t, tc.step, re.Step)
			assert.Equal(t, tc.role, re.Role)
			assert.Contains(t, err.Error(), "connection reset")
		})
	}
}

func TestResolveNoRoles(t *testing.T) {
	src := &source{grants: map[string][]permission.Grant{}}
	got, err := effective.NewResolver(src, src).Resolve(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.EqualValues(t, 1, src.grantHit.Load())
}
