package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/steward/audit"
	"github.com/xraph/steward/catalog"
	"github.com/xraph/steward/change"
	"github.com/xraph/steward/entity"
	"github.com/xraph/steward/id"
)

func TestDecodeDesired(t *testing.T) {
	src := `
identities:
  - type: user
    name: alice
    grants:
      - permission: SELECT
        scope: sales.*
      - permission: INSERT
        scope:
          kind: table
          database: sales
          table: orders
  - type: ROLE
    name: analyst
    roles: []
`
	got, err := DecodeDesired(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, entity.TypeUser, got[0].Type)
	assert.Equal(t, "alice", got[0].Name)
	require.Len(t, got[0].Grants, 2)
	assert.Equal(t, catalog.Database("sales"), got[0].Grants[0].Scope)
	assert.Equal(t, catalog.Table("sales", "orders"), got[0].Grants[1].Scope)
	assert.Nil(t, got[0].Roles)

	assert.Equal(t, entity.TypeRole, got[1].Type)
	assert.Nil(t, got[1].Grants)
	assert.NotNil(t, got[1].Roles)
	assert.Empty(t, got[1].Roles)
}

func TestDecodeDesired_Errors(t *testing.T) {
	cases := map[string]string{
		"quota":     "identities:\n  - type: quota\n    name: q\n",
		"no name":   "identities:\n  - type: user\n",
		"duplicate": "identities:\n  - type: user\n    name: a\n  - type: USER\n    name: a\n",
		"unknown":   "identities:\n  - type: user\n    name: a\n    grnts: []\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeDesired(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
}

func TestDecodeDesired_Empty(t *testing.T) {
	got, err := DecodeDesired(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRendererChangesAndReport(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	r.Changes(nil)
	assert.Contains(t, buf.String(), "No changes.")

	buf.Reset()
	c := &change.Change{
		ID:          id.NewChangeID(),
		Type:        change.TypeGrant,
		EntityType:  entity.TypeUser,
		EntityName:  "alice",
		Description: "grant SELECT",
		Statements:  []string{"GRANT SELECT ON sales.* TO alice", "REVOKE INSERT ON *.* FROM alice"},
	}
	r.Changes([]*change.Change{c})
	out := buf.String()
	assert.Contains(t, out, "GRANT USER alice")
	assert.Contains(t, out, "GRANT SELECT ON sales.* TO alice")
	assert.Contains(t, out, "REVOKE INSERT ON *.* FROM alice")

	buf.Reset()
	r.Report(&change.Report{
		Total:     1,
		Attempted: 1,
		Results:   []change.Result{{ChangeID: c.ID, Success: false, Error: "access denied"}},
		Failure:   &change.Failure{ChangeID: c.ID, EntityName: "alice", Statement: c.Statements[0], Error: "access denied"},
	})
	out = buf.String()
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "0 of 1 changes succeeded")
}

func TestRendererMasksPasswords(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).Changes([]*change.Change{{
		Type:       change.TypeCreate,
		EntityType: entity.TypeUser,
		EntityName: "alice",
		Statements: []string{"CREATE USER alice IDENTIFIED WITH sha256_password BY 'hunter2'"},
	}})
	assert.NotContains(t, buf.String(), "hunter2")
	assert.Contains(t, buf.String(), "BY '[redacted]'")
}

func TestRendererAudit(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	r.AuditEntries([]*audit.Entry{{
		ID:         id.NewAuditEntryID(),
		Timestamp:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Actor:      "ops",
		ChangeType: change.TypeRevoke,
		EntityType: entity.TypeRole,
		EntityName: "analyst",
		Success:    true,
	}})
	assert.Contains(t, buf.String(), "2026-03-01 12:00:00")
	assert.Contains(t, buf.String(), "analyst")

	buf.Reset()
	r.Stats(&audit.Stats{
		Total: 3, Succeeded: 2, Failed: 1,
		ByActor:      map[string]int64{"ops": 3},
		ByChangeType: map[string]int64{"GRANT": 3},
		RecentByDay:  map[string]int64{"2026-03-01": 3},
	})
	out := buf.String()
	assert.Contains(t, out, "2 succeeded")
	assert.Contains(t, out, "ops")
	assert.Contains(t, out, "2026-03-01")
}

func TestRendererCatalog(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).Catalog(catalog.Default())
	assert.Contains(t, buf.String(), "SELECT")
}
