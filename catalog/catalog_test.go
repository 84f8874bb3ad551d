package catalog_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/steward/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	all := []catalog.ScopeKind{catalog.ScopeGlobal, catalog.ScopeDatabase, catalog.ScopeTable}
	c, err := catalog.New(
		&catalog.Node{ID: "SELECT", Keyword: "SELECT", Scopes: all},
		&catalog.Node{ID: "ALTER", Keyword: "ALTER", Scopes: all, Children: []*catalog.Node{
			{ID: "ALTER_TABLE", Keyword: "ALTER TABLE", Scopes: all, Children: []*catalog.Node{
				{ID: "ALTER_ADD_COLUMN", Keyword: "ALTER ADD COLUMN", Scopes: all},
			}},
		}},
		&catalog.Node{ID: "SYSTEM", Keyword: "SYSTEM", Scopes: []catalog.ScopeKind{catalog.ScopeGlobal}},
	)
	require.NoError(t, err)
	return c
}

func TestLookup(t *testing.T) {
	c := testCatalog(t)

	n, err := c.Lookup("ALTER_TABLE")
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE", n.Keyword)

	_, err = c.Lookup("NOPE")
	assert.ErrorIs(t, err, catalog.ErrNodeNotFound)

	n, err = c.LookupKeyword("alter add column")
	require.NoError(t, err)
	assert.Equal(t, "ALTER_ADD_COLUMN", n.ID)
}

func TestParentAndAncestors(t *testing.T) {
	c := testCatalog(t)

	p, ok := c.ParentOf("ALTER_ADD_COLUMN")
	assert.True(t, ok)
	assert.Equal(t, "ALTER_TABLE", p)

	_, ok = c.ParentOf("ALTER")
	assert.False(t, ok)

	assert.Equal(t, []string{"ALTER_TABLE", "ALTER"}, c.AncestorsOf("ALTER_ADD_COLUMN"))
	assert.Empty(t, c.AncestorsOf("SELECT"))
}

func TestAllIDsPreOrder(t *testing.T) {
	c := testCatalog(t)
	assert.Equal(t, []string{"SELECT", "ALTER", "ALTER_TABLE", "ALTER_ADD_COLUMN", "SYSTEM"}, c.AllIDs())
	assert.Equal(t, 5, c.Len())
}

func TestWalkSkipsChildren(t *testing.T) {
	c := testCatalog(t)
	var seen []string
	c.Walk(func(n *catalog.Node, depth int) bool {
		seen = append(seen, n.ID)
		return n.ID != "ALTER_TABLE"
	})
	assert.Equal(t, []string{"SELECT", "ALTER", "ALTER_TABLE", "SYSTEM"}, seen)
}

func TestResolveScope(t *testing.T) {
	c := testCatalog(t)

	s, err := c.ResolveScope("SELECT", catalog.Scope{Kind: catalog.ScopeDatabase, Database: "sales", Table: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, catalog.Database("sales"), s)

	_, err = c.ResolveScope("SYSTEM", catalog.Database("sales"))
	assert.ErrorIs(t, err, catalog.ErrInvalidScopeKind)
	var se *catalog.ScopeError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "SYSTEM", se.CapabilityID)

	_, err = c.ResolveScope("SELECT", catalog.Scope{Kind: catalog.ScopeTable, Database: "sales"})
	assert.ErrorIs(t, err, catalog.ErrInvalidScope)

	_, err = c.ResolveScope("MISSING", catalog.Global())
	assert.ErrorIs(t, err, catalog.ErrNodeNotFound)
}

func TestFormatScope(t *testing.T) {
	assert.Equal(t, "*.*", catalog.FormatScope(catalog.Global()))
	assert.Equal(t, "sales.*", catalog.FormatScope(catalog.Database("sales")))
	assert.Equal(t, "sales.orders", catalog.FormatScope(catalog.Table("sales", "orders")))
	assert.Equal(t, "`my-db`.`order items`", catalog.FormatScope(catalog.Table("my-db", "order items")))

	s := catalog.Table("sales", "orders")
	assert.Equal(t, catalog.FormatScope(s), catalog.FormatScope(s))
}

func TestParseScope(t *testing.T) {
	for in, want := range map[string]catalog.Scope{
		"*.*":          catalog.Global(),
		"sales.*":      catalog.Database("sales"),
		"sales.orders": catalog.Table("sales", "orders"),
	} {
		got, err := catalog.ParseScope(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"", "sales", "*.orders", "sales."} {
		_, err := catalog.ParseScope(bad)
		assert.ErrorIs(t, err, catalog.ErrInvalidScope, bad)
	}
}

func TestNewRejectsInvalidTrees(t *testing.T) {
	global := []catalog.ScopeKind{catalog.ScopeGlobal}

	_, err := catalog.New(&catalog.Node{ID: "A", Keyword: "A", Scopes: global, Children: []*catalog.Node{
		{ID: "B", Keyword: "B", Scopes: []catalog.ScopeKind{catalog.ScopeTable}},
	}})
	assert.ErrorIs(t, err, catalog.ErrInvalidCatalog)

	_, err = catalog.New(&catalog.Node{ID: "A", Keyword: "A"})
	assert.ErrorIs(t, err, catalog.ErrInvalidCatalog)

	_, err = catalog.New(
		&catalog.Node{ID: "A", Keyword: "A", Scopes: global},
		&catalog.Node{ID: "A", Keyword: "A2", Scopes: global},
	)
	assert.ErrorIs(t, err, catalog.ErrInvalidCatalog)

	cyclic := &catalog.Node{ID: "A", Keyword: "A", Scopes: global}
	cyclic.Children = []*catalog.Node{cyclic}
	_, err = catalog.New(cyclic)
	assert.ErrorIs(t, err, catalog.ErrInvalidCatalog)
}

func TestLoad(t *testing.T) {
	c, err := catalog.Load(strings.NewReader(`
capabilities:
  - id: SELECT
    name: Select
    keyword: SELECT
    scopes: [global, database, table]
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT"}, c.AllIDs())

	_, err = catalog.Load(strings.NewReader("capabilities: []\n"))
	assert.ErrorIs(t, err, catalog.ErrInvalidCatalog)
}

func TestDefaultCatalog(t *testing.T) {
	c := catalog.Default()
	require.Same(t, c, catalog.Default())

	p, ok := c.ParentOf("ALTER_ADD_COLUMN")
	require.True(t, ok)
	assert.Equal(t, "ALTER_TABLE", p)

	n, err := c.LookupKeyword("dictGet")
	require.NoError(t, err)
	assert.Equal(t, "DICT_GET", n.ID)

	_, err = c.ResolveScope("CREATE_DATABASE", catalog.Table("a", "b"))
	assert.ErrorIs(t, err, catalog.ErrInvalidScopeKind)
}
