// Package catalog models the privilege hierarchy of the target database:
// an immutable tree of grantable capabilities and the scopes each one may
// be restricted to.
package catalog

import (
	"fmt"
	"slices"
	"strings"
)

// Catalog is an immutable, indexed privilege tree. It is safe for
// concurrent use; callers must not mutate the nodes it returns.
type Catalog struct {
	roots     []*Node
	byID      map[string]*Node
	byKeyword map[string]*Node
	parent    map[string]string
	order     []string
}

// New indexes and validates the given root nodes.
func New(roots ...*Node) (*Catalog, error) {
	c := &Catalog{
		roots:     roots,
		byID:      make(map[string]*Node),
		byKeyword: make(map[string]*Node),
		parent:    make(map[string]string),
	}
	for _, r := range roots {
		if err := c.index(r, nil); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on an invalid tree.
func MustNew(roots ...*Node) *Catalog {
	c, err := New(roots...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) index(n, parent *Node) error {
	if n == nil {
		return fmt.Errorf("%w: nil node", ErrInvalidCatalog)
	}
	if n.ID == "" {
		return fmt.Errorf("%w: node without id", ErrInvalidCatalog)
	}
	if _, dup := c.byID[n.ID]; dup {
		return fmt.Errorf("%w: duplicate id %q", ErrInvalidCatalog, n.ID)
	}
	if n.Keyword == "" {
		return fmt.Errorf("%w: %s has no keyword", ErrInvalidCatalog, n.ID)
	}
	if len(n.Scopes) == 0 {
		return fmt.Errorf("%w: %s allows no scope", ErrInvalidCatalog, n.ID)
	}
	for _, k := range n.Scopes {
		if !k.Valid() {
			return fmt.Errorf("%w: %s has unknown scope kind %q", ErrInvalidCatalog, n.ID, k)
		}
		if parent != nil && !parent.Allows(k) {
			return fmt.Errorf("%w: %s allows %s scope but parent %s does not",
				ErrInvalidCatalog, n.ID, k, parent.ID)
		}
	}

	c.byID[n.ID] = n
	c.order = append(c.order, n.ID)
	kw := strings.ToUpper(n.Keyword)
	if _, seen := c.byKeyword[kw]; !seen {
		c.byKeyword[kw] = n
	}
	if parent != nil {
		c.parent[n.ID] = parent.ID
	}

	for _, child := range n.Children {
		if err := c.index(child, n); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the node with the given id.
func (c *Catalog) Lookup(id string) (*Node, error) {
	n, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return n, nil
}

// Has reports whether id is a known capability.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// LookupKeyword returns the node whose statement keyword matches kw,
// ignoring case. Used to map grants read back from the server.
func (c *Catalog) LookupKeyword(kw string) (*Node, error) {
	n, ok := c.byKeyword[strings.ToUpper(strings.TrimSpace(kw))]
	if !ok {
		return nil, fmt.Errorf("%w: keyword %q", ErrNodeNotFound, kw)
	}
	return n, nil
}

// ParentOf returns the parent id of id. ok is false for roots and unknown ids.
func (c *Catalog) ParentOf(id string) (string, bool) {
	p, ok := c.parent[id]
	return p, ok
}

// AncestorsOf returns the ancestors of id, nearest first.
func (c *Catalog) AncestorsOf(id string) []string {
	var out []string
	for p, ok := c.parent[id]; ok; p, ok = c.parent[p] {
		out = append(out, p)
	}
	return out
}

// AllIDs returns every capability id in pre-order.
func (c *Catalog) AllIDs() []string {
	return slices.Clone(c.order)
}

// Roots returns the top-level nodes.
func (c *Catalog) Roots() []*Node {
	return slices.Clone(c.roots)
}

// Len returns the number of capabilities.
func (c *Catalog) Len() int { return len(c.order) }

// Walk visits every node in pre-order with its depth. Returning false from
// fn skips the node's children.
func (c *Catalog) Walk(fn func(n *Node, depth int) bool) {
	var walk func(nodes []*Node, depth int)
	walk = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			if fn(n, depth) {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(c.roots, 0)
}

// ResolveScope validates raw against the capability's allowed scope kinds
// and returns the normalized scope.
func (c *Catalog) ResolveScope(capabilityID string, raw Scope) (Scope, error) {
	n, err := c.Lookup(capabilityID)
	if err != nil {
		return Scope{}, err
	}
	if err := raw.Validate(); err != nil {
		return Scope{}, err
	}
	if !n.Allows(raw.Kind) {
		return Scope{}, &ScopeError{CapabilityID: capabilityID, Kind: raw.Kind, Allowed: slices.Clone(n.Scopes)}
	}
	return raw.normalize(), nil
}
