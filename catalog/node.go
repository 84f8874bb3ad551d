package catalog

import "slices"

// Node is a grantable capability in the privilege hierarchy.
type Node struct {
	ID          string      `json:"id" yaml:"id"`
	DisplayName string      `json:"display_name" yaml:"name"`
	Keyword     string      `json:"keyword" yaml:"keyword"`
	Scopes      []ScopeKind `json:"scopes" yaml:"scopes"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Children    []*Node     `json:"children,omitempty" yaml:"children,omitempty"`
}

// Allows reports whether the capability may be granted at kind.
func (n *Node) Allows(kind ScopeKind) bool {
	return slices.Contains(n.Scopes, kind)
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }
