package depexpr

import "strings"

// Kind identifies the type of an AST node.
type Kind int

const (
	KindVersion Kind = iota
	KindItem
	KindAnd
	KindOr
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindVersion:
		return "version"
	case KindItem:
		return "item"
	case KindAnd:
		return "and"
	case KindOr:
		return "or"
	}
	return "unknown"
}

// Node is a dependency expression tree node. Trees are immutable once built.
type Node interface {
	Kind() Kind
	// String renders the node back into expression syntax.
	String() string
}

// VersionNode references a core API version such as VK_VERSION_1_1.
type VersionNode struct {
	Name string
}

// ItemNode references an extension by name.
type ItemNode struct {
	Name string
}

// AndNode requires all of its terms. It always has at least two terms.
type AndNode struct {
	Terms []Node
}

// OrNode requires any of its terms. It always has at least two terms.
type OrNode struct {
	Terms []Node
}

func (*VersionNode) Kind() Kind { return KindVersion }
func (*ItemNode) Kind() Kind    { return KindItem }
func (*AndNode) Kind() Kind     { return KindAnd }
func (*OrNode) Kind() Kind      { return KindOr }

func (n *VersionNode) String() string { return n.Name }
func (n *ItemNode) String() string    { return n.Name }

func (n *AndNode) String() string {
	parts := make([]string, len(n.Terms))
	for i, t := range n.Terms {
		if t.Kind() == KindOr {
			parts[i] = "(" + t.String() + ")"
		} else {
			parts[i] = t.String()
		}
	}
	return strings.Join(parts, "+")
}

func (n *OrNode) String() string {
	parts := make([]string, len(n.Terms))
	for i, t := range n.Terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}

// NewAnd builds an AND of terms. A single term is returned unwrapped and an
// empty list yields nil.
func NewAnd(terms ...Node) Node {
	switch len(terms) {
	case 0:
		return nil
	case 1:
		return terms[0]
	}
	return &AndNode{Terms: terms}
}

// NewOr builds an OR of terms. A single term is returned unwrapped and an
// empty list yields nil.
func NewOr(terms ...Node) Node {
	switch len(terms) {
	case 0:
		return nil
	case 1:
		return terms[0]
	}
	return &OrNode{Terms: terms}
}

// Walk calls fn for every node in depth-first, left-to-right order.
// Returning false from fn skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *AndNode:
		for _, t := range n.Terms {
			Walk(t, fn)
		}
	case *OrNode:
		for _, t := range n.Terms {
			Walk(t, fn)
		}
	}
}

// Names returns every item and version name referenced by n, in first-seen
// order without duplicates.
func Names(n Node) (items, versions []string) {
	seen := make(map[string]bool)
	Walk(n, func(n Node) bool {
		switch n := n.(type) {
		case *ItemNode:
			if !seen[n.Name] {
				seen[n.Name] = true
				items = append(items, n.Name)
			}
		case *VersionNode:
			if !seen[n.Name] {
				seen[n.Name] = true
				versions = append(versions, n.Name)
			}
		}
		return true
	})
	return items, versions
}
