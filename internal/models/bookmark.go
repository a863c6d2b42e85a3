package models

import (
	"errors"
	"image"
	"strings"
)

// Kind represents the type of a node in the bookmark tree
type Kind int

const (
	KindFolder Kind = iota
	KindLink
	KindSeparator
)

func (k Kind) String() string {
	switch k {
	case KindFolder:
		return "folder"
	case KindLink:
		return "bookmark"
	case KindSeparator:
		return "separator"
	}
	return "unknown"
}

// UnknownTitle is given to links that carry no title
const UnknownTitle = "Unknown"

var (
	ErrNotFolder = errors.New("only folders can have children")
	ErrCycle     = errors.New("node cannot be moved into its own subtree")
	ErrIndex     = errors.New("child index out of range")
)

// Node is a folder, link or separator in a bookmark tree.
//
// Folded and the children apply to folders only; URL and Icon to links only.
// A node is owned by its parent; the parent pointer is kept for navigation.
type Node struct {
	Kind        Kind
	Title       string
	Description string
	URL         string
	Icon        image.Image // nil when the link has no icon
	Folded      bool

	parent   *Node
	children []*Node
}

// NewRoot creates the invisible top folder of a tree
func NewRoot() *Node {
	return &Node{Kind: KindFolder}
}

// NewFolder creates a detached folder
func NewFolder(title string) *Node {
	return &Node{Kind: KindFolder, Title: title}
}

// NewLink creates a detached link
func NewLink(title, url string) *Node {
	return &Node{Kind: KindLink, Title: title, URL: url}
}

// NewSeparator creates a detached separator
func NewSeparator() *Node {
	return &Node{Kind: KindSeparator}
}

func (n *Node) IsFolder() bool    { return n.Kind == KindFolder }
func (n *Node) IsLink() bool      { return n.Kind == KindLink }
func (n *Node) IsSeparator() bool { return n.Kind == KindSeparator }

// IsRoot reports whether n has no parent
func (n *Node) IsRoot() bool { return n.parent == nil }

// Parent returns the owning folder, nil for a root or detached node
func (n *Node) Parent() *Node { return n.parent }

// ChildCount returns the number of direct children
func (n *Node) ChildCount() int { return len(n.children) }

// Child returns the i-th child or nil when i is out of range
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// Children returns a copy of the direct children in order
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Index returns the position of n within its parent, -1 for a root
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

// Append adds child as the last child of n
func (n *Node) Append(child *Node) error {
	size := len(n.children)
	if child.parent == n {
		size--
	}
	return n.Insert(size, child)
}

// Insert places child at position i among the children of n.
// A child that belongs to another folder is moved; i counts positions
// after child has been taken out of its old place.
func (n *Node) Insert(i int, child *Node) error {
	if n.Kind != KindFolder {
		return ErrNotFolder
	}
	for p := n; p != nil; p = p.parent {
		if p == child {
			return ErrCycle
		}
	}

	size := len(n.children)
	if child.parent == n {
		size--
	}
	if i < 0 || i > size {
		return ErrIndex
	}

	child.Detach()
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = child
	child.parent = n
	return nil
}

// Remove drops child and its subtree from n. It reports whether child was found.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// Detach removes n from its parent, if any
func (n *Node) Detach() {
	if n.parent != nil {
		n.parent.Remove(n)
	}
}

// Path returns the slash-separated titles of the folders above n
func (n *Node) Path() string {
	var parts []string
	for p := n.parent; p != nil && p.parent != nil; p = p.parent {
		parts = append(parts, p.Title)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/")
}

// Clone returns a deep copy of n without a parent. Icons are shared.
func (n *Node) Clone() *Node {
	c := &Node{
		Kind:        n.Kind,
		Title:       n.Title,
		Description: n.Description,
		URL:         n.URL,
		Icon:        n.Icon,
		Folded:      n.Folded,
	}
	for _, child := range n.children {
		cc := child.Clone()
		cc.parent = c
		c.children = append(c.children, cc)
	}
	return c
}
