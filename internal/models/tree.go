package models

import (
	"errors"
	"image"
)

// SkipChildren can be returned from a WalkFunc to skip the subtree of a folder
var SkipChildren = errors.New("skip children")

// WalkFunc is called for every node visited by Walk. depth is 0 for the
// direct children of the node Walk started from.
type WalkFunc func(n *Node, depth int) error

// Walk visits the descendants of n in document order
func (n *Node) Walk(fn WalkFunc) error {
	err := n.walk(fn, 0)
	if err == SkipChildren {
		return nil
	}
	return err
}

func (n *Node) walk(fn WalkFunc, depth int) error {
	for _, c := range n.Children() {
		err := fn(c, depth)
		if err == SkipChildren {
			continue
		}
		if err != nil {
			return err
		}
		if err := c.walk(fn, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Counts holds the number of nodes of each kind in a subtree
type Counts struct {
	Folders    int
	Links      int
	Separators int
}

// Total returns the number of counted nodes
func (c Counts) Total() int {
	return c.Folders + c.Links + c.Separators
}

// Count tallies the descendants of n
func (n *Node) Count() Counts {
	var c Counts
	_ = n.Walk(func(d *Node, _ int) error {
		switch d.Kind {
		case KindFolder:
			c.Folders++
		case KindLink:
			c.Links++
		case KindSeparator:
			c.Separators++
		}
		return nil
	})
	return c
}

// Equal reports whether n and o hold the same fields and equal subtrees.
// Icons are compared pixel by pixel.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Kind != o.Kind ||
		n.Title != o.Title ||
		n.Description != o.Description ||
		n.URL != o.URL ||
		n.Folded != o.Folded ||
		len(n.children) != len(o.children) {
		return false
	}
	if !ImagesEqual(n.Icon, o.Icon) {
		return false
	}
	for i := range n.children {
		if !n.children[i].Equal(o.children[i]) {
			return false
		}
	}
	return true
}

// ImagesEqual compares two images by bounds and non-premultiplied pixel values
func ImagesEqual(a, b image.Image) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return false
	}
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			r1, g1, b1, a1 := a.At(ab.Min.X+x, ab.Min.Y+y).RGBA()
			r2, g2, b2, a2 := b.At(bb.Min.X+x, bb.Min.Y+y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				return false
			}
		}
	}
	return true
}
