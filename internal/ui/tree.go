package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/dastanaron/xbelmarks/internal/models"
)

const separatorText = "────────────"

// buildTree mirrors the bookmark tree as tview nodes. Folders are expanded
// unless they are folded.
func buildTree(root *models.Node) *tview.TreeNode {
	treeRoot := tview.NewTreeNode("Bookmarks").
		SetReference(root).
		SetColor(tcell.ColorYellow)
	addChildren(treeRoot, root)
	return treeRoot
}

func addChildren(target *tview.TreeNode, n *models.Node) {
	for _, child := range n.Children() {
		node := tview.NewTreeNode(label(child)).SetReference(child)
		switch child.Kind {
		case models.KindFolder:
			node.SetColor(tcell.ColorGreen)
			node.SetExpanded(!child.Folded)
			addChildren(node, child)
		case models.KindSeparator:
			node.SetColor(tcell.ColorGray)
		}
		target.AddChild(node)
	}
}

func label(n *models.Node) string {
	switch n.Kind {
	case models.KindFolder:
		return "📁 " + n.Title
	case models.KindSeparator:
		return separatorText
	}
	return n.Title
}

// findTreeNode returns the view node referencing n and its ancestors, root first
func findTreeNode(treeRoot *tview.TreeNode, n *models.Node) (*tview.TreeNode, []*tview.TreeNode) {
	parents := make(map[*tview.TreeNode]*tview.TreeNode)
	var found *tview.TreeNode
	treeRoot.Walk(func(node, parent *tview.TreeNode) bool {
		if found != nil {
			return false
		}
		parents[node] = parent
		if node.GetReference() == n {
			found = node
			return false
		}
		return true
	})
	if found == nil {
		return nil, nil
	}

	var ancestors []*tview.TreeNode
	for p := parents[found]; p != nil; p = parents[p] {
		ancestors = append([]*tview.TreeNode{p}, ancestors...)
	}
	return found, ancestors
}

// targetFolder is where new items go when n is selected: n itself if it is
// a folder, otherwise its parent. Nothing selected means root.
func targetFolder(n, root *models.Node) *models.Node {
	if n == nil || (n.Parent() == nil && !n.IsFolder()) {
		return root
	}
	if n.IsFolder() {
		return n
	}
	return n.Parent()
}

func details(n *models.Node) string {
	if n == nil {
		return ""
	}

	switch n.Kind {
	case models.KindFolder:
		if n.IsRoot() {
			c := n.Count()
			return fmt.Sprintf(
				"[::b]Folders:[::-] %d\n[::b]Bookmarks:[::-] %d\n[::b]Separators:[::-] %d",
				c.Folders, c.Links, c.Separators)
		}
		state := "expanded"
		if n.Folded {
			state = "folded"
		}
		return fmt.Sprintf(
			"[::b]Type:[::-]\nFolder (%s)\n\n[::b]Title:[::-]\n%s\n\n[::b]Description:[::-]\n%s\n\n[::b]Parent:[::-]\n%s\n\n[::b]Items:[::-]\n%d",
			state, tview.Escape(n.Title), tview.Escape(n.Description), tview.Escape(n.Path()), n.ChildCount())

	case models.KindLink:
		iconText := "none"
		if n.Icon != nil {
			b := n.Icon.Bounds()
			iconText = fmt.Sprintf("%dx%d", b.Dx(), b.Dy())
		}
		return fmt.Sprintf(
			"[::b]Type:[::-]\nBookmark\n\n[::b]Title:[::-]\n%s\n\n[::b]URL:[::-]\n%s\n\n[::b]Description:[::-]\n%s\n\n[::b]Folder:[::-]\n%s\n\n[::b]Icon:[::-]\n%s",
			tview.Escape(n.Title), tview.Escape(n.URL), tview.Escape(n.Description), tview.Escape(n.Path()), iconText)
	}

	return fmt.Sprintf("[::b]Type:[::-]\nSeparator\n\n[::b]Folder:[::-]\n%s", tview.Escape(n.Path()))
}

func statusLine(c models.Counts, dirty bool, message string) string {
	var b strings.Builder
	b.WriteString("[::b]Enter[::r] open/fold  [::b]a[::r] add  [::b]f[::r] folder  [::b]-[::r] separator  [::b]e[::r] edit  [::b]d[::r] del  [::b]s[::r] save  [::b]/[::r] search  [::b]n[::r] next  [::b]q[::r] quit")
	fmt.Fprintf(&b, "  [::b]%d[::r] bookmarks, %d folders", c.Links, c.Folders)
	if dirty {
		b.WriteString("  [red]modified[-]")
	}
	if message != "" {
		b.WriteString("  " + message)
	}
	return b.String()
}
