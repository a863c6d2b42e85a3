package service

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dastanaron/xbelmarks/internal/models"
	"github.com/dastanaron/xbelmarks/internal/netscape"
	"github.com/dastanaron/xbelmarks/internal/repository"
	"github.com/dastanaron/xbelmarks/internal/xbel"
)

var (
	ErrNotInTree = errors.New("node does not belong to the bookmark tree")
	ErrRoot      = errors.New("the root folder cannot be changed")
)

// BookmarkService holds the current bookmark tree and the operations on it.
// It is not safe for concurrent use.
type BookmarkService struct {
	repo     repository.TreeRepository
	log      logrus.FieldLogger
	iconSize int
	root     *models.Node
}

// NewBookmarkService creates a new bookmark service with an empty tree
func NewBookmarkService(repo repository.TreeRepository, log logrus.FieldLogger) *BookmarkService {
	return &BookmarkService{
		repo:     repo,
		log:      log,
		iconSize: 16,
		root:     models.NewRoot(),
	}
}

// WithIconSize sets the edge length HTML imports scale icons down to
func (s *BookmarkService) WithIconSize(size int) *BookmarkService {
	s.iconSize = size
	return s
}

// Root returns the root folder of the current tree
func (s *BookmarkService) Root() *models.Node {
	return s.root
}

// Load replaces the current tree with the stored one
func (s *BookmarkService) Load() error {
	root, err := s.repo.Load()
	if err != nil {
		return fmt.Errorf("load bookmarks: %w", err)
	}
	s.root = root
	return nil
}

// Save stores the current tree
func (s *BookmarkService) Save() error {
	if err := s.repo.Save(s.root); err != nil {
		return fmt.Errorf("save bookmarks: %w", err)
	}
	c := s.root.Count()
	s.log.WithFields(logrus.Fields{
		"folders":    c.Folders,
		"links":      c.Links,
		"separators": c.Separators,
	}).Debug("bookmarks saved")
	return nil
}

// ImportXBEL reads an XBEL document. Without merge the current tree is
// replaced; with merge the imported items are appended to the root. On
// error the current tree is left untouched.
func (s *BookmarkService) ImportXBEL(r io.Reader, merge bool) (models.Counts, error) {
	root, err := xbel.NewReader(xbel.WithLogger(s.log)).Read(r)
	if err != nil {
		return models.Counts{}, err
	}
	return s.adopt(root, merge)
}

// ImportHTML reads a Netscape HTML bookmark file, see ImportXBEL
func (s *BookmarkService) ImportHTML(r io.Reader, merge bool) (models.Counts, error) {
	root, err := netscape.NewParser(s.log, s.iconSize).Parse(r)
	if err != nil {
		return models.Counts{}, err
	}
	return s.adopt(root, merge)
}

func (s *BookmarkService) adopt(imported *models.Node, merge bool) (models.Counts, error) {
	counts := imported.Count()
	if !merge {
		s.root = imported
		return counts, nil
	}

	for _, child := range imported.Children() {
		if err := s.root.Append(child); err != nil {
			return models.Counts{}, err
		}
	}
	return counts, nil
}

// ExportXBEL writes the current tree as XBEL
func (s *BookmarkService) ExportXBEL(w io.Writer) error {
	return xbel.NewWriter(xbel.WithLogger(s.log)).Write(w, s.root)
}

// ExportHTML writes the current tree as a Netscape HTML bookmark file
func (s *BookmarkService) ExportHTML(w io.Writer) error {
	return netscape.NewWriter(s.log).Write(w, s.root)
}

// Search returns folders and links whose title, URL or description contains
// query, ignoring case, in document order
func (s *BookmarkService) Search(query string) []*models.Node {
	queryLower := strings.ToLower(query)
	var found []*models.Node
	_ = s.root.Walk(func(n *models.Node, _ int) error {
		if n.IsSeparator() {
			return nil
		}
		if query == "" ||
			strings.Contains(strings.ToLower(n.Title), queryLower) ||
			strings.Contains(strings.ToLower(n.URL), queryLower) ||
			strings.Contains(strings.ToLower(n.Description), queryLower) {
			found = append(found, n)
		}
		return nil
	})
	return found
}

// ClearDoubles removes links whose URL already appeared earlier in the tree
// and returns the removed links
func (s *BookmarkService) ClearDoubles() []*models.Node {
	seenURLs := make(map[string]bool)
	var doubles []*models.Node

	_ = s.root.Walk(func(n *models.Node, _ int) error {
		if !n.IsLink() || n.URL == "" {
			return nil
		}
		if seenURLs[n.URL] {
			doubles = append(doubles, n)
		} else {
			seenURLs[n.URL] = true
		}
		return nil
	})

	for _, n := range doubles {
		n.Detach()
	}
	return doubles
}

// Add appends n to parent, or to the root when parent is nil
func (s *BookmarkService) Add(parent, n *models.Node) error {
	if parent == nil {
		parent = s.root
	}
	if !s.contains(parent) {
		return ErrNotInTree
	}
	return parent.Append(n)
}

// Update changes the text fields of n. Links without a title get a placeholder.
func (s *BookmarkService) Update(n *models.Node, title, url, description string) error {
	if n == s.root {
		return ErrRoot
	}
	if !s.contains(n) {
		return ErrNotInTree
	}

	switch n.Kind {
	case models.KindLink:
		if title == "" {
			title = models.UnknownTitle
		}
		n.Title, n.URL, n.Description = title, url, description
	case models.KindFolder:
		n.Title, n.Description = title, description
	}
	return nil
}

// Delete removes n and its subtree
func (s *BookmarkService) Delete(n *models.Node) error {
	if n == s.root {
		return ErrRoot
	}
	if !s.contains(n) {
		return ErrNotInTree
	}
	n.Detach()
	return nil
}

// ToggleFolded flips the folded state of a folder and returns the new state
func (s *BookmarkService) ToggleFolded(n *models.Node) (bool, error) {
	if n == s.root {
		return false, ErrRoot
	}
	if !n.IsFolder() {
		return false, models.ErrNotFolder
	}
	if !s.contains(n) {
		return false, ErrNotInTree
	}
	n.Folded = !n.Folded
	return n.Folded, nil
}

func (s *BookmarkService) contains(n *models.Node) bool {
	for p := n; p != nil; p = p.Parent() {
		if p == s.root {
			return true
		}
	}
	return false
}
