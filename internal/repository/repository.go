package repository

import "github.com/dastanaron/xbelmarks/internal/models"

// TreeRepository stores a whole bookmark tree
type TreeRepository interface {
	// Load returns the stored tree. An empty store yields an empty root.
	Load() (*models.Node, error)
	// Save replaces the stored tree with root. On error the stored tree is unchanged.
	Save(root *models.Node) error
	Close() error
}
