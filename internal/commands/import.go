package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/dastanaron/xbelmarks/internal/models"
	"github.com/dastanaron/xbelmarks/internal/service"
)

// ImportCommand handles bookmark import from XBEL or HTML files
type ImportCommand struct {
	bookmarkSvc *service.BookmarkService
	out         io.Writer
	log         logrus.FieldLogger
	// Merge appends the imported items instead of replacing the stored tree
	Merge bool
}

// NewImportCommand creates a new import command
func NewImportCommand(bookmarkSvc *service.BookmarkService, out io.Writer, log logrus.FieldLogger) *ImportCommand {
	return &ImportCommand{
		bookmarkSvc: bookmarkSvc,
		out:         out,
		log:         log,
	}
}

// Execute imports bookmarks from a file and stores the result. A file that
// cannot be parsed leaves the stored bookmarks untouched.
func (c *ImportCommand) Execute(filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("cannot open file: %w", err)
	}
	defer file.Close()

	format := DetectFormat(filePath)
	var counts models.Counts
	switch format {
	case FormatHTML:
		counts, err = c.bookmarkSvc.ImportHTML(file, c.Merge)
	default:
		counts, err = c.bookmarkSvc.ImportXBEL(file, c.Merge)
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", format, err)
	}

	if err := c.bookmarkSvc.Save(); err != nil {
		return err
	}

	c.log.WithFields(logrus.Fields{
		"path":       filePath,
		"format":     format.String(),
		"merge":      c.Merge,
		"folders":    counts.Folders,
		"links":      counts.Links,
		"separators": counts.Separators,
	}).Info("bookmarks imported")
	fmt.Fprintf(c.out, "Imported %d bookmarks.\n", counts.Links)
	return nil
}
