package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/dastanaron/xbelmarks/internal/service"
)

// ExportCommand handles bookmark export to XBEL or HTML files
type ExportCommand struct {
	bookmarkSvc *service.BookmarkService
	out         io.Writer
	log         logrus.FieldLogger
}

// NewExportCommand creates a new export command
func NewExportCommand(bookmarkSvc *service.BookmarkService, out io.Writer, log logrus.FieldLogger) *ExportCommand {
	return &ExportCommand{
		bookmarkSvc: bookmarkSvc,
		out:         out,
		log:         log,
	}
}

// Execute writes the bookmarks to a file, in HTML for .html/.htm paths and
// XBEL otherwise
func (c *ExportCommand) Execute(filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("cannot create file: %w", err)
	}

	format := DetectFormat(filePath)
	switch format {
	case FormatHTML:
		err = c.bookmarkSvc.ExportHTML(file)
	default:
		err = c.bookmarkSvc.ExportXBEL(file)
	}
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", format, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("cannot close file: %w", err)
	}

	counts := c.bookmarkSvc.Root().Count()
	c.log.WithFields(logrus.Fields{
		"path":   filePath,
		"format": format.String(),
		"links":  counts.Links,
	}).Info("bookmarks exported")
	fmt.Fprintf(c.out, "Exported %d bookmarks to %s\n", counts.Links, filePath)
	return nil
}
