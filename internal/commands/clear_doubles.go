package commands

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/dastanaron/xbelmarks/internal/service"
)

// ClearDoublesCommand handles removal of duplicate bookmarks
type ClearDoublesCommand struct {
	bookmarkSvc *service.BookmarkService
	out         io.Writer
	log         logrus.FieldLogger
}

// NewClearDoublesCommand creates a new clear doubles command
func NewClearDoublesCommand(bookmarkSvc *service.BookmarkService, out io.Writer, log logrus.FieldLogger) *ClearDoublesCommand {
	return &ClearDoublesCommand{
		bookmarkSvc: bookmarkSvc,
		out:         out,
		log:         log,
	}
}

// Execute removes duplicate bookmarks (keeps the first one in document order)
func (c *ClearDoublesCommand) Execute() error {
	removed := c.bookmarkSvc.ClearDoubles()
	if len(removed) == 0 {
		fmt.Fprintln(c.out, "No duplicate bookmarks found.")
		return nil
	}

	for _, b := range removed {
		fmt.Fprintf(c.out, "Removed duplicate: '%s' (%s)\n", b.Title, b.URL)
	}

	if err := c.bookmarkSvc.Save(); err != nil {
		return err
	}

	c.log.WithField("removed", len(removed)).Info("duplicate bookmarks removed")
	fmt.Fprintf(c.out, "Deleted %d duplicate bookmark(s).\n", len(removed))
	return nil
}
