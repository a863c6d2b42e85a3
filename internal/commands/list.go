package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/dastanaron/xbelmarks/internal/models"
	"github.com/dastanaron/xbelmarks/internal/service"
)

// ListCommand prints the bookmark tree or the results of a search
type ListCommand struct {
	bookmarkSvc *service.BookmarkService
	out         io.Writer
}

// NewListCommand creates a new list command
func NewListCommand(bookmarkSvc *service.BookmarkService, out io.Writer) *ListCommand {
	return &ListCommand{bookmarkSvc: bookmarkSvc, out: out}
}

// Execute prints an indented outline, or with a query one matching item per
// line together with its folder path
func (c *ListCommand) Execute(query string) error {
	if query != "" {
		for _, n := range c.bookmarkSvc.Search(query) {
			if _, err := fmt.Fprintf(c.out, "%s\t%s\n", n.Path(), describe(n)); err != nil {
				return err
			}
		}
		return nil
	}

	return c.bookmarkSvc.Root().Walk(func(n *models.Node, depth int) error {
		_, err := fmt.Fprintf(c.out, "%s%s\n", strings.Repeat("  ", depth), describe(n))
		return err
	})
}

func describe(n *models.Node) string {
	switch n.Kind {
	case models.KindFolder:
		if n.Folded {
			return n.Title + "/ (folded)"
		}
		return n.Title + "/"
	case models.KindLink:
		if n.URL == "" {
			return n.Title
		}
		return fmt.Sprintf("%s <%s>", n.Title, n.URL)
	}
	return "----"
}
