// Package netscape reads and writes the Netscape bookmark file format
// exported by web browsers.
package netscape

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dastanaron/xbelmarks/internal/icon"
	"github.com/dastanaron/xbelmarks/internal/models"
)

// Parser parses HTML bookmark files
type Parser struct {
	log      logrus.FieldLogger
	iconSize int
}

// NewParser creates a new parser. Icons larger than iconSize are scaled
// down; a non-positive iconSize keeps them as they are.
func NewParser(log logrus.FieldLogger, iconSize int) *Parser {
	return &Parser{log: log, iconSize: iconSize}
}

// Parse builds a bookmark tree from an HTML bookmark file
func (p *Parser) Parse(r io.Reader) (*models.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	root := models.NewRoot()

	// folder whose <DL> has not been reached yet, and its heading
	var pending *models.Node
	var pendingHead *html.Node
	// last item, described by a following <DD>
	var last *models.Node

	var walk func(*html.Node, *models.Node)
	walk = func(n *html.Node, parent *models.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.H3:
				folder := models.NewFolder(strings.TrimSpace(textOf(n)))
				_, folder.Folded = attrOf(n, "folded")
				if err := parent.Append(folder); err == nil {
					pending, pendingHead, last = folder, n, folder
				}
				return

			case atom.A:
				link := p.link(n)
				if err := parent.Append(link); err == nil {
					last = link
				}
				pending = nil
				return

			case atom.Hr:
				_ = parent.Append(models.NewSeparator())
				last, pending = nil, nil
				return

			case atom.Dd:
				if last != nil {
					last.Description = strings.TrimSpace(ownText(n))
					last = nil
				}
				// a folder's <DL> ends up inside its description
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.ElementNode {
						walk(c, parent)
					}
				}
				return

			case atom.Dl:
				target := parent
				if pending != nil && ownsList(pendingHead, n) {
					target = pending
				}
				pending = nil
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					walk(c, target)
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, parent)
		}
	}

	walk(doc, root)
	return root, nil
}

func (p *Parser) link(n *html.Node) *models.Node {
	href, _ := attrOf(n, "href")
	link := models.NewLink(strings.TrimSpace(textOf(n)), href)
	if link.Title == "" {
		link.Title = models.UnknownTitle
	}

	if uri, ok := attrOf(n, "icon"); ok && uri != "" {
		img, err := icon.DecodeDataURI(uri)
		if err != nil {
			p.log.WithError(err).WithField("href", href).Debug("skipping bookmark icon")
		} else {
			link.Icon = icon.Scale(img, p.iconSize)
		}
	}
	return link
}

// ownsList reports whether dl is the list of the folder headed by h3: it
// follows h3 inside the same <DT>, or sits in the <DD> right after that <DT>.
func ownsList(h3, dl *html.Node) bool {
	if dl.Parent == h3.Parent {
		return true
	}
	dd := dl.Parent
	if dd == nil || dd.DataAtom != atom.Dd {
		return false
	}
	prev := dd.PrevSibling
	for prev != nil && prev.Type != html.ElementNode {
		prev = prev.PrevSibling
	}
	return prev != nil && prev == h3.Parent
}

func attrOf(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// textOf concatenates all text below n
func textOf(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return sb.String()
}

// ownText concatenates the text nodes directly under n
func ownText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}
