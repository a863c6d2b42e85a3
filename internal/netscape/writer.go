package netscape

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"github.com/dastanaron/xbelmarks/internal/icon"
	"github.com/dastanaron/xbelmarks/internal/models"
)

const header = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
`

// Writer writes HTML bookmark files
type Writer struct {
	log logrus.FieldLogger
}

// NewWriter creates a new writer
func NewWriter(log logrus.FieldLogger) *Writer {
	return &Writer{log: log}
}

// Write emits the children of root as an HTML bookmark file, keeping their order
func (wr *Writer) Write(w io.Writer, root *models.Node) error {
	ew := &errWriter{w: w}
	ew.printf("%s<DL><p>\n", header)
	for _, child := range root.Children() {
		wr.writeNode(ew, child, 1)
	}
	ew.printf("</DL><p>\n")
	return ew.err
}

func (wr *Writer) writeNode(ew *errWriter, n *models.Node, depth int) {
	indent := strings.Repeat("    ", depth)

	switch n.Kind {
	case models.KindFolder:
		folded := ""
		if n.Folded {
			folded = " FOLDED"
		}
		ew.printf("%s<DT><H3%s>%s</H3>\n", indent, folded, html.EscapeString(n.Title))
		wr.writeDescription(ew, n, indent)
		ew.printf("%s<DL><p>\n", indent)
		for _, child := range n.Children() {
			wr.writeNode(ew, child, depth+1)
		}
		ew.printf("%s</DL><p>\n", indent)

	case models.KindLink:
		attrs := fmt.Sprintf(` HREF="%s"`, html.EscapeString(n.URL))
		if n.Icon != nil {
			uri, err := icon.EncodeDataURI(n.Icon)
			if err != nil {
				wr.log.WithError(err).WithField("href", n.URL).Warn("bookmark icon not written")
			} else {
				attrs += fmt.Sprintf(` ICON="%s"`, uri)
			}
		}
		ew.printf("%s<DT><A%s>%s</A>\n", indent, attrs, html.EscapeString(n.Title))
		wr.writeDescription(ew, n, indent)

	case models.KindSeparator:
		ew.printf("%s<HR>\n", indent)
	}
}

func (wr *Writer) writeDescription(ew *errWriter, n *models.Node, indent string) {
	if n.Description != "" {
		ew.printf("%s<DD>%s\n", indent, html.EscapeString(n.Description))
	}
}

// errWriter keeps the first write error and skips later writes
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
