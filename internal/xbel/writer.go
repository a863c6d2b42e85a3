package xbel

import (
	"encoding/xml"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/dastanaron/xbelmarks/internal/icon"
	"github.com/dastanaron/xbelmarks/internal/models"
)

const doctype = "<!DOCTYPE xbel>\n"

// Writer serializes bookmark trees as indented XBEL documents
type Writer struct {
	opts options
}

// NewWriter creates a new writer
func NewWriter(opts ...Option) *Writer {
	return &Writer{opts: newOptions(opts)}
}

// Write serializes root with a default Writer
func Write(w io.Writer, root *models.Node) error {
	return NewWriter().Write(w, root)
}

// Write emits the children of root inside an <xbel> element. The root
// itself is not written. Output is deterministic for a given tree.
// Failures of the underlying stream match ErrIO.
//
// Characters XML 1.0 cannot hold, such as control characters other than
// tab and newlines or invalid UTF-8, are written as U+FFFD and a warning is
// logged for the affected field.
func (wr *Writer) Write(w io.Writer, root *models.Node) error {
	if _, err := io.WriteString(w, xml.Header+doctype); err != nil {
		return &Error{Kind: ErrIO, Err: err}
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", wr.opts.indent)
	e := &emitter{enc: enc, log: wr.opts.log}

	e.start(tagXBEL, xml.Attr{Name: xml.Name{Local: "version"}, Value: Version})
	for _, child := range root.Children() {
		e.node(child)
	}
	e.end(tagXBEL)

	if e.err == nil {
		e.err = enc.Close()
	}
	if e.kindErr != nil {
		return e.kindErr
	}
	if e.err != nil {
		return &Error{Kind: ErrIO, Err: e.err}
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return &Error{Kind: ErrIO, Err: err}
	}
	return nil
}

// emitter stops writing after the first error
type emitter struct {
	enc     *xml.Encoder
	log     logrus.FieldLogger
	err     error
	kindErr error
}

func (e *emitter) token(t xml.Token) {
	if e.err != nil || e.kindErr != nil {
		return
	}
	e.err = e.enc.EncodeToken(t)
}

func (e *emitter) start(name string, attrs ...xml.Attr) {
	e.token(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs})
}

func (e *emitter) end(name string) {
	e.token(xml.EndElement{Name: xml.Name{Local: name}})
}

// text writes a simple element holding value
func (e *emitter) text(n *models.Node, name, value string) {
	e.check(n, name, value)
	e.start(name)
	e.token(xml.CharData(value))
	e.end(name)
}

func (e *emitter) node(n *models.Node) {
	switch n.Kind {
	case models.KindFolder:
		folded := "no"
		if n.Folded {
			folded = "yes"
		}
		e.start(tagFolder, xml.Attr{Name: xml.Name{Local: "folded"}, Value: folded})
		e.text(n, tagTitle, n.Title)
		if n.Description != "" {
			e.text(n, tagDesc, n.Description)
		}
		for _, child := range n.Children() {
			e.node(child)
		}
		e.end(tagFolder)

	case models.KindLink:
		var attrs []xml.Attr
		if n.URL != "" {
			e.check(n, "href", n.URL)
			attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "href"}, Value: n.URL})
		}
		if n.Icon != nil {
			data, err := icon.Encode(n.Icon)
			if err != nil {
				e.log.WithError(err).WithField("href", n.URL).Warn("bookmark icon not written")
			} else {
				attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "icon"}, Value: data})
			}
		}
		e.start(tagBookmark, attrs...)
		e.text(n, tagTitle, n.Title)
		if n.Description != "" {
			e.text(n, tagDesc, n.Description)
		}
		e.end(tagBookmark)

	case models.KindSeparator:
		e.start(tagSeparator)
		e.end(tagSeparator)

	default:
		if e.kindErr == nil {
			e.kindErr = fmt.Errorf("xbel: cannot write node of kind %v", n.Kind)
		}
	}
}

func (e *emitter) check(n *models.Node, field, value string) {
	if e.err != nil || e.kindErr != nil || validText(value) {
		return
	}
	e.log.WithFields(logrus.Fields{
		"kind":  n.Kind.String(),
		"field": field,
		"path":  n.Path(),
	}).Warn("replacing characters not allowed in XML")
}

// validText reports whether s consists of XML 1.0 characters only
func validText(s string) bool {
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			return false
		}
		if !isXMLChar(r) {
			return false
		}
		s = s[size:]
	}
	return true
}

func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}
