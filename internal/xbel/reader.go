// Package xbel reads and writes bookmark trees in the XBEL 1.0 format.
//
// The format is a nested XML document whose root element is <xbel>. Folders
// contain a <title>, an optional <desc> and any mix of nested folders,
// bookmarks and separators. Bookmark icons are stored inline as base64
// encoded PNG data in the icon attribute. Unknown elements are skipped so
// files written by newer versions can still be read.
package xbel

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html/charset"

	"github.com/dastanaron/xbelmarks/internal/icon"
	xlog "github.com/dastanaron/xbelmarks/internal/log"
	"github.com/dastanaron/xbelmarks/internal/models"
)

const (
	Version = "1.0"

	tagXBEL      = "xbel"
	tagFolder    = "folder"
	tagBookmark  = "bookmark"
	tagSeparator = "separator"
	tagTitle     = "title"
	tagDesc      = "desc"
)

type options struct {
	log    logrus.FieldLogger
	indent string
}

// Option configures a Reader or a Writer
type Option func(*options)

// WithLogger sets the logger used for warnings such as dropped icons
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

// WithIndent sets the indentation unit used by a Writer
func WithIndent(indent string) Option {
	return func(o *options) { o.indent = indent }
}

func newOptions(opts []Option) options {
	o := options{log: xlog.Discard(), indent: "    "}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Reader builds bookmark trees from XBEL documents
type Reader struct {
	opts options
}

// NewReader creates a new reader
func NewReader(opts ...Option) *Reader {
	return &Reader{opts: newOptions(opts)}
}

// Read parses an XBEL document with a default Reader
func Read(in io.Reader) (*models.Node, error) {
	return NewReader().Read(in)
}

// Read parses an XBEL document and returns the root folder holding its
// content. On any error no tree is returned.
func (r *Reader) Read(in io.Reader) (*models.Node, error) {
	c := newCursor(in, r.opts.log)
	root := models.NewRoot()
	seenRoot := false

	for {
		tok, err := c.dec.Token()
		if err == io.EOF && c.src.err == nil {
			if !seenRoot {
				return nil, c.malformed("no root element")
			}
			return root, nil
		}
		if err != nil {
			return nil, c.fail(err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if seenRoot {
			return nil, c.malformed("extra content at end of document")
		}

		version := attr(start, "version")
		if start.Name.Local != tagXBEL || (version != "" && version != Version) {
			line, _ := c.dec.InputPos()
			return nil, &Error{Kind: ErrUnsupportedVersion, Line: line}
		}
		seenRoot = true

		if err := c.readContent(root, false); err != nil {
			return nil, err
		}
	}
}

// sourceReader remembers the first read error of the underlying stream so
// that I/O failures can be told apart from syntax errors.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF && s.err == nil {
		s.err = err
	}
	return n, err
}

type cursor struct {
	dec *xml.Decoder
	src *sourceReader
	log logrus.FieldLogger
}

func newCursor(in io.Reader, log logrus.FieldLogger) *cursor {
	src := &sourceReader{r: in}
	dec := xml.NewDecoder(src)
	dec.CharsetReader = charset.NewReaderLabel
	return &cursor{dec: dec, src: src, log: log}
}

func (c *cursor) next() (xml.Token, error) {
	tok, err := c.dec.Token()
	if err != nil {
		return nil, c.fail(err)
	}
	return tok, nil
}

func (c *cursor) fail(err error) error {
	line, _ := c.dec.InputPos()
	if c.src.err != nil {
		return &Error{Kind: ErrIO, Line: line, Err: c.src.err}
	}
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return &Error{Kind: ErrMalformedXML, Line: line, Err: err}
}

func (c *cursor) malformed(msg string) error {
	line, _ := c.dec.InputPos()
	return &Error{Kind: ErrMalformedXML, Line: line, Err: errors.New(msg)}
}

// readContent consumes the children of the current element up to its end
// tag, appending folders, bookmarks and separators to parent. Title and
// description elements are only honoured when withText is set.
func (c *cursor) readContent(parent *models.Node, withText bool) error {
	for {
		tok, err := c.next()
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			var child *models.Node
			switch {
			case t.Name.Local == tagFolder:
				child, err = c.readFolder(t)
			case t.Name.Local == tagBookmark:
				child, err = c.readBookmark(t)
			case t.Name.Local == tagSeparator:
				child, err = c.readSeparator()
			case withText && t.Name.Local == tagTitle:
				parent.Title, err = c.readText()
			case withText && t.Name.Local == tagDesc:
				parent.Description, err = c.readText()
			default:
				err = c.skip()
			}
			if err != nil {
				return err
			}
			if child != nil {
				if err := parent.Append(child); err != nil {
					return err
				}
			}
		}
	}
}

func (c *cursor) readFolder(start xml.StartElement) (*models.Node, error) {
	folder := models.NewFolder("")
	folder.Folded = attr(start, "folded") == "yes"

	if err := c.readContent(folder, true); err != nil {
		return nil, err
	}
	return folder, nil
}

func (c *cursor) readBookmark(start xml.StartElement) (*models.Node, error) {
	link := models.NewLink("", attr(start, "href"))

	if data := attr(start, "icon"); data != "" {
		img, err := icon.Decode(data)
		if err != nil {
			c.log.WithError(err).WithField("href", link.URL).Warn("dropping undecodable bookmark icon")
		} else {
			link.Icon = img
		}
	}

	for {
		tok, err := c.next()
		if err != nil {
			return nil, err
		}
		if _, ok := tok.(xml.EndElement); ok {
			break
		}
		t, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch t.Name.Local {
		case tagTitle:
			link.Title, err = c.readText()
		case tagDesc:
			link.Description, err = c.readText()
		default:
			err = c.skip()
		}
		if err != nil {
			return nil, err
		}
	}

	if link.Title == "" {
		link.Title = models.UnknownTitle
	}
	return link, nil
}

func (c *cursor) readSeparator() (*models.Node, error) {
	if err := c.skip(); err != nil {
		return nil, err
	}
	return models.NewSeparator(), nil
}

// readText returns the character data of the current element, including
// the text of any nested elements.
func (c *cursor) readText() (string, error) {
	var sb strings.Builder
	depth := 0
	for {
		tok, err := c.next()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return sb.String(), nil
			}
			depth--
		}
	}
}

// skip discards the rest of the current element and its subtree
func (c *cursor) skip() error {
	if err := c.dec.Skip(); err != nil {
		return c.fail(err)
	}
	return nil
}

func attr(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
