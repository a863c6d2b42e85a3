package xbel

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dastanaron/xbelmarks/internal/icon"
	"github.com/dastanaron/xbelmarks/internal/models"
)

func testIcon() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 15), G: uint8(y * 15), B: 200, A: uint8(128 + x*8)})
		}
	}
	return img
}

func sampleTree(t *testing.T) *models.Node {
	root := models.NewRoot()

	dev := models.NewFolder("Development")
	dev.Description = "Things & <stuff> for \"work\""
	require.NoError(t, root.Append(dev))

	golang := models.NewLink("The Go Programming Language", "https://go.dev/?a=1&b=2")
	golang.Description = "multi\nline"
	golang.Icon = testIcon()
	require.NoError(t, dev.Append(golang))
	require.NoError(t, dev.Append(models.NewSeparator()))

	nested := models.NewFolder("Nested")
	nested.Folded = true
	require.NoError(t, dev.Append(nested))
	require.NoError(t, nested.Append(models.NewLink("No URL", "")))

	require.NoError(t, root.Append(models.NewSeparator()))
	require.NoError(t, root.Append(models.NewLink("Top level", "http://example.com")))
	require.NoError(t, root.Append(models.NewFolder("")))
	return root
}

func roundTrip(t *testing.T, root *models.Node) *models.Node {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, root))

	out, err := Read(&buf)
	require.NoError(t, err, buf.String())
	return out
}

func TestRoundTrip(t *testing.T) {
	root := sampleTree(t)
	out := roundTrip(t, root)
	assert.True(t, root.Equal(out))

	// and a second pass is byte-identical
	var first, second bytes.Buffer
	require.NoError(t, Write(&first, root))
	require.NoError(t, Write(&second, out))
	assert.Equal(t, first.String(), second.String())
}

func TestRoundTripEmptyLinkTitle(t *testing.T) {
	root := models.NewRoot()
	require.NoError(t, root.Append(models.NewLink("", "http://x")))

	out := roundTrip(t, root)
	require.Equal(t, 1, out.ChildCount())
	assert.Equal(t, models.UnknownTitle, out.Child(0).Title)
	assert.Equal(t, "http://x", out.Child(0).URL)
	assert.Equal(t, "", out.Child(0).Description)
}

func TestRoundTripEmptyTree(t *testing.T) {
	out := roundTrip(t, models.NewRoot())
	assert.Equal(t, 0, out.ChildCount())
	assert.True(t, out.IsRoot())
}

func TestIconRoundTrip(t *testing.T) {
	root := models.NewRoot()
	link := models.NewLink("icon", "http://icon")
	link.Icon = testIcon()
	require.NoError(t, root.Append(link))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, root))
	assert.Contains(t, buf.String(), ` icon="`)

	out, err := Read(&buf)
	require.NoError(t, err)
	assert.True(t, models.ImagesEqual(link.Icon, out.Child(0).Icon))
}

func TestWriteFormat(t *testing.T) {
	root := models.NewRoot()
	dev := models.NewFolder("Dev")
	require.NoError(t, root.Append(dev))
	require.NoError(t, dev.Append(models.NewLink("Go", "https://go.dev")))
	require.NoError(t, dev.Append(models.NewSeparator()))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, root))

	expected := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE xbel>
<xbel version="1.0">
    <folder folded="no">
        <title>Dev</title>
        <bookmark href="https://go.dev">
            <title>Go</title>
        </bookmark>
        <separator></separator>
    </folder>
</xbel>
`
	assert.Equal(t, expected, buf.String())
}

func TestWriteOmitsEmptyOptionalParts(t *testing.T) {
	root := models.NewRoot()
	require.NoError(t, root.Append(models.NewLink("bare", "")))
	f := models.NewFolder("folded")
	f.Folded = true
	require.NoError(t, root.Append(f))

	var buf bytes.Buffer
	require.NoError(t, NewWriter(WithIndent("  ")).Write(&buf, root))
	out := buf.String()

	assert.Contains(t, out, "\n  <bookmark>\n")
	assert.Contains(t, out, `<folder folded="yes">`)
	assert.NotContains(t, out, "href")
	assert.NotContains(t, out, "icon")
	assert.NotContains(t, out, "<desc>")
}

func TestVersionAcceptance(t *testing.T) {
	body := `<folder><title>A</title><bookmark href="http://a"><title>a</title></bookmark></folder>`

	tts := map[string]struct {
		doc string
		err error
	}{
		"absent":      {doc: `<xbel>` + body + `</xbel>`},
		"1.0":         {doc: `<xbel version="1.0">` + body + `</xbel>`},
		"empty":       {doc: `<xbel version="">` + body + `</xbel>`},
		"2.0":         {doc: `<xbel version="2.0">` + body + `</xbel>`, err: ErrUnsupportedVersion},
		"not xbel":    {doc: `<html>` + body + `</html>`, err: ErrUnsupportedVersion},
		"with header": {doc: `<?xml version="1.0"?><!DOCTYPE xbel><xbel version="1.0">` + body + `</xbel>`},
	}

	var reference *models.Node
	for name, tt := range tts {
		t.Run(name, func(t *testing.T) {
			root, err := Read(strings.NewReader(tt.doc))
			if tt.err != nil {
				assert.True(t, errors.Is(err, tt.err), "unexpected error %v", err)
				assert.Nil(t, root)
				return
			}
			require.NoError(t, err)
			require.Equal(t, 1, root.ChildCount())
			if reference == nil {
				reference = root
			}
			assert.True(t, reference.Equal(root))
		})
	}
}

func TestUnknownElementsAreSkipped(t *testing.T) {
	doc := `<xbel version="1.0">
  <info><metadata owner="x"><folder><title>ignored</title></folder></metadata></info>
  <bookmark href="http://a"><title>A</title><visited><when>now</when></visited><desc>d</desc></bookmark>
  <folder>
    <unknown a="b"><bookmark href="http://hidden"/><deep><deeper/></deep></unknown>
    <title>F</title>
    <separator/>
    <alias ref="x"/>
    <bookmark href="http://c"><title>C</title></bookmark>
  </folder>
  <title>root titles are ignored</title>
  <separator/>
</xbel>`

	root, err := Read(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, 3, root.ChildCount())
	assert.Equal(t, "", root.Title)

	a := root.Child(0)
	assert.Equal(t, models.KindLink, a.Kind)
	assert.Equal(t, "A", a.Title)
	assert.Equal(t, "d", a.Description)

	f := root.Child(1)
	assert.Equal(t, models.KindFolder, f.Kind)
	assert.Equal(t, "F", f.Title)
	require.Equal(t, 2, f.ChildCount())
	assert.Equal(t, models.KindSeparator, f.Child(0).Kind)
	assert.Equal(t, "http://c", f.Child(1).URL)

	assert.Equal(t, models.KindSeparator, root.Child(2).Kind)
}

func TestOrderingPreserved(t *testing.T) {
	root := models.NewRoot()
	folder := models.NewFolder("parent")
	require.NoError(t, root.Append(folder))
	require.NoError(t, folder.Append(models.NewSeparator()))
	require.NoError(t, folder.Append(models.NewLink("A", "http://a")))
	require.NoError(t, folder.Append(models.NewFolder("B")))
	require.NoError(t, folder.Append(models.NewLink("C", "http://c")))

	out := roundTrip(t, root)
	f := out.Child(0)
	require.Equal(t, 4, f.ChildCount())
	assert.Equal(t, models.KindSeparator, f.Child(0).Kind)
	assert.Equal(t, "A", f.Child(1).Title)
	assert.Equal(t, models.KindFolder, f.Child(2).Kind)
	assert.Equal(t, "B", f.Child(2).Title)
	assert.Equal(t, "C", f.Child(3).Title)
	for _, c := range f.Children() {
		assert.Same(t, f, c.Parent())
	}
}

func TestDefaultTitle(t *testing.T) {
	root, err := Read(strings.NewReader(`<xbel><bookmark href="http://x"></bookmark></xbel>`))
	require.NoError(t, err)
	assert.Equal(t, models.UnknownTitle, root.Child(0).Title)
	assert.Equal(t, "http://x", root.Child(0).URL)

	// folders keep an empty title
	root, err = Read(strings.NewReader(`<xbel><folder/></xbel>`))
	require.NoError(t, err)
	assert.Equal(t, "", root.Child(0).Title)
}

func TestFoldedAttribute(t *testing.T) {
	tts := map[string]bool{
		`<folder folded="yes"/>`:   true,
		`<folder folded="no"/>`:    false,
		`<folder folded="YES"/>`:   false,
		`<folder folded="true"/>`:  false,
		`<folder folded=""/>`:      false,
		`<folder/>`:                false,
		`<folder folded="yes"> </folder>`: true,
	}

	for doc, folded := range tts {
		root, err := Read(strings.NewReader(`<xbel>` + doc + `</xbel>`))
		require.NoError(t, err, doc)
		assert.Equal(t, folded, root.Child(0).Folded, doc)
	}
}

func TestTitleIncludesNestedText(t *testing.T) {
	doc := `<xbel><bookmark href="h"><title>Go <b>is</b> <i>fun</i>!</title><desc>a<![CDATA[<b>]]>c</desc></bookmark></xbel>`
	root, err := Read(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "Go is fun!", root.Child(0).Title)
	assert.Equal(t, "a<b>c", root.Child(0).Description)
}

func TestInvalidIconIsDropped(t *testing.T) {
	logger, hook := test.NewNullLogger()

	doc := `<xbel><bookmark href="h" icon="bm90IGEgcG5n"><title>t</title></bookmark></xbel>`
	root, err := NewReader(WithLogger(logger)).Read(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Nil(t, root.Child(0).Icon)
	assert.Equal(t, "t", root.Child(0).Title)

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "h", hook.LastEntry().Data["href"])
}

func TestWriteReplacesInvalidCharacters(t *testing.T) {
	logger, hook := test.NewNullLogger()

	root := models.NewRoot()
	folder := models.NewFolder("\x01ctl")
	require.NoError(t, root.Append(folder))
	link := models.NewLink("fine", "http://x/\x02")
	link.Description = "bad \xff byte"
	require.NoError(t, folder.Append(link))
	require.NoError(t, root.Append(models.NewLink("tab\tand\nnewline", "http://ok")))

	var buf bytes.Buffer
	require.NoError(t, NewWriter(WithLogger(logger)).Write(&buf, root))

	out, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, "\uFFFDctl", out.Child(0).Title)
	assert.Equal(t, "http://x/\uFFFD", out.Child(0).Child(0).URL)
	assert.Equal(t, "bad \uFFFD byte", out.Child(0).Child(0).Description)
	assert.Equal(t, "tab\tand\nnewline", out.Child(1).Title)

	require.Len(t, hook.Entries, 3)
	tts := []struct {
		kind  string
		field string
		path  string
	}{
		{"folder", tagTitle, "/"},
		{"bookmark", "href", "/\x01ctl"},
		{"bookmark", tagDesc, "/\x01ctl"},
	}
	for i, tt := range tts {
		entry := hook.Entries[i]
		assert.Equal(t, logrus.WarnLevel, entry.Level)
		assert.Equal(t, tt.kind, entry.Data["kind"])
		assert.Equal(t, tt.field, entry.Data["field"])
		assert.Equal(t, tt.path, entry.Data["path"])
	}
}

func TestValidText(t *testing.T) {
	tts := []struct {
		text     string
		expected bool
	}{
		{"", true},
		{"plain ascii", true},
		{"tab\tlf\ncr\r", true},
		{"ünïcödé ✓ 𝄞", true},
		{"\x00", false},
		{"\x1f", false},
		{"\uFFFE", false},
		{"\xff", false},
	}

	for _, tt := range tts {
		assert.Equal(t, tt.expected, validText(tt.text), "%q", tt.text)
	}
}

func TestIconWithLineBreaks(t *testing.T) {
	data, err := icon.Encode(testIcon())
	require.NoError(t, err)
	wrapped := data[:10] + "\n   " + data[10:]

	doc := `<xbel><bookmark href="h" icon="` + wrapped + `"/></xbel>`
	root, err := Read(strings.NewReader(doc))
	require.NoError(t, err)
	assert.True(t, models.ImagesEqual(testIcon(), root.Child(0).Icon))
}

func TestMalformedInput(t *testing.T) {
	tts := map[string]string{
		"empty":           ``,
		"whitespace":      "  \n",
		"truncated":       `<xbel version="1.0"><folder><title>A</ti`,
		"unclosed":        `<xbel version="1.0"><folder><title>A</title>`,
		"unbalanced":      `<xbel><folder></bookmark></xbel>`,
		"bad attribute":   `<xbel><bookmark href=x/></xbel>`,
		"extra root":      `<xbel></xbel><xbel></xbel>`,
		"garbage":         `this is not xml`,
		"unknown entity":  `<xbel><folder><title>&nope;</title></folder></xbel>`,
		"unclosed unknown": `<xbel><unknown><deeper></unknown></xbel>`,
	}

	for name, doc := range tts {
		t.Run(name, func(t *testing.T) {
			root, err := Read(strings.NewReader(doc))
			assert.Nil(t, root)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedXML), "unexpected error %v", err)
			assert.False(t, errors.Is(err, ErrUnsupportedVersion))
		})
	}
}

func TestErrorLine(t *testing.T) {
	_, err := Read(strings.NewReader("<xbel>\n<folder>\n</bookmark>\n</xbel>"))
	var xerr *Error
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, 3, xerr.Line)
	assert.Contains(t, err.Error(), "line 3")
}

type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestReadIOError(t *testing.T) {
	boom := errors.New("disk on fire")
	r := &failingReader{data: []byte(`<xbel><folder><title>A</title>`), err: boom}

	root, err := Read(r)
	assert.Nil(t, root)
	assert.True(t, errors.Is(err, ErrIO))
	assert.True(t, errors.Is(err, boom))
	assert.False(t, errors.Is(err, ErrMalformedXML))
}

type failingWriter struct {
	limit int
	err   error
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if len(p) > w.limit {
		n := w.limit
		w.limit = 0
		return n, w.err
	}
	w.limit -= len(p)
	return len(p), nil
}

func TestWriteIOError(t *testing.T) {
	boom := errors.New("disk full")
	root := sampleTree(t)

	for _, limit := range []int{0, 10, 100, 200} {
		err := Write(&failingWriter{limit: limit, err: boom}, root)
		require.Error(t, err, "limit %d", limit)
		assert.True(t, errors.Is(err, ErrIO), "limit %d", limit)
		assert.True(t, errors.Is(err, boom), "limit %d", limit)
	}
}

func TestWriteUnknownKind(t *testing.T) {
	root := models.NewRoot()
	require.NoError(t, root.Append(&models.Node{Kind: models.Kind(99)}))

	err := Write(&bytes.Buffer{}, root)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrIO))
}

func TestReadCharset(t *testing.T) {
	doc := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><xbel><folder><title>caf\xe9</title></folder></xbel>")
	root, err := Read(bytes.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "café", root.Child(0).Title)
}
