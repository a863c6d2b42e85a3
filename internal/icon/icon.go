// Package icon converts bookmark icons to and from base64-encoded PNG text,
// the form they take inside XBEL attributes, HTML data URIs and the database.
package icon

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
)

const dataURIPrefix = "data:image/png;base64,"

var ErrNotPNG = errors.New("icon is not a PNG data URI")

// Encode returns img as base64 PNG text
func Encode(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode parses base64 PNG text. Whitespace inside the text is ignored and
// missing padding is accepted.
func Decode(s string) (image.Image, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
	s = strings.TrimRight(s, "=")

	data, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	return img, nil
}

// EncodeDataURI returns img as a data:image/png;base64 URI
func EncodeDataURI(img image.Image) (string, error) {
	s, err := Encode(img)
	if err != nil {
		return "", err
	}
	return dataURIPrefix + s, nil
}

// DecodeDataURI parses a data:image/png;base64 URI
func DecodeDataURI(uri string) (image.Image, error) {
	if !strings.HasPrefix(strings.ToLower(uri), dataURIPrefix) {
		return nil, ErrNotPNG
	}
	return Decode(uri[len(dataURIPrefix):])
}

// Scale shrinks img so that neither side exceeds size, using nearest
// neighbour sampling. Images that already fit are returned unchanged.
func Scale(img image.Image, size int) image.Image {
	b := img.Bounds()
	if size <= 0 || (b.Dx() <= size && b.Dy() <= size) {
		return img
	}

	w, h := size, size
	if b.Dx() > b.Dy() {
		h = max(1, b.Dy()*size/b.Dx())
	} else if b.Dy() > b.Dx() {
		w = max(1, b.Dx()*size/b.Dy())
	}

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		sy := b.Min.Y + y*b.Dy()/h
		for x := 0; x < w; x++ {
			sx := b.Min.X + x*b.Dx()/w
			out.Set(x, y, img.At(sx, sy))
		}
	}
	return out
}
