package commands

import (
	"path/filepath"
	"strings"
)

// Format is a bookmark file format
type Format int

const (
	FormatXBEL Format = iota
	FormatHTML
)

func (f Format) String() string {
	if f == FormatHTML {
		return "HTML"
	}
	return "XBEL"
}

// DetectFormat picks the format from the file extension; anything that is
// not .html or .htm is treated as XBEL
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return FormatHTML
	}
	return FormatXBEL
}
