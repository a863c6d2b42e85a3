package xbel

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Every error returned by Read matches one of them
// with errors.Is; Write reports stream failures as ErrIO.
var (
	ErrUnsupportedVersion = errors.New("not an XBEL version 1.0 file")
	ErrMalformedXML       = errors.New("malformed XML")
	ErrIO                 = errors.New("i/o error")
)

// Error describes a failed read or write
type Error struct {
	Kind error // one of the sentinel kinds
	Line int   // input line, 0 when unknown or when writing
	Err  error // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }
