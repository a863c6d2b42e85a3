package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New creates a logger writing to stderr. format "json" selects the JSON
// formatter, anything else the text formatter.
func New(level, format string) (*logrus.Logger, error) {
	return NewWithOutput(os.Stderr, level, format)
}

// NewWithOutput is New with an explicit destination
func NewWithOutput(out io.Writer, level, format string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	l := logrus.New()
	l.Out = out
	l.Level = lvl
	if format == "json" {
		l.Formatter = &logrus.JSONFormatter{}
	} else {
		l.Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	}
	return l, nil
}

// Discard returns a logger that drops everything
func Discard() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}
