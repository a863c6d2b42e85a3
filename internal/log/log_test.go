package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithOutput(&buf, "info", "json")
	require.NoError(t, err)

	l.WithField("path", "a.xbel").Info("exported")
	l.Debug("hidden")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "exported", entry["msg"])
	assert.Equal(t, "a.xbel", entry["path"])
	assert.Equal(t, "info", entry["level"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithOutput(&buf, "debug", "text")
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, l.Level)

	l.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestNewBadLevel(t *testing.T) {
	_, err := New("chatty", "text")
	assert.Error(t, err)
}
