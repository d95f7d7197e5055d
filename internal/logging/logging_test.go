package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LevelFollowsVerbose(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf})
	l.Debug("hidden")
	l.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	l = New(Options{Output: &buf, Verbose: true})
	l.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestNew_JSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, JSON: true})
	l.Info("updated", "target", "jsdelivr")

	line := strings.TrimSpace(buf.String())
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &rec))
	assert.Equal(t, "updated", rec["msg"])
	assert.Equal(t, "jsdelivr", rec["target"])
}

func TestComponent_NilSafe(t *testing.T) {
	l := Component(nil, "walker")
	require.NotNil(t, l)
	l.Info("dropped")
}
