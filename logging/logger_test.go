package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*RelayLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := NewLogger(&LoggerConfig{Level: level, Format: "json", Output: buf})
	return l, buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLevel(" error "))
	assert.Equal(t, LogLevelInfo, ParseLevel("nonsense"))
	assert.Equal(t, "WARN", LogLevelWarn.String())
}

func TestRelayLogger_KeyValues(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)

	l.WithComponent("directory").WithRun("run-1").Info("card cached", "url", "http://x:1")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "card cached", lines[0]["msg"])
	assert.Equal(t, "directory", lines[0]["component"])
	assert.Equal(t, "run-1", lines[0]["run_id"])
	assert.Equal(t, "http://x:1", lines[0]["url"])
}

func TestRelayLogger_LevelFilter(t *testing.T) {
	l, buf := newBufferLogger(LogLevelWarn)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["msg"])
}

func TestRelayLogger_WithContextDoesNotLeak(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)

	child := l.WithContext("stage", "research")
	l.Info("parent")
	child.Info("child")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[0], "stage")
	assert.Equal(t, "research", lines[1]["stage"])
}

func TestRelayLogger_DomainHelpers(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)

	l.LogTaskCall("http://x:1", time.Millisecond, false, errors.New("boom"))
	l.LogStage("research", 42, time.Millisecond, true)
	l.LogWorkflow(3, time.Second, true, nil)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "Task call failed", lines[0]["msg"])
	assert.Equal(t, "ERROR", lines[0]["level"])
	assert.Equal(t, "boom", lines[0]["error"])
	assert.Equal(t, "Stage completed", lines[1]["msg"])
	assert.EqualValues(t, 42, lines[1]["chars"])
	assert.Equal(t, "Workflow execution completed", lines[2]["msg"])
}

func TestOrNoOp(t *testing.T) {
	assert.IsType(t, NoOpLogger{}, OrNoOp(nil))

	l, _ := newBufferLogger(LogLevelInfo)
	assert.Same(t, l, OrNoOp(l))
}
