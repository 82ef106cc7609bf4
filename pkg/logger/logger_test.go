package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, b []byte) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(b), &m))
	return m
}

func TestFieldsAreWritten(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&Config{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)

	l.Info("trained",
		String("entity", "HDFC"),
		Int("rows", 12),
		Float64("mae", 1.5),
		Duration("took_ms", 1500*time.Millisecond),
		Bool("ok", true),
		Error(errors.New("boom")),
	)

	m := decodeLine(t, buf.Bytes())
	assert.Equal(t, "info", m["level"])
	assert.Equal(t, "trained", m["message"])
	assert.Equal(t, "HDFC", m["entity"])
	assert.EqualValues(t, 12, m["rows"])
	assert.EqualValues(t, 1.5, m["mae"])
	assert.EqualValues(t, 1500, m["took_ms"])
	assert.Equal(t, true, m["ok"])
	assert.Equal(t, "boom", m["error"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&Config{Level: "warn"}, &buf)
	require.NoError(t, err)

	l.Info("hidden")
	l.Debug("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("shown")
	assert.Equal(t, "shown", decodeLine(t, buf.Bytes())["message"])
}

func TestWithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&Config{Level: "info"}, &buf)
	require.NoError(t, err)

	l.With(String("run_id", "r1")).Error("failed", String("entity", "SBI"))
	m := decodeLine(t, buf.Bytes())
	assert.Equal(t, "r1", m["run_id"])
	assert.Equal(t, "SBI", m["entity"])
}

func TestInvalidLevel(t *testing.T) {
	_, err := NewWithWriter(&Config{Level: "loud"}, &bytes.Buffer{})
	require.Error(t, err)
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Error("nothing", String("k", "v"))
	l.With(Int("n", 1)).Info("nothing")
}
