package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	type testCase struct {
		in       string
		expected slog.Level
	}
	cases := []testCase{
		{in: "trace", expected: LevelTrace},
		{in: "DEBUG", expected: slog.LevelDebug},
		{in: "", expected: slog.LevelInfo},
		{in: "warning", expected: slog.LevelWarn},
		{in: "error", expected: slog.LevelError},
		{in: "nonsense", expected: slog.LevelInfo},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseLevel(tc.in))
		})
	}
}

func TestSetupSplitsConsoleByLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger, closers, err := setup(Config{Level: "debug"}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Empty(t, closers)

	logger.Debug("scan tick")
	logger.Error("sink failed")

	assert.Contains(t, stdout.String(), "scan tick")
	assert.NotContains(t, stdout.String(), "sink failed")
	assert.Contains(t, stderr.String(), "sink failed")
	assert.NotContains(t, stderr.String(), "scan tick")
}

func TestSetupWithFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "splitkb.log")
	logger, closers, err := setup(Config{Level: "info", File: path}, &stdout, &stderr)
	require.NoError(t, err)
	require.Len(t, closers, 1)

	logger.Debug("hidden")
	logger.Info("visible", "layer", 1)
	for _, c := range closers {
		require.NoError(t, c.Close())
	}

	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "visible")
	assert.NotContains(t, stderr.String(), "hidden")
}

func TestSetupJSONFormat(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger, _, err := setup(Config{Level: "info", Format: "json"}, &stdout, &stderr)
	require.NoError(t, err)

	logger.With("task", "resolve").Info("Active layer changed", "layer", 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &rec))
	assert.Equal(t, "Active layer changed", rec["msg"])
	assert.Equal(t, "resolve", rec["task"])
	assert.EqualValues(t, 1, rec["layer"])

	_, _, err = setup(Config{Format: "xml"}, &stdout, &stderr)
	assert.Error(t, err)
}

func TestLevelBand(t *testing.T) {
	var buf bytes.Buffer
	h := LevelBand{Min: slog.LevelInfo, Max: slog.LevelError, Handler: slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: LevelTrace})}
	logger := slog.New(h).WithGroup("link")

	logger.Debug("below")
	logger.Warn("inside", "bytes", 3)
	logger.Error("above")

	assert.NotContains(t, buf.String(), "below")
	assert.Contains(t, buf.String(), "link.bytes=3")
	assert.NotContains(t, buf.String(), "above")
}

func TestRawLogger(t *testing.T) {
	var buf bytes.Buffer
	r := &rawLogger{w: &buf, now: func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }}

	r.Log(true, []byte{0xA5, 0x01, 0x12})
	r.Log(false, nil)
	r.Log(false, []byte{0xFF})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2024/01/02 03:04:05.000 RX frame: 3 bytes, hex: a5 01 12", lines[0])
	assert.Equal(t, "2024/01/02 03:04:05.000 TX frame: 1 bytes, hex: ff", lines[1])

	NewRaw(nil).Log(true, []byte{1}) // discards
}
