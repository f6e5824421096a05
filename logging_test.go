package pylaunch

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logLinePattern = regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] \S+ .*$`)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestLogger_LineFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "launcher.log")
	logger := NewLogger(LogOptions{Path: path})

	logger.Info("launcher started", "mode", ModeBootstrap, "root", "/tmp/my project")
	logger.Warn("multi\nline\r\nmessage")
	logger.Error("failed", "error", "exit status 1")
	logger.With("component", "resolver").Info("resolved", "strategy", StrategyCandidate)

	lines := readLines(t, path)
	require.Len(t, lines, 4)
	for _, line := range lines {
		assert.Regexp(t, logLinePattern, line)
	}
	assert.Contains(t, lines[0], "] INFO launcher started mode=bootstrap root=\"/tmp/my project\"")
	assert.Contains(t, lines[1], "] WARN multi line message")
	assert.Contains(t, lines[2], "] ERROR failed error=\"exit status 1\"")
	assert.Contains(t, lines[3], "resolved component=resolver strategy=candidate")
}

func TestLogger_FixedClock(t *testing.T) {
	var echo bytes.Buffer
	logger := NewLogger(LogOptions{Echo: &echo})
	logger.handler.shared.now = func() time.Time {
		return time.Date(2024, 3, 9, 7, 5, 1, 0, time.Local)
	}

	logger.Info("hello")
	assert.Equal(t, "[2024-03-09 07:05:01] INFO hello\n", echo.String())
}

func TestLogger_Level(t *testing.T) {
	var echo bytes.Buffer
	logger := NewLogger(LogOptions{Echo: &echo, Level: "warn"})

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, echo.String(), "hidden")
	assert.Contains(t, echo.String(), "WARN shown")
}

func TestLogger_Groups(t *testing.T) {
	var echo bytes.Buffer
	logger := NewLogger(LogOptions{Echo: &echo})

	logger.WithGroup("child").Info("exited", slog.Group("proc", "pid", 42), "code", 0)
	assert.Contains(t, echo.String(), "child.proc.pid=42 child.code=0")
}

func TestLogger_WriteFailuresAreCounted(t *testing.T) {
	// a directory cannot be opened for appending
	dir := t.TempDir()
	var echo bytes.Buffer
	logger := NewLogger(LogOptions{Path: dir, Echo: &echo})

	logger.Info("one")
	logger.Info("two")

	assert.Equal(t, int64(2), logger.WriteFailures())
	// echo still works
	assert.Contains(t, echo.String(), "INFO two")

	var diag Diagnostics
	diag.Flush(logger)
	items := diag.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "log", items[0].Source)
	assert.Contains(t, items[0].Message, "2 log line(s)")
}

func TestLogger_LineWriter(t *testing.T) {
	var echo bytes.Buffer
	logger := NewLogger(LogOptions{Echo: &echo})

	w := logger.LineWriter(slog.LevelInfo, "stream", "child")
	_, err := w.Write([]byte("first line\nsecond "))
	require.NoError(t, err)
	_, err = w.Write([]byte("line\r\npartial"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	lines := strings.Split(strings.TrimSuffix(echo.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "INFO first line stream=child")
	assert.Contains(t, lines[1], "INFO second line stream=child")
	assert.Contains(t, lines[2], "INFO partial stream=child")
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("nothing happens")
	assert.Zero(t, logger.WriteFailures())
}
