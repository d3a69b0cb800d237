package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	l, err := New(Options{Dir: dir, MinLevel: DEBUG})
	require.NoError(t, err)

	l.Info("api", "GET /places/type/theater - 200 OK")
	l.LogFallback("seat map evt-1", errors.New("boom"))
	require.NoError(t, l.Close())

	matches, err := filepath.Glob(filepath.Join(dir, "taquilla-*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	f, err := os.Open(matches[0])
	require.NoError(t, err)
	defer f.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry LogEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.Len(t, entries, 2)
	assert.Equal(t, "INFO", entries[0].Level)
	assert.Equal(t, "API", entries[0].Category)
	assert.Equal(t, "WARN", entries[1].Level)
	assert.Equal(t, "FALLBACK", entries[1].Category)
	assert.Equal(t, "seat map evt-1: boom", entries[1].Message)
	assert.Equal(t, "logger_test.go", entries[0].File)
}

func TestLogger_RespectsMinLevel(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	l, err := New(Options{Terminal: &buf, MinLevel: WARN})
	require.NoError(t, err)

	l.Debug("seat", "hidden")
	l.Info("seat", "hidden")
	l.Warn("seat", "visible")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "[SEAT")
}

func TestNop_IsSilentAndNilSafe(t *testing.T) {
	Nop().Error("x", "y")
	var l *Logger
	l.Info("x", "y")
	assert.NoError(t, l.Close())
}
