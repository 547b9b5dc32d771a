package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerJSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.InfoLevel, "json", "").With(String("run_id", "r1"))

	l.Info("扫描完成",
		Int("readings", 2),
		Float("rsi", 82.5),
		Duration("took", 1500*time.Millisecond),
		Strings("symbols", []string{"AAAUSDT", "BBBUSDT"}),
		Error(errors.New("boom")),
	)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "扫描完成", line["message"])
	assert.Equal(t, "r1", line["run_id"])
	assert.Equal(t, "rsiscan", line["app"])
	assert.Equal(t, float64(2), line["readings"])
	assert.Equal(t, 82.5, line["rsi"])
	assert.Equal(t, "AAAUSDT, BBBUSDT", line["symbols"])
	assert.Equal(t, "boom", line["error"])
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.WarnLevel, "json", "")

	l.Debug("hidden")
	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().With(String("k", "v")).Error("x", Error(errors.New("y")))
	})
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rsiscan.log")
	l, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	l.Info("scan done", Int("symbols", 3))
	require.NoError(t, l.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"symbols":3`)
}
