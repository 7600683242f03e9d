package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestHandlerFormats(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewHandler(&buf, Config{Level: "info"})).Info("quote issued", "product_id", 7)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "quote issued", record["msg"])
	assert.Equal(t, float64(7), record["product_id"])

	buf.Reset()
	slog.New(NewHandler(&buf, Config{Level: "info", Format: "text"})).Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	logger, closeFn := New(Config{Level: "info", File: path})
	logger.Info("started")
	require.NoError(t, closeFn())
	assert.FileExists(t, path)
}

func TestOrDefault(t *testing.T) {
	assert.Same(t, slog.Default(), OrDefault(nil))
}
