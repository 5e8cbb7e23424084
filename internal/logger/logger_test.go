package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/comigor/dermachat-go/internal/config"
)

func TestSetup_Disabled(t *testing.T) {
	var buf bytes.Buffer
	cleanup := Setup(config.LoggingConfig{Enabled: false, Level: "debug"}, &buf)
	defer cleanup()

	L.Error("should not appear")
	require.Zero(t, buf.Len())
}

func TestSetup_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	cleanup := Setup(config.LoggingConfig{Enabled: true, Level: "warn"}, &buf)
	defer cleanup()

	L.Info("hidden")
	L.Warn("shown", "k", "v")
	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "shown")
	require.Contains(t, out, "k=v")
}

func TestSetup_FileFanout(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "dermachat.log")
	cleanup := Setup(config.LoggingConfig{Enabled: true, Level: "info", File: path}, &buf)

	L.Info("search failed", "query", "retinol")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), `"query":"retinol"`), "file log should be JSON: %s", data)
	require.Contains(t, buf.String(), "search failed")
}
