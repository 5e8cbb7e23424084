package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"

	"github.com/comigor/dermachat-go/internal/config"
)

var levelVar = new(slog.LevelVar)

var L = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar}))

// SetLevel configures the global log level (debug, info, warn, error).
func SetLevel(lvl string) {
	switch strings.ToLower(lvl) {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
}

// Setup replaces L according to cfg and returns a cleanup func closing the log file.
// When logging is disabled every record is dropped.
func Setup(cfg config.LoggingConfig, stderr io.Writer) func() error {
	SetLevel(cfg.Level)
	noop := func() error { return nil }

	if !cfg.Enabled {
		L = slog.New(slog.DiscardHandler)
		return noop
	}

	stderrHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: levelVar})
	if cfg.File == "" {
		L = slog.New(stderrHandler)
		return noop
	}

	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		L = slog.New(stderrHandler)
		L.Warn("failed to open log file, using stderr only", "error", err, "file", cfg.File)
		return noop
	}

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: levelVar})
	L = slog.New(slogmulti.Fanout(stderrHandler, fileHandler))
	return file.Close
}
