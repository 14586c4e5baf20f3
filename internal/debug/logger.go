package debug

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var enabled bool

// ParseLevel maps "debug", "info", "warn" or "error" to a slog level,
// defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup installs the default slog logger writing text records to w. A nil w
// discards everything, since the terminal belongs to the map view.
func Setup(w io.Writer, level string) {
	enabled = w != nil
	if w == nil {
		w = io.Discard
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	slog.SetDefault(slog.New(handler))
}

// OpenFile creates the log file at path and installs it as the log sink.
// The returned file must be closed by the caller.
func OpenFile(path, level string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create debug log: %w", err)
	}
	Setup(f, level)
	slog.Info("asciiflight debug log started", "level", ParseLevel(level))
	return f, nil
}

// Enabled returns true if logs are written anywhere
func Enabled() bool {
	return enabled
}
