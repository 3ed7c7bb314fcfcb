// Package logger is the process-wide slog logger. While the TUI owns the
// terminal, stderr output is redirected into its log panel.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Config describes logger settings.
type Config struct {
	Enabled bool
	Level   string
	Stdout  bool // also write to stderr
	File    string
}

var (
	mu        sync.RWMutex
	base      *slog.Logger
	cfg       Config
	file      *os.File
	intercept io.Writer
)

// Init applies cfg. Relative log file paths are resolved against configDir.
func Init(c Config, configDir string) error {
	mu.Lock()
	defer mu.Unlock()

	cfg = c
	_ = closeFile()

	var err error
	if c.Enabled && c.File != "" {
		file, err = openFile(expandPath(c.File, configDir))
	}
	rebuild()
	return err
}

func openFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logger: create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logger: open log file: %w", err)
	}
	return f, nil
}

// Intercept sends terminal output to w instead of stderr. The log file is kept.
func Intercept(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	intercept = w
	rebuild()
}

// Restore undoes Intercept.
func Restore() {
	mu.Lock()
	defer mu.Unlock()
	intercept = nil
	rebuild()
}

// Close releases the log file opened by Init.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	err := closeFile()
	rebuild()
	return err
}

func closeFile() error {
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

// rebuild must be called with mu held.
func rebuild() {
	if !cfg.Enabled {
		base = nil
		return
	}

	var writers []io.Writer
	switch {
	case intercept != nil:
		writers = append(writers, intercept)
	case cfg.Stdout:
		writers = append(writers, os.Stderr)
	}
	if file != nil {
		writers = append(writers, file)
	}
	if len(writers) == 0 {
		base = nil
		return
	}
	base = slog.New(slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{Level: parseLevel(cfg.Level)}))
}

func Debug(msg string, args ...any) { log(slog.LevelDebug, msg, args...) }
func Info(msg string, args ...any) { log(slog.LevelInfo, msg, args...) }
func Warn(msg string, args ...any) { log(slog.LevelWarn, msg, args...) }
func Error(msg string, args ...any) { log(slog.LevelError, msg, args...) }

func log(level slog.Level, msg string, args ...any) {
	mu.RLock()
	l := base
	mu.RUnlock()
	if l != nil {
		l.Log(context.Background(), level, msg, args...)
	}
}

// parseLevel maps a config level name to a slog level. Unknown names map to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func expandPath(path, configDir string) string {
	if rest, ok := strings.CutPrefix(path, "~"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	if filepath.IsAbs(path) || configDir == "" {
		return path
	}
	return filepath.Join(configDir, path)
}
