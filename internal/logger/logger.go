// Package logger holds the process-wide structured logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EnvLevel names the environment variable that enables logging to stderr at
// startup, e.g. PAGEHINT_LOG=debug.
const EnvLevel = "PAGEHINT_LOG"

// L is the global logger instance. It discards all output unless EnvLevel is
// set or Init enables it.
var L = fromEnv()

const (
	logPrefix     = "pagehint-"
	logSuffix     = ".log"
	retentionDays = 7
)

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	Level   slog.Level // Minimum log level
	JSON    bool       // JSON records instead of key=value text
	Output  io.Writer  // Destination. Default: stderr, unless LogDir is set
	LogDir  string     // Write a dated file in this directory instead of Output
}

// file is the dated log file opened by Init, if any.
var file *os.File

// Init configures logging. Call from main() before constructing engines.
// A log file opened by an earlier Init is closed first.
func Init(opts Options) error {
	if err := Close(); err != nil {
		return err
	}
	if !opts.Enabled {
		L = discard()
		return nil
	}

	w := opts.Output
	if opts.LogDir != "" {
		if err := os.MkdirAll(opts.LogDir, 0o755); err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		cleanOldLogs(opts.LogDir, time.Now())

		name := filepath.Join(opts.LogDir, logPrefix+time.Now().Format("2006-01-02")+logSuffix)
		f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		file = f
		w = f
	}
	if w == nil {
		w = os.Stderr
	}

	L = New(w, opts.Level, opts.JSON)
	return nil
}

// Close closes the log file opened by Init and makes L discard. It is a
// no-op when Init did not open a file.
func Close() error {
	if file == nil {
		return nil
	}
	f := file
	file = nil
	L = discard()
	if err := f.Close(); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	return nil
}

// LogFile returns the path of the log file opened by Init, or "".
func LogFile() string {
	if file == nil {
		return ""
	}
	return file.Name()
}

// New builds a logger writing to w.
func New(w io.Writer, level slog.Level, json bool) *slog.Logger {
	ho := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(w, ho))
	}
	return slog.New(slog.NewTextHandler(w, ho))
}

// ParseLevel accepts debug, info, warn or error (case-insensitive).
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("logger: unknown level %q", s)
	}
	return lvl, nil
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func fromEnv() *slog.Logger {
	v := os.Getenv(EnvLevel)
	if v == "" {
		return discard()
	}
	lvl, err := ParseLevel(v)
	if err != nil {
		lvl = slog.LevelDebug
	}
	return New(os.Stderr, lvl, false)
}

// cleanOldLogs removes dated log files older than retentionDays (best-effort).
func cleanOldLogs(logDir string, now time.Time) {
	cutoff := now.AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, logPrefix) || !strings.HasSuffix(name, logSuffix) {
			continue
		}

		dateStr := strings.TrimPrefix(strings.TrimSuffix(name, logSuffix), logPrefix)
		logDate, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}

		if logDate.Before(cutoff) {
			os.Remove(filepath.Join(logDir, name))
		}
	}
}
