// Package logging builds the process logger: JSON slog output to stdout,
// plus a size-rotated file sink when a log directory is configured.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options come from the logging section of the config file.
type Options struct {
	Level      string
	Dir        string // empty disables the file sink
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New creates a JSON slog.Logger from opts. A bad level falls back to info;
// an unusable log directory falls back to stdout-only.
func New(opts Options) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(opts.Level)); err != nil {
		lvl = slog.LevelInfo
	}

	sinks := []io.Writer{os.Stdout}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err == nil {
			sinks = append(sinks, &lumberjack.Logger{
				Filename:   filepath.Join(opts.Dir, "engine.log"),
				MaxSize:    orDefault(opts.MaxSizeMB, 10), // megabytes
				MaxBackups: orDefault(opts.MaxBackups, 3),
				MaxAge:     orDefault(opts.MaxAgeDays, 28), // days
				Compress:   true,
			})
		}
	}

	handler := slog.NewJSONHandler(io.MultiWriter(sinks...), &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
