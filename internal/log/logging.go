// Package log builds the slog.Logger shared by the splitkb commands and the
// raw frame logger used to trace the split link.
//
// Console output is split by severity: errors on stderr, the rest on
// stdout. A log file moves console output to stderr and mirrors it there.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
)

// LevelTrace sits below Debug and enables raw link frame dumps.
const LevelTrace slog.Level = -8

// Config selects the level, the optional log file and the record format.
type Config struct {
	Level string
	File  string
	// Format is "text" or "json"; empty means text.
	Format string
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// MultiHandler hands every record to each of its handlers.
type MultiHandler []slog.Handler

func (m MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m {
		if h.Enabled(ctx, r.Level) {
			_ = h.Handle(ctx, r.Clone())
		}
	}
	return nil
}

func (m MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return m.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (m MultiHandler) WithGroup(name string) slog.Handler {
	return m.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (m MultiHandler) each(f func(slog.Handler) slog.Handler) MultiHandler {
	out := make(MultiHandler, len(m))
	for i, h := range m {
		out[i] = f(h)
	}
	return out
}

// LevelBand forwards records with Min <= level < Max to Handler.
type LevelBand struct {
	Min, Max slog.Level
	Handler  slog.Handler
}

func (b LevelBand) in(l slog.Level) bool { return l >= b.Min && l < b.Max }

func (b LevelBand) Enabled(ctx context.Context, level slog.Level) bool {
	return b.in(level) && b.Handler.Enabled(ctx, level)
}

func (b LevelBand) Handle(ctx context.Context, r slog.Record) error {
	if !b.in(r.Level) {
		return nil
	}
	return b.Handler.Handle(ctx, r)
}

func (b LevelBand) WithAttrs(attrs []slog.Attr) slog.Handler {
	b.Handler = b.Handler.WithAttrs(attrs)
	return b
}

func (b LevelBand) WithGroup(name string) slog.Handler {
	b.Handler = b.Handler.WithGroup(name)
	return b
}

// SetupLogger builds the logger described by cfg. The returned closers
// must be closed on exit.
func SetupLogger(cfg Config) (*slog.Logger, []io.Closer, error) {
	return setup(cfg, os.Stdout, os.Stderr)
}

func setup(cfg Config, stdout, stderr io.Writer) (*slog.Logger, []io.Closer, error) {
	level := ParseLevel(cfg.Level)
	newHandler, err := handlerFor(cfg.Format)
	if err != nil {
		return nil, nil, err
	}

	if cfg.File == "" {
		return slog.New(MultiHandler{
			LevelBand{Min: math.MinInt, Max: slog.LevelError, Handler: newHandler(stdout, level)},
			LevelBand{Min: slog.LevelError, Max: math.MaxInt, Handler: newHandler(stderr, slog.LevelError)},
		}), nil, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	h := MultiHandler{newHandler(stderr, level), newHandler(f, level)}
	return slog.New(h), []io.Closer{f}, nil
}

func handlerFor(format string) (func(io.Writer, slog.Level) slog.Handler, error) {
	switch format {
	case "", "text":
		return func(w io.Writer, l slog.Level) slog.Handler {
			return slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})
		}, nil
	case "json":
		return func(w io.Writer, l slog.Level) slog.Handler {
			return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: l})
		}, nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}
