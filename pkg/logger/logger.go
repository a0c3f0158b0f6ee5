// Package logger provides opinionated slog loggers for the ragembed CLI.
package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// RunIDKey is the attribute key that ties every record of one ingest run together.
const RunIDKey = "run_id"

type config struct {
	level  slog.Level
	pretty bool
	json   bool
	source bool
	writer io.Writer
	attrs  []slog.Attr
}

// New builds a *slog.Logger writing Info-level text records to os.Stderr
// unless options say otherwise.
func New(opts ...Option) *slog.Logger {
	c := &config{
		level:  slog.LevelInfo,
		writer: os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.writer == nil {
		c.writer = os.Stderr
	}

	h := c.handler()
	if len(c.attrs) > 0 {
		h = h.WithAttrs(c.attrs)
	}
	return slog.New(h)
}

func (c *config) handler() slog.Handler {
	switch {
	case c.json:
		return slog.NewJSONHandler(c.writer, &slog.HandlerOptions{
			Level:     c.level,
			AddSource: c.source,
		})
	case c.pretty:
		return charmlog.NewWithOptions(c.writer, charmlog.Options{
			Level:           charmlog.Level(c.level),
			ReportTimestamp: true,
			ReportCaller:    c.source,
			TimeFormat:      time.Kitchen,
		})
	default:
		return slog.NewTextHandler(c.writer, &slog.HandlerOptions{
			Level:     c.level,
			AddSource: c.source,
		})
	}
}

// ForRun returns l with the run id attached under RunIDKey.
func ForRun(l *slog.Logger, runID string) *slog.Logger {
	return l.With(RunIDKey, runID)
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
