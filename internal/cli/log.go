// Package cli implements the scenemap command-line interface.
//
// The commands load a scene file through the shared pipeline, open a view
// on the built forest and either render it, browse it in the terminal, or
// serve it over HTTP. The CLI is built using cobra and logs through
// charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - render: Draw a view of a scene as SVG, JSON, DOT, PNG or PDF
//   - tree: Print the scene's roots and their reference counts
//   - browse: Explore a scene map interactively in the terminal
//   - serve: Host a scene map over HTTP, optionally rescanning on save
//   - session: Create and edit stored view sessions
//   - cache: Manage the artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Long-running
// commands pass the logger through context.Context.
//
// # Configuration
//
// Defaults come from config.toml (see package config); flags override them.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger writes timestamped lines ("14:32:01.45 INFO ...") to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// stopwatch starts timing an operation. The returned func logs msg with the
// elapsed time at info level, e.g. "Rendered 12 nodes (41ms)".
func stopwatch(l *log.Logger) func(format string, args ...any) {
	start := time.Now()
	return func(format string, args ...any) {
		l.Infof(format+" (%s)", append(args, time.Since(start).Round(time.Millisecond))...)
	}
}

type loggerKey struct{}

var discard = log.New(io.Discard)

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger attached by withLogger, or one that
// drops everything.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return discard
}
