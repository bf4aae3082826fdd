package textatlas

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// discard drops every record. Enabled reports false, so callers never
// build the attributes of a disabled message.
type discard struct{}

func (discard) Enabled(context.Context, slog.Level) bool  { return false }
func (discard) Handle(context.Context, slog.Record) error { return nil }
func (discard) WithAttrs([]slog.Attr) slog.Handler        { return discard{} }
func (discard) WithGroup(string) slog.Handler             { return discard{} }

var (
	silent  = slog.New(discard{})
	current atomic.Pointer[slog.Logger]
)

func init() {
	current.Store(silent)
}

// SetLogger routes textatlas diagnostics, and those of the wgpu backend,
// text and svg packages, to l. Nil restores the silent default.
//
// Levels:
//   - [slog.LevelDebug]: per-frame detail (prepared glyphs, evictions, vertex buffer growth)
//   - [slog.LevelInfo]: atlas plane growth
//   - [slog.LevelWarn]: failures that do not stop the frame
//
// SetLogger may be called from any goroutine.
//
//	textatlas.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	current.Store(l)
}

// Logger returns the logger set by SetLogger.
func Logger() *slog.Logger {
	return current.Load()
}
