// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. SetLogger may run concurrently with
// logging from engine goroutines.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for the compositor and every engine
// attached to a live Painter. By default nothing is logged. Pass nil to
// restore silence.
//
// Log levels:
//   - [slog.LevelDebug]: per-message diagnostics (transactions, deferred frames)
//   - [slog.LevelInfo]: lifecycle (engine start and stop, config reload)
//   - [slog.LevelWarn]: dropped messages (unknown ids, decode failures, sink failures)
//   - [slog.LevelError]: invariant violations when Config.Debug is off
//
// Example:
//
//	compositor.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	attachedMu.Lock()
	defer attachedMu.Unlock()
	for ls := range attached {
		ls.SetLogger(l)
	}
}

// Logger returns the current logger. Safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by engines that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

var (
	attachedMu sync.Mutex
	attached   = make(map[loggerSetter]struct{})
)

// attachLogger hands the current logger to v and keeps it updated until
// detachLogger. Values that do not accept a logger are ignored.
func attachLogger(v any) {
	ls, ok := v.(loggerSetter)
	if !ok {
		return
	}
	attachedMu.Lock()
	defer attachedMu.Unlock()
	attached[ls] = struct{}{}
	ls.SetLogger(Logger())
}

func detachLogger(v any) {
	ls, ok := v.(loggerSetter)
	if !ok {
		return
	}
	attachedMu.Lock()
	defer attachedMu.Unlock()
	delete(attached, ls)
}
