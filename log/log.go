// Copyright (c) 2025 The Soulstake developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError

	levelMaxVerbosity = LevelTrace
)

// Logger is the leveled key/value logger used across the repo.
type Logger interface {
	// With returns a new Logger that has this logger's attributes plus ctx.
	With(ctx ...any) Logger

	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
}

type logger struct {
	inner *slog.Logger
}

func (l *logger) With(ctx ...any) Logger {
	return &logger{l.inner.With(ctx...)}
}

func (l *logger) Trace(msg string, ctx ...any) { l.write(LevelTrace, msg, ctx...) }
func (l *logger) Debug(msg string, ctx ...any) { l.write(LevelDebug, msg, ctx...) }
func (l *logger) Info(msg string, ctx ...any)  { l.write(LevelInfo, msg, ctx...) }
func (l *logger) Warn(msg string, ctx ...any)  { l.write(LevelWarn, msg, ctx...) }
func (l *logger) Error(msg string, ctx ...any) { l.write(LevelError, msg, ctx...) }

func (l *logger) write(level slog.Level, msg string, ctx ...any) {
	l.inner.Log(context.Background(), level, msg, ctx...)
}

// root delegates to the currently installed handler, so loggers created
// before Init pick up the new handler transparently.
var root atomic.Pointer[slog.Handler]

func init() {
	var h slog.Handler = DiscardHandler()
	if isTerminalLikely() {
		h = NewTerminalHandlerWithLevel(os.Stderr, LevelInfo, false)
	}
	root.Store(&h)
}

func isTerminalLikely() bool {
	fi, err := os.Stderr.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

type rootHandler struct{}

func (rootHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return (*root.Load()).Enabled(ctx, lvl)
}

func (rootHandler) Handle(ctx context.Context, r slog.Record) error {
	return (*root.Load()).Handle(ctx, r)
}

func (h rootHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &attrsHandler{parent: h, attrs: attrs}
}

func (h rootHandler) WithGroup(_ string) slog.Handler {
	panic("not implemented")
}

type attrsHandler struct {
	parent slog.Handler
	attrs  []slog.Attr
}

func (h *attrsHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.parent.Enabled(ctx, lvl)
}

func (h *attrsHandler) Handle(ctx context.Context, r slog.Record) error {
	nr := r.Clone()
	nr.AddAttrs(h.attrs...)
	return h.parent.Handle(ctx, nr)
}

func (h *attrsHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &attrsHandler{parent: h, attrs: append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...)}
}

func (h *attrsHandler) WithGroup(_ string) slog.Handler {
	panic("not implemented")
}

// Init installs the given handler as the root of all package loggers.
func Init(h slog.Handler) {
	root.Store(&h)
}

// WithContext creates a package logger carrying the given context attributes.
func WithContext(ctx ...any) Logger {
	return (&logger{slog.New(rootHandler{})}).With(ctx...)
}
