// Package logger builds the application's slog.Logger: a tint console sink,
// an optional rotated JSON file and secret redaction in front of both.
package logger

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options defines parameters for logger creation.
type Options struct {
	Env          string
	ConsoleLevel string // default: info
	FileLevel    string // default: debug
	File         string // empty disables the file sink
	App          string
}

var closers sync.Map

// New creates configured slog.Logger instance.
func New(o Options) *slog.Logger {
	timeFormat := time.RFC3339
	if o.Env == "dev" {
		timeFormat = time.Kitchen
	}
	sinks := []slog.Handler{
		tint.NewHandler(os.Stdout, &tint.Options{
			Level:      ParseLevel(o.ConsoleLevel, slog.LevelInfo),
			TimeFormat: timeFormat,
		}),
	}

	var rotator *lumberjack.Logger
	if o.File != "" {
		rotator = &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    5, // MB
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		sinks = append(sinks, slog.NewJSONHandler(rotator, &slog.HandlerOptions{
			Level: ParseLevel(o.FileLevel, slog.LevelDebug),
		}))
	}

	var h slog.Handler = sinks[0]
	if len(sinks) > 1 {
		h = NewMultiHandler(sinks...)
	}
	l := slog.New(NewRedactingHandler(h, SensitiveKeys)).With(
		slog.String("app", o.App),
		slog.String("env", o.Env),
	)
	if rotator != nil {
		closers.Store(l, rotator.Close)
	}
	return l
}

// Close closes the file sink of a logger created by New.
// Should be called when shutting down the application.
func Close(logger *slog.Logger) error {
	if c, ok := closers.LoadAndDelete(logger); ok {
		return c.(func() error)()
	}
	return nil
}

// ParseLevel maps debug/info/warn/error onto slog levels, falling back to def.
func ParseLevel(s string, def slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return def
	}
}

// MultiHandler fans a record out to every sink enabled for its level.
// A failing sink does not keep the record from the others.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler creates a handler that writes to multiple handlers.
func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

// Enabled implements slog.Handler.
func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle implements slog.Handler.
func (h *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAttrs implements slog.Handler.
func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.each(func(s slog.Handler) slog.Handler { return s.WithAttrs(attrs) })
}

// WithGroup implements slog.Handler.
func (h *MultiHandler) WithGroup(name string) slog.Handler {
	return h.each(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })
}

func (h *MultiHandler) each(f func(slog.Handler) slog.Handler) *MultiHandler {
	out := make([]slog.Handler, len(h.handlers))
	for i, s := range h.handlers {
		out[i] = f(s)
	}
	return &MultiHandler{handlers: out}
}
