package logger

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// SensitiveKeys are attribute names whose values never reach a sink.
var SensitiveKeys = []string{"api_key", "key", "token", "secret", "authorization"}

const redacted = "[REDACTED]"

var (
	// ?key=... in request URLs that ended up inside an error message
	secretParam = regexp.MustCompile(`([?&](?:key|api_key|token)=)[^&\s"']+`)
	googleKey   = regexp.MustCompile(`AIza[0-9A-Za-z_\-]{20,}`)
	botToken    = regexp.MustCompile(`\b\d{6,}:[0-9A-Za-z_\-]{20,}`)
)

// Scrub masks API keys and bot tokens inside s and keeps the rest readable.
func Scrub(s string) string {
	s = secretParam.ReplaceAllString(s, "${1}REDACTED")
	s = googleKey.ReplaceAllString(s, redacted)
	return botToken.ReplaceAllString(s, redacted)
}

// RedactingHandler drops values of sensitive keys and scrubs secrets out of
// string and error values, including inside groups.
type RedactingHandler struct {
	inner slog.Handler
	keys  map[string]struct{}
}

// NewRedactingHandler wraps handler with redaction of sensitive fields.
func NewRedactingHandler(inner slog.Handler, sensitive []string) *RedactingHandler {
	m := make(map[string]struct{}, len(sensitive))
	for _, k := range sensitive {
		m[strings.ToLower(k)] = struct{}{}
	}
	return &RedactingHandler{inner: inner, keys: m}
}

// Enabled implements slog.Handler.
func (h *RedactingHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.inner.Enabled(ctx, l)
}

// Handle implements slog.Handler.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	nr := slog.NewRecord(r.Time, r.Level, Scrub(r.Message), r.PC)
	attrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool { attrs = append(attrs, a); return true })
	nr.AddAttrs(h.sanitize(attrs)...)
	return h.inner.Handle(ctx, nr)
}

// WithAttrs implements slog.Handler.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithAttrs(h.sanitize(attrs)), keys: h.keys}
}

// WithGroup implements slog.Handler.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name), keys: h.keys}
}

func (h *RedactingHandler) sanitize(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		if _, ok := h.keys[strings.ToLower(a.Key)]; ok {
			out = append(out, slog.String(a.Key, redacted))
			continue
		}
		v := a.Value.Resolve()
		switch v.Kind() {
		case slog.KindGroup:
			a = slog.Attr{Key: a.Key, Value: slog.GroupValue(h.sanitize(v.Group())...)}
		case slog.KindString:
			a = slog.String(a.Key, Scrub(v.String()))
		case slog.KindAny:
			if err, ok := v.Any().(error); ok {
				if msg := err.Error(); Scrub(msg) != msg {
					a = slog.String(a.Key, Scrub(msg))
				}
			}
		}
		out = append(out, a)
	}
	return out
}
