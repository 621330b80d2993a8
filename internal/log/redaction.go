// Package log holds logging helpers shared by the library and the CLI:
// credential redaction for slog and for URLs, and a size-rotated log file.
package log

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
)

// Redacted replaces the value of anything sensitive.
const Redacted = "[REDACTED]"

// sensitiveKeys defines the list of keys whose values should be redacted.
// Keys are case-insensitive and match as substrings, so "api_key" and
// "password" are both caught.
var sensitiveKeys = []string{
	"password",
	"passwd",
	"pass",
	"secret",
	"token",
	"key",
	"auth",
	"cred",
}

// IsSensitive reports whether a log attribute or query parameter named key
// carries a secret.
func IsSensitive(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sens := range sensitiveKeys {
		if strings.Contains(lowerKey, sens) {
			return true
		}
	}
	return false
}

// RedactURL returns raw with sensitive query parameter values and any
// userinfo password replaced. A URL that does not parse loses its whole
// query string.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		if i := strings.IndexByte(raw, '?'); i >= 0 {
			return raw[:i] + "?" + Redacted
		}
		return raw
	}

	if u.RawQuery != "" {
		q := u.Query()
		for k := range q {
			if IsSensitive(k) {
				q[k] = []string{Redacted}
			}
		}
		u.RawQuery = q.Encode()
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), Redacted)
	}

	// Keep the marker readable instead of percent-encoded.
	return strings.ReplaceAll(u.String(), url.QueryEscape(Redacted), Redacted)
}

// RedactingHandler is a slog.Handler that redacts sensitive information.
type RedactingHandler struct {
	next slog.Handler
}

// NewRedactingHandler creates a new RedactingHandler.
func NewRedactingHandler(next slog.Handler) *RedactingHandler {
	return &RedactingHandler{next: next}
}

// Enabled implements slog.Handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler. It redacts sensitive attributes before passing to the next handler.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	var attrs []slog.Attr

	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, redactAttr(a))
		return true
	})

	newRecord := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	newRecord.AddAttrs(attrs...)

	return h.next.Handle(ctx, newRecord)
}

// WithAttrs implements slog.Handler.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redactedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redactedAttrs[i] = redactAttr(a)
	}
	return &RedactingHandler{next: h.next.WithAttrs(redactedAttrs)}
}

// WithGroup implements slog.Handler.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{next: h.next.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	// Resolve LogValuers first so their groups are inspected too.
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		redactedGroup := make([]any, len(attrs))
		for i, attr := range attrs {
			redactedGroup[i] = redactAttr(attr)
		}
		return slog.Group(a.Key, redactedGroup...)
	}

	if IsSensitive(a.Key) {
		return slog.String(a.Key, Redacted)
	}
	if a.Key == "url" && a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, RedactURL(a.Value.String()))
	}

	return a
}
