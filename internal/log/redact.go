package log

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// Redacted replaces the value of an attribute that looks like a credential.
const Redacted = "***REDACTED***"

// Per-site headers and cookies are logged at debug level when requests are
// built, so header names are listed alongside plain credential names.
var redactedKeys = map[string]struct{}{
	"authorization":       {},
	"proxy-authorization": {},
	"cookie":              {},
	"set-cookie":          {},
	"x-api-key":           {},
	"x-auth-token":        {},
	"api_key":             {},
	"api-key":             {},
	"apikey":              {},
	"sid":                 {},
	"session":             {},
	"session_id":          {},
	"sessionid":           {},
	"jsessionid":          {},
}

// redactedFragments match anywhere in a lower-cased key. "key" alone is not
// listed: it would hide cache_key and primary_key.
var redactedFragments = []string{
	"password", "passwd", "secret", "token", "credential", "private", "cookie",
}

// secretValues catch credentials logged under an innocent key. A SHA-256
// content hash must not match any of them.
var secretValues = []*regexp.Regexp{
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`), // JWT
	regexp.MustCompile(`(?i)^(bearer|token)\s+\S+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
	regexp.MustCompile(`^AKIA[0-9A-Z]{16}$`),
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
}

func sensitiveKey(key string) bool {
	key = strings.ToLower(key)
	if _, ok := redactedKeys[key]; ok {
		return true
	}
	for _, frag := range redactedFragments {
		if strings.Contains(key, frag) {
			return true
		}
	}
	return false
}

func sensitiveValue(v string) bool {
	for _, re := range secretValues {
		if re.MatchString(v) {
			return true
		}
	}
	return false
}

// redact masks a, descending into groups.
func redact(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		members := a.Value.Group()
		out := make([]slog.Attr, 0, len(members))
		for _, m := range members {
			out = append(out, redact(m))
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	if sensitiveKey(a.Key) {
		return slog.String(a.Key, Redacted)
	}
	if a.Value.Kind() == slog.KindString && sensitiveValue(a.Value.String()) {
		return slog.String(a.Key, Redacted)
	}
	return a
}

// RedactHandler masks credential-like attributes before handing records to
// the wrapped handler.
type RedactHandler struct {
	next slog.Handler
}

// NewRedactHandler wraps next. A nil next wraps slog.Default().Handler().
func NewRedactHandler(next slog.Handler) *RedactHandler {
	if next == nil {
		next = slog.Default().Handler()
	}
	return &RedactHandler{next: next}
}

func (h *RedactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *RedactHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(redact(a))
		return true
	})
	return h.next.Handle(ctx, masked)
}

func (h *RedactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		masked = append(masked, redact(a))
	}
	return &RedactHandler{next: h.next.WithAttrs(masked)}
}

func (h *RedactHandler) WithGroup(name string) slog.Handler {
	return &RedactHandler{next: h.next.WithGroup(name)}
}
