package log

import (
	"io"
	"log/slog"
	"time"
)

// Field names of an event line.
const (
	TimeKey  = "ts"
	LevelKey = "level"
	MsgKey   = "msg"
)

// NewJSONLogger returns the event logger used by harvest runs: one JSON
// object per line carrying ts, level and msg plus the event's own fields.
// verbose lowers the threshold from info to debug.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	threshold := slog.LevelInfo
	if verbose {
		threshold = slog.LevelDebug
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       threshold,
		ReplaceAttr: eventAttr,
	})
	return slog.New(NewRedactHandler(h))
}

// eventAttr rewrites the built-in record fields into the event line format.
func eventAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) != 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		ts := a.Value.Time()
		if ts.IsZero() {
			return slog.Attr{}
		}
		return slog.String(TimeKey, ts.UTC().Format(time.RFC3339))
	case slog.LevelKey:
		if lvl, ok := a.Value.Any().(slog.Level); ok {
			return slog.String(LevelKey, levelName(lvl))
		}
	case slog.MessageKey:
		return slog.Attr{Key: MsgKey, Value: a.Value}
	}
	return a
}

// levelName reports warn as "warning".
func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "error"
	case l >= slog.LevelWarn:
		return "warning"
	case l >= slog.LevelInfo:
		return "info"
	}
	return "debug"
}
