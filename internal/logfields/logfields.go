package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyRule       = "rule"
	KeyDoc        = "doc"
	KeyRoute      = "route"
	KeyPath       = "path"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr   { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr { return slog.String(KeyStage, name) }
func Rule(name string) slog.Attr  { return slog.String(KeyRule, name) }
func Doc(path string) slog.Attr   { return slog.String(KeyDoc, path) }
func Route(r string) slog.Attr    { return slog.String(KeyRoute, r) }
func Path(p string) slog.Attr     { return slog.String(KeyPath, p) }
func Count(n int) slog.Attr       { return slog.Int(KeyCount, n) }

// DurationMS reports a duration in fractional milliseconds.
func DurationMS(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d)/float64(time.Millisecond))
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
