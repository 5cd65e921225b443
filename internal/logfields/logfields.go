package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyOperation  = "operation"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyAttempt    = "attempt"
	KeyStatus     = "status"
	KeyKind       = "kind"
	KeyDelayMS    = "delay_ms"
	KeyDurationMS = "duration_ms"
	KeyRequestID  = "request_id"
	KeyItems      = "items"
	KeyPage       = "page"
	KeyReason     = "reason"
	KeyURL        = "url"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Operation(name string) slog.Attr { return slog.String(KeyOperation, name) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func DelayMS(d time.Duration) slog.Attr {
	return slog.Int64(KeyDelayMS, d.Milliseconds())
}
func DurationMS(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}
func RequestID(id string) slog.Attr { return slog.String(KeyRequestID, id) }
func Items(n int) slog.Attr         { return slog.Int(KeyItems, n) }
func Page(n int) slog.Attr          { return slog.Int(KeyPage, n) }
func Reason(r string) slog.Attr     { return slog.String(KeyReason, r) }
func URL(u string) slog.Attr        { return slog.String(KeyURL, u) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
