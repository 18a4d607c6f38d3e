package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type loggerKey struct{}

// NewContext returns a copy of ctx carrying l.
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the logger stored in ctx, or the slog default tagged
// with an "unknown" component.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return l
	}
	return tagged(slog.Default(), "unknown")
}

// Middleware makes l available to handlers through FromContext.
func Middleware(l *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), l)))
		})
	}
}

// LogRequest logs a finished request. Client errors log at warn, server
// errors at error.
func LogRequest(ctx context.Context, r *http.Request, status int, elapsed time.Duration, clientIP string) {
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}
	args := NewFields().WithRequest(r).WithResponse(status, elapsed).WithClientIP(clientIP).Args()
	FromContext(ctx).Log(ctx, level, "HTTP request completed", args...)
}
