// Package trace tags every request with an id and logs its completion.
package trace

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	applog "spendlog/internal/log"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// Metrics is a point-in-time copy of the request counters.
type Metrics struct {
	TotalRequests int64
	TotalMicros   int64
}

// AverageResponseTime is zero before the first request.
func (m Metrics) AverageResponseTime() time.Duration {
	if m.TotalRequests == 0 {
		return 0
	}
	return time.Duration(m.TotalMicros/m.TotalRequests) * time.Microsecond
}

type Middleware struct {
	clientIP func(*http.Request) string
	now      func() time.Time

	requests atomic.Int64
	micros   atomic.Int64
}

// NewMiddleware uses clientIP, when non-nil, to resolve the caller address
// for the completion log.
func NewMiddleware(clientIP func(*http.Request) string) *Middleware {
	return &Middleware{clientIP: clientIP, now: time.Now}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := m.now()

		id := r.Header.Get(RequestIDHeader)
		if !acceptableID(id) {
			id = NewRequestID()
		}
		w.Header().Set(RequestIDHeader, id)

		logger := applog.FromContext(r.Context()).With(applog.FieldRequestID, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		ctx = applog.NewContext(ctx, logger)
		r = r.WithContext(ctx)

		var ip string
		if m.clientIP != nil {
			ip = m.clientIP(r)
		}
		logger.DebugContext(ctx, "HTTP request started",
			applog.NewFields().WithRequest(r).WithClientIP(ip).
				Args()...)

		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		elapsed := m.now().Sub(start)
		m.requests.Add(1)
		m.micros.Add(elapsed.Microseconds())
		applog.LogRequest(ctx, r, sw.status(), elapsed, ip)
	})
}

// Metrics returns the counters accumulated so far.
func (m *Middleware) Metrics() Metrics {
	return Metrics{TotalRequests: m.requests.Load(), TotalMicros: m.micros.Load()}
}

// statusWriter remembers the first status written. A body written without an
// explicit status is a 200.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.code == 0 {
		w.code = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.code == 0 {
		w.code = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) status() int {
	if w.code == 0 {
		return http.StatusOK
	}
	return w.code
}

// acceptableID accepts short printable ids forwarded by a client or proxy.
func acceptableID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}

func NewRequestID() string {
	return uuid.NewString()
}

// RequestID returns the id assigned to the request carrying ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
