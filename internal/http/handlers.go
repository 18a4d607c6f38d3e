package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime"`
}

type readyResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Checks    map[string]any `json:"checks"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.appMetrics.started).Round(time.Second).String(),
	})
}

// handleReady answers 503 when the store cannot be read within the request
// timeout.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := readyResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks: map[string]any{
			"rate_limiter": map[string]any{"status": "ok", "active_clients": s.rateLimiter.ActiveClients()},
		},
	}
	code := http.StatusOK

	if s.ready == nil {
		resp.Checks["store"] = "not_configured"
	} else if err := s.checkReady(r.Context()); err != nil {
		resp.Checks["store"] = "failed: " + err.Error()
		resp.Status = "not_ready"
		code = http.StatusServiceUnavailable
	} else {
		resp.Checks["store"] = "ok"
	}
	writeJSON(w, code, resp)
}

func (s *Server) checkReady(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()
	return s.ready(ctx)
}

type metric struct {
	name, kind, help string
	value            any
}

func writeMetrics(out io.Writer, metrics []metric) {
	for _, m := range metrics {
		fmt.Fprintf(out, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", m.name, m.help, m.name, m.kind, m.name, m.value)
	}
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	requests := s.traceMiddleware.Metrics()
	limited := s.rateLimiter.GetMetrics()
	suspicious := s.securityDetector.GetMetrics()

	metrics := []metric{
		{"http_requests_total", "counter", "HTTP requests served", requests.TotalRequests},
		{"http_request_duration_avg_seconds", "gauge", "Mean HTTP request duration", requests.AverageResponseTime().Seconds()},
		{"records_created_total", "counter", "Records added to the journal", s.appMetrics.created.Load()},
		{"records_deleted_total", "counter", "Records removed from the journal", s.appMetrics.deleted.Load()},
	}
	if s.cacheStats != nil {
		stats := s.cacheStats()
		metrics = append(metrics,
			metric{"dashboard_cache_hits_total", "counter", "Dashboard view cache hits", stats.Hits},
			metric{"dashboard_cache_misses_total", "counter", "Dashboard view cache misses", stats.Misses},
			metric{"dashboard_cache_entries", "gauge", "Dashboard views currently cached", stats.Size},
		)
	}
	metrics = append(metrics,
		metric{"rate_limit_hits_total", "counter", "Requests refused by the rate limiter", limited.TotalHits},
		metric{"active_rate_limit_clients", "gauge", "Clients with an open rate limit window", limited.ClientCount},
		metric{"suspicious_requests_total", "counter", "Requests flagged as probes", suspicious.SuspiciousRequests},
		metric{"uptime_seconds", "gauge", "Seconds since the server started", int64(time.Since(s.appMetrics.started).Seconds())},
	)

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	writeMetrics(w, metrics)
}
