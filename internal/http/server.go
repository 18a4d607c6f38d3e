package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"spendlog/internal/cache"
	"spendlog/internal/core"
	applog "spendlog/internal/log"
	"spendlog/internal/middleware/ratelimit"
	"spendlog/internal/middleware/security"
	"spendlog/internal/middleware/trace"
	"spendlog/internal/services"
)

// Journal is the record and category surface the API exposes.
type Journal interface {
	NewForm(ctx context.Context) core.Form
	AddRecord(ctx context.Context, form *core.Form) (core.Record, error)
	AddCategory(ctx context.Context, name string) (bool, error)
	ListRecords(ctx context.Context, category string) []core.Record
	Categories(ctx context.Context) []string
	DeleteRecord(ctx context.Context, id string) (core.Record, error)
	DeleteAt(ctx context.Context, position int, category string) (core.Record, error)
}

// Dashboard computes chart-ready views.
type Dashboard interface {
	Activate(ctx context.Context)
	View(ctx context.Context, q services.DashboardQuery) services.DashboardView
}

// Options configures a Server. Zero values fall back to defaults.
type Options struct {
	Addr           string
	RateLimit      int
	RequestTimeout time.Duration

	// Ready reports whether the backing store is reachable.
	Ready func(ctx context.Context) error

	// CacheStats exposes dashboard cache counters on /metrics.
	CacheStats func() cache.Stats
}

type appMetrics struct {
	started time.Time
	created atomic.Int64
	deleted atomic.Int64
}

type Server struct {
	http.Server
	journal        Journal
	dashboard      Dashboard
	ready          func(ctx context.Context) error
	cacheStats     func() cache.Stats
	requestTimeout time.Duration

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       appMetrics

	shutdownOnce sync.Once
}

func NewServer(journal Journal, dashboard Dashboard, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 7 * time.Second
	}
	limiterConfig := ratelimit.DefaultConfig()
	if opts.RateLimit > 0 {
		limiterConfig.RequestsPerMinute = opts.RateLimit
	}

	detector := security.NewDetector()
	s := &Server{
		journal:          journal,
		dashboard:        dashboard,
		ready:            opts.Ready,
		cacheStats:       opts.CacheStats,
		requestTimeout:   opts.RequestTimeout,
		rateLimiter:      ratelimit.NewLimiter(limiterConfig),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP),
	}

	s.appMetrics.started = time.Now()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/form", s.handleForm)
	api.HandleFunc("GET /api/records", s.handleListRecords)
	api.HandleFunc("POST /api/records", s.handleCreateRecord)
	api.HandleFunc("DELETE /api/records/{id}", s.handleDeleteRecord)
	api.HandleFunc("POST /api/records/delete-at", s.handleDeleteAt)
	api.HandleFunc("GET /api/categories", s.handleListCategories)
	api.HandleFunc("POST /api/categories", s.handleCreateCategory)
	api.HandleFunc("GET /api/dashboard", s.handleDashboard)
	api.HandleFunc("POST /api/dashboard/activate", s.handleActivateDashboard)

	limited := s.rateLimiter.Middleware(detector.ExtractClientIP, s.handleRateLimited)(s.withTimeout(api))
	mux.Handle("/api/", limited)

	var handler http.Handler = mux
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = detector.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = applog.Middleware(applog.New(applog.Config{
		Handler:   slog.Default().Handler(),
		Component: applog.ComponentHTTP,
	}))(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// withTimeout bounds every API request's store access.
func (s *Server) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
}

// Shutdown stops background work and gracefully shuts down the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) countCreated() { s.appMetrics.created.Add(1) }
func (s *Server) countDeleted() { s.appMetrics.deleted.Add(1) }
