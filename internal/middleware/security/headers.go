package security

import (
	"net/http"
	"strconv"
	"strings"
)

// HeadersConfig lists the response headers to set. Empty values are skipped.
type HeadersConfig struct {
	ContentSecurityPolicy     string
	FrameOptions              string
	ContentTypeOptions        string
	ReferrerPolicy            string
	PermissionsPolicy         string
	CrossOriginOpenerPolicy   string
	CrossOriginResourcePolicy string
	// CacheControl applies unless a handler overrides it.
	CacheControl string

	// HSTS is only sent over TLS, and only when MaxAge is positive.
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
}

// DefaultHeadersConfig suits a JSON API that serves no documents.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		ContentSecurityPolicy:     "default-src 'none'; frame-ancestors 'none'; base-uri 'none'",
		FrameOptions:              "DENY",
		ContentTypeOptions:        "nosniff",
		ReferrerPolicy:            "no-referrer",
		PermissionsPolicy:         "geolocation=(), microphone=(), camera=(), payment=()",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "same-origin",
		CacheControl:              "no-store",
		HSTSMaxAge:                365 * 24 * 60 * 60,
		HSTSIncludeSubdomains:     true,
	}
}

// HeadersMiddleware writes a fixed header set computed once at construction.
type HeadersMiddleware struct {
	fixed [][2]string
	hsts  string
}

func NewHeadersMiddleware(cfg HeadersConfig) *HeadersMiddleware {
	h := &HeadersMiddleware{}
	for _, kv := range [][2]string{
		{"Content-Security-Policy", cfg.ContentSecurityPolicy},
		{"X-Frame-Options", cfg.FrameOptions},
		{"X-Content-Type-Options", cfg.ContentTypeOptions},
		{"Referrer-Policy", cfg.ReferrerPolicy},
		{"Permissions-Policy", cfg.PermissionsPolicy},
		{"Cross-Origin-Opener-Policy", cfg.CrossOriginOpenerPolicy},
		{"Cross-Origin-Resource-Policy", cfg.CrossOriginResourcePolicy},
		{"Cache-Control", cfg.CacheControl},
	} {
		if kv[1] != "" {
			h.fixed = append(h.fixed, kv)
		}
	}

	if cfg.HSTSMaxAge > 0 {
		parts := []string{"max-age=" + strconv.Itoa(cfg.HSTSMaxAge)}
		if cfg.HSTSIncludeSubdomains {
			parts = append(parts, "includeSubDomains")
		}
		if cfg.HSTSPreload {
			parts = append(parts, "preload")
		}
		h.hsts = strings.Join(parts, "; ")
	}
	return h
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		for _, kv := range h.fixed {
			header.Set(kv[0], kv[1])
		}
		if h.hsts != "" && r.TLS != nil {
			header.Set("Strict-Transport-Security", h.hsts)
		}
		next.ServeHTTP(w, r)
	})
}
