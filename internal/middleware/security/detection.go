package security

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"sync/atomic"

	applog "spendlog/internal/log"
)

// maxURLLength is the longest request target served without being flagged.
const maxURLLength = 2048

var (
	probeFragments = []string{
		"../", "..\\", ".env", ".git", ".ssh", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", "etc/passwd", "cmd.exe",
		"<script", "javascript:", "eval(", "union select",
	}
	scannerAgents = []string{
		"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan", "zgrab", "scanner",
	}
	unusualMethods = []string{"TRACE", "TRACK", "DEBUG", "CONNECT"}

	defaultTrustedProxies = []string{
		"127.0.0.0/8", "::1/128", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16",
	}
)

// DetectionMetrics counts what the detector has seen.
type DetectionMetrics struct {
	SuspiciousRequests int64
	InvalidIPAttempts  int64
}

// Detector flags probe-like requests and resolves client addresses behind
// trusted reverse proxies.
type Detector struct {
	suspicious atomic.Int64
	invalidIPs atomic.Int64

	mu      sync.RWMutex
	proxies []netip.Prefix
}

func NewDetector() *Detector {
	d := &Detector{}
	for _, cidr := range defaultTrustedProxies {
		d.proxies = append(d.proxies, netip.MustParsePrefix(cidr))
	}
	return d
}

// Inspect returns why r looks like a probe, or false when it does not.
func (d *Detector) Inspect(r *http.Request) (string, bool) {
	reason, ok := inspect(r)
	if ok {
		d.suspicious.Add(1)
	}
	return reason, ok
}

// DetectSuspiciousRequest reports whether r looks like a probe.
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	_, ok := d.Inspect(r)
	return ok
}

func inspect(r *http.Request) (string, bool) {
	target := strings.ToLower(r.URL.Path + "?" + r.URL.RawQuery)
	for _, fragment := range probeFragments {
		if strings.Contains(target, fragment) {
			return "probe pattern " + fragment, true
		}
	}

	agent := strings.ToLower(r.UserAgent())
	for _, name := range scannerAgents {
		if strings.Contains(agent, name) {
			return "scanner user agent", true
		}
	}

	for _, m := range unusualMethods {
		if r.Method == m {
			return "unusual method", true
		}
	}

	if len(r.URL.String()) > maxURLLength {
		return "oversized url", true
	}
	if strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5 {
		return "long forwarding chain", true
	}
	return "", false
}

// ExtractClientIP returns the address of the client. Forwarding headers are
// honored only when the direct peer is a trusted proxy; X-Forwarded-For is
// walked from the right, skipping further trusted hops.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	direct, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		direct = r.RemoteAddr
	}

	peer, err := netip.ParseAddr(direct)
	if err != nil {
		d.invalidIPs.Add(1)
		return direct
	}
	if !d.trusted(peer) {
		return direct
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			if i == 0 || !d.trusted(hop) {
				return hop.String()
			}
		}
	}

	if xri, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return xri.String()
	}
	return direct
}

func (d *Detector) trusted(addr netip.Addr) bool {
	addr = addr.Unmap()
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, p := range d.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{
		SuspiciousRequests: d.suspicious.Load(),
		InvalidIPAttempts:  d.invalidIPs.Load(),
	}
}

// AddTrustedProxy trusts forwarding headers set by peers in cidr.
func (d *Detector) AddTrustedProxy(cidr string) error {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}

	d.mu.Lock()
	d.proxies = append(d.proxies, prefix.Masked())
	d.mu.Unlock()
	return nil
}

// Middleware logs requests that look like probes. They are still served.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason, ok := d.Inspect(r); ok {
			slog.WarnContext(r.Context(), "Suspicious request",
				applog.FieldComponent, applog.ComponentSecurity,
				"reason", reason,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldClientIP, d.ExtractClientIP(r),
				applog.FieldUserAgent, r.UserAgent())
		}
		next.ServeHTTP(w, r)
	})
}
