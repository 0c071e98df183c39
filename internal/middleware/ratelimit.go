package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"fitness-tracker/internal/metrics"
)

const (
	defaultAuthRPM = 10
	idleClientTTL  = 10 * time.Minute
	sweepInterval  = time.Minute
)

type limitTier string

const (
	tierGeneral limitTier = "general"
	tierAuth    limitTier = "auth"
	tierExempt  limitTier = "exempt"
)

// Provider deliveries and health checks come from a few fixed addresses and are never throttled.
var exemptPaths = map[string]bool{
	"/api/payment/webhook": true,
	"/health":              true,
	"/metrics":             true,
}

func tierFor(path string) limitTier {
	path = strings.ToLower(path)
	switch {
	case exemptPaths[path]:
		return tierExempt
	case strings.HasPrefix(path, "/api/auth/"):
		return tierAuth
	default:
		return tierGeneral
	}
}

type clientBuckets struct {
	general  *rate.Limiter
	auth     *rate.Limiter
	lastSeen time.Time
}

func (b *clientBuckets) forTier(tier limitTier) *rate.Limiter {
	if tier == tierAuth {
		return b.auth
	}
	return b.general
}

// RateLimitMiddleware keeps one token bucket per client IP and tier. Login and
// registration share a stricter bucket; a non-positive general limit disables the other.
type RateLimitMiddleware struct {
	generalRPM int
	authRPM    int
	now        func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientBuckets
	lastSweep time.Time
}

func NewRateLimitMiddleware(generalRPM int, authRPM int) *RateLimitMiddleware {
	if authRPM <= 0 {
		authRPM = defaultAuthRPM
	}

	return &RateLimitMiddleware{
		generalRPM: generalRPM,
		authRPM:    authRPM,
		now:        time.Now,
		clients:    map[string]*clientBuckets{},
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tier := tierFor(r.URL.Path)
		if tier == tierExempt {
			next.ServeHTTP(w, r)
			return
		}

		if !m.buckets(ClientIP(r)).forTier(tier).Allow() {
			metrics.RecordRateLimited(string(tier))
			w.Header().Set("Retry-After", "60")
			writeEnvelope(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) buckets(clientIP string) *clientBuckets {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastSweep) >= sweepInterval {
		m.sweepLocked(now)
	}

	b, ok := m.clients[clientIP]
	if !ok {
		b = &clientBuckets{
			general: newLimiter(m.generalRPM),
			auth:    newLimiter(m.authRPM),
		}
		m.clients[clientIP] = b
	}
	b.lastSeen = now

	return b
}

func (m *RateLimitMiddleware) sweepLocked(now time.Time) {
	m.lastSweep = now
	cutoff := now.Add(-idleClientTTL)
	for ip, b := range m.clients {
		if b.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
		}
	}
}

func (m *RateLimitMiddleware) trackedClients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

func newLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)
}

// ClientIP prefers proxy headers and falls back to the connection address.
func ClientIP(r *http.Request) string {
	forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	realIP := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}

	if strings.TrimSpace(r.RemoteAddr) == "" {
		return "unknown"
	}

	return r.RemoteAddr
}
