package middleware

import (
	"log/slog"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/trustdot/reputation/pkg/httputil"
)

// RateLimitConfig configures a per-client token bucket.
type RateLimitConfig struct {
	// RPS is the sustained request rate. Zero disables limiting.
	RPS   float64
	Burst int
	// IdleTTL is how long an idle client's bucket is kept.
	IdleTTL time.Duration
	// TrustedProxies lists the CIDRs whose X-Forwarded-For and X-Real-IP
	// headers are believed. Empty means RemoteAddr is always the key.
	TrustedProxies []string
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitorStore holds one limiter per client IP. Idle entries are swept
// lazily, at most once per ttl, on the request path.
type visitorStore struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newVisitorStore(cfg RateLimitConfig) *visitorStore {
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 3 * time.Minute
	}
	return &visitorStore{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(cfg.RPS),
		burst:    max(cfg.Burst, 1),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *visitorStore) get(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) > s.ttl {
		for k, v := range s.visitors {
			if now.Sub(v.lastSeen) > s.ttl {
				delete(s.visitors, k)
			}
		}
		s.lastSweep = now
	}

	v, ok := s.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (s *visitorStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}

// RateLimit throttles each client IP with a token bucket and answers 429
// with Retry-After once the bucket is empty. Forwarding headers only count
// when they arrive through a trusted proxy.
func RateLimit(cfg RateLimitConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if cfg.RPS <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	store := newVisitorStore(cfg)
	trusted := parsePrefixes(cfg.TrustedProxies, logger)
	retryAfter := strconv.Itoa(max(1, int(1/cfg.RPS)))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, trusted)
			if !store.get(ip).Allow() {
				logger.WarnContext(r.Context(), "rate limit exceeded",
					slog.String("ip", ip),
					slog.String("path", r.URL.Path),
				)
				w.Header().Set("Retry-After", retryAfter)
				httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "RATE_LIMITED", Message: "too many requests"},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP resolves the client address. Forwarding headers are honored only
// when the direct peer is a trusted proxy; the X-Forwarded-For chain is then
// walked right to left and the first hop outside the trusted set wins.
func clientIP(r *http.Request, trusted []netip.Prefix) string {
	peer := remoteHost(r.RemoteAddr)
	if !containsIP(trusted, peer) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			if !containsIP(trusted, addr.String()) {
				return addr.Unmap().String()
			}
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if addr, err := netip.ParseAddr(strings.TrimSpace(xri)); err == nil {
			return addr.Unmap().String()
		}
	}
	return peer
}
