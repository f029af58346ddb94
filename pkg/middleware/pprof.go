package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"net/netip"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/trustdot/reputation/pkg/httputil"
)

// RegisterPprof mounts /debug/pprof/* behind an IP allowlist.
func RegisterPprof(r chi.Router, allowedCIDRs []string, logger *slog.Logger) {
	r.Group(func(r chi.Router) {
		r.Use(IPAllowlist(allowedCIDRs, logger))
		r.HandleFunc("/debug/pprof/*", pprof.Index)
		r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		r.HandleFunc("/debug/pprof/profile", pprof.Profile)
		r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		r.HandleFunc("/debug/pprof/trace", pprof.Trace)
	})
}

// IPAllowlist admits only clients whose RemoteAddr falls in one of cidrs.
// Unparseable CIDRs are logged and ignored; an empty list denies everyone.
func IPAllowlist(cidrs []string, logger *slog.Logger) func(http.Handler) http.Handler {
	prefixes := parsePrefixes(cidrs, logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowedAddr(prefixes, r.RemoteAddr) {
				logger.Warn("access denied by IP allowlist",
					slog.String("remote_addr", r.RemoteAddr),
					slog.String("path", r.URL.Path),
				)
				httputil.WriteJSON(w, http.StatusForbidden, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "FORBIDDEN", Message: "access restricted by IP allowlist"},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// parsePrefixes parses CIDRs, logging and skipping the invalid ones.
func parsePrefixes(cidrs []string, logger *slog.Logger) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		p, err := netip.ParsePrefix(strings.TrimSpace(cidr))
		if err != nil {
			logger.Warn("invalid CIDR, skipping", slog.String("cidr", cidr))
			continue
		}
		prefixes = append(prefixes, p.Masked())
	}
	return prefixes
}

func allowedAddr(prefixes []netip.Prefix, remoteAddr string) bool {
	return containsIP(prefixes, remoteHost(remoteAddr))
}

// remoteHost strips the port from a RemoteAddr-style value.
func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func containsIP(prefixes []netip.Prefix, ip string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
