package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins lists exact origins. "*" allows any origin.
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int
	// Environment "development" allows any origin regardless of AllowedOrigins.
	Environment string
}

// DefaultCORSConfig returns a permissive development configuration.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", CorrelationIDHeader, SessionIDHeader},
		ExposedHeaders: []string{CorrelationIDHeader},
		MaxAge:         3600,
		Environment:    "development",
	}
}

// CORS answers preflight requests and sets the Access-Control-* headers.
// Requests from origins outside the allowlist get no Allow-Origin header.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	def := DefaultCORSConfig()
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = def.AllowedMethods
	}
	if len(cfg.AllowedHeaders) == 0 {
		cfg.AllowedHeaders = def.AllowedHeaders
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}

	anyOrigin := cfg.Environment == "development"
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			anyOrigin = true
		}
		allowed[o] = struct{}{}
	}

	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	exposed := strings.Join(cfg.ExposedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			origin := r.Header.Get("Origin")
			switch {
			case anyOrigin:
				h.Set("Access-Control-Allow-Origin", "*")
			case origin != "":
				h.Add("Vary", "Origin")
				if _, ok := allowed[origin]; ok {
					h.Set("Access-Control-Allow-Origin", origin)
				}
			}

			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			if exposed != "" {
				h.Set("Access-Control-Expose-Headers", exposed)
			}
			h.Set("Access-Control-Max-Age", maxAge)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
