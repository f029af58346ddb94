package middleware

import "net/http"

// CacheControl sets the Cache-Control header on GET and HEAD responses.
func CacheControl(value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				w.Header().Set("Cache-Control", value)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NoStore marks responses as uncacheable. Used for views computed on every read.
func NoStore() func(http.Handler) http.Handler {
	return CacheControl("no-store")
}
