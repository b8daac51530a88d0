package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// Middleware applies limiter to mutating methods. Requests over the limit are
// passed to rejected instead of next.
func Middleware(limiter Limiter, keyFn func(*http.Request) string, rejected http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || !Mutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if !limiter.Allow(r.Context(), keyFn(r)) {
				rejected.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Mutating reports whether method changes server state.
func Mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// ClientIP returns the caller's address. The first X-Forwarded-For hop is
// used only when trustForwarded is set, since clients can forge the header.
func ClientIP(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
