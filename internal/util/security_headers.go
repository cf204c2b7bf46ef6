package util

import (
	"net/http"
	"strings"
)

// SecurityOptions tunes WithSecurityHeaders.
type SecurityOptions struct {
	// ForceHSTS sends Strict-Transport-Security even when the request did not
	// arrive over TLS (the console usually sits behind a TLS-terminating proxy).
	ForceHSTS bool
	// CacheablePaths are exact paths allowed to be cached by the browser.
	CacheablePaths []string
}

// WithSecurityHeaders adds headers for a JSON-only API. The console never
// serves markup or images, so the CSP denies everything.
func WithSecurityHeaders(opts SecurityOptions, next http.Handler) http.Handler {
	cacheable := make(map[string]struct{}, len(opts.CacheablePaths))
	for _, p := range opts.CacheablePaths {
		cacheable[p] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		if _, ok := cacheable[r.URL.Path]; !ok {
			h.Set("Cache-Control", "no-store")
		}
		if opts.ForceHSTS || r.TLS != nil || strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https") {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}
