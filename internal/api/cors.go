package api

import (
	"net/http"
	"strings"
)

const (
	corsMethods = "GET, POST, PUT, DELETE"
	corsHeaders = "Authorization, Accept, Content-Type"
	corsMaxAge  = "3600"
)

// AllowedOrigin reports whether a browser origin may call the API: any
// http://localhost origin, or "null" for pages opened from disk.
func AllowedOrigin(origin string) bool {
	return strings.HasPrefix(origin, "http://localhost") || origin == "null"
}

// CheckOrigin adapts AllowedOrigin for websocket upgrades. Requests without
// an Origin header are not from a browser and are allowed.
func CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || AllowedOrigin(origin)
}

// CORS answers preflight requests and adds CORS headers for allowed origins.
// Requests from other origins are served without CORS headers, leaving the
// browser to block them.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || !AllowedOrigin(origin) {
			next.ServeHTTP(w, r)
			return
		}

		hdr := w.Header()
		hdr.Set("Access-Control-Allow-Origin", origin)
		hdr.Set("Access-Control-Allow-Credentials", "true")
		hdr.Add("Vary", "Origin")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			hdr.Set("Access-Control-Allow-Methods", corsMethods)
			hdr.Set("Access-Control-Allow-Headers", corsHeaders)
			hdr.Set("Access-Control-Max-Age", corsMaxAge)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
