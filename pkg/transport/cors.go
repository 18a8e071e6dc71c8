package transport

import (
	"net/http"
	"slices"
	"strings"
)

// CORS returns middleware that sets cross-origin headers. An empty list or
// a list containing "*" allows any origin. Preflight OPTIONS requests are
// answered with 204 and never reach the next handler.
func CORS(allowedOrigins []string) Middleware {
	wildcard := len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()

			switch {
			case wildcard:
				h.Set("Access-Control-Allow-Origin", "*")
			case origin != "" && slices.Contains(allowedOrigins, origin):
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if h.Get("Access-Control-Allow-Origin") != "" {
					h.Set("Access-Control-Allow-Methods", strings.Join(corsMethods, ", "))
					h.Set("Access-Control-Allow-Headers", strings.Join(corsHeaders, ", "))
					h.Set("Access-Control-Max-Age", "600")
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

var corsMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}

var corsHeaders = []string{"Authorization", "Content-Type", "X-API-Key", "X-Request-ID", "Mcp-Session-Id", "Mcp-Protocol-Version"}
