package transport

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/rhuss/quill/pkg/api"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to server error responses. The server continues to
// accept new requests after a panic is recovered.
func Recovery() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rv := recover(); rv != nil {
					if rv == http.ErrAbortHandler {
						panic(rv)
					}
					slog.Error("panic recovered",
						"request_id", RequestIDFromContext(r.Context()),
						"path", r.URL.Path,
						"panic", rv,
						"stack", string(debug.Stack()),
					)
					WriteAPIError(w, api.NewServerError("Internal Server Error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
