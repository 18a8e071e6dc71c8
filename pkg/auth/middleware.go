package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rhuss/quill/pkg/api"
	"github.com/rhuss/quill/pkg/observability"
	"github.com/rhuss/quill/pkg/transport"
)

// Middleware creates HTTP middleware from an AuthChain and optional RateLimiter.
// It checks the bypass list, runs authentication, enforces the optional rate
// limit, and injects the identity into the request context.
func Middleware(chain *AuthChain, limiter RateLimiter, bypassEndpoints []string) func(http.Handler) http.Handler {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			result := chain.Authenticate(r.Context(), r)

			if result.Decision != Yes || result.Identity == nil {
				err := result.Err
				if err == nil {
					err = ErrUnauthenticated
				}
				reject(w, r, err)
				return
			}

			if result.Identity.AccountID == "" {
				slog.Error("authenticator returned identity with empty account id",
					"method", result.Identity.Method,
				)
				transport.WriteAPIError(w, api.NewServerError("Internal Server Error"))
				return
			}

			slog.Debug("authentication succeeded",
				"account_id", result.Identity.AccountID,
				"method", result.Identity.Method,
				"path", r.URL.Path,
			)

			if limiter != nil {
				if err := limiter.Allow(r.Context(), result.Identity); err != nil {
					slog.Warn("rate limit exceeded",
						"account_id", result.Identity.AccountID,
						"path", r.URL.Path,
					)
					observability.RateLimitRejectedTotal.Inc()
					transport.WriteAPIError(w, api.NewTooManyRequestsError("rate limit exceeded"))
					return
				}
			}

			ctx := SetIdentity(r.Context(), result.Identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// reject writes 403 for invalid credentials and 401 for everything else.
func reject(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrForbidden) {
		slog.Warn("authentication failed",
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		observability.AuthFailuresTotal.WithLabelValues("forbidden").Inc()
		transport.WriteAPIError(w, api.NewForbiddenError("invalid or expired token"))
		return
	}

	slog.Debug("authentication required",
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)
	observability.AuthFailuresTotal.WithLabelValues("unauthenticated").Inc()
	w.Header().Set("WWW-Authenticate", `Bearer realm="quill"`)
	transport.WriteAPIError(w, api.NewUnauthenticatedError("authentication required"))
}

// DefaultBypassEndpoints lists endpoints that skip authentication.
var DefaultBypassEndpoints = []string{
	"/",
	"/create-account",
	"/login",
	"/healthz",
	"/readyz",
	"/metrics",
}
