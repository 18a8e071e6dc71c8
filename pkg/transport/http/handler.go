package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/quill/pkg/auth"
	"github.com/rhuss/quill/pkg/notes"
	"github.com/rhuss/quill/pkg/observability"
	"github.com/rhuss/quill/pkg/transport"
)

// readyTimeout bounds the store health check behind /readyz.
const readyTimeout = 2 * time.Second

// HandlerConfig describes the full HTTP surface.
type HandlerConfig struct {
	Service *notes.Service

	// Auth is the authenticator chain for protected routes. When nil, no
	// authentication runs and protected routes reply 401.
	Auth    *auth.AuthChain
	Limiter auth.RateLimiter

	MaxBodySize int64
	CORSOrigins []string

	// MetricsPath serves Prometheus metrics when non-empty.
	MetricsPath string

	// MCPHandler is mounted at MCPPath when non-nil. It sits behind the
	// same authentication as the note routes.
	MCPPath    string
	MCPHandler http.Handler

	Logger *slog.Logger
}

// NewHandler builds the root handler: recovery, request id, logging,
// metrics, CORS and authentication around the route mux.
func NewHandler(cfg HandlerConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	mux := http.NewServeMux()
	NewAdapter(cfg.Service, Config{MaxBodySize: cfg.MaxBodySize}).Register(mux)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := cfg.Service.HealthCheck(ctx); err != nil {
			cfg.Logger.Warn("readiness check failed", "error", err)
			transport.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	bypass := []string{"/", "/create-account", "/login", "/healthz", "/readyz"}
	if cfg.MetricsPath != "" {
		mux.Handle("GET "+cfg.MetricsPath, promhttp.Handler())
		bypass = append(bypass, cfg.MetricsPath)
	}
	if cfg.MCPHandler != nil && cfg.MCPPath != "" {
		mux.Handle(cfg.MCPPath, cfg.MCPHandler)
	}

	chain := cfg.Auth
	if chain == nil {
		chain = &auth.AuthChain{}
	}

	mw := transport.Chain(
		transport.Recovery(),
		transport.RequestID(),
		transport.Logging(cfg.Logger),
		observability.MetricsMiddleware,
		transport.CORS(cfg.CORSOrigins),
		auth.Middleware(chain, cfg.Limiter, bypass),
	)
	return mw(mux)
}
