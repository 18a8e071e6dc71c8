package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rhuss/quill/pkg/auth"
	"github.com/rhuss/quill/pkg/auth/apikey"
	"github.com/rhuss/quill/pkg/auth/jwt"
	"github.com/rhuss/quill/pkg/auth/password"
	"github.com/rhuss/quill/pkg/config"
	"github.com/rhuss/quill/pkg/notes"
	"github.com/rhuss/quill/pkg/storage"
	transporthttp "github.com/rhuss/quill/pkg/transport/http"
	transportmcp "github.com/rhuss/quill/pkg/transport/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := openStore(ctx, cfg.Storage, true)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("closing store", "error", err)
			}
		}()

		if err := checkAPIKeyAccounts(ctx, store, cfg.Auth.APIKeys); err != nil {
			return err
		}

		handlerCfg, err := buildHandlerConfig(cfg, store, logger)
		if err != nil {
			return err
		}

		srv := transporthttp.NewServer(transporthttp.NewHandler(handlerCfg),
			transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
			transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
			transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
			transporthttp.WithLogger(logger),
		)

		logger.Info("quill starting",
			"version", version,
			"port", cfg.Server.Port,
			"storage", cfg.Storage.Type,
			"mcp", cfg.MCP.Enabled,
			"api_keys", len(cfg.Auth.APIKeys),
		)
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// checkAPIKeyAccounts fails when a service key names an account that does
// not exist. Notes written with such a key would violate the owner
// foreign key.
func checkAPIKeyAccounts(ctx context.Context, store storage.Store, keys []config.APIKeyConfig) error {
	var errs []error
	for i, k := range keys {
		if _, err := store.GetAccount(ctx, k.AccountID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				errs = append(errs, fmt.Errorf("auth.api_keys[%d]: account %q does not exist", i, k.AccountID))
				continue
			}
			return fmt.Errorf("checking api key accounts: %w", err)
		}
	}
	return errors.Join(errs...)
}

// buildHandlerConfig wires the service, authenticators and optional
// endpoints from cfg.
func buildHandlerConfig(cfg *config.Config, store storage.Store, logger *slog.Logger) (transporthttp.HandlerConfig, error) {
	tokens, err := jwt.New(jwt.Config{
		Secret: []byte(cfg.Auth.Token.Secret),
		Issuer: cfg.Auth.Token.Issuer,
		TTL:    cfg.Auth.Token.TTL,
	})
	if err != nil {
		return transporthttp.HandlerConfig{}, fmt.Errorf("creating token manager: %w", err)
	}

	hasher, err := password.NewHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return transporthttp.HandlerConfig{}, err
	}

	svc, err := notes.NewService(store, tokens, hasher, notes.Config{Logger: logger})
	if err != nil {
		return transporthttp.HandlerConfig{}, fmt.Errorf("creating notes service: %w", err)
	}

	// Service keys are checked before bearer tokens; each abstains when its
	// header is absent.
	var authenticators []auth.Authenticator
	if len(cfg.Auth.APIKeys) > 0 {
		raw := make([]apikey.RawKeyEntry, len(cfg.Auth.APIKeys))
		for i, k := range cfg.Auth.APIKeys {
			raw[i] = apikey.RawKeyEntry{Key: k.Key, AccountID: k.AccountID}
		}
		authenticators = append(authenticators, apikey.New(raw))
	}
	authenticators = append(authenticators, tokens)

	hc := transporthttp.HandlerConfig{
		Service:     svc,
		Auth:        &auth.AuthChain{Authenticators: authenticators},
		MaxBodySize: cfg.Server.MaxBodySize,
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
		Logger:      logger,
	}
	if cfg.Auth.RateLimit.RequestsPerMinute > 0 {
		hc.Limiter = auth.NewInProcessLimiter(cfg.Auth.RateLimit.RequestsPerMinute)
	}
	if cfg.Observability.Metrics.Enabled {
		hc.MetricsPath = cfg.Observability.Metrics.Path
	}
	if cfg.MCP.Enabled {
		hc.MCPPath = cfg.MCP.Path
		hc.MCPHandler = transportmcp.NewHandler(svc, version)
	}

	return hc, nil
}
