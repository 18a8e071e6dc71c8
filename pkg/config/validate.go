package config

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/rhuss/quill/pkg/auth/jwt"
)

// Validate checks the configuration for required fields and valid values.
// All problems are reported together, each with its field path.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.MaxBodySize <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_size must be > 0, got %d", c.Server.MaxBodySize))
	}

	switch {
	case c.Auth.Token.Secret == "":
		errs = append(errs, errors.New("auth.token.secret (or ACCESS_TOKEN_SECRET) is required"))
	case len(c.Auth.Token.Secret) < jwt.MinSecretLength:
		errs = append(errs, fmt.Errorf("auth.token.secret must be at least %d bytes, got %d", jwt.MinSecretLength, len(c.Auth.Token.Secret)))
	}
	if c.Auth.Token.TTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.token.ttl must be > 0, got %v", c.Auth.Token.TTL))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.Auth.BcryptCost))
	}
	if c.Auth.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("auth.rate_limit.requests_per_minute must be >= 0, got %d", c.Auth.RateLimit.RequestsPerMinute))
	}
	for i, k := range c.Auth.APIKeys {
		if k.Key == "" && k.KeyFile == "" {
			errs = append(errs, fmt.Errorf("auth.api_keys[%d]: key or key_file is required", i))
		}
		if k.AccountID == "" {
			errs = append(errs, fmt.Errorf("auth.api_keys[%d].account_id is required", i))
		}
	}

	switch c.Storage.Type {
	case "memory":
	case "postgres":
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, errors.New("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	case "sqlite":
		if c.Storage.SQLite.Path == "" {
			errs = append(errs, errors.New("storage.sqlite.path is required when storage.type is \"sqlite\""))
		}
	case "mongo":
		if c.Storage.Mongo.URI == "" && c.Storage.Mongo.URIFile == "" {
			errs = append(errs, errors.New("storage.mongo.uri or storage.mongo.uri_file is required when storage.type is \"mongo\""))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\", \"postgres\", \"sqlite\", or \"mongo\", got %q", c.Storage.Type))
	}

	if c.MCP.Enabled && c.MCP.Path == "" {
		errs = append(errs, errors.New("mcp.path is required when mcp.enabled is true"))
	}
	if c.Observability.Metrics.Enabled && c.Observability.Metrics.Path == "" {
		errs = append(errs, errors.New("observability.metrics.path is required when metrics are enabled"))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be \"debug\", \"info\", \"warn\", or \"error\", got %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
