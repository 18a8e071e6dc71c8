// Package config provides unified configuration for the quill server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (QUILL_ prefix)
//  4. Legacy env var names from earlier deployments (PORT, ACCESS_TOKEN_SECRET, MONGO_URI)
//  5. File reference resolution (_file suffix fields)
//  6. Validation
package config

import "time"

// Config holds all configuration for the quill server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Storage       StorageConfig       `yaml:"storage"`
	MCP           MCPConfig           `yaml:"mcp"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8000
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 15s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 30s
	MaxBodySize     int64         `yaml:"max_body_size"`    // bytes, default: 1 MiB

	// CORSAllowedOrigins lists origins allowed to call the API. Empty or
	// "*" allows any origin.
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	Token      TokenConfig     `yaml:"token"`
	APIKeys    []APIKeyConfig  `yaml:"api_keys"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
	BcryptCost int             `yaml:"bcrypt_cost"` // default: 10
}

// TokenConfig holds access token settings.
type TokenConfig struct {
	Secret     string        `yaml:"secret"`
	SecretFile string        `yaml:"secret_file"` // _file variant for secret
	Issuer     string        `yaml:"issuer"`      // optional
	TTL        time.Duration `yaml:"ttl"`         // default: 36000m
}

// APIKeyConfig maps a static service key to the account it acts for.
type APIKeyConfig struct {
	Key       string `yaml:"key" json:"key"`
	KeyFile   string `yaml:"key_file" json:"key_file"` // _file variant for key
	AccountID string `yaml:"account_id" json:"account_id"`
}

// RateLimitConfig holds per-account request limits. Zero disables limiting.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// StorageConfig selects and configures the store.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory", "postgres", "sqlite" or "mongo", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Mongo    MongoConfig    `yaml:"mongo"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 10
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path           string `yaml:"path"`             // default: "quill.db"
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: true
}

// MongoConfig holds MongoDB-specific settings.
type MongoConfig struct {
	URI            string `yaml:"uri"`
	URIFile        string `yaml:"uri_file"`         // _file variant for uri
	Database       string `yaml:"database"`         // default: "quill"
	MigrateOnStart bool   `yaml:"migrate_on_start"` // creates indexes, default: true
}

// MCPConfig holds the MCP tool endpoint settings.
type MCPConfig struct {
	Enabled bool   `yaml:"enabled"` // default: false
	Path    string `yaml:"path"`    // default: "/mcp"
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn" or "error", default: "info"
	Format string `yaml:"format"` // "text" or "json", default: "text"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:               8000,
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       30 * time.Second,
			ShutdownTimeout:    30 * time.Second,
			MaxBodySize:        1 << 20,
			CORSAllowedOrigins: []string{"*"},
		},
		Auth: AuthConfig{
			Token: TokenConfig{
				TTL: 36000 * time.Minute,
			},
			BcryptCost: 10,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 10,
			},
			SQLite: SQLiteConfig{
				Path:           "quill.db",
				MigrateOnStart: true,
			},
			Mongo: MongoConfig{
				Database:       "quill",
				MigrateOnStart: true,
			},
		},
		MCP: MCPConfig{
			Path: "/mcp",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
