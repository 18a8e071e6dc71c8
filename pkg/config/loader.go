package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, QUILL_CONFIG env, ./config.yaml, /etc/quill/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. QUILL_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/quill/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("QUILL_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/quill/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields. QUILL_*
// names win over the legacy names when both are set. Malformed numeric or
// duration values are reported rather than ignored.
func applyEnvOverrides(cfg *Config) error {
	// Legacy names first, so the QUILL_* names below take precedence.
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("ACCESS_TOKEN_SECRET"); v != "" {
		cfg.Auth.Token.Secret = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.Storage.Type = "mongo"
		cfg.Storage.Mongo.URI = v
	}

	if v := os.Getenv("QUILL_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("QUILL_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("QUILL_TOKEN_SECRET"); v != "" {
		cfg.Auth.Token.Secret = v
	}
	if v := os.Getenv("QUILL_TOKEN_ISSUER"); v != "" {
		cfg.Auth.Token.Issuer = v
	}
	if v := os.Getenv("QUILL_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("QUILL_TOKEN_TTL: %w", err)
		}
		cfg.Auth.Token.TTL = d
	}
	if v := os.Getenv("QUILL_STORAGE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("QUILL_POSTGRES_DSN"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("QUILL_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLite.Path = v
	}
	if v := os.Getenv("QUILL_MONGO_URI"); v != "" {
		cfg.Storage.Mongo.URI = v
	}
	if v := os.Getenv("QUILL_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("QUILL_RATE_LIMIT: %w", err)
		}
		cfg.Auth.RateLimit.RequestsPerMinute = n
	}
	if v := os.Getenv("QUILL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("QUILL_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("QUILL_MCP_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("QUILL_MCP_ENABLED: %w", err)
		}
		cfg.MCP.Enabled = enabled
	}

	// QUILL_API_KEYS: JSON array of {"key","account_id"} objects.
	if v := os.Getenv("QUILL_API_KEYS"); v != "" {
		keys, err := parseAPIKeysJSON(v)
		if err != nil {
			return err
		}
		cfg.Auth.APIKeys = keys
	}

	return nil
}

// parseAPIKeysJSON parses a JSON array of API key configurations.
func parseAPIKeysJSON(jsonStr string) ([]APIKeyConfig, error) {
	var keys []APIKeyConfig
	if err := json.Unmarshal([]byte(jsonStr), &keys); err != nil {
		return nil, fmt.Errorf("parsing API keys JSON: %w", err)
	}
	return keys, nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// auth.token.secret_file -> auth.token.secret
	if cfg.Auth.Token.SecretFile != "" && cfg.Auth.Token.Secret == "" {
		val, err := readSecretFile(cfg.Auth.Token.SecretFile)
		if err != nil {
			return fmt.Errorf("auth.token.secret_file: %w", err)
		}
		cfg.Auth.Token.Secret = val
	}

	// storage.postgres.dsn_file -> storage.postgres.dsn
	if cfg.Storage.Postgres.DSNFile != "" && cfg.Storage.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = val
	}

	// storage.mongo.uri_file -> storage.mongo.uri
	if cfg.Storage.Mongo.URIFile != "" && cfg.Storage.Mongo.URI == "" {
		val, err := readSecretFile(cfg.Storage.Mongo.URIFile)
		if err != nil {
			return fmt.Errorf("storage.mongo.uri_file: %w", err)
		}
		cfg.Storage.Mongo.URI = val
	}

	// auth.api_keys[*].key_file -> auth.api_keys[*].key
	for i := range cfg.Auth.APIKeys {
		if cfg.Auth.APIKeys[i].KeyFile != "" && cfg.Auth.APIKeys[i].Key == "" {
			val, err := readSecretFile(cfg.Auth.APIKeys[i].KeyFile)
			if err != nil {
				return fmt.Errorf("auth.api_keys[%d].key_file: %w", i, err)
			}
			cfg.Auth.APIKeys[i].Key = val
		}
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
