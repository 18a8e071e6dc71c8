package postgres

import "time"

// Config holds pool and startup settings for the PostgreSQL store.
type Config struct {
	// DSN is a libpq-style URL or key/value connection string (required).
	DSN string

	// Pool sizing. Zero values fall back to 10 max and 1 min connection.
	MaxConns int32
	MinConns int32

	// MaxConnLifetime recycles pooled connections (default: 30m).
	MaxConnLifetime time.Duration

	// MigrateOnStart applies embedded migrations inside New.
	MigrateOnStart bool
}

func (c *Config) defaults() {
	if c.MaxConns <= 0 {
		c.MaxConns = 10
	}
	if c.MinConns <= 0 {
		c.MinConns = 1
	}
	if c.MaxConnLifetime <= 0 {
		c.MaxConnLifetime = 30 * time.Minute
	}
}
