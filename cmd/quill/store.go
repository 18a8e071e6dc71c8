package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rhuss/quill/pkg/config"
	"github.com/rhuss/quill/pkg/storage"
	"github.com/rhuss/quill/pkg/storage/memory"
	"github.com/rhuss/quill/pkg/storage/mongodb"
	"github.com/rhuss/quill/pkg/storage/postgres"
	"github.com/rhuss/quill/pkg/storage/sqlite"
)

// openStore opens the configured store. migrate overrides the per-backend
// migrate_on_start settings when false.
func openStore(ctx context.Context, cfg config.StorageConfig, migrate bool) (storage.Store, error) {
	switch cfg.Type {
	case "memory":
		slog.Warn("using in-memory storage; data is lost on restart")
		return memory.New(), nil

	case "postgres":
		s, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: migrate && cfg.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return s, nil

	case "sqlite":
		s, err := sqlite.New(ctx, sqlite.Config{
			Path:           cfg.SQLite.Path,
			MigrateOnStart: migrate && cfg.SQLite.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return s, nil

	case "mongo":
		s, err := mongodb.New(ctx, mongodb.Config{
			URI:            cfg.Mongo.URI,
			Database:       cfg.Mongo.Database,
			MigrateOnStart: migrate && cfg.Mongo.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("opening mongo store: %w", err)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
