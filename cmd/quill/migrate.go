package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rhuss/quill/pkg/storage"
	"github.com/rhuss/quill/pkg/storage/mongodb"
	"github.com/rhuss/quill/pkg/storage/postgres"
	"github.com/rhuss/quill/pkg/storage/sqlite"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	Long: `Apply pending schema migrations for the configured store.
For postgres and sqlite this runs the embedded SQL migrations; for mongo
it creates the collection indexes. The memory store needs nothing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := openStore(cmd.Context(), cfg.Storage, false)
		if err != nil {
			return err
		}
		defer store.Close()

		return migrateStore(cmd.Context(), store)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

// migrateStore applies the backend-specific schema setup.
func migrateStore(ctx context.Context, store storage.Store) error {
	switch s := store.(type) {
	case *postgres.Store:
		if err := s.Migrate(ctx); err != nil {
			return fmt.Errorf("migrating postgres: %w", err)
		}
	case *sqlite.Store:
		if err := s.Migrate(); err != nil {
			return fmt.Errorf("migrating sqlite: %w", err)
		}
		v, dirty, err := s.SchemaVersion()
		if err != nil {
			return fmt.Errorf("reading sqlite schema version: %w", err)
		}
		slog.Info("sqlite schema version", "version", v, "dirty", dirty)
	case *mongodb.Store:
		if err := s.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("creating mongo indexes: %w", err)
		}
	default:
		slog.Info("store has no schema to migrate")
		return nil
	}
	slog.Info("migrations complete")
	return nil
}
