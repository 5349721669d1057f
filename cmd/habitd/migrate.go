package main

import (
	"database/sql"
	"fmt"
	"path"
	"strings"

	"github.com/sandeepkv93/habitd/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema.

Every other command migrates up on its own; use this to prepare a database
ahead of time or to drop the schema.`,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Create or update the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runMigration(cmd, "up", storage.MigrateUp)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Drop the schema and all data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runMigration(cmd, "down", storage.MigrateDown)
		},
	})
	return cmd
}

func (a *app) runMigration(cmd *cobra.Command, direction string, fn func(*sql.DB) error) error {
	repo, err := a.openRepository()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			a.logger.Error("failed to close storage", zap.Error(closeErr))
		}
	}()

	a.logger.Info("Starting database migration",
		zap.String("database", a.cfg.Database.Path),
		zap.String("direction", direction))
	if err := fn(repo.DB()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	names, err := storage.Migrations()
	if err != nil {
		return err
	}
	if direction == "down" {
		for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
			names[i], names[j] = names[j], names[i]
		}
	}
	out := cmd.OutOrStdout()
	for _, name := range names {
		fmt.Fprintf(out, "%s %s\n", direction, strings.TrimSuffix(path.Base(name), ".up.sql"))
	}
	return nil
}
