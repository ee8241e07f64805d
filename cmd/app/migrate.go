package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-list/internal/repo"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			store, err := repo.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open %s store: %w", cfg.Database.Driver, err)
			}
			defer store.Close()

			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}
			logger.Info("Schema applied", zap.String("driver", cfg.Database.Driver))
			return nil
		},
	}
}
