package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-list/internal/handler"
	"github.com/BuzzLyutic/task-list/internal/repo"
	"github.com/BuzzLyutic/task-list/internal/server"
	"github.com/BuzzLyutic/task-list/internal/service"
	"github.com/BuzzLyutic/task-list/internal/view"
	"github.com/BuzzLyutic/task-list/internal/worker"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long: `Start the task list web server.

Examples:
  tasklist serve
  tasklist serve --config configs/config.example.yml
  PORT=3000 DATABASE_DRIVER=sqlite tasklist serve --migrate`,
		RunE: runServe,
	}

	cmd.Flags().Bool("migrate", false, "apply the schema before serving")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := repo.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Database.Driver, err)
	}
	defer store.Close()

	logger.Info("Successfully connected to the database", zap.String("driver", cfg.Database.Driver))

	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
		logger.Info("Schema applied")
	}

	views, err := view.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	taskService := service.NewTaskService(store)
	taskHandler := handler.NewTaskHandler(taskService, views, logger)

	janitor := worker.NewJanitor(store, logger, cfg.Janitor.Interval, cfg.Janitor.IdempotencyTTL)
	janitor.Start(context.Background())
	defer janitor.Stop()

	return server.Run(ctx, cfg, server.NewRouter(taskHandler, store, logger), logger)
}
