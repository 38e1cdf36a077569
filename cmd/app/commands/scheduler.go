package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/incomeclarity/vault/internal/app"
	"github.com/incomeclarity/vault/internal/config"
)

// RunScheduler starts the periodic backup scheduler with graceful shutdown
// support. Blocks until SIGINT/SIGTERM or a fatal initialization error.
func RunScheduler(ctx context.Context, version string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting scheduler", slog.String("version", version))

	defer closeContainer(container, logger)

	sched, err := container.Scheduler(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("scheduler stopped")
	return nil
}
