package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/allisson/vaultcore/internal/app"
	"github.com/allisson/vaultcore/internal/config"
)

// RunRotateDue sweeps vault items whose auto-rotation interval elapsed and
// rotates each one on behalf of its owner. Intended to run from a scheduler
// (cron or similar). Individual item failures are logged and do not stop the
// sweep.
func RunRotateDue(ctx context.Context) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting auto-rotation sweep",
		slog.Int("batch_size", cfg.RotationSweepBatchSize),
		slog.Int("concurrency", cfg.RotationSweepConcurrency),
	)

	defer closeContainer(container, logger)

	rotationUseCase, err := container.RotationUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize rotation use case: %w", err)
	}

	rotated, err := rotationUseCase.RotateDue(ctx)
	if err != nil {
		return fmt.Errorf("auto-rotation sweep failed: %w", err)
	}

	logger.Info("auto-rotation sweep completed", slog.Int("rotated", rotated))
	return nil
}
