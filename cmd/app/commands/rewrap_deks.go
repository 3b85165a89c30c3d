package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/allisson/vaultcore/internal/app"
	"github.com/allisson/vaultcore/internal/config"
)

// RunRewrapDeks rewraps every item DEK that is not wrapped under the active
// KEK. Run after rotate-kek when the rotation was performed without the
// inline rewrap, or to resume a rewrap that was interrupted.
func RunRewrapDeks(ctx context.Context) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting DEK rewrap")

	defer closeContainer(container, logger)

	rotationUseCase, err := container.RotationUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize rotation use case: %w", err)
	}

	rewrapped, err := rotationUseCase.RewrapDeks(ctx)
	if err != nil {
		return fmt.Errorf("failed to rewrap DEKs: %w", err)
	}

	logger.Info("DEK rewrap completed", slog.Int("rewrapped", rewrapped))
	return nil
}
