package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/allisson/vaultcore/internal/app"
	"github.com/allisson/vaultcore/internal/config"
)

// RunCreateKek creates the initial Key Encryption Key using the specified
// algorithm. Run once during system bootstrap, after migrations. The KEK is
// wrapped with the active master key before it is persisted.
//
// Requirements: database must be migrated, MASTER_KEYS and
// ACTIVE_MASTER_KEY_ID must be set.
func RunCreateKek(ctx context.Context, algorithmStr string) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("creating new KEK", slog.String("algorithm", algorithmStr))

	defer closeContainer(container, logger)

	algorithm, err := parseAlgorithm(algorithmStr)
	if err != nil {
		return err
	}

	masterKeyChain, err := container.MasterKeyChain()
	if err != nil {
		return fmt.Errorf("failed to load master key chain: %w", err)
	}

	logger.Info("master key chain loaded",
		slog.String("active_master_key_id", masterKeyChain.ActiveMasterKeyID()),
	)

	kekUseCase, err := container.KekUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize KEK use case: %w", err)
	}

	if err := kekUseCase.Create(ctx, masterKeyChain, algorithm); err != nil {
		return fmt.Errorf("failed to create KEK: %w", err)
	}

	logger.Info("KEK created successfully",
		slog.String("algorithm", string(algorithm)),
		slog.String("master_key_id", masterKeyChain.ActiveMasterKeyID()),
	)

	return nil
}
