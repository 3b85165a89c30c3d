package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/allisson/vaultcore/internal/app"
	"github.com/allisson/vaultcore/internal/config"
)

// RunRotateKek rotates the Key Encryption Key: the active KEK is retired and
// a new one with an incremented version is created, wrapped with the active
// master key. Existing item DEKs stay decryptable through the retained
// historical KEKs. With rewrap set, all item DEKs are rewrapped under the new
// KEK immediately after the rotation.
//
// Requirements: an active KEK must already exist, MASTER_KEYS and
// ACTIVE_MASTER_KEY_ID must be set.
func RunRotateKek(ctx context.Context, algorithmStr string, rewrap bool) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("rotating KEK", slog.String("algorithm", algorithmStr))

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

	newKekID, err := kekUseCase.Rotate(ctx, masterKeyChain, algorithm)
	if err != nil {
		return fmt.Errorf("failed to rotate KEK: %w", err)
	}

	logger.Info("KEK rotated successfully",
		slog.String("new_kek_id", newKekID.String()),
		slog.String("algorithm", string(algorithm)),
		slog.String("master_key_id", masterKeyChain.ActiveMasterKeyID()),
	)

	if !rewrap {
		logger.Info("skipping DEK rewrap, run rewrap-deks to finish the rotation")
		return nil
	}

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
