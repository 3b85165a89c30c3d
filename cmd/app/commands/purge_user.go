package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/allisson/vaultcore/internal/app"
	"github.com/allisson/vaultcore/internal/config"
	vaultUsecase "github.com/allisson/vaultcore/internal/vault/usecase"
)

// RunPurgeUser hard-deletes a user and every record tied to them: vault
// items, share grants, rotation history, audit entries, and the user row.
// This is the GDPR erasure path; the deletion is irreversible.
func RunPurgeUser(ctx context.Context, userIDStr string) error {
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return fmt.Errorf("invalid user-id: %w", err)
	}

	cfg := config.Load()

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("purging user", slog.String("user_id", userID.String()))

	defer closeContainer(container, logger)

	vaultUseCase, err := container.VaultUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize vault use case: %w", err)
	}

	// The purged user is recorded as the acting party: operator-run purges
	// act on behalf of the data subject.
	actor := vaultUsecase.Actor{ID: userID}

	if err := vaultUseCase.PurgeUser(ctx, actor, userID); err != nil {
		return fmt.Errorf("failed to purge user: %w", err)
	}

	logger.Info("user purged successfully", slog.String("user_id", userID.String()))
	return nil
}
