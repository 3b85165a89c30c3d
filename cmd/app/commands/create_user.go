package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/allisson/vaultcore/internal/app"
	"github.com/allisson/vaultcore/internal/config"
	identityUsecase "github.com/allisson/vaultcore/internal/identity/usecase"
)

// RunCreateUser creates a user and prints their plain API key. The key is
// shown exactly once; only its Argon2id hash is persisted.
func RunCreateUser(ctx context.Context, email, orgIDStr string) error {
	var orgID *uuid.UUID
	if orgIDStr != "" {
		parsed, err := uuid.Parse(orgIDStr)
		if err != nil {
			return fmt.Errorf("invalid org-id: %w", err)
		}
		orgID = &parsed
	}

	cfg := config.Load()

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("creating user", slog.String("email", email))

	defer closeContainer(container, logger)

	userUseCase, err := container.UserUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize user use case: %w", err)
	}

	user, apiKey, err := userUseCase.CreateUser(ctx, identityUsecase.CreateUserInput{
		Email: email,
		OrgID: orgID,
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Println("# User created successfully")
	fmt.Println("# The API key is shown only once, store it securely")
	fmt.Println()
	fmt.Printf("User ID: %s\n", user.ID)
	fmt.Printf("Email:   %s\n", user.Email)
	if user.OrgID != nil {
		fmt.Printf("Org ID:  %s\n", user.OrgID)
	}
	fmt.Printf("API Key: %s\n", apiKey)

	return nil
}
