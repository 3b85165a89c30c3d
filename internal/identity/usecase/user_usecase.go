// Package usecase implements the identity business logic and orchestrates user operations.
package usecase

import (
	"context"
	"encoding/json"
	"strings"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/allisson/vaultcore/internal/database"
	apperrors "github.com/allisson/vaultcore/internal/errors"
	"github.com/allisson/vaultcore/internal/identity/domain"
	"github.com/allisson/vaultcore/internal/identity/service"
	outboxDomain "github.com/allisson/vaultcore/internal/outbox/domain"
	appValidation "github.com/allisson/vaultcore/internal/validation"
)

// CreateUserInput contains the input data for user creation
type CreateUserInput struct {
	Email string `json:"email"`
	OrgID *uuid.UUID
}

// UseCase defines the interface for identity business logic operations
type UseCase interface {
	CreateUser(ctx context.Context, input CreateUserInput) (user *domain.User, apiKey string, err error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	Authenticate(ctx context.Context, email string, apiKey string) (*domain.User, error)
}

// UserRepository interface defines user repository operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// OutboxEventRepository interface defines outbox event repository operations
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// UserUseCase handles identity-related business logic
type UserUseCase struct {
	txManager  database.TxManager
	userRepo   UserRepository
	outboxRepo OutboxEventRepository
	apiKeys    service.APIKeyService
}

// NewUserUseCase creates a new UserUseCase
func NewUserUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	outboxRepo OutboxEventRepository,
	apiKeys service.APIKeyService,
) *UserUseCase {
	return &UserUseCase{
		txManager:  txManager,
		userRepo:   userRepo,
		outboxRepo: outboxRepo,
		apiKeys:    apiKeys,
	}
}

// validateCreateUserInput validates the creation input using jellydator/validation
func (uc *UserUseCase) validateCreateUserInput(input CreateUserInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
			validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// CreateUser creates a new user with a freshly generated API key and emits a
// user.created event. The plain API key is returned exactly once; only its
// hash is stored.
func (uc *UserUseCase) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, string, error) {
	if err := uc.validateCreateUserInput(input); err != nil {
		return nil, "", err
	}

	plainKey, keyHash, err := uc.apiKeys.GenerateKey()
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		ID:         uuid.Must(uuid.NewV7()),
		Email:      strings.TrimSpace(strings.ToLower(input.Email)),
		OrgID:      input.OrgID,
		APIKeyHash: keyHash,
	}

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		// Create user - repository will return domain errors
		if err := uc.userRepo.Create(ctx, user); err != nil {
			return err
		}

		eventPayload := map[string]interface{}{
			"user_id": user.ID,
			"email":   user.Email,
		}
		if user.OrgID != nil {
			eventPayload["org_id"] = *user.OrgID
		}
		payloadJSON, err := json.Marshal(eventPayload)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal event payload")
		}

		outboxEvent := &outboxDomain.OutboxEvent{
			ID:        uuid.Must(uuid.NewV7()),
			EventType: outboxDomain.EventTypeUserCreated,
			Payload:   string(payloadJSON),
			Status:    outboxDomain.OutboxEventStatusPending,
			Retries:   0,
		}

		if err := uc.outboxRepo.Create(ctx, outboxEvent); err != nil {
			return apperrors.Wrap(err, "failed to create outbox event")
		}

		return nil
	})

	if err != nil {
		return nil, "", err
	}

	return user, plainKey, nil
}

// GetUserByID retrieves a user by ID
func (uc *UserUseCase) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}

// GetUserByEmail retrieves a user by email
func (uc *UserUseCase) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return uc.userRepo.GetByEmail(ctx, email)
}

// Authenticate verifies an API key against the stored hash for the user
// identified by email. An unknown email and a wrong key both return
// ErrInvalidAPIKey so callers cannot probe for registered addresses.
func (uc *UserUseCase) Authenticate(ctx context.Context, email string, apiKey string) (*domain.User, error) {
	user, err := uc.userRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, domain.ErrInvalidAPIKey
		}
		return nil, err
	}

	if !uc.apiKeys.VerifyKey(apiKey, user.APIKeyHash) {
		return nil, domain.ErrInvalidAPIKey
	}

	return user, nil
}
