package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/vaultcore/internal/errors"
	"github.com/allisson/vaultcore/internal/identity/domain"
	outboxDomain "github.com/allisson/vaultcore/internal/outbox/domain"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockOutboxEventRepository is a mock implementation of OutboxEventRepository
type MockOutboxEventRepository struct {
	mock.Mock
}

func (m *MockOutboxEventRepository) Create(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockTxManager is a mock implementation of database.TxManager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

// MockAPIKeyService is a mock implementation of service.APIKeyService
type MockAPIKeyService struct {
	mock.Mock
}

func (m *MockAPIKeyService) GenerateKey() (string, string, error) {
	args := m.Called()
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockAPIKeyService) VerifyKey(plainKey string, keyHash string) bool {
	args := m.Called(plainKey, keyHash)
	return args.Bool(0)
}

func TestUserUseCase_CreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		txManager := new(MockTxManager)
		userRepo := new(MockUserRepository)
		outboxRepo := new(MockOutboxEventRepository)
		apiKeys := new(MockAPIKeyService)
		uc := NewUserUseCase(txManager, userRepo, outboxRepo, apiKeys)

		apiKeys.On("GenerateKey").Return("plain-key", "hashed-key", nil)
		txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)
		outboxRepo.On("Create", ctx, mock.MatchedBy(func(event *outboxDomain.OutboxEvent) bool {
			return event.EventType == outboxDomain.EventTypeUserCreated &&
				event.Status == outboxDomain.OutboxEventStatusPending
		})).Return(nil)

		user, apiKey, err := uc.CreateUser(ctx, CreateUserInput{Email: "Alice@Example.com"})
		require.NoError(t, err)
		assert.Equal(t, "plain-key", apiKey)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, "hashed-key", user.APIKeyHash)
		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.Nil(t, user.OrgID)

		userRepo.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
		apiKeys.AssertExpectations(t)
	})

	t.Run("Success_WithOrgID", func(t *testing.T) {
		txManager := new(MockTxManager)
		userRepo := new(MockUserRepository)
		outboxRepo := new(MockOutboxEventRepository)
		apiKeys := new(MockAPIKeyService)
		uc := NewUserUseCase(txManager, userRepo, outboxRepo, apiKeys)

		orgID := uuid.Must(uuid.NewV7())

		apiKeys.On("GenerateKey").Return("plain-key", "hashed-key", nil)
		txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)
		outboxRepo.On("Create", ctx, mock.AnythingOfType("*domain.OutboxEvent")).Return(nil)

		user, _, err := uc.CreateUser(ctx, CreateUserInput{Email: "bob@example.com", OrgID: &orgID})
		require.NoError(t, err)
		require.NotNil(t, user.OrgID)
		assert.Equal(t, orgID, *user.OrgID)
	})

	t.Run("Failure_InvalidEmail", func(t *testing.T) {
		txManager := new(MockTxManager)
		userRepo := new(MockUserRepository)
		outboxRepo := new(MockOutboxEventRepository)
		apiKeys := new(MockAPIKeyService)
		uc := NewUserUseCase(txManager, userRepo, outboxRepo, apiKeys)

		_, _, err := uc.CreateUser(ctx, CreateUserInput{Email: "not-an-email"})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
		apiKeys.AssertNotCalled(t, "GenerateKey")
	})

	t.Run("Failure_MissingEmail", func(t *testing.T) {
		txManager := new(MockTxManager)
		userRepo := new(MockUserRepository)
		outboxRepo := new(MockOutboxEventRepository)
		apiKeys := new(MockAPIKeyService)
		uc := NewUserUseCase(txManager, userRepo, outboxRepo, apiKeys)

		_, _, err := uc.CreateUser(ctx, CreateUserInput{})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})

	t.Run("Failure_DuplicateEmail", func(t *testing.T) {
		txManager := new(MockTxManager)
		userRepo := new(MockUserRepository)
		outboxRepo := new(MockOutboxEventRepository)
		apiKeys := new(MockAPIKeyService)
		uc := NewUserUseCase(txManager, userRepo, outboxRepo, apiKeys)

		apiKeys.On("GenerateKey").Return("plain-key", "hashed-key", nil)
		txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(domain.ErrUserAlreadyExists)

		_, _, err := uc.CreateUser(ctx, CreateUserInput{Email: "alice@example.com"})
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
		outboxRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Failure_KeyGenerationError", func(t *testing.T) {
		txManager := new(MockTxManager)
		userRepo := new(MockUserRepository)
		outboxRepo := new(MockOutboxEventRepository)
		apiKeys := new(MockAPIKeyService)
		uc := NewUserUseCase(txManager, userRepo, outboxRepo, apiKeys)

		apiKeys.On("GenerateKey").Return("", "", errors.New("entropy exhausted"))

		_, _, err := uc.CreateUser(ctx, CreateUserInput{Email: "alice@example.com"})
		require.Error(t, err)
		userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestUserUseCase_Authenticate(t *testing.T) {
	ctx := context.Background()

	user := &domain.User{
		ID:         uuid.Must(uuid.NewV7()),
		Email:      "alice@example.com",
		APIKeyHash: "hashed-key",
	}

	t.Run("Success", func(t *testing.T) {
		txManager := new(MockTxManager)
		userRepo := new(MockUserRepository)
		outboxRepo := new(MockOutboxEventRepository)
		apiKeys := new(MockAPIKeyService)
		uc := NewUserUseCase(txManager, userRepo, outboxRepo, apiKeys)

		userRepo.On("GetByEmail", ctx, "alice@example.com").Return(user, nil)
		apiKeys.On("VerifyKey", "plain-key", "hashed-key").Return(true)

		got, err := uc.Authenticate(ctx, "Alice@Example.com", "plain-key")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("Failure_UnknownEmail", func(t *testing.T) {
		txManager := new(MockTxManager)
		userRepo := new(MockUserRepository)
		outboxRepo := new(MockOutboxEventRepository)
		apiKeys := new(MockAPIKeyService)
		uc := NewUserUseCase(txManager, userRepo, outboxRepo, apiKeys)

		userRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, domain.ErrUserNotFound)

		_, err := uc.Authenticate(ctx, "ghost@example.com", "plain-key")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
		apiKeys.AssertNotCalled(t, "VerifyKey", mock.Anything, mock.Anything)
	})

	t.Run("Failure_WrongKey", func(t *testing.T) {
		txManager := new(MockTxManager)
		userRepo := new(MockUserRepository)
		outboxRepo := new(MockOutboxEventRepository)
		apiKeys := new(MockAPIKeyService)
		uc := NewUserUseCase(txManager, userRepo, outboxRepo, apiKeys)

		userRepo.On("GetByEmail", ctx, "alice@example.com").Return(user, nil)
		apiKeys.On("VerifyKey", "wrong-key", "hashed-key").Return(false)

		_, err := uc.Authenticate(ctx, "alice@example.com", "wrong-key")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)
	})

	t.Run("Failure_RepositoryError", func(t *testing.T) {
		txManager := new(MockTxManager)
		userRepo := new(MockUserRepository)
		outboxRepo := new(MockOutboxEventRepository)
		apiKeys := new(MockAPIKeyService)
		uc := NewUserUseCase(txManager, userRepo, outboxRepo, apiKeys)

		dbErr := errors.New("connection refused")
		userRepo.On("GetByEmail", ctx, "alice@example.com").Return(nil, dbErr)

		_, err := uc.Authenticate(ctx, "alice@example.com", "plain-key")
		require.Error(t, err)
		assert.False(t, apperrors.Is(err, apperrors.ErrUnauthorized))
	})
}

func TestUserUseCase_GetUser(t *testing.T) {
	ctx := context.Background()

	user := &domain.User{
		ID:    uuid.Must(uuid.NewV7()),
		Email: "alice@example.com",
	}

	t.Run("GetByID_Success", func(t *testing.T) {
		txManager := new(MockTxManager)
		userRepo := new(MockUserRepository)
		outboxRepo := new(MockOutboxEventRepository)
		apiKeys := new(MockAPIKeyService)
		uc := NewUserUseCase(txManager, userRepo, outboxRepo, apiKeys)

		userRepo.On("GetByID", ctx, user.ID).Return(user, nil)

		got, err := uc.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user, got)
	})

	t.Run("GetByEmail_NotFound", func(t *testing.T) {
		txManager := new(MockTxManager)
		userRepo := new(MockUserRepository)
		outboxRepo := new(MockOutboxEventRepository)
		apiKeys := new(MockAPIKeyService)
		uc := NewUserUseCase(txManager, userRepo, outboxRepo, apiKeys)

		userRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, domain.ErrUserNotFound)

		_, err := uc.GetUserByEmail(ctx, "ghost@example.com")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})
}
