package app

import (
	"fmt"

	identityRepository "github.com/allisson/vaultcore/internal/identity/repository/postgresql"
	identityService "github.com/allisson/vaultcore/internal/identity/service"
	identityUsecase "github.com/allisson/vaultcore/internal/identity/usecase"
)

// UserRepository returns the user repository instance.
func (c *Container) UserRepository() (*identityRepository.PostgreSQLUserRepository, error) {
	var err error
	c.userRepoInit.Do(func() {
		db, dbErr := c.DB()
		if dbErr != nil {
			err = fmt.Errorf("failed to get database for user repository: %w", dbErr)
			c.initErrors["userRepo"] = err
			return
		}
		c.userRepo = identityRepository.NewPostgreSQLUserRepository(db)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userRepo"]; exists {
		return nil, storedErr
	}
	return c.userRepo, nil
}

// APIKeyService returns the API key generation and verification service.
func (c *Container) APIKeyService() (identityService.APIKeyService, error) {
	var err error
	c.apiKeyServiceInit.Do(func() {
		c.apiKeyService, err = identityService.NewAPIKeyService()
		if err != nil {
			c.initErrors["apiKeyService"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["apiKeyService"]; exists {
		return nil, storedErr
	}
	return c.apiKeyService, nil
}

// UserUseCase returns the user use case instance.
func (c *Container) UserUseCase() (identityUsecase.UseCase, error) {
	var err error
	c.userUseCaseInit.Do(func() {
		c.userUseCase, err = c.initUserUseCase()
		if err != nil {
			c.initErrors["userUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userUseCase"]; exists {
		return nil, storedErr
	}
	return c.userUseCase, nil
}

func (c *Container) initUserUseCase() (identityUsecase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for user use case: %w", err)
	}

	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for user use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for user use case: %w", err)
	}

	apiKeyService, err := c.APIKeyService()
	if err != nil {
		return nil, fmt.Errorf("failed to get api key service for user use case: %w", err)
	}

	return identityUsecase.NewUserUseCase(txManager, userRepo, outboxRepo, apiKeyService), nil
}
