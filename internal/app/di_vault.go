package app

import (
	"fmt"

	auditRepository "github.com/allisson/vaultcore/internal/audit/repository/postgresql"
	auditUsecase "github.com/allisson/vaultcore/internal/audit/usecase"
	rotationRepository "github.com/allisson/vaultcore/internal/rotation/repository/postgresql"
	rotationUsecase "github.com/allisson/vaultcore/internal/rotation/usecase"
	sharingRepository "github.com/allisson/vaultcore/internal/sharing/repository/postgresql"
	sharingUsecase "github.com/allisson/vaultcore/internal/sharing/usecase"
	vaultRepository "github.com/allisson/vaultcore/internal/vault/repository/postgresql"
	vaultUsecase "github.com/allisson/vaultcore/internal/vault/usecase"
)

// VaultItemRepository returns the vault item repository instance.
func (c *Container) VaultItemRepository() (*vaultRepository.PostgreSQLVaultItemRepository, error) {
	var err error
	c.vaultItemRepoInit.Do(func() {
		db, dbErr := c.DB()
		if dbErr != nil {
			err = fmt.Errorf("failed to get database for vault item repository: %w", dbErr)
			c.initErrors["vaultItemRepo"] = err
			return
		}
		c.vaultItemRepo = vaultRepository.NewPostgreSQLVaultItemRepository(db)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["vaultItemRepo"]; exists {
		return nil, storedErr
	}
	return c.vaultItemRepo, nil
}

// ShareGrantRepository returns the share grant repository instance.
func (c *Container) ShareGrantRepository() (*sharingRepository.PostgreSQLShareGrantRepository, error) {
	var err error
	c.shareGrantRepoInit.Do(func() {
		db, dbErr := c.DB()
		if dbErr != nil {
			err = fmt.Errorf("failed to get database for share grant repository: %w", dbErr)
			c.initErrors["shareGrantRepo"] = err
			return
		}
		c.shareGrantRepo = sharingRepository.NewPostgreSQLShareGrantRepository(db)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["shareGrantRepo"]; exists {
		return nil, storedErr
	}
	return c.shareGrantRepo, nil
}

// AuditLogRepository returns the audit log repository instance.
func (c *Container) AuditLogRepository() (*auditRepository.PostgreSQLAuditLogRepository, error) {
	var err error
	c.auditLogRepoInit.Do(func() {
		db, dbErr := c.DB()
		if dbErr != nil {
			err = fmt.Errorf("failed to get database for audit log repository: %w", dbErr)
			c.initErrors["auditLogRepo"] = err
			return
		}
		c.auditLogRepo = auditRepository.NewPostgreSQLAuditLogRepository(db)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditLogRepo"]; exists {
		return nil, storedErr
	}
	return c.auditLogRepo, nil
}

// RotationRecordRepository returns the rotation record repository instance.
func (c *Container) RotationRecordRepository() (*rotationRepository.PostgreSQLRotationRecordRepository, error) {
	var err error
	c.rotationRecordInit.Do(func() {
		db, dbErr := c.DB()
		if dbErr != nil {
			err = fmt.Errorf("failed to get database for rotation record repository: %w", dbErr)
			c.initErrors["rotationRecordRepo"] = err
			return
		}
		c.rotationRecordRepo = rotationRepository.NewPostgreSQLRotationRecordRepository(db)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["rotationRecordRepo"]; exists {
		return nil, storedErr
	}
	return c.rotationRecordRepo, nil
}

// AuditUseCase returns the audit trail use case.
func (c *Container) AuditUseCase() (auditUsecase.UseCase, error) {
	var err error
	c.auditUseCaseInit.Do(func() {
		auditRepo, repoErr := c.AuditLogRepository()
		if repoErr != nil {
			err = fmt.Errorf("failed to get audit log repository for audit use case: %w", repoErr)
			c.initErrors["auditUseCase"] = err
			return
		}
		c.auditUseCase = auditUsecase.NewAuditUseCase(auditRepo, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditUseCase"]; exists {
		return nil, storedErr
	}
	return c.auditUseCase, nil
}

// SharingUseCase returns the sharing use case. The concrete type doubles as
// the access checker for the vault and rotation use cases.
func (c *Container) SharingUseCase() (*sharingUsecase.SharingUseCase, error) {
	var err error
	c.sharingUseCaseInit.Do(func() {
		c.sharingUseCase, err = c.initSharingUseCase()
		if err != nil {
			c.initErrors["sharingUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sharingUseCase"]; exists {
		return nil, storedErr
	}
	return c.sharingUseCase, nil
}

// VaultUseCase returns the vault item use case wrapped with business metrics.
func (c *Container) VaultUseCase() (vaultUsecase.UseCase, error) {
	var err error
	c.vaultUseCaseInit.Do(func() {
		c.vaultUseCase, err = c.initVaultUseCase()
		if err != nil {
			c.initErrors["vaultUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["vaultUseCase"]; exists {
		return nil, storedErr
	}
	return c.vaultUseCase, nil
}

// RotationUseCase returns the rotation use case.
func (c *Container) RotationUseCase() (rotationUsecase.UseCase, error) {
	var err error
	c.rotationUseCaseInit.Do(func() {
		c.rotationUseCase, err = c.initRotationUseCase()
		if err != nil {
			c.initErrors["rotationUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["rotationUseCase"]; exists {
		return nil, storedErr
	}
	return c.rotationUseCase, nil
}

func (c *Container) initSharingUseCase() (*sharingUsecase.SharingUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for sharing use case: %w", err)
	}

	grantRepo, err := c.ShareGrantRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get share grant repository for sharing use case: %w", err)
	}

	vaultItemRepo, err := c.VaultItemRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get vault item repository for sharing use case: %w", err)
	}

	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for sharing use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for sharing use case: %w", err)
	}

	auditUseCase, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for sharing use case: %w", err)
	}

	return sharingUsecase.NewSharingUseCase(
		txManager,
		grantRepo,
		vaultItemRepo,
		userRepo,
		outboxRepo,
		auditUseCase,
	), nil
}

func (c *Container) initVaultUseCase() (vaultUsecase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for vault use case: %w", err)
	}

	vaultItemRepo, err := c.VaultItemRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get vault item repository for vault use case: %w", err)
	}

	envelope, err := c.Envelope()
	if err != nil {
		return nil, fmt.Errorf("failed to get envelope for vault use case: %w", err)
	}

	sharingUseCase, err := c.SharingUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get sharing use case for vault use case: %w", err)
	}

	auditUseCase, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for vault use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for vault use case: %w", err)
	}

	rotationRecordRepo, err := c.RotationRecordRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get rotation record repository for vault use case: %w", err)
	}

	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for vault use case: %w", err)
	}

	useCase := vaultUsecase.NewVaultUseCase(
		txManager,
		vaultItemRepo,
		envelope,
		sharingUseCase,
		auditUseCase,
		outboxRepo,
		rotationRecordRepo,
		userRepo,
		c.AnchorService(),
		c.Logger(),
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for vault use case: %w", err)
	}

	return vaultUsecase.NewVaultUseCaseWithMetrics(useCase, businessMetrics), nil
}

func (c *Container) initRotationUseCase() (rotationUsecase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for rotation use case: %w", err)
	}

	vaultItemRepo, err := c.VaultItemRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get vault item repository for rotation use case: %w", err)
	}

	rotationRecordRepo, err := c.RotationRecordRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get rotation record repository for rotation use case: %w", err)
	}

	envelope, err := c.Envelope()
	if err != nil {
		return nil, fmt.Errorf("failed to get envelope for rotation use case: %w", err)
	}

	kekChain, err := c.KekChain()
	if err != nil {
		return nil, fmt.Errorf("failed to get kek chain for rotation use case: %w", err)
	}

	sharingUseCase, err := c.SharingUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get sharing use case for rotation use case: %w", err)
	}

	auditUseCase, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for rotation use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for rotation use case: %w", err)
	}

	rotationConfig := rotationUsecase.Config{
		SweepBatchSize:   c.config.RotationSweepBatchSize,
		SweepConcurrency: c.config.RotationSweepConcurrency,
	}

	return rotationUsecase.NewRotationUseCase(
		rotationConfig,
		txManager,
		vaultItemRepo,
		rotationRecordRepo,
		envelope,
		c.KeyManager(),
		kekChain,
		sharingUseCase,
		auditUseCase,
		outboxRepo,
		c.AnchorService(),
		c.Logger(),
	), nil
}
