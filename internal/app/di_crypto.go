package app

import (
	"context"
	"fmt"

	"github.com/allisson/vaultcore/internal/blockchain"
	cryptoDomain "github.com/allisson/vaultcore/internal/crypto/domain"
	cryptoRepository "github.com/allisson/vaultcore/internal/crypto/repository/postgresql"
	cryptoService "github.com/allisson/vaultcore/internal/crypto/service"
	cryptoUsecase "github.com/allisson/vaultcore/internal/crypto/usecase"
)

// KMSService returns the KMS service used to unwrap master keys at rest.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// MasterKeyChain returns the master key chain loaded from the environment,
// decrypting each entry through the configured KMS keeper when one is set.
func (c *Container) MasterKeyChain() (*cryptoDomain.MasterKeyChain, error) {
	var err error
	c.masterKeyChainInit.Do(func() {
		c.masterKeyChain, err = cryptoService.LoadMasterKeyChain(
			context.Background(),
			c.KMSService(),
			c.config.KMSKeyURI,
			c.Logger(),
		)
		if err != nil {
			c.initErrors["masterKeyChain"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["masterKeyChain"]; exists {
		return nil, storedErr
	}
	return c.masterKeyChain, nil
}

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// KeyManager returns the key manager service.
func (c *Container) KeyManager() cryptoService.KeyManager {
	c.keyManagerInit.Do(func() {
		c.keyManager = cryptoService.NewKeyManager(c.AEADManager())
	})
	return c.keyManager
}

// KekRepository returns the KEK repository.
func (c *Container) KekRepository() (cryptoUsecase.KekRepository, error) {
	var err error
	c.kekRepositoryInit.Do(func() {
		db, dbErr := c.DB()
		if dbErr != nil {
			err = fmt.Errorf("failed to get database for kek repository: %w", dbErr)
			c.initErrors["kekRepository"] = err
			return
		}
		c.kekRepository = cryptoRepository.NewPostgreSQLKekRepository(db)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["kekRepository"]; exists {
		return nil, storedErr
	}
	return c.kekRepository, nil
}

// KekUseCase returns the KEK lifecycle use case.
func (c *Container) KekUseCase() (cryptoUsecase.KekUseCase, error) {
	var err error
	c.kekUseCaseInit.Do(func() {
		c.kekUseCase, err = c.initKekUseCase()
		if err != nil {
			c.initErrors["kekUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["kekUseCase"]; exists {
		return nil, storedErr
	}
	return c.kekUseCase, nil
}

// KekChain returns the in-memory KEK chain unwrapped from the database. The
// process must not serve vault operations when this fails.
func (c *Container) KekChain() (*cryptoDomain.KekChain, error) {
	var err error
	c.kekChainInit.Do(func() {
		c.kekChain, err = c.initKekChain()
		if err != nil {
			c.initErrors["kekChain"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["kekChain"]; exists {
		return nil, storedErr
	}
	return c.kekChain, nil
}

// Envelope returns the envelope encryption service.
func (c *Container) Envelope() (cryptoService.Envelope, error) {
	var err error
	c.envelopeInit.Do(func() {
		c.envelope, err = c.initEnvelope()
		if err != nil {
			c.initErrors["envelope"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["envelope"]; exists {
		return nil, storedErr
	}
	return c.envelope, nil
}

// AnchorService returns the blockchain anchoring service. When anchoring is
// disabled the service wraps a no-op anchorer, so content hashes are still
// computed and stored.
func (c *Container) AnchorService() *blockchain.Service {
	c.anchorServiceInit.Do(func() {
		c.anchorService = blockchain.NewService(nil, c.config.AnchorTimeout, c.Logger())
	})
	return c.anchorService
}

func (c *Container) initKekUseCase() (cryptoUsecase.KekUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for kek use case: %w", err)
	}

	kekRepository, err := c.KekRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get kek repository for kek use case: %w", err)
	}

	return cryptoUsecase.NewKekUseCase(txManager, kekRepository, c.KeyManager()), nil
}

func (c *Container) initKekChain() (*cryptoDomain.KekChain, error) {
	kekUseCase, err := c.KekUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get kek use case: %w", err)
	}

	masterKeyChain, err := c.MasterKeyChain()
	if err != nil {
		return nil, fmt.Errorf("failed to get master key chain: %w", err)
	}

	kekChain, err := kekUseCase.LoadChain(context.Background(), masterKeyChain)
	if err != nil {
		return nil, fmt.Errorf("failed to load kek chain: %w", err)
	}

	return kekChain, nil
}

func (c *Container) initEnvelope() (cryptoService.Envelope, error) {
	algorithm := cryptoDomain.Algorithm(c.config.EncryptionAlgorithm)
	if !algorithm.Valid() {
		return nil, fmt.Errorf("unsupported encryption algorithm: %s", c.config.EncryptionAlgorithm)
	}

	kekChain, err := c.KekChain()
	if err != nil {
		return nil, fmt.Errorf("failed to get kek chain for envelope: %w", err)
	}

	return cryptoService.NewEnvelope(kekChain, c.AEADManager(), c.KeyManager(), algorithm), nil
}
