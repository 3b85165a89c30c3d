package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/vaultcore/internal/crypto/domain"
	cryptoService "github.com/allisson/vaultcore/internal/crypto/service"
	"github.com/allisson/vaultcore/internal/database"
)

type kekUseCase struct {
	txManager  database.TxManager
	kekRepo    KekRepository
	keyManager cryptoService.KeyManager
}

// NewKekUseCase creates a new KekUseCase instance.
func NewKekUseCase(
	txManager database.TxManager,
	kekRepo KekRepository,
	keyManager cryptoService.KeyManager,
) KekUseCase {
	return &kekUseCase{
		txManager:  txManager,
		kekRepo:    kekRepo,
		keyManager: keyManager,
	}
}

func (k *kekUseCase) getMasterKey(
	masterKeyChain *cryptoDomain.MasterKeyChain, id string,
) (*cryptoDomain.MasterKey, error) {
	masterKey, ok := masterKeyChain.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", cryptoDomain.ErrMasterKeyNotFound, id)
	}
	return masterKey, nil
}

// Create generates and persists the initial KEK using the active master key.
func (k *kekUseCase) Create(
	ctx context.Context,
	masterKeyChain *cryptoDomain.MasterKeyChain,
	alg cryptoDomain.Algorithm,
) error {
	masterKey, err := k.getMasterKey(masterKeyChain, masterKeyChain.ActiveMasterKeyID())
	if err != nil {
		return err
	}

	kek, err := k.keyManager.CreateKek(masterKey, alg)
	if err != nil {
		return err
	}
	defer cryptoDomain.Zero(kek.Key)

	return k.kekRepo.Create(ctx, &kek)
}

// Rotate retires the active KEK and persists its successor atomically. The
// new KEK's version is the old version plus one; the old KEK is kept for
// unwrapping DEKs created under it.
func (k *kekUseCase) Rotate(
	ctx context.Context,
	masterKeyChain *cryptoDomain.MasterKeyChain,
	alg cryptoDomain.Algorithm,
) (uuid.UUID, error) {
	masterKey, err := k.getMasterKey(masterKeyChain, masterKeyChain.ActiveMasterKeyID())
	if err != nil {
		return uuid.Nil, err
	}

	keks, err := k.kekRepo.List(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if len(keks) == 0 {
		return uuid.Nil, cryptoDomain.ErrKekNotFound
	}
	current := keks[0]

	newKek, err := k.keyManager.CreateKek(masterKey, alg)
	if err != nil {
		return uuid.Nil, err
	}
	defer cryptoDomain.Zero(newKek.Key)
	newKek.Version = current.Version + 1

	err = k.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := k.kekRepo.Retire(txCtx, current.ID); err != nil {
			return err
		}
		return k.kekRepo.Create(txCtx, &newKek)
	})
	if err != nil {
		return uuid.Nil, err
	}

	return newKek.ID, nil
}

// LoadChain unwraps every persisted KEK with its recorded master key and
// builds the in-memory chain. The repository returns KEKs newest first, so
// the first entry becomes the active KEK.
func (k *kekUseCase) LoadChain(
	ctx context.Context,
	masterKeyChain *cryptoDomain.MasterKeyChain,
) (*cryptoDomain.KekChain, error) {
	keks, err := k.kekRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(keks) == 0 {
		return nil, cryptoDomain.ErrKekNotFound
	}

	for _, kek := range keks {
		masterKey, err := k.getMasterKey(masterKeyChain, kek.MasterKeyID)
		if err != nil {
			return nil, err
		}

		key, err := k.keyManager.DecryptKek(kek, masterKey)
		if err != nil {
			return nil, err
		}
		kek.Key = key
	}

	return cryptoDomain.NewKekChain(keks), nil
}
