package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strings"

	cryptoDomain "github.com/allisson/vaultcore/internal/crypto/domain"
)

// LoadMasterKeyChain loads the master key chain from the MASTER_KEYS and
// ACTIVE_MASTER_KEY_ID environment variables.
//
// With an empty kmsKeyURI each entry value is the base64 of the raw 32-byte
// key (development mode). With a kmsKeyURI each entry value is the base64 of
// a KMS-encrypted master key produced by the create-master-key command; the
// keeper is opened once and every entry is decrypted through it.
func LoadMasterKeyChain(
	ctx context.Context,
	kms KMSService,
	kmsKeyURI string,
	logger *slog.Logger,
) (*cryptoDomain.MasterKeyChain, error) {
	if kmsKeyURI == "" {
		return cryptoDomain.LoadMasterKeyChainFromEnv()
	}

	raw := os.Getenv("MASTER_KEYS")
	if raw == "" {
		return nil, cryptoDomain.ErrMasterKeysNotSet
	}
	active := os.Getenv("ACTIVE_MASTER_KEY_ID")
	if active == "" {
		return nil, cryptoDomain.ErrActiveMasterKeyIDNotSet
	}

	keeper, err := kms.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer func() {
		if closeErr := keeper.Close(); closeErr != nil && logger != nil {
			logger.Warn("failed to close KMS keeper", slog.Any("error", closeErr))
		}
	}()

	var keys []*cryptoDomain.MasterKey
	for part := range strings.SplitSeq(raw, ",") {
		p := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(p) != 2 {
			cryptoDomain.ZeroMasterKeys(keys)
			return nil, fmt.Errorf("%w: %q", cryptoDomain.ErrInvalidMasterKeysFormat, part)
		}
		id := p[0]

		ciphertext, err := base64.StdEncoding.DecodeString(p[1])
		if err != nil {
			cryptoDomain.ZeroMasterKeys(keys)
			return nil, fmt.Errorf("%w for %s: %v", cryptoDomain.ErrInvalidMasterKeyBase64, id, err)
		}

		key, err := keeper.Decrypt(ctx, ciphertext)
		if err != nil {
			cryptoDomain.ZeroMasterKeys(keys)
			return nil, fmt.Errorf("failed to decrypt master key %s with KMS: %w", id, err)
		}

		keys = append(keys, &cryptoDomain.MasterKey{ID: id, Key: key})
	}

	if logger != nil {
		logger.Info("master key chain loaded from KMS",
			slog.Int("keys", len(keys)),
			slog.String("active_master_key_id", active),
		)
	}

	return cryptoDomain.NewMasterKeyChain(active, keys)
}
