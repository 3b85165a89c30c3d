package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	cryptoDomain "github.com/allisson/vaultcore/internal/crypto/domain"
	cryptoService "github.com/allisson/vaultcore/internal/crypto/service"
)

// RunCreateMasterKey generates a cryptographically secure 32-byte master key
// for envelope encryption, encrypts it with the configured KMS keeper, and
// prints the environment variables to configure. Key material is zeroed from
// memory after encoding.
//
// If keyID is empty, a default ID in format "master-key-YYYY-MM-DD" is used.
// For local development use kmsProvider="localsecrets" with
// kmsKeyURI="base64key://<32-byte-base64-key>". Production deployments should
// use a cloud KMS provider (gcpkms, awskms, azurekeyvault, hashivault).
func RunCreateMasterKey(keyID, kmsProvider, kmsKeyURI string) error {
	ctx := context.Background()

	if kmsProvider == "" || kmsKeyURI == "" {
		return fmt.Errorf(
			"--kms-provider and --kms-key-uri are required\n\n" +
				"For local development, use:\n" +
				"  --kms-provider=localsecrets --kms-key-uri=\"base64key://<32-byte-base64-key>\"\n\n" +
				"For production, use cloud KMS providers:\n" +
				"  --kms-provider=gcpkms --kms-key-uri=\"gcpkms://projects/.../cryptoKeys/...\"\n" +
				"  --kms-provider=awskms --kms-key-uri=\"awskms:///alias/...\"\n" +
				"  --kms-provider=azurekeyvault --kms-key-uri=\"azurekeyvault://...\"",
		)
	}

	if keyID == "" {
		keyID = fmt.Sprintf("master-key-%s", time.Now().Format("2006-01-02"))
	}

	masterKey := make([]byte, 32)
	if _, err := rand.Read(masterKey); err != nil {
		return fmt.Errorf("failed to generate master key: %w", err)
	}
	defer cryptoDomain.Zero(masterKey)

	kmsService := cryptoService.NewKMSService()
	keeper, err := kmsService.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer func() {
		if closeErr := keeper.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close KMS keeper: %v\n", closeErr)
		}
	}()

	ciphertext, err := keeper.Encrypt(ctx, masterKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt master key with KMS: %w", err)
	}

	encodedKey := base64.StdEncoding.EncodeToString(ciphertext)

	fmt.Println("# Master Key Configuration")
	fmt.Println("# Copy these environment variables to your .env file or secrets manager")
	fmt.Println()
	fmt.Printf("KMS_PROVIDER=\"%s\"\n", kmsProvider)
	fmt.Printf("KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	fmt.Printf("MASTER_KEYS=\"%s:%s\"\n", keyID, encodedKey)
	fmt.Printf("ACTIVE_MASTER_KEY_ID=\"%s\"\n", keyID)
	fmt.Println()
	fmt.Println("# For multiple master keys (key rotation), encrypt each key with the same KMS key:")
	fmt.Printf("# MASTER_KEYS=\"%s:%s,new-key:<base64-kms-ciphertext>\"\n", keyID, encodedKey)
	fmt.Println("# ACTIVE_MASTER_KEY_ID=\"new-key\"")

	return nil
}
