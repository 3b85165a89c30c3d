package dto

import (
	"encoding/base64"
	"time"

	vaultDomain "github.com/allisson/vaultcore/internal/vault/domain"
)

// VaultItemResponse represents a vault item in API responses. Value is only
// present on decrypting reads and carries the plaintext base64-encoded; the
// ciphertext and wrapped key material are never exposed.
type VaultItemResponse struct {
	ID                 string         `json:"id"`
	OwnerID            string         `json:"owner_id"`
	SecretType         string         `json:"secret_type"`
	Provider           string         `json:"provider,omitempty"`
	Version            uint           `json:"version"`
	Value              *string        `json:"value,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	Tags               []string       `json:"tags,omitempty"`
	ExpiresAt          *time.Time     `json:"expires_at,omitempty"`
	AutoRotateEnabled  bool           `json:"auto_rotate_enabled"`
	RotateAfterSeconds int64          `json:"rotate_after_seconds,omitempty"`
	BlockchainHash     string         `json:"blockchain_hash,omitempty"`
	AnchorRef          string         `json:"anchor_ref,omitempty"`
	AccessCount        uint           `json:"access_count"`
	LastAccessedAt     *time.Time     `json:"last_accessed_at,omitempty"`
	Status             string         `json:"status"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// MapVaultItemToResponse converts a domain vault item to an API response.
// When includeValue is set and the item carries decrypted plaintext, the
// value is base64-encoded into the response.
func MapVaultItemToResponse(item *vaultDomain.VaultItem, includeValue bool) VaultItemResponse {
	response := VaultItemResponse{
		ID:                 item.ID.String(),
		OwnerID:            item.OwnerID.String(),
		SecretType:         string(item.SecretType),
		Provider:           item.Provider,
		Version:            item.Version,
		Metadata:           item.Metadata,
		Tags:               item.Tags,
		ExpiresAt:          item.ExpiresAt,
		AutoRotateEnabled:  item.AutoRotateEnabled,
		RotateAfterSeconds: int64(item.RotateAfter / time.Second),
		BlockchainHash:     item.BlockchainHash,
		AnchorRef:          item.AnchorRef,
		AccessCount:        item.AccessCount,
		LastAccessedAt:     item.LastAccessedAt,
		Status:             string(item.Status),
		CreatedAt:          item.CreatedAt,
		UpdatedAt:          item.UpdatedAt,
	}

	if includeValue && item.Plaintext != nil {
		value := base64.StdEncoding.EncodeToString(item.Plaintext)
		response.Value = &value
	}

	return response
}

// ListVaultItemsResponse represents a paginated list of vault items.
type ListVaultItemsResponse struct {
	Data []VaultItemResponse `json:"data"`
}

// MapVaultItemsToListResponse converts domain vault items to a list response,
// metadata only.
func MapVaultItemsToListResponse(items []*vaultDomain.VaultItem) ListVaultItemsResponse {
	data := make([]VaultItemResponse, 0, len(items))
	for _, item := range items {
		data = append(data, MapVaultItemToResponse(item, false))
	}
	return ListVaultItemsResponse{Data: data}
}
