// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	vaultDomain "github.com/allisson/vaultcore/internal/vault/domain"
	appValidation "github.com/allisson/vaultcore/internal/validation"
)

// CreateItemRequest contains the parameters for creating a vault item.
// Value carries the secret payload base64-encoded.
type CreateItemRequest struct {
	SecretType         string         `json:"secret_type"`
	Provider           string         `json:"provider"`
	Value              string         `json:"value"`
	Metadata           map[string]any `json:"metadata"`
	Tags               []string       `json:"tags"`
	ExpiresAt          *time.Time     `json:"expires_at"`
	AutoRotateEnabled  bool           `json:"auto_rotate_enabled"`
	RotateAfterSeconds int64          `json:"rotate_after_seconds"`
}

// Validate checks if the create item request is valid.
func (r *CreateItemRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.SecretType,
			validation.Required.Error("secret_type is required"),
			validation.By(func(value interface{}) error {
				s, _ := value.(string)
				if !vaultDomain.SecretType(s).Valid() {
					return validation.NewError("validation_secret_type", "must be a known secret type")
				}
				return nil
			}),
		),
		validation.Field(&r.Value,
			validation.Required.Error("value is required"),
			appValidation.Base64,
		),
		validation.Field(&r.Provider,
			validation.Length(0, 255).Error("provider must be at most 255 characters"),
		),
	)
}

// UpdateMetadataRequest contains a metadata patch. Nil fields are left
// unchanged on the item.
type UpdateMetadataRequest struct {
	Provider           *string        `json:"provider"`
	Metadata           map[string]any `json:"metadata"`
	Tags               []string       `json:"tags"`
	ExpiresAt          *time.Time     `json:"expires_at"`
	AutoRotateEnabled  *bool          `json:"auto_rotate_enabled"`
	RotateAfterSeconds *int64         `json:"rotate_after_seconds"`
}

// ToPatch converts the request to a domain metadata patch.
func (r *UpdateMetadataRequest) ToPatch() vaultDomain.MetadataPatch {
	patch := vaultDomain.MetadataPatch{
		Provider:          r.Provider,
		Metadata:          r.Metadata,
		Tags:              r.Tags,
		ExpiresAt:         r.ExpiresAt,
		AutoRotateEnabled: r.AutoRotateEnabled,
	}
	if r.RotateAfterSeconds != nil {
		rotateAfter := time.Duration(*r.RotateAfterSeconds) * time.Second
		patch.RotateAfter = &rotateAfter
	}
	return patch
}

// UpdateValueRequest contains a replacement secret value, base64-encoded.
type UpdateValueRequest struct {
	Value string `json:"value"`
}

// Validate checks if the update value request is valid.
func (r *UpdateValueRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Value,
			validation.Required.Error("value is required"),
			appValidation.Base64,
		),
	)
}
