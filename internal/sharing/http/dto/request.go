// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	sharingDomain "github.com/allisson/vaultcore/internal/sharing/domain"
)

// ShareRequest contains the parameters for sharing a vault item. Exactly one
// of grantee_user_id or grantee_org_id must be set.
type ShareRequest struct {
	GranteeUserID *string    `json:"grantee_user_id"`
	GranteeOrgID  *string    `json:"grantee_org_id"`
	Permission    string     `json:"permission"`
	ExpiresAt     *time.Time `json:"expires_at"`
}

// Validate checks if the share request is valid.
func (r *ShareRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Permission,
			validation.Required.Error("permission is required"),
			validation.By(func(value interface{}) error {
				s, _ := value.(string)
				if !sharingDomain.Permission(s).Valid() {
					return validation.NewError("validation_permission", "must be read or read_write")
				}
				return nil
			}),
		),
	)
}

// RevokeRequest identifies the grantee whose grant should be removed.
type RevokeRequest struct {
	GranteeUserID *string `json:"grantee_user_id"`
	GranteeOrgID  *string `json:"grantee_org_id"`
}
