package dto

import (
	"time"

	sharingDomain "github.com/allisson/vaultcore/internal/sharing/domain"
)

// ShareGrantResponse represents a share grant in API responses.
type ShareGrantResponse struct {
	ID            string     `json:"id"`
	VaultItemID   string     `json:"vault_item_id"`
	GrantorID     string     `json:"grantor_id"`
	GranteeUserID *string    `json:"grantee_user_id,omitempty"`
	GranteeOrgID  *string    `json:"grantee_org_id,omitempty"`
	Permission    string     `json:"permission"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// MapShareGrantToResponse converts a domain share grant to an API response.
func MapShareGrantToResponse(grant *sharingDomain.ShareGrant) ShareGrantResponse {
	response := ShareGrantResponse{
		ID:          grant.ID.String(),
		VaultItemID: grant.VaultItemID.String(),
		GrantorID:   grant.GrantorID.String(),
		Permission:  string(grant.Permission),
		ExpiresAt:   grant.ExpiresAt,
		CreatedAt:   grant.CreatedAt,
		UpdatedAt:   grant.UpdatedAt,
	}
	if grant.GranteeUserID != nil {
		id := grant.GranteeUserID.String()
		response.GranteeUserID = &id
	}
	if grant.GranteeOrgID != nil {
		id := grant.GranteeOrgID.String()
		response.GranteeOrgID = &id
	}
	return response
}

// ListShareGrantsResponse represents a list of share grants.
type ListShareGrantsResponse struct {
	Data []ShareGrantResponse `json:"data"`
}

// MapShareGrantsToListResponse converts domain share grants to a list response.
func MapShareGrantsToListResponse(grants []*sharingDomain.ShareGrant) ListShareGrantsResponse {
	data := make([]ShareGrantResponse, 0, len(grants))
	for _, grant := range grants {
		data = append(data, MapShareGrantToResponse(grant))
	}
	return ListShareGrantsResponse{Data: data}
}
