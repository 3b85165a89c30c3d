// Package http provides HTTP handlers for vault item sharing operations.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/allisson/vaultcore/internal/errors"
	"github.com/allisson/vaultcore/internal/httputil"
	identityHttp "github.com/allisson/vaultcore/internal/identity/http"
	sharingDomain "github.com/allisson/vaultcore/internal/sharing/domain"
	"github.com/allisson/vaultcore/internal/sharing/http/dto"
	sharingUseCase "github.com/allisson/vaultcore/internal/sharing/usecase"
	customValidation "github.com/allisson/vaultcore/internal/validation"
)

// ShareHandler handles HTTP requests for sharing operations.
type ShareHandler struct {
	sharingUseCase sharingUseCase.UseCase
	logger         *slog.Logger
}

// NewShareHandler creates a new share handler.
func NewShareHandler(uc sharingUseCase.UseCase, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{
		sharingUseCase: uc,
		logger:         logger,
	}
}

// parseOptionalUUID parses an optional UUID string from a request body field.
func parseOptionalUUID(value *string, field string) (*uuid.UUID, error) {
	if value == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", field, err)
	}
	return &id, nil
}

// ShareHandler grants access on a vault item to a user or organization.
// POST /v1/items/:id/share - Owner or read_write grantee.
// Sharing the same item with the same grantee replaces the previous grant.
func (h *ShareHandler) ShareHandler(c *gin.Context) {
	user, ok := identityHttp.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid item id: %w", err), h.logger)
		return
	}

	var req dto.ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	granteeUserID, err := parseOptionalUUID(req.GranteeUserID, "grantee_user_id")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	granteeOrgID, err := parseOptionalUUID(req.GranteeOrgID, "grantee_org_id")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	grant, err := h.sharingUseCase.Share(c.Request.Context(), sharingUseCase.ShareInput{
		VaultItemID:   itemID,
		ActorID:       user.ID,
		ActorOrgID:    user.OrgID,
		GranteeUserID: granteeUserID,
		GranteeOrgID:  granteeOrgID,
		Permission:    sharingDomain.Permission(req.Permission),
		ExpiresAt:     req.ExpiresAt,
		IPAddress:     c.ClientIP(),
		UserAgent:     c.Request.UserAgent(),
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapShareGrantToResponse(grant))
}

// RevokeHandler removes a grant immediately.
// DELETE /v1/items/:id/share - Owner or the original grantor.
// Returns 204 No Content.
func (h *ShareHandler) RevokeHandler(c *gin.Context) {
	user, ok := identityHttp.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid item id: %w", err), h.logger)
		return
	}

	var req dto.RevokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	granteeUserID, err := parseOptionalUUID(req.GranteeUserID, "grantee_user_id")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	granteeOrgID, err := parseOptionalUUID(req.GranteeOrgID, "grantee_org_id")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	err = h.sharingUseCase.Revoke(c.Request.Context(), sharingUseCase.RevokeInput{
		VaultItemID:   itemID,
		ActorID:       user.ID,
		GranteeUserID: granteeUserID,
		GranteeOrgID:  granteeOrgID,
		IPAddress:     c.ClientIP(),
		UserAgent:     c.Request.UserAgent(),
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListGrantsHandler lists the grants on an item.
// GET /v1/items/:id/grants - Owner only.
func (h *ShareHandler) ListGrantsHandler(c *gin.Context) {
	user, ok := identityHttp.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid item id: %w", err), h.logger)
		return
	}

	grants, err := h.sharingUseCase.ListGrants(c.Request.Context(), itemID, user.ID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapShareGrantsToListResponse(grants))
}
