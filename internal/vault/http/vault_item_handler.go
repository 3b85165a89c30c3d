// Package http provides HTTP handlers for vault item lifecycle operations.
// Secret values cross the API base64-encoded and are only returned on
// explicitly requested decrypting reads.
package http

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/vaultcore/internal/crypto/domain"
	apperrors "github.com/allisson/vaultcore/internal/errors"
	"github.com/allisson/vaultcore/internal/httputil"
	identityHttp "github.com/allisson/vaultcore/internal/identity/http"
	customValidation "github.com/allisson/vaultcore/internal/validation"
	vaultDomain "github.com/allisson/vaultcore/internal/vault/domain"
	"github.com/allisson/vaultcore/internal/vault/http/dto"
	vaultUseCase "github.com/allisson/vaultcore/internal/vault/usecase"
)

// VaultItemHandler handles HTTP requests for vault item operations.
type VaultItemHandler struct {
	vaultUseCase vaultUseCase.UseCase
	logger       *slog.Logger
}

// NewVaultItemHandler creates a new vault item handler.
func NewVaultItemHandler(uc vaultUseCase.UseCase, logger *slog.Logger) *VaultItemHandler {
	return &VaultItemHandler{
		vaultUseCase: uc,
		logger:       logger,
	}
}

// ActorFromContext builds the use case actor from the authenticated user and
// the request attribution. Returns false when no user is in the context.
func ActorFromContext(c *gin.Context) (vaultUseCase.Actor, bool) {
	user, ok := identityHttp.GetUser(c.Request.Context())
	if !ok || user == nil {
		return vaultUseCase.Actor{}, false
	}
	return vaultUseCase.Actor{
		ID:        user.ID,
		OrgID:     user.OrgID,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}, true
}

// requireActor resolves the actor or writes a 401 response.
func (h *VaultItemHandler) requireActor(c *gin.Context) (vaultUseCase.Actor, bool) {
	actor, ok := ActorFromContext(c)
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
	}
	return actor, ok
}

// parseItemID parses the :id URL parameter or writes a validation error.
func (h *VaultItemHandler) parseItemID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid item id: %w", err), h.logger)
		return uuid.Nil, false
	}
	return id, true
}

// CreateHandler creates a new vault item.
// POST /v1/items
// Returns 201 Created with item metadata (never the plaintext value).
func (h *VaultItemHandler) CreateHandler(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req dto.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	value, err := base64.StdEncoding.DecodeString(req.Value)
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid base64 value: %w", err), h.logger)
		return
	}

	input := vaultUseCase.CreateInput{
		Actor:             actor,
		SecretType:        vaultDomain.SecretType(req.SecretType),
		Provider:          req.Provider,
		Value:             value,
		Metadata:          req.Metadata,
		Tags:              req.Tags,
		ExpiresAt:         req.ExpiresAt,
		AutoRotateEnabled: req.AutoRotateEnabled,
		RotateAfter:       time.Duration(req.RotateAfterSeconds) * time.Second,
	}

	item, err := h.vaultUseCase.Create(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapVaultItemToResponse(item, false))
}

// GetHandler retrieves a vault item by ID.
// GET /v1/items/:id?decrypt=true
// Without decrypt, only metadata is returned and no key material is touched.
// With decrypt, the plaintext is unwrapped, returned base64-encoded, and
// zeroed after the response is written.
func (h *VaultItemHandler) GetHandler(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	id, ok := h.parseItemID(c)
	if !ok {
		return
	}

	decrypt := c.Query("decrypt") == "true"

	item, err := h.vaultUseCase.Get(c.Request.Context(), vaultUseCase.GetInput{
		Actor:   actor,
		ID:      id,
		Decrypt: decrypt,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapVaultItemToResponse(item, decrypt)
	c.JSON(http.StatusOK, response)

	cryptoDomain.Zero(item.Plaintext)
}

// ListHandler lists the actor's own items, metadata only.
// GET /v1/items?secret_type=&tag=&status=
func (h *VaultItemHandler) ListHandler(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	filter := vaultDomain.ListFilter{
		SecretType: vaultDomain.SecretType(c.Query("secret_type")),
		Status:     vaultDomain.Status(c.Query("status")),
	}
	if tags, present := c.GetQueryArray("tag"); present {
		filter.Tags = tags
	}

	items, err := h.vaultUseCase.List(c.Request.Context(), actor, filter, limit, offset)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapVaultItemsToListResponse(items))
}

// ListSharedHandler lists items shared with the actor, metadata only.
// GET /v1/items/shared
func (h *VaultItemHandler) ListSharedHandler(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	items, err := h.vaultUseCase.ListSharedWith(c.Request.Context(), actor)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapVaultItemsToListResponse(items))
}

// UpdateMetadataHandler applies a metadata patch to an item.
// PATCH /v1/items/:id
func (h *VaultItemHandler) UpdateMetadataHandler(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	id, ok := h.parseItemID(c)
	if !ok {
		return
	}

	var req dto.UpdateMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	item, err := h.vaultUseCase.UpdateMetadata(c.Request.Context(), vaultUseCase.UpdateMetadataInput{
		Actor: actor,
		ID:    id,
		Patch: req.ToPatch(),
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapVaultItemToResponse(item, false))
}

// UpdateValueHandler replaces the secret value of an item.
// PUT /v1/items/:id/value
// The new value is re-encrypted under a fresh DEK and the version advances.
func (h *VaultItemHandler) UpdateValueHandler(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	id, ok := h.parseItemID(c)
	if !ok {
		return
	}

	var req dto.UpdateValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	value, err := base64.StdEncoding.DecodeString(req.Value)
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid base64 value: %w", err), h.logger)
		return
	}

	item, err := h.vaultUseCase.UpdateValue(c.Request.Context(), vaultUseCase.UpdateValueInput{
		Actor: actor,
		ID:    id,
		Value: value,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapVaultItemToResponse(item, false))
}

// DeleteHandler soft-deletes an item. Owner only.
// DELETE /v1/items/:id
// Returns 204 No Content.
func (h *VaultItemHandler) DeleteHandler(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	id, ok := h.parseItemID(c)
	if !ok {
		return
	}

	err := h.vaultUseCase.Delete(c.Request.Context(), vaultUseCase.DeleteInput{
		Actor: actor,
		ID:    id,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// PurgeMeHandler hard-deletes the authenticated user and everything they own:
// items, grants, rotation history, audit entries, and the account itself.
// DELETE /v1/me
// Returns 204 No Content.
func (h *VaultItemHandler) PurgeMeHandler(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	if err := h.vaultUseCase.PurgeUser(c.Request.Context(), actor, actor.ID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
