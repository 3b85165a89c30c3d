// Package http provides HTTP handlers for secret rotation operations.
package http

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/allisson/vaultcore/internal/errors"
	"github.com/allisson/vaultcore/internal/httputil"
	identityHttp "github.com/allisson/vaultcore/internal/identity/http"
	rotationDomain "github.com/allisson/vaultcore/internal/rotation/domain"
	rotationUseCase "github.com/allisson/vaultcore/internal/rotation/usecase"
	appValidation "github.com/allisson/vaultcore/internal/validation"
	vaultDto "github.com/allisson/vaultcore/internal/vault/http/dto"

	validation "github.com/jellydator/validation"
)

// RotateRequest contains the optional replacement value for a rotation,
// base64-encoded. Without a value the current secret is re-encrypted under
// fresh key material.
type RotateRequest struct {
	Value *string `json:"value"`
}

// Validate checks if the rotate request is valid.
func (r *RotateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Value,
			validation.By(func(value interface{}) error {
				s, ok := value.(*string)
				if !ok || s == nil {
					return nil
				}
				return validation.Validate(*s, appValidation.Base64)
			}),
		),
	)
}

// RotationRecordResponse represents a rotation record in API responses.
type RotationRecordResponse struct {
	ID          string    `json:"id"`
	VaultItemID string    `json:"vault_item_id"`
	ActorID     string    `json:"actor_id"`
	Trigger     string    `json:"trigger"`
	OldVersion  uint      `json:"old_version"`
	NewVersion  uint      `json:"new_version"`
	RotatedAt   time.Time `json:"rotated_at"`
}

// ListRotationRecordsResponse represents a paginated rotation history.
type ListRotationRecordsResponse struct {
	Data []RotationRecordResponse `json:"data"`
}

func mapRecordsToResponse(records []*rotationDomain.RotationRecord) ListRotationRecordsResponse {
	data := make([]RotationRecordResponse, 0, len(records))
	for _, record := range records {
		data = append(data, RotationRecordResponse{
			ID:          record.ID.String(),
			VaultItemID: record.VaultItemID.String(),
			ActorID:     record.ActorID.String(),
			Trigger:     string(record.Trigger),
			OldVersion:  record.OldVersion,
			NewVersion:  record.NewVersion,
			RotatedAt:   record.RotatedAt,
		})
	}
	return ListRotationRecordsResponse{Data: data}
}

// RotationHandler handles HTTP requests for rotation operations.
type RotationHandler struct {
	rotationUseCase rotationUseCase.UseCase
	logger          *slog.Logger
}

// NewRotationHandler creates a new rotation handler.
func NewRotationHandler(uc rotationUseCase.UseCase, logger *slog.Logger) *RotationHandler {
	return &RotationHandler{
		rotationUseCase: uc,
		logger:          logger,
	}
}

// RotateHandler rotates an item's secret value.
// POST /v1/items/:id/rotate
// With a value in the body the secret is replaced; without one the current
// value is re-encrypted under a fresh DEK. Returns the item at its new version.
func (h *RotationHandler) RotateHandler(c *gin.Context) {
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

	// an empty body means reseal-in-place
	var req RotateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.HandleBadRequestGin(c, err, h.logger)
			return
		}
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, appValidation.WrapValidationError(err), h.logger)
		return
	}

	var newValue []byte
	if req.Value != nil {
		newValue, err = base64.StdEncoding.DecodeString(*req.Value)
		if err != nil {
			httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid base64 value: %w", err), h.logger)
			return
		}
	}

	item, err := h.rotationUseCase.Rotate(c.Request.Context(), rotationUseCase.RotateInput{
		ID:        itemID,
		ActorID:   user.ID,
		OrgID:     user.OrgID,
		NewValue:  newValue,
		Trigger:   rotationDomain.TriggerManual,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, vaultDto.MapVaultItemToResponse(item, false))
}

// HistoryHandler lists an item's rotation records, newest first.
// GET /v1/items/:id/rotations
func (h *RotationHandler) HistoryHandler(c *gin.Context) {
	if _, ok := identityHttp.GetUser(c.Request.Context()); !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid item id: %w", err), h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	records, err := h.rotationUseCase.History(c.Request.Context(), itemID, limit, offset)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapRecordsToResponse(records))
}
