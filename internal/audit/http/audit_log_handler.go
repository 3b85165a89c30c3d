// Package http provides HTTP handlers for querying the audit trail.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditDomain "github.com/allisson/vaultcore/internal/audit/domain"
	auditUseCase "github.com/allisson/vaultcore/internal/audit/usecase"
	apperrors "github.com/allisson/vaultcore/internal/errors"
	"github.com/allisson/vaultcore/internal/httputil"
	identityHttp "github.com/allisson/vaultcore/internal/identity/http"
)

// AuditLogResponse represents an audit log entry in API responses.
type AuditLogResponse struct {
	ID          string    `json:"id"`
	VaultItemID *string   `json:"vault_item_id,omitempty"`
	ActorID     string    `json:"actor_id"`
	Action      string    `json:"action"`
	Success     bool      `json:"success"`
	IPAddress   string    `json:"ip_address,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	ErrorDetail string    `json:"error_detail,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListAuditLogsResponse represents a paginated list of audit log entries.
type ListAuditLogsResponse struct {
	Data []AuditLogResponse `json:"data"`
}

func mapAuditLogsToResponse(logs []*auditDomain.AuditLog) ListAuditLogsResponse {
	data := make([]AuditLogResponse, 0, len(logs))
	for _, entry := range logs {
		response := AuditLogResponse{
			ID:          entry.ID.String(),
			ActorID:     entry.ActorID.String(),
			Action:      string(entry.Action),
			Success:     entry.Success,
			IPAddress:   entry.IPAddress,
			UserAgent:   entry.UserAgent,
			ErrorDetail: entry.ErrorDetail,
			CreatedAt:   entry.CreatedAt,
		}
		if entry.VaultItemID != nil {
			id := entry.VaultItemID.String()
			response.VaultItemID = &id
		}
		data = append(data, response)
	}
	return ListAuditLogsResponse{Data: data}
}

// AuditLogHandler handles HTTP requests for audit trail queries.
type AuditLogHandler struct {
	auditUseCase auditUseCase.UseCase
	logger       *slog.Logger
}

// NewAuditLogHandler creates a new audit log handler.
func NewAuditLogHandler(uc auditUseCase.UseCase, logger *slog.Logger) *AuditLogHandler {
	return &AuditLogHandler{
		auditUseCase: uc,
		logger:       logger,
	}
}

// QueryHandler lists the authenticated user's audit entries, newest first.
// GET /v1/audit?item_id=&from=&to=
// The query is always scoped to the caller; one user cannot read another's
// trail through this endpoint.
func (h *AuditLogHandler) QueryHandler(c *gin.Context) {
	user, ok := identityHttp.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	actorID := user.ID
	filter := auditDomain.QueryFilter{ActorID: &actorID}

	if itemIDStr := c.Query("item_id"); itemIDStr != "" {
		itemID, err := uuid.Parse(itemIDStr)
		if err != nil {
			httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid item_id: %w", err), h.logger)
			return
		}
		filter.VaultItemID = &itemID
	}

	if fromStr := c.Query("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid from timestamp: %w", err), h.logger)
			return
		}
		filter.From = &from
	}

	if toStr := c.Query("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid to timestamp: %w", err), h.logger)
			return
		}
		filter.To = &to
	}

	logs, err := h.auditUseCase.Query(c.Request.Context(), filter, limit, offset)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapAuditLogsToResponse(logs))
}
