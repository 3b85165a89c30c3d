package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apperrors "github.com/allisson/vaultcore/internal/errors"
	identityDomain "github.com/allisson/vaultcore/internal/identity/domain"
	identityHttp "github.com/allisson/vaultcore/internal/identity/http"
	sharingDomain "github.com/allisson/vaultcore/internal/sharing/domain"
	sharingUseCase "github.com/allisson/vaultcore/internal/sharing/usecase"
	vaultDomain "github.com/allisson/vaultcore/internal/vault/domain"
)

// mockSharingUseCase is a mock implementation of sharingUseCase.UseCase for testing.
type mockSharingUseCase struct {
	mock.Mock
}

func (m *mockSharingUseCase) Share(
	ctx context.Context,
	input sharingUseCase.ShareInput,
) (*sharingDomain.ShareGrant, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sharingDomain.ShareGrant), args.Error(1)
}

func (m *mockSharingUseCase) Revoke(ctx context.Context, input sharingUseCase.RevokeInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

func (m *mockSharingUseCase) CheckAccess(
	ctx context.Context,
	item *vaultDomain.VaultItem,
	actorID uuid.UUID,
	actorOrgID *uuid.UUID,
	required sharingDomain.Permission,
) (sharingDomain.Decision, error) {
	args := m.Called(ctx, item, actorID, actorOrgID, required)
	return args.Get(0).(sharingDomain.Decision), args.Error(1)
}

func (m *mockSharingUseCase) ListGrants(
	ctx context.Context,
	vaultItemID, actorID uuid.UUID,
) ([]*sharingDomain.ShareGrant, error) {
	args := m.Called(ctx, vaultItemID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*sharingDomain.ShareGrant), args.Error(1)
}

func (m *mockSharingUseCase) ListSharedWith(
	ctx context.Context,
	actorID uuid.UUID,
	actorOrgID *uuid.UUID,
) ([]*sharingDomain.ShareGrant, error) {
	args := m.Called(ctx, actorID, actorOrgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*sharingDomain.ShareGrant), args.Error(1)
}

func (m *mockSharingUseCase) DeleteGrantsForPurge(
	ctx context.Context,
	userID uuid.UUID,
	vaultItemIDs []uuid.UUID,
) error {
	args := m.Called(ctx, userID, vaultItemIDs)
	return args.Error(0)
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testUser = &identityDomain.User{
	ID:    uuid.Must(uuid.NewV7()),
	Email: "alice@example.com",
}

func newTestRouter(handler *ShareHandler) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(identityHttp.WithUser(c.Request.Context(), testUser))
		c.Next()
	})
	router.POST("/v1/items/:id/share", handler.ShareHandler)
	router.DELETE("/v1/items/:id/share", handler.RevokeHandler)
	router.GET("/v1/items/:id/grants", handler.ListGrantsHandler)
	return router
}

func TestShareHandler_Share(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockUC := &mockSharingUseCase{}
		handler := NewShareHandler(mockUC, createTestLogger())
		router := newTestRouter(handler)

		itemID := uuid.Must(uuid.NewV7())
		granteeID := uuid.Must(uuid.NewV7())
		grant := &sharingDomain.ShareGrant{
			ID:            uuid.Must(uuid.NewV7()),
			VaultItemID:   itemID,
			GrantorID:     testUser.ID,
			GranteeUserID: &granteeID,
			Permission:    sharingDomain.PermissionRead,
			CreatedAt:     time.Now().UTC(),
			UpdatedAt:     time.Now().UTC(),
		}

		mockUC.On("Share", mock.Anything, mock.MatchedBy(func(input sharingUseCase.ShareInput) bool {
			return input.VaultItemID == itemID &&
				input.ActorID == testUser.ID &&
				input.GranteeUserID != nil && *input.GranteeUserID == granteeID &&
				input.Permission == sharingDomain.PermissionRead
		})).Return(grant, nil).Once()

		body, _ := json.Marshal(map[string]any{
			"grantee_user_id": granteeID.String(),
			"permission":      "read",
		})

		req := httptest.NewRequest("POST", "/v1/items/"+itemID.String()+"/share", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), grant.ID.String())
		mockUC.AssertExpectations(t)
	})

	t.Run("Failure_InvalidPermission", func(t *testing.T) {
		mockUC := &mockSharingUseCase{}
		handler := NewShareHandler(mockUC, createTestLogger())
		router := newTestRouter(handler)

		itemID := uuid.Must(uuid.NewV7())
		body, _ := json.Marshal(map[string]any{
			"grantee_user_id": uuid.Must(uuid.NewV7()).String(),
			"permission":      "admin",
		})

		req := httptest.NewRequest("POST", "/v1/items/"+itemID.String()+"/share", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUC.AssertNotCalled(t, "Share", mock.Anything, mock.Anything)
	})

	t.Run("Failure_NotOwner", func(t *testing.T) {
		mockUC := &mockSharingUseCase{}
		handler := NewShareHandler(mockUC, createTestLogger())
		router := newTestRouter(handler)

		itemID := uuid.Must(uuid.NewV7())
		mockUC.On("Share", mock.Anything, mock.Anything).
			Return(nil, apperrors.Wrap(apperrors.ErrForbidden, "sharing requires ownership or a read_write grant")).Once()

		body, _ := json.Marshal(map[string]any{
			"grantee_user_id": uuid.Must(uuid.NewV7()).String(),
			"permission":      "read",
		})

		req := httptest.NewRequest("POST", "/v1/items/"+itemID.String()+"/share", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestShareHandler_Revoke(t *testing.T) {
	mockUC := &mockSharingUseCase{}
	handler := NewShareHandler(mockUC, createTestLogger())
	router := newTestRouter(handler)

	itemID := uuid.Must(uuid.NewV7())
	granteeID := uuid.Must(uuid.NewV7())

	mockUC.On("Revoke", mock.Anything, mock.MatchedBy(func(input sharingUseCase.RevokeInput) bool {
		return input.VaultItemID == itemID &&
			input.GranteeUserID != nil && *input.GranteeUserID == granteeID
	})).Return(nil).Once()

	body, _ := json.Marshal(map[string]any{"grantee_user_id": granteeID.String()})

	req := httptest.NewRequest("DELETE", "/v1/items/"+itemID.String()+"/share", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockUC.AssertExpectations(t)
}

func TestShareHandler_ListGrants(t *testing.T) {
	mockUC := &mockSharingUseCase{}
	handler := NewShareHandler(mockUC, createTestLogger())
	router := newTestRouter(handler)

	itemID := uuid.Must(uuid.NewV7())
	granteeID := uuid.Must(uuid.NewV7())
	grants := []*sharingDomain.ShareGrant{
		{
			ID:            uuid.Must(uuid.NewV7()),
			VaultItemID:   itemID,
			GrantorID:     testUser.ID,
			GranteeUserID: &granteeID,
			Permission:    sharingDomain.PermissionReadWrite,
		},
	}

	mockUC.On("ListGrants", mock.Anything, itemID, testUser.ID).Return(grants, nil).Once()

	req := httptest.NewRequest("GET", "/v1/items/"+itemID.String()+"/grants", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "read_write")
	mockUC.AssertExpectations(t)
}
