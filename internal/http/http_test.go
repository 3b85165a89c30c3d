package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditHttp "github.com/allisson/vaultcore/internal/audit/http"
	identityDomain "github.com/allisson/vaultcore/internal/identity/domain"
	identityUseCase "github.com/allisson/vaultcore/internal/identity/usecase"
	rotationHttp "github.com/allisson/vaultcore/internal/rotation/http"
	sharingHttp "github.com/allisson/vaultcore/internal/sharing/http"
	vaultHttp "github.com/allisson/vaultcore/internal/vault/http"
)

// unauthenticatedUserUseCase rejects every authentication attempt.
type unauthenticatedUserUseCase struct{}

func (u *unauthenticatedUserUseCase) CreateUser(
	ctx context.Context,
	input identityUseCase.CreateUserInput,
) (*identityDomain.User, string, error) {
	return nil, "", identityDomain.ErrInvalidAPIKey
}

func (u *unauthenticatedUserUseCase) GetUserByID(ctx context.Context, id uuid.UUID) (*identityDomain.User, error) {
	return nil, identityDomain.ErrUserNotFound
}

func (u *unauthenticatedUserUseCase) GetUserByEmail(ctx context.Context, email string) (*identityDomain.User, error) {
	return nil, identityDomain.ErrUserNotFound
}

func (u *unauthenticatedUserUseCase) Authenticate(
	ctx context.Context,
	email string,
	apiKey string,
) (*identityDomain.User, error) {
	return nil, identityDomain.ErrInvalidAPIKey
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := createTestLogger()

	return NewServer(
		ServerConfig{
			Host:           "127.0.0.1",
			Port:           0,
			RateLimitRPS:   100,
			RateLimitBurst: 100,
		},
		logger,
		&unauthenticatedUserUseCase{},
		vaultHttp.NewVaultItemHandler(nil, logger),
		sharingHttp.NewShareHandler(nil, logger),
		rotationHttp.NewRotationHandler(nil, logger),
		auditHttp.NewAuditLogHandler(nil, logger),
		nil,
	)
}

func TestServer_HealthEndpoints(t *testing.T) {
	server := newTestServer(t)
	handler := server.GetHandler()

	for _, path := range []string{"/health", "/ready"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestServer_V1RequiresAuthentication(t *testing.T) {
	server := newTestServer(t)
	handler := server.GetHandler()

	paths := []struct {
		method string
		path   string
	}{
		{"GET", "/v1/items"},
		{"POST", "/v1/items"},
		{"GET", "/v1/audit"},
		{"DELETE", "/v1/me"},
	}

	for _, tt := range paths {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
		require.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tt.method, tt.path)
	}
}

func TestMetricsServer_NoProvider(t *testing.T) {
	server := NewMetricsServer("127.0.0.1", 0, createTestLogger(), nil)
	handler := server.GetHandler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RecoveryMiddleware(createTestLogger()))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal_error")
}
