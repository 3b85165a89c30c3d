package httputil

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/vaultcore/internal/errors"
)

func TestHandleErrorGin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name          string
		err           error
		expectedCode  int
		expectedError string
	}{
		{
			name:          "not found",
			err:           apperrors.Wrap(apperrors.ErrNotFound, "vault item not found"),
			expectedCode:  404,
			expectedError: "not_found",
		},
		{
			name:          "version conflict",
			err:           apperrors.Wrap(apperrors.ErrVersionConflict, "stale version"),
			expectedCode:  409,
			expectedError: "version_conflict",
		},
		{
			name:          "conflict",
			err:           apperrors.Wrap(apperrors.ErrConflict, "user already exists"),
			expectedCode:  409,
			expectedError: "conflict",
		},
		{
			name:          "invalid input",
			err:           apperrors.Wrap(apperrors.ErrInvalidInput, "email is required"),
			expectedCode:  422,
			expectedError: "invalid_input",
		},
		{
			name:          "unauthorized",
			err:           apperrors.Wrap(apperrors.ErrUnauthorized, "invalid api key"),
			expectedCode:  401,
			expectedError: "unauthorized",
		},
		{
			name:          "forbidden",
			err:           apperrors.Wrap(apperrors.ErrForbidden, "no_grant"),
			expectedCode:  403,
			expectedError: "forbidden",
		},
		{
			name:          "integrity",
			err:           apperrors.Wrap(apperrors.ErrIntegrity, "decryption failed"),
			expectedCode:  422,
			expectedError: "integrity_error",
		},
		{
			name:          "key unavailable",
			err:           apperrors.Wrap(apperrors.ErrKeyUnavailable, "kek not found"),
			expectedCode:  503,
			expectedError: "key_unavailable",
		},
		{
			name:          "unknown error",
			err:           errors.New("database connection lost"),
			expectedCode:  500,
			expectedError: "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			HandleErrorGin(c, tt.err, nil)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedError)
		})
	}

	t.Run("nil error writes nothing", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		HandleErrorGin(c, nil, nil)

		assert.Empty(t, w.Body.String())
	})
}

func TestHandleBadRequestGin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	HandleBadRequestGin(c, errors.New("invalid JSON"), nil)

	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), "bad_request")
}
