package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/vaultcore/internal/errors"
	"github.com/allisson/vaultcore/internal/httputil"
	identityUseCase "github.com/allisson/vaultcore/internal/identity/usecase"
)

// AuthenticationMiddleware authenticates requests with HTTP Basic credentials:
// the username carries the user's email and the password the plain API key.
// On success the user is stored in the request context for downstream
// handlers via GetUser().
//
// Error handling:
//   - Missing or malformed Authorization header → 401 Unauthorized
//   - Unknown email or wrong key → 401 Unauthorized
//   - Other errors → 500 Internal Server Error
func AuthenticationMiddleware(
	userUseCase identityUseCase.UseCase,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, apiKey, ok := c.Request.BasicAuth()
		if !ok || email == "" || apiKey == "" {
			if logger != nil {
				logger.Debug("authentication failed: missing or malformed credentials")
			}
			c.Header("WWW-Authenticate", `Basic realm="vaultcore"`)
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		user, err := userUseCase.Authenticate(c.Request.Context(), email, apiKey)
		if err != nil {
			if logger != nil {
				logger.Debug("authentication failed", slog.String("error", err.Error()))
			}
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		ctx := WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)

		if logger != nil {
			logger.Debug("authentication successful", slog.String("user_id", user.ID.String()))
		}

		c.Next()
	}
}
