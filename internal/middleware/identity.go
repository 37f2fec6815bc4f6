// File: internal/middleware/identity.go
package middleware

import (
	"crypto/subtle"
	"strings"

	"donation_share_backend/internal/common"
	"donation_share_backend/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Identity reads the caller-supplied identity header into the request context.
// The identity is an opaque string; no authentication is attached to it. It is
// optional here so public routes can still observe who is calling when the
// header is present.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(common.UserIDHeader))
		if userID != "" {
			c.Set(common.UserIDKey, userID)
		}
		c.Next()
	}
}

// RequireIdentity rejects requests that did not supply an identity header.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if common.GetUserIDFromContext(c) == "" {
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails(
				"The "+common.UserIDHeader+" header is required."))
			return
		}
		c.Next()
	}
}

// AdminAuth gates moderation routes behind the shared admin credential.
func AdminAuth(cfg *config.Config, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(common.AdminTokenHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(cfg.AdminToken)) != 1 {
			logger.Warn("Admin route denied",
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()))
			common.RespondWithError(c, common.ErrForbidden.WithDetails("A valid admin token is required."))
			return
		}
		c.Set(common.UserRoleKey, common.RoleAdmin)
		c.Next()
	}
}
