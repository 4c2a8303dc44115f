package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/workdeck/backend/internal/authz"
	"github.com/workdeck/backend/pkg/response"
)

// ResolvePlatformAdmin sets the platform-admin flag in context without
// blocking. Handlers that vary behavior by admin status read it via
// IsPlatformAdmin.
func ResolvePlatformAdmin(resolver *authz.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		isAdmin, err := resolver.IsPlatformAdmin(c.Request.Context(), UserID(c))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ContextIsPlatformAdmin, isAdmin)
		c.Next()
	}
}

// RequirePlatformAdmin allows only platform administrators past.
func RequirePlatformAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsPlatformAdmin(c) {
			response.Forbidden(c, "platform administrator access required")
			c.Abort()
			return
		}
		c.Next()
	}
}
