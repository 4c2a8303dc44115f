package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/workdeck/backend/internal/authz"
	"github.com/workdeck/backend/pkg/response"
)

// RequireGlobalPermission allows the request only when the user holds the
// GLOBAL permission identified by key. Platform admins always pass.
func RequireGlobalPermission(resolver *authz.Resolver, key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := resolver.HasGlobalPermission(c.Request.Context(), UserID(c), key)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if !ok {
			response.Forbidden(c, "missing required permission: "+key)
			c.Abort()
			return
		}
		c.Next()
	}
}
