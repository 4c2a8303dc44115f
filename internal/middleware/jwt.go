package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/workdeck/backend/internal/auth"
	"github.com/workdeck/backend/pkg/response"
)

const (
	// ContextUserID is the key for the authenticated user ID (uuid.UUID) in gin context.
	ContextUserID = "user_id"
	// ContextUserEmail is the key for user email in gin context.
	ContextUserEmail = "user_email"
	// ContextIsPlatformAdmin is the key for the resolved platform-admin flag.
	ContextIsPlatformAdmin = "is_platform_admin"
)

// JWT returns a middleware that validates the bearer token and sets user
// claims in context. Roles are deliberately not in the token; company roles
// are resolved per request so revocations take effect immediately.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}

// UserID extracts the authenticated user ID set by JWT.
func UserID(c *gin.Context) uuid.UUID {
	return c.MustGet(ContextUserID).(uuid.UUID)
}

// IsPlatformAdmin reports the flag set by ResolvePlatformAdmin. False when
// the middleware did not run.
func IsPlatformAdmin(c *gin.Context) bool {
	v, ok := c.Get(ContextIsPlatformAdmin)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}
