package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yetria/guidance/internal/errors"
)

// ContextUserKey is the gin context key holding the authenticated user id.
const ContextUserKey = "auth_user_id"

// Middleware validates the Bearer token on protected routes and stores the
// user id on the request context.
func Middleware(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Error(apperrors.NewUnauthorizedError("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.Error(apperrors.NewUnauthorizedError("authorization header must be a bearer token"))
			c.Abort()
			return
		}

		userID, err := svc.ValidateSessionToken(parts[1])
		if err != nil {
			c.Error(apperrors.NewUnauthorizedError("invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(ContextUserKey, userID)
		c.Next()
	}
}

// UserID extracts the authenticated user id set by Middleware.
func UserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
