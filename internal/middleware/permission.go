package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/clothingloop/server/internal/permissions"
	apperrors "github.com/clothingloop/server/pkg/errors"
	"github.com/clothingloop/server/pkg/response"
)

// RequireGlobalAdmin lets only global admins through. It must run after Auth.
func RequireGlobalAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := AuthContextFrom(c)
		if !caller.Authenticated() {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !permissions.IsGlobalAdmin(caller) {
			response.Error(c, apperrors.ErrPermissionDenied)
			c.Abort()
			return
		}
		c.Next()
	}
}
