package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/clothingloop/server/internal/auth"
	"github.com/clothingloop/server/internal/identity"
	"github.com/clothingloop/server/internal/permissions"
	apperrors "github.com/clothingloop/server/pkg/errors"
	"github.com/clothingloop/server/pkg/logger"
	"github.com/clothingloop/server/pkg/response"
)

const (
	CtxAuthKey      = "authContext"
	CtxAccountIDKey = "accountID"
)

// AccountSource loads the account behind a token.
type AccountSource interface {
	Get(ctx context.Context, id string) (*identity.Account, error)
}

// Auth enforces bearer authentication. The caller's role and chain are read
// from the identity store on every request and stored as a permissions.AuthContext.
func Auth(jwt *iauth.JWTService, accounts AccountSource) gin.HandlerFunc {
	return authenticate(jwt, accounts, false)
}

// OptionalAuth authenticates the request when a bearer token is present and
// lets anonymous requests through otherwise.
func OptionalAuth(jwt *iauth.JWTService, accounts AccountSource) gin.HandlerFunc {
	return authenticate(jwt, accounts, true)
}

func authenticate(jwt *iauth.JWTService, accounts AccountSource, optional bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := strings.TrimSpace(c.GetHeader("Authorization"))
		if authz == "" && optional {
			c.Set(CtxAuthKey, permissions.AuthContext{})
			c.Next()
			return
		}
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			unauthorized(c)
			return
		}

		claims, err := jwt.ValidateAccessToken(strings.TrimSpace(authz[7:]))
		if errors.Is(err, iauth.ErrExpiredToken) {
			c.Header("WWW-Authenticate", `Bearer error="invalid_token", error_description="expired"`)
			response.Error(c, apperrors.ErrUnauthorized.WithMessage("Session expired, log in again"))
			c.Abort()
			return
		}
		if err != nil {
			unauthorized(c)
			return
		}

		account, err := accounts.Get(c.Request.Context(), claims.AccountID)
		if err != nil {
			if errors.Is(err, identity.ErrAccountNotFound) {
				unauthorized(c)
				return
			}
			logger.WithModule("auth").Error("load account", zap.String("account_id", claims.AccountID), zap.Error(err))
			response.Error(c, apperrors.ErrInternalServer)
			c.Abort()
			return
		}
		if account.Disabled {
			unauthorized(c)
			return
		}

		c.Set(CtxAuthKey, permissions.AuthContext{
			AccountID: account.ID,
			Role:      account.Claims.Role,
			ChainID:   account.Claims.ChainID,
		})
		c.Set(CtxAccountIDKey, account.ID)

		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	response.Error(c, apperrors.ErrUnauthorized)
	c.Abort()
}

// AuthContextFrom returns the caller stored by Auth or OptionalAuth. Anonymous
// requests yield the zero value.
func AuthContextFrom(c *gin.Context) permissions.AuthContext {
	if v, ok := c.Get(CtxAuthKey); ok {
		if auth, ok := v.(permissions.AuthContext); ok {
			return auth
		}
	}
	return permissions.AuthContext{}
}
