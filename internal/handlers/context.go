package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clothingloop/server/internal/middleware"
	"github.com/clothingloop/server/internal/permissions"
	apperrors "github.com/clothingloop/server/pkg/errors"
	"github.com/clothingloop/server/pkg/logger"
	"github.com/clothingloop/server/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

func callerFrom(c *gin.Context) permissions.AuthContext {
	return middleware.AuthContextFrom(c)
}

// writeError renders err, logging failures that are not client errors.
func writeError(c *gin.Context, err error) {
	appErr := apperrors.FromError(err)
	if appErr.StatusCode >= 500 || appErr.StatusCode == 0 {
		logger.WithModule("http").Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	response.Error(c, appErr)
}
