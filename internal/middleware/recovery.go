package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clothingloop/server/internal/auditctx"
	apperrors "github.com/clothingloop/server/pkg/errors"
	"github.com/clothingloop/server/pkg/logger"
	"github.com/clothingloop/server/pkg/metrics"
	"github.com/clothingloop/server/pkg/response"
)

// Recovery turns a handler panic into a 500 envelope. The panic is logged with
// its stack and counted per route. A response already on the wire is left alone.
func Recovery() gin.HandlerFunc {
	log := logger.WithModule("http")
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if r == http.ErrAbortHandler {
				panic(r)
			}

			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			fields := []zap.Field{
				zap.String("route", route),
				zap.String("path", c.Request.URL.Path),
				zap.Any("panic", r),
				zap.Stack("stack"),
			}
			if origin, ok := auditctx.FromContext(c.Request.Context()); ok && origin.RequestID != "" {
				fields = append(fields, zap.String("request_id", origin.RequestID))
			}
			log.Error("handler panic", fields...)
			metrics.PanicsRecovered.WithLabelValues(route).Inc()

			if !c.Writer.Written() {
				response.Error(c, apperrors.ErrInternalServer)
			}
			c.Abort()
		}()
		c.Next()
	}
}

// NotFoundHandler returns a JSON 404 response for unknown routes.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, apperrors.ErrNotFound.WithMessage(fmt.Sprintf("route %s %s not found", c.Request.Method, c.Request.URL.Path)))
}
