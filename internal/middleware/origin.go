package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clothingloop/server/internal/auditctx"
	"github.com/clothingloop/server/pkg/response"
)

// RequestIDHeader carries the request identifier in and out of the API.
const RequestIDHeader = response.RequestIDHeader

// RequestOrigin stores the caller's address, user agent and request id on the
// request context for audit logging.
func RequestOrigin() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		ctx := auditctx.WithOrigin(c.Request.Context(), auditctx.Origin{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			RequestID: requestID,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
