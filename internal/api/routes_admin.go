package api

import (
	"github.com/gin-gonic/gin"

	"github.com/clothingloop/server/internal/handlers"
	"github.com/clothingloop/server/internal/middleware"
	"github.com/clothingloop/server/pkg/logger"
)

func registerAdminRoutes(v1 *gin.RouterGroup, audit *handlers.AuditHandler, sec *handlers.SecurityHandler, users *handlers.UserHandler, requireAuth gin.HandlerFunc) {
	admin := v1.Group("/admin", requireAuth, middleware.RequireGlobalAdmin())
	{
		admin.GET("/audit", audit.List)
		admin.GET("/audit/summary", audit.Summary)
		admin.GET("/security", sec.Audit)
		admin.PATCH("/user/disabled", users.SetDisabled)

		level := gin.WrapH(logger.LevelHandler())
		admin.GET("/log-level", level)
		admin.PUT("/log-level", level)
	}
}
