package api

import (
	"github.com/gin-gonic/gin"

	"github.com/clothingloop/server/internal/handlers"
)

func registerUserRoutes(v1 *gin.RouterGroup, handler *handlers.UserHandler, requireAuth, limited gin.HandlerFunc) {
	users := v1.Group("/user")
	{
		users.POST("/create", limited, handler.Create)
		users.GET("", requireAuth, handler.Get)
		users.GET("/email", requireAuth, handler.GetByEmail)
		users.PATCH("/update", requireAuth, handler.Update)
	}
}
