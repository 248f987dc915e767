package api

import (
	"github.com/gin-gonic/gin"

	"github.com/clothingloop/server/internal/handlers"
)

func registerLoginRoutes(v1 *gin.RouterGroup, handler *handlers.LoginHandler, limited gin.HandlerFunc) {
	login := v1.Group("/login", limited)
	{
		login.POST("/email", handler.Email)
		login.POST("/validate", handler.Validate)
	}
}
