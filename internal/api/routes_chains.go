package api

import (
	"github.com/gin-gonic/gin"

	"github.com/clothingloop/server/internal/handlers"
)

func registerChainRoutes(v1 *gin.RouterGroup, handler *handlers.ChainHandler, requireAuth, optionalAuth gin.HandlerFunc) {
	chains := v1.Group("/chain")
	{
		chains.GET("", handler.Get)
		chains.GET("/all", optionalAuth, handler.List)
		chains.POST("/create", requireAuth, handler.Create)
		chains.POST("/add-user", requireAuth, handler.AddUser)
	}
}
