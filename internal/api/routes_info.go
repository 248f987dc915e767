package api

import (
	"github.com/gin-gonic/gin"

	"github.com/clothingloop/server/internal/handlers"
)

func registerInfoRoutes(v1 *gin.RouterGroup, handler *handlers.InfoHandler) {
	v1.GET("/info", handler.Get)
}
