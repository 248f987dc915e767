package api

import (
	"github.com/gin-gonic/gin"

	"github.com/clothingloop/server/internal/handlers"
)

func registerContactRoutes(v1 *gin.RouterGroup, handler *handlers.ContactHandler, limited gin.HandlerFunc) {
	contact := v1.Group("/contact", limited)
	{
		contact.POST("/mail", handler.Mail)
		contact.POST("/newsletter", handler.Newsletter)
	}
}
