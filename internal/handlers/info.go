package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clothingloop/server/internal/services"
	"github.com/clothingloop/server/pkg/response"
)

type InfoHandler struct {
	service *services.InfoService
}

func NewInfoHandler(service *services.InfoService) *InfoHandler {
	return &InfoHandler{service: service}
}

// GET /v1/info
func (h *InfoHandler) Get(c *gin.Context) {
	info, err := h.service.Get(requestContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, info)
}
