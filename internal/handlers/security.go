package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clothingloop/server/internal/security"
	"github.com/clothingloop/server/pkg/response"
)

type SecurityHandler struct {
	audit *security.AuditService
}

func NewSecurityHandler(audit *security.AuditService) *SecurityHandler {
	return &SecurityHandler{audit: audit}
}

// GET /v1/admin/security
func (h *SecurityHandler) Audit(c *gin.Context) {
	response.Success(c, http.StatusOK, h.audit.Run(requestContext(c)))
}
