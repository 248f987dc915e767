package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clothingloop/server/internal/services"
	"github.com/clothingloop/server/pkg/response"
)

const maxSummaryHours = 24 * 30

type AuditHandler struct {
	service *services.AuditService
}

func NewAuditHandler(service *services.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// GET /v1/admin/audit
func (h *AuditHandler) List(c *gin.Context) {
	page := max(parseIntQuery(c, "page", 1), 1)
	perPage := parseIntQuery(c, "per_page", 50)
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	logs, total, err := h.service.List(requestContext(c), services.AuditListOptions{
		Page:     page,
		PageSize: perPage,
		Filters: services.AuditFilters{
			ActorID:  strings.TrimSpace(c.Query("actor_id")),
			Action:   strings.TrimSpace(c.Query("action")),
			Result:   strings.TrimSpace(c.Query("result")),
			Resource: strings.TrimSpace(c.Query("resource")),
			TargetID: strings.TrimSpace(c.Query("target_id")),
		},
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, logs, response.NewMeta(page, perPage, total))
}

// GET /v1/admin/audit/summary?hours=24
func (h *AuditHandler) Summary(c *gin.Context) {
	hours := parseIntQuery(c, "hours", 24)
	if hours <= 0 || hours > maxSummaryHours {
		hours = 24
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	counts, err := h.service.Summarise(requestContext(c), since)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"since":  since.UTC(),
		"counts": counts,
	})
}
