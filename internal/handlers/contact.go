package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clothingloop/server/internal/services"
	"github.com/clothingloop/server/pkg/response"
)

type ContactHandler struct {
	service *services.ContactService
}

type contactMailRequest struct {
	Name    string `json:"name" validate:"required,max=256"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,notblank,max=5000"`
}

type newsletterRequest struct {
	Name  string `json:"name" validate:"required,max=256"`
	Email string `json:"email" validate:"required,email"`
}

func NewContactHandler(service *services.ContactService) *ContactHandler {
	return &ContactHandler{service: service}
}

// POST /v1/contact/mail
func (h *ContactHandler) Mail(c *gin.Context) {
	var body contactMailRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if err := h.service.SendContactMail(requestContext(c), body.Name, body.Email, body.Message); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// POST /v1/contact/newsletter
func (h *ContactHandler) Newsletter(c *gin.Context) {
	var body newsletterRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if err := h.service.SubscribeToNewsletter(requestContext(c), body.Name, body.Email); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
