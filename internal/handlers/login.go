package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clothingloop/server/internal/services"
	"github.com/clothingloop/server/pkg/response"
)

type LoginHandler struct {
	service *services.LoginService
}

type loginEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type loginValidateRequest struct {
	Token string `json:"token" validate:"required,max=128"`
}

func NewLoginHandler(service *services.LoginService) *LoginHandler {
	return &LoginHandler{service: service}
}

// POST /v1/login/email
func (h *LoginHandler) Email(c *gin.Context) {
	var body loginEmailRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if err := h.service.SendLoginLink(requestContext(c), body.Email); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// POST /v1/login/validate
func (h *LoginHandler) Validate(c *gin.Context) {
	var body loginValidateRequest
	if !bindAndValidate(c, &body) {
		return
	}

	result, err := h.service.Validate(requestContext(c), body.Token)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}
