package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clothingloop/server/internal/services"
	"github.com/clothingloop/server/pkg/errors"
	"github.com/clothingloop/server/pkg/response"
)

type UserHandler struct {
	service *services.UserService
}

type createUserRequest struct {
	Email           string   `json:"email"`
	ChainID         string   `json:"chainId"`
	Name            string   `json:"name" validate:"max=256"`
	PhoneNumber     string   `json:"phoneNumber"`
	Newsletter      bool     `json:"newsletter"`
	InterestedSizes []string `json:"interestedSizes" validate:"max=32,dive,tag"`
	Address         string   `json:"address" validate:"max=512"`
}

type updateUserRequest struct {
	UID             string    `json:"uid" validate:"required"`
	Name            *string   `json:"name" validate:"omitempty,max=256"`
	PhoneNumber     *string   `json:"phoneNumber"`
	Newsletter      *bool     `json:"newsletter"`
	InterestedSizes *[]string `json:"interestedSizes" validate:"omitempty,max=32,dive,tag"`
	Address         *string   `json:"address" validate:"omitempty,max=512"`
}

type setDisabledRequest struct {
	UID      string `json:"uid" validate:"required,notblank"`
	Disabled bool   `json:"disabled"`
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// POST /v1/user/create
func (h *UserHandler) Create(c *gin.Context) {
	var body createUserRequest
	if !bindAndValidate(c, &body) {
		return
	}

	result, err := h.service.Create(requestContext(c), services.CreateUserInput{
		Email:           body.Email,
		ChainID:         body.ChainID,
		Name:            body.Name,
		PhoneNumber:     body.PhoneNumber,
		Newsletter:      body.Newsletter,
		InterestedSizes: body.InterestedSizes,
		Address:         body.Address,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// GET /v1/user?uid=
func (h *UserHandler) Get(c *gin.Context) {
	uid := strings.TrimSpace(c.Query("uid"))
	if uid == "" {
		response.Error(c, errors.NewBadRequest("uid is required"))
		return
	}

	user, err := h.service.GetByID(requestContext(c), callerFrom(c), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// GET /v1/user/email?email=
func (h *UserHandler) GetByEmail(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		response.Error(c, errors.NewBadRequest("email is required"))
		return
	}

	user, err := h.service.GetByEmail(requestContext(c), callerFrom(c), email)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// PATCH /v1/user/update
func (h *UserHandler) Update(c *gin.Context) {
	var body updateUserRequest
	if !bindAndValidate(c, &body) {
		return
	}

	err := h.service.Update(requestContext(c), callerFrom(c), services.UpdateUserInput{
		UID:             strings.TrimSpace(body.UID),
		Name:            body.Name,
		PhoneNumber:     body.PhoneNumber,
		Newsletter:      body.Newsletter,
		InterestedSizes: body.InterestedSizes,
		Address:         body.Address,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// PATCH /v1/admin/user/disabled
func (h *UserHandler) SetDisabled(c *gin.Context) {
	var body setDisabledRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if err := h.service.SetDisabled(requestContext(c), callerFrom(c), body.UID, body.Disabled); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"uid": strings.TrimSpace(body.UID), "disabled": body.Disabled})
}
