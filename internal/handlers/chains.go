package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clothingloop/server/internal/services"
	"github.com/clothingloop/server/pkg/errors"
	"github.com/clothingloop/server/pkg/response"
)

type ChainHandler struct {
	service *services.ChainService
}

type createChainRequest struct {
	UID         string   `json:"uid" validate:"required"`
	Name        string   `json:"name" validate:"required,notblank,max=256"`
	Description string   `json:"description" validate:"max=4096"`
	Address     string   `json:"address" validate:"max=512"`
	Latitude    float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64  `json:"longitude" validate:"gte=-180,lte=180"`
	Radius      float64  `json:"radius" validate:"gte=0"`
	Categories  []string `json:"categories" validate:"max=16,dive,tag"`
}

type addUserToChainRequest struct {
	UID     string `json:"uid" validate:"required"`
	ChainID string `json:"chainId" validate:"required"`
}

func NewChainHandler(service *services.ChainService) *ChainHandler {
	return &ChainHandler{service: service}
}

// POST /v1/chain/create
func (h *ChainHandler) Create(c *gin.Context) {
	var body createChainRequest
	if !bindAndValidate(c, &body) {
		return
	}

	chain, err := h.service.Create(requestContext(c), callerFrom(c), services.CreateChainInput{
		UID:         strings.TrimSpace(body.UID),
		Name:        body.Name,
		Description: body.Description,
		Address:     body.Address,
		Latitude:    body.Latitude,
		Longitude:   body.Longitude,
		Radius:      body.Radius,
		Categories:  body.Categories,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": chain.ID})
}

// POST /v1/chain/add-user
func (h *ChainHandler) AddUser(c *gin.Context) {
	var body addUserToChainRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if err := h.service.AddUser(requestContext(c), callerFrom(c), strings.TrimSpace(body.UID), strings.TrimSpace(body.ChainID)); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// GET /v1/chain?chainId=
func (h *ChainHandler) Get(c *gin.Context) {
	chainID := strings.TrimSpace(c.Query("chainId"))
	if chainID == "" {
		response.Error(c, errors.NewBadRequest("chainId is required"))
		return
	}

	chain, err := h.service.Get(requestContext(c), chainID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, chain)
}

// GET /v1/chain/all
func (h *ChainHandler) List(c *gin.Context) {
	chains, err := h.service.List(requestContext(c), callerFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, chains)
}
