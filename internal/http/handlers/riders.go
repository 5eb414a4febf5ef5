package handlers

import (
	"fmt"
	"net/http"

	"teleferico/internal/domain"
	"teleferico/internal/http/middleware"
	"teleferico/internal/utils"

	"github.com/gin-gonic/gin"
)

type riderPayload struct {
	ID   int64  `json:"id" binding:"required,gt=0"`
	Name string `json:"name" binding:"required"`
	Age  *int   `json:"age" binding:"required"`
}

// POST /api/riders
func (h *Handlers) CreateRider(c *gin.Context) {
	var payload riderPayload
	if !BindJSONOrError(c, &payload) {
		return
	}

	rider, err := h.Dispatcher.RegisterRider(domain.ID(payload.ID), payload.Name, *payload.Age)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "rider", "create", fmt.Sprintf("rider_id=%d", rider.ID))
	c.JSON(http.StatusCreated, rider)
}

// GET /api/riders
func (h *Handlers) ListRiders(c *gin.Context) {
	riders := h.Dispatcher.Riders()
	c.JSON(http.StatusOK, gin.H{"riders": riders, "total": len(riders)})
}

// GET /api/riders/:id
func (h *Handlers) GetRider(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	rider, err := h.Dispatcher.FindRider(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rider)
}
