package handlers

import (
	"fmt"
	"net/http"

	"teleferico/internal/domain"
	"teleferico/internal/domain/models"
	"teleferico/internal/http/middleware"
	"teleferico/internal/services"
	"teleferico/internal/utils"

	"github.com/gin-gonic/gin"
)

type cabinPayload struct {
	ID       int64 `json:"id" binding:"required,gt=0"`
	Capacity int   `json:"capacity" binding:"required"`
}

type cabinResponse struct {
	models.CabinState
	PassengerCount int  `json:"passengerCount"`
	Available      bool `json:"available"`
}

func toCabinResponse(s models.CabinState) cabinResponse {
	return cabinResponse{
		CabinState:     s,
		PassengerCount: s.PassengerCount(),
		Available:      !s.InMotion && s.PassengerCount() < s.Capacity,
	}
}

// GET /api/cabins
func (h *Handlers) ListCabins(c *gin.Context) {
	states := h.Dispatcher.Cabins()
	out := make([]cabinResponse, 0, len(states))
	for _, s := range states {
		out = append(out, toCabinResponse(s))
	}
	c.JSON(http.StatusOK, gin.H{"cabins": out, "total": len(out)})
}

// GET /api/cabins/:id
func (h *Handlers) GetCabin(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	state, err := h.Dispatcher.Cabin(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCabinResponse(state))
}

// POST /api/cabins
func (h *Handlers) CreateCabin(c *gin.Context) {
	var payload cabinPayload
	if !BindJSONOrError(c, &payload) {
		return
	}
	state, err := h.Dispatcher.CreateCabin(domain.ID(payload.ID), payload.Capacity)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "cabin", "create", fmt.Sprintf("cabin_id=%d", state.ID))
	c.JSON(http.StatusCreated, toCabinResponse(state))
}

// DELETE /api/cabins/:id
func (h *Handlers) DeleteCabin(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Dispatcher.RemoveCabin(id); err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "cabin", "delete", fmt.Sprintf("cabin_id=%d", id))
	c.JSON(http.StatusOK, gin.H{"message": "cabin berhasil dihapus", "id": id})
}

// POST /api/cabins/:id/start
func (h *Handlers) StartCabinTrip(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Dispatcher.StartTrip(id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"message":        "cabin berangkat",
		"id":             id,
		"travelDuration": h.Dispatcher.TravelDuration().String(),
	})
}

// DELETE /api/cabins/:id/passengers/:riderId
func (h *Handlers) DisembarkRider(c *gin.Context) {
	cabinID, ok := paramID(c, "id")
	if !ok {
		return
	}
	riderID, ok := paramID(c, "riderId")
	if !ok {
		return
	}
	rider, err := h.Dispatcher.Disembark(cabinID, riderID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "penumpang turun", "cabinId": cabinID, "rider": rider})
}

// GET /api/cabins/:id/manifest
func (h *Handlers) GetCabinManifestPDF(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	svc := services.DocsService{
		RequestID: middleware.GetRequestID(c),
		Loader:    h.Dispatcher.Cabin,
	}
	pdfBytes, filename, err := svc.GenerateManifest(id)
	if err != nil {
		if domain.IsNotFound(err) {
			RespondDomainError(c, err)
			return
		}
		respondError(c, http.StatusInternalServerError, "manifest_failed", "gagal membuat manifest", err.Error())
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
