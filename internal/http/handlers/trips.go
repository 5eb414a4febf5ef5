package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"teleferico/internal/domain"
	"teleferico/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// TripJournal lists recorded departures and arrivals.
type TripJournal interface {
	ListByCabin(ctx context.Context, cabinID domain.ID, limit int) ([]models.TripEvent, error)
}

type tripPayload struct {
	RiderID     int64  `json:"riderId" binding:"required,gt=0"`
	Destination string `json:"destination" binding:"required"`
}

// POST /api/trips
func (h *Handlers) RequestTrip(c *gin.Context) {
	var payload tripPayload
	if !BindJSONOrError(c, &payload) {
		return
	}
	dest, err := domain.ParseStation(payload.Destination)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	state, err := h.Dispatcher.RequestTrip(domain.ID(payload.RiderID), dest)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":     "penumpang naik cabin",
		"origin":      dest.Opposite(),
		"destination": dest,
		"cabin":       toCabinResponse(state),
	})
}

// GET /api/trips/log?cabinId=1&limit=50
func (h *Handlers) GetTripLog(c *gin.Context) {
	if h.Journal == nil {
		respondError(c, http.StatusServiceUnavailable, "journal_disabled", "trip journal tidak aktif", nil)
		return
	}

	var cabinID domain.ID
	if raw := strings.TrimSpace(c.Query("cabinId")); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			respondError(c, http.StatusBadRequest, "validation_error", "cabinId tidak valid", nil)
			return
		}
		cabinID = domain.ID(n)
	}
	var limit int
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, http.StatusBadRequest, "validation_error", "limit tidak valid", nil)
			return
		}
		limit = n
	}

	events, err := h.Journal.ListByCabin(c.Request.Context(), cabinID, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "journal_error", "gagal mengambil trip log", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "total": len(events)})
}
