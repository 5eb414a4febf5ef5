package handlers

import (
	"net/http"
	"strconv"
	"time"

	"teleferico/internal/domain"
	"teleferico/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// Dispatcher is the part of services.Dispatcher the HTTP layer drives.
type Dispatcher interface {
	RegisterRider(id domain.ID, name string, age int) (models.Rider, error)
	FindRider(id domain.ID) (models.Rider, error)
	Riders() []models.Rider
	RiderCount() int

	CreateCabin(id domain.ID, capacity int) (models.CabinState, error)
	RemoveCabin(id domain.ID) error
	Cabin(id domain.ID) (models.CabinState, error)
	Cabins() []models.CabinState
	CabinCount() int

	RequestTrip(riderID domain.ID, destination domain.Station) (models.CabinState, error)
	StartTrip(cabinID domain.ID) error
	Disembark(cabinID, riderID domain.ID) (models.Rider, error)
	TravelDuration() time.Duration
}

// Handlers groups the endpoints around one dispatcher. Journal may be nil
// when no database is configured.
type Handlers struct {
	Dispatcher Dispatcher
	Journal    TripJournal
}

func New(d Dispatcher, journal TripJournal) *Handlers {
	return &Handlers{Dispatcher: d, Journal: journal}
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		respondError(c, http.StatusBadRequest, "validation_error", "body kosong", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "payload tidak valid", err.Error())
		return false
	}
	return true
}

// paramID parses a positive integer path parameter.
func paramID(c *gin.Context, name string) (domain.ID, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "validation_error", name+" tidak valid", nil)
		return 0, false
	}
	return domain.ID(id), true
}
