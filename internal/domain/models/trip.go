package models

import (
	"time"

	"teleferico/internal/domain"
)

type TripEventKind string

const (
	TripDeparted TripEventKind = "departed"
	TripArrived  TripEventKind = "arrived"
)

// TripEvent is one journal line for a cabin run. Departure and arrival of the
// same run share TripID.
type TripEvent struct {
	TripID     string         `json:"tripId"`
	CabinID    domain.ID      `json:"cabinId"`
	Kind       TripEventKind  `json:"kind"`
	From       domain.Station `json:"from"`
	To         domain.Station `json:"to"`
	Passengers int            `json:"passengers"`
	At         time.Time      `json:"at"`
}
