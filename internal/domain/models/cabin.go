package models

import (
	"sync"

	"teleferico/internal/domain"
)

// Cabin is a single car on the line. All fields are guarded by mu; callers
// only see them through methods or a CabinState snapshot.
type Cabin struct {
	mu sync.Mutex

	id         domain.ID
	capacity   int
	passengers []Rider
	inMotion   bool
	station    domain.Station
}

// CabinState is a point-in-time copy of a cabin.
type CabinState struct {
	ID         domain.ID      `json:"id"`
	Capacity   int            `json:"capacity"`
	Passengers []Rider        `json:"passengers"`
	InMotion   bool           `json:"inMotion"`
	Station    domain.Station `json:"station"`
}

func (s CabinState) PassengerCount() int { return len(s.Passengers) }

// NewCabin returns an empty, stopped cabin parked at Base.
func NewCabin(id domain.ID, capacity int) *Cabin {
	return &Cabin{
		id:         id,
		capacity:   capacity,
		passengers: []Rider{},
		station:    domain.StationBase,
	}
}

func (c *Cabin) ID() domain.ID { return c.id }

func (c *Cabin) Capacity() int { return c.capacity }

func (c *Cabin) IsAvailable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isAvailable()
}

func (c *Cabin) IsFull() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isFull()
}

func (c *Cabin) InMotion() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inMotion
}

func (c *Cabin) Station() domain.Station {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.station
}

func (c *Cabin) PassengerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.passengers)
}

// AddPassenger appends r. The same rider may be added twice.
func (c *Cabin) AddPassenger(r Rider) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isFull() {
		return domain.ConflictError{Resource: "cabin", Msg: "cabin is full", Err: domain.ErrCapacityExceeded}
	}
	c.passengers = append(c.passengers, r)
	return nil
}

// RemovePassenger removes the first passenger with riderID and returns it.
func (c *Cabin) RemovePassenger(riderID domain.ID) (Rider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, p := range c.passengers {
		if p.ID != riderID {
			continue
		}
		c.passengers = append(c.passengers[:i:i], c.passengers[i+1:]...)
		return p, nil
	}
	return Rider{}, domain.NotFoundError{Resource: "passenger", ID: riderID, Err: domain.ErrPassengerNotFound}
}

func (c *Cabin) StartMovement() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inMotion {
		return domain.ConflictError{Resource: "cabin", Err: domain.ErrAlreadyMoving}
	}
	c.inMotion = true
	return nil
}

func (c *Cabin) StopMovement() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopMovement()
}

// ToggleStation flips the station unconditionally.
func (c *Cabin) ToggleStation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.station = c.station.Opposite()
}

// Arrive stops the cabin and moves it to the other station in one step.
// Nothing changes when the cabin is not moving.
func (c *Cabin) Arrive() (domain.Station, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.stopMovement(); err != nil {
		return c.station, err
	}
	c.station = c.station.Opposite()
	return c.station, nil
}

// Availability reads location, availability and fullness in one locked step.
func (c *Cabin) Availability(at domain.Station) (here, available, full bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.station != at {
		return false, false, false
	}
	return true, c.isAvailable(), c.isFull()
}

// Snapshot copies the cabin state under the lock.
func (c *Cabin) Snapshot() CabinState {
	c.mu.Lock()
	defer c.mu.Unlock()
	passengers := make([]Rider, len(c.passengers))
	copy(passengers, c.passengers)
	return CabinState{
		ID:         c.id,
		Capacity:   c.capacity,
		Passengers: passengers,
		InMotion:   c.inMotion,
		Station:    c.station,
	}
}

func (c *Cabin) isAvailable() bool {
	return !c.inMotion && len(c.passengers) < c.capacity
}

func (c *Cabin) isFull() bool {
	return len(c.passengers) >= c.capacity
}

func (c *Cabin) stopMovement() error {
	if !c.inMotion {
		return domain.ConflictError{Resource: "cabin", Err: domain.ErrAlreadyStopped}
	}
	c.inMotion = false
	return nil
}
