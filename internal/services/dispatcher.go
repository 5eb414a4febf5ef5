package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"teleferico/internal/domain"
	"teleferico/internal/domain/models"
	"teleferico/internal/utils"

	"github.com/google/uuid"
)

// DefaultTravelDuration is the fixed time a cabin needs between stations.
const DefaultTravelDuration = 5 * time.Second

const recordTimeout = 3 * time.Second

// TripRecorder receives departure and arrival events. Events are written in
// the background; failures are logged and never reach the dispatch caller.
type TripRecorder interface {
	RecordTrip(ctx context.Context, ev models.TripEvent) error
}

type DispatcherOptions struct {
	Scheduler      Scheduler
	TravelDuration time.Duration
	Recorder       TripRecorder
	Now            func() time.Time
}

// Dispatcher owns the cabins and the rider registry. Registry mutations and
// select-then-act sequences hold mu; per-cabin fields are guarded by the
// cabin itself so the trip completion only needs the cabin lock.
type Dispatcher struct {
	mu     sync.RWMutex
	cabins map[domain.ID]*models.Cabin
	order  []domain.ID

	riders *RiderRegistry

	scheduler      Scheduler
	travelDuration time.Duration
	journal        *journalQueue
	now            func() time.Time
}

func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	d := &Dispatcher{
		cabins:         map[domain.ID]*models.Cabin{},
		riders:         NewRiderRegistry(),
		scheduler:      opts.Scheduler,
		travelDuration: opts.TravelDuration,
		now:            opts.Now,
	}
	if opts.Recorder != nil {
		d.journal = newJournalQueue(opts.Recorder)
	}
	if d.scheduler == nil {
		d.scheduler = TimerScheduler{}
	}
	if d.travelDuration <= 0 {
		d.travelDuration = DefaultTravelDuration
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d
}

func (d *Dispatcher) TravelDuration() time.Duration { return d.travelDuration }

// Close flushes pending trip events to the recorder. Events produced after
// Close are logged and dropped.
func (d *Dispatcher) Close() {
	if d.journal != nil {
		d.journal.close()
	}
}

// CreateCabin registers an empty, stopped cabin at Base.
func (d *Dispatcher) CreateCabin(id domain.ID, capacity int) (models.CabinState, error) {
	if capacity <= 0 {
		return models.CabinState{}, domain.ValidationError{Field: "capacity", Msg: "must be positive"}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.cabins[id]; ok {
		return models.CabinState{}, domain.ConflictError{Resource: "cabin", Msg: "id already exists", Err: domain.ErrDuplicateID}
	}
	cabin := models.NewCabin(id, capacity)
	d.cabins[id] = cabin
	d.order = append(d.order, id)

	utils.LogEvent("", "dispatch", "create_cabin", fmt.Sprintf("cabin_id=%d capacity=%d", id, capacity))
	return cabin.Snapshot(), nil
}

// RemoveCabin deletes an empty cabin. A cabin removed while moving still
// completes its trip, but its arrival is not journaled.
func (d *Dispatcher) RemoveCabin(id domain.ID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cabin, ok := d.cabins[id]
	if !ok {
		return domain.NotFoundError{Resource: "cabin", ID: id}
	}
	if n := cabin.PassengerCount(); n > 0 {
		return domain.ConflictError{
			Resource: "cabin",
			Msg:      fmt.Sprintf("cabin still carries %d passenger(s)", n),
			Err:      domain.ErrNotEmpty,
		}
	}
	delete(d.cabins, id)
	for i, v := range d.order {
		if v == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}

	utils.LogEvent("", "dispatch", "remove_cabin", fmt.Sprintf("cabin_id=%d", id))
	return nil
}

func (d *Dispatcher) RegisterRider(id domain.ID, name string, age int) (models.Rider, error) {
	rider, err := d.riders.Register(id, name, age)
	if err != nil {
		return rider, err
	}
	utils.LogEvent("", "dispatch", "register_rider", fmt.Sprintf("rider_id=%d", id))
	return rider, nil
}

func (d *Dispatcher) FindRider(id domain.ID) (models.Rider, error) {
	return d.riders.Find(id)
}

// FindAvailableCabin returns the first available cabin at the station, in
// creation order.
func (d *Dispatcher) FindAvailableCabin(at domain.Station) (models.CabinState, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	cabin, err := d.findAvailable(at)
	if err != nil {
		return models.CabinState{}, err
	}
	return cabin.Snapshot(), nil
}

// findAvailable classifies a miss as: nothing parked here, something parked
// here is full, everything parked here is moving. Callers hold mu.
func (d *Dispatcher) findAvailable(at domain.Station) (*models.Cabin, error) {
	if !at.Valid() {
		return nil, domain.ValidationError{Field: "station", Msg: "must be base or summit"}
	}

	var seen, anyFull bool
	for _, id := range d.order {
		cabin := d.cabins[id]
		here, available, full := cabin.Availability(at)
		if !here {
			continue
		}
		if available {
			return cabin, nil
		}
		seen = true
		anyFull = anyFull || full
	}

	switch {
	case !seen:
		return nil, domain.DispatchError{Station: at, Err: domain.ErrNoCabinAtLocation}
	case anyFull:
		return nil, domain.DispatchError{Station: at, Err: domain.ErrCabinFull}
	default:
		return nil, domain.DispatchError{Station: at, Err: domain.ErrNoCabinAvailable}
	}
}

// RequestTrip boards the rider on the first available cabin parked at the
// station opposite the destination.
func (d *Dispatcher) RequestTrip(riderID domain.ID, destination domain.Station) (models.CabinState, error) {
	if !destination.Valid() {
		return models.CabinState{}, domain.ValidationError{Field: "destination", Msg: "must be base or summit"}
	}
	rider, err := d.riders.Find(riderID)
	if err != nil {
		return models.CabinState{}, err
	}
	origin := destination.Opposite()

	d.mu.Lock()
	defer d.mu.Unlock()
	cabin, err := d.findAvailable(origin)
	if err != nil {
		utils.LogEvent("", "dispatch", "request_trip", fmt.Sprintf("rider_id=%d origin=%s err=%v", riderID, origin, err))
		return models.CabinState{}, err
	}
	if err := cabin.AddPassenger(rider); err != nil {
		return models.CabinState{}, err
	}

	state := cabin.Snapshot()
	utils.LogEvent("", "dispatch", "request_trip", fmt.Sprintf("rider_id=%d cabin_id=%d origin=%s passengers=%d/%d",
		riderID, state.ID, origin, state.PassengerCount(), state.Capacity))
	return state, nil
}

// StartTrip sets the cabin moving and schedules its arrival after the travel
// duration.
func (d *Dispatcher) StartTrip(cabinID domain.ID) error {
	d.mu.Lock()
	cabin, ok := d.cabins[cabinID]
	if !ok {
		d.mu.Unlock()
		return domain.NotFoundError{Resource: "cabin", ID: cabinID}
	}
	if err := cabin.StartMovement(); err != nil {
		d.mu.Unlock()
		return err
	}
	state := cabin.Snapshot()
	tripID := uuid.NewString()
	// Departure is queued before the completion can fire so the journal
	// always sees it first.
	d.record(models.TripEvent{
		TripID:     tripID,
		CabinID:    cabinID,
		Kind:       models.TripDeparted,
		From:       state.Station,
		To:         state.Station.Opposite(),
		Passengers: state.PassengerCount(),
		At:         d.now(),
	})
	d.scheduler.Schedule(d.travelDuration, func() {
		d.completeTrip(cabin, tripID)
	})
	d.mu.Unlock()

	utils.LogEvent("", "dispatch", "start_trip", fmt.Sprintf("cabin_id=%d trip_id=%s from=%s passengers=%d",
		cabinID, tripID, state.Station, state.PassengerCount()))
	return nil
}

func (d *Dispatcher) completeTrip(cabin *models.Cabin, tripID string) {
	arrivedAt, err := cabin.Arrive()
	if err != nil {
		utils.LogEvent("", "dispatch", "complete_trip", fmt.Sprintf("cabin_id=%d trip_id=%s err=%v", cabin.ID(), tripID, err))
		return
	}
	count := cabin.PassengerCount()
	utils.LogEvent("", "dispatch", "complete_trip", fmt.Sprintf("cabin_id=%d trip_id=%s at=%s", cabin.ID(), tripID, arrivedAt))

	// A cabin removed mid-trip no longer owns its id, which may already
	// belong to a new cabin.
	d.mu.RLock()
	current := d.cabins[cabin.ID()] == cabin
	d.mu.RUnlock()
	if !current {
		utils.LogEvent("", "dispatch", "complete_trip", fmt.Sprintf("cabin_id=%d trip_id=%s removed, arrival not journaled", cabin.ID(), tripID))
		return
	}
	d.record(models.TripEvent{
		TripID:     tripID,
		CabinID:    cabin.ID(),
		Kind:       models.TripArrived,
		From:       arrivedAt.Opposite(),
		To:         arrivedAt,
		Passengers: count,
		At:         d.now(),
	})
}

// Disembark takes a rider off a stopped cabin.
func (d *Dispatcher) Disembark(cabinID, riderID domain.ID) (models.Rider, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cabin, ok := d.cabins[cabinID]
	if !ok {
		return models.Rider{}, domain.NotFoundError{Resource: "cabin", ID: cabinID}
	}
	if cabin.InMotion() {
		return models.Rider{}, domain.ConflictError{Resource: "cabin", Msg: "cannot disembark while moving", Err: domain.ErrAlreadyMoving}
	}
	rider, err := cabin.RemovePassenger(riderID)
	if err != nil {
		return models.Rider{}, err
	}
	utils.LogEvent("", "dispatch", "disembark", fmt.Sprintf("cabin_id=%d rider_id=%d", cabinID, riderID))
	return rider, nil
}

func (d *Dispatcher) record(ev models.TripEvent) {
	if d.journal == nil {
		return
	}
	d.journal.enqueue(ev)
}

func (d *Dispatcher) Cabin(id domain.ID) (models.CabinState, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	cabin, ok := d.cabins[id]
	if !ok {
		return models.CabinState{}, domain.NotFoundError{Resource: "cabin", ID: id}
	}
	return cabin.Snapshot(), nil
}

// Cabins returns snapshots in creation order.
func (d *Dispatcher) Cabins() []models.CabinState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.CabinState, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.cabins[id].Snapshot())
	}
	return out
}

func (d *Dispatcher) CabinCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.cabins)
}

func (d *Dispatcher) Riders() []models.Rider { return d.riders.List() }

func (d *Dispatcher) RiderCount() int { return d.riders.Len() }
