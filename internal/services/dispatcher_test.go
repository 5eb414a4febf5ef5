package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"teleferico/internal/domain"
	"teleferico/internal/domain/models"
)

type manualTask struct {
	mu      sync.Mutex
	fn      func()
	delay   time.Duration
	done    bool
	stopped bool
}

func (t *manualTask) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// manualScheduler holds scheduled work until the test fires it.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

func (s *manualScheduler) Schedule(d time.Duration, fn func()) Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTask{fn: fn, delay: d}
	s.tasks = append(s.tasks, t)
	return t
}

func (s *manualScheduler) FireAll() int {
	s.mu.Lock()
	pending := s.tasks
	s.tasks = nil
	s.mu.Unlock()

	fired := 0
	for _, t := range pending {
		t.mu.Lock()
		run := !t.done && !t.stopped
		t.done = true
		t.mu.Unlock()
		if run {
			t.fn()
			fired++
		}
	}
	return fired
}

func (s *manualScheduler) Pending() []*manualTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*manualTask(nil), s.tasks...)
}

type memoryRecorder struct {
	mu     sync.Mutex
	events []models.TripEvent
	err    error
}

func (r *memoryRecorder) RecordTrip(_ context.Context, ev models.TripEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *memoryRecorder) Events() []models.TripEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.TripEvent(nil), r.events...)
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *manualScheduler, *memoryRecorder) {
	t.Helper()
	sched := &manualScheduler{}
	rec := &memoryRecorder{}
	d := NewDispatcher(DispatcherOptions{
		Scheduler:      sched,
		TravelDuration: 5 * time.Second,
		Recorder:       rec,
	})
	t.Cleanup(d.Close)
	return d, sched, rec
}

func mustCabin(t *testing.T, d *Dispatcher, id domain.ID, capacity int) {
	t.Helper()
	if _, err := d.CreateCabin(id, capacity); err != nil {
		t.Fatalf("create cabin %d: %v", id, err)
	}
}

func mustRider(t *testing.T, d *Dispatcher, id domain.ID, name string) {
	t.Helper()
	if _, err := d.RegisterRider(id, name, 30); err != nil {
		t.Fatalf("register rider %d: %v", id, err)
	}
}

func TestCreateCabinDuplicateID(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	st, err := d.CreateCabin(1, 8)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if st.ID != 1 || st.Capacity != 8 || st.Station != domain.StationBase || st.InMotion {
		t.Fatalf("unexpected cabin: %+v", st)
	}

	_, err = d.CreateCabin(1, 8)
	if !errors.Is(err, domain.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if d.CabinCount() != 1 {
		t.Fatalf("cabin count should stay 1, got %d", d.CabinCount())
	}
}

func TestCreateCabinRejectsNonPositiveCapacity(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	for _, capacity := range []int{0, -3} {
		if _, err := d.CreateCabin(1, capacity); !domain.IsValidation(err) {
			t.Fatalf("capacity %d: expected validation error, got %v", capacity, err)
		}
	}
	if d.CabinCount() != 0 {
		t.Fatalf("no cabin should be created")
	}
}

func TestRegisterAndFindRider(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	if _, err := d.RegisterRider(1, "Juan", 25); err != nil {
		t.Fatalf("register: %v", err)
	}
	r, err := d.FindRider(1)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if r.Name != "Juan" || r.Age != 25 {
		t.Fatalf("unexpected rider: %+v", r)
	}
	if d.RiderCount() != 1 {
		t.Fatalf("rider count: got %d", d.RiderCount())
	}

	if _, err := d.RegisterRider(1, "Otro", 40); !errors.Is(err, domain.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if _, err := d.FindRider(99); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRequestTripBoardsAtOppositeStation(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	mustCabin(t, d, 1, 8)
	mustRider(t, d, 1, "Juan")

	st, err := d.RequestTrip(1, domain.StationSummit)
	if err != nil {
		t.Fatalf("request trip: %v", err)
	}
	if st.ID != 1 || st.PassengerCount() != 1 || st.Passengers[0].Name != "Juan" {
		t.Fatalf("unexpected cabin after boarding: %+v", st)
	}
	if st.Station != domain.StationBase {
		t.Fatalf("cabin should still be at base, got %s", st.Station)
	}

	_, err = d.RequestTrip(1, domain.StationBase)
	if !errors.Is(err, domain.ErrNoCabinAtLocation) {
		t.Fatalf("no cabin at summit: expected ErrNoCabinAtLocation, got %v", err)
	}
}

func TestRequestTripUnknownRider(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	mustCabin(t, d, 1, 8)

	_, err := d.RequestTrip(42, domain.StationSummit)
	if !errors.Is(err, domain.ErrNotFound) || !domain.IsNotFound(err) {
		t.Fatalf("expected rider not found, got %v", err)
	}
	st, _ := d.Cabin(1)
	if st.PassengerCount() != 0 {
		t.Fatalf("failed request must not board anyone")
	}
}

func TestRequestTripFailsWhenCabinFull(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	mustCabin(t, d, 1, 2)
	mustRider(t, d, 1, "Juan")
	mustRider(t, d, 2, "Ana")
	mustRider(t, d, 3, "Pedro")

	for _, id := range []domain.ID{1, 2} {
		if _, err := d.RequestTrip(id, domain.StationSummit); err != nil {
			t.Fatalf("rider %d: %v", id, err)
		}
	}
	_, err := d.RequestTrip(3, domain.StationSummit)
	if !errors.Is(err, domain.ErrCabinFull) {
		t.Fatalf("expected ErrCabinFull, got %v", err)
	}
	if !domain.IsDispatch(err) {
		t.Fatalf("expected DispatchError, got %T", err)
	}
	st, _ := d.Cabin(1)
	if st.PassengerCount() != 2 {
		t.Fatalf("cabin should hold exactly capacity, got %d", st.PassengerCount())
	}
}

func TestFindAvailableCabinPicksFirstInCreationOrder(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	mustCabin(t, d, 3, 1)
	mustCabin(t, d, 1, 4)
	mustCabin(t, d, 2, 4)
	mustRider(t, d, 10, "A")

	if _, err := d.RequestTrip(10, domain.StationSummit); err != nil {
		t.Fatalf("request: %v", err)
	}

	st, err := d.FindAvailableCabin(domain.StationBase)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if st.ID != 1 {
		t.Fatalf("expected cabin 1 (first available after full cabin 3), got %d", st.ID)
	}
}

func TestFindAvailableCabinErrorClassification(t *testing.T) {
	t.Run("no cabin at location", func(t *testing.T) {
		d, _, _ := newTestDispatcher(t)
		mustCabin(t, d, 1, 2)
		_, err := d.FindAvailableCabin(domain.StationSummit)
		if !errors.Is(err, domain.ErrNoCabinAtLocation) {
			t.Fatalf("expected ErrNoCabinAtLocation, got %v", err)
		}
	})

	t.Run("full beats moving", func(t *testing.T) {
		d, _, _ := newTestDispatcher(t)
		mustCabin(t, d, 1, 1)
		mustCabin(t, d, 2, 4)
		mustRider(t, d, 1, "A")
		if _, err := d.RequestTrip(1, domain.StationSummit); err != nil {
			t.Fatalf("request: %v", err)
		}
		if err := d.StartTrip(2); err != nil {
			t.Fatalf("start: %v", err)
		}
		_, err := d.FindAvailableCabin(domain.StationBase)
		if !errors.Is(err, domain.ErrCabinFull) {
			t.Fatalf("expected ErrCabinFull, got %v", err)
		}
	})

	t.Run("all moving", func(t *testing.T) {
		d, _, _ := newTestDispatcher(t)
		mustCabin(t, d, 1, 2)
		mustCabin(t, d, 2, 2)
		_ = d.StartTrip(1)
		_ = d.StartTrip(2)
		_, err := d.FindAvailableCabin(domain.StationBase)
		if !errors.Is(err, domain.ErrNoCabinAvailable) {
			t.Fatalf("expected ErrNoCabinAvailable, got %v", err)
		}
	})

	t.Run("invalid station", func(t *testing.T) {
		d, _, _ := newTestDispatcher(t)
		if _, err := d.FindAvailableCabin(domain.Station("valley")); !domain.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestStartTripLifecycle(t *testing.T) {
	d, sched, rec := newTestDispatcher(t)
	mustCabin(t, d, 1, 4)
	mustRider(t, d, 1, "Juan")
	if _, err := d.RequestTrip(1, domain.StationSummit); err != nil {
		t.Fatalf("request: %v", err)
	}

	if err := d.StartTrip(1); err != nil {
		t.Fatalf("start: %v", err)
	}
	st, _ := d.Cabin(1)
	if !st.InMotion || st.Station != domain.StationBase {
		t.Fatalf("expected moving from base, got %+v", st)
	}
	pending := sched.Pending()
	if len(pending) != 1 || pending[0].delay != 5*time.Second {
		t.Fatalf("expected one completion scheduled after 5s, got %d", len(pending))
	}

	if err := d.StartTrip(1); !errors.Is(err, domain.ErrAlreadyMoving) {
		t.Fatalf("second start: expected ErrAlreadyMoving, got %v", err)
	}
	if len(sched.Pending()) != 1 {
		t.Fatalf("failed start must not schedule another completion")
	}

	if n := sched.FireAll(); n != 1 {
		t.Fatalf("expected 1 completion fired, got %d", n)
	}
	st, _ = d.Cabin(1)
	if st.InMotion || st.Station != domain.StationSummit {
		t.Fatalf("expected stopped at summit, got %+v", st)
	}
	if st.PassengerCount() != 1 {
		t.Fatalf("passengers stay on board until they disembark")
	}

	d.Close()
	events := rec.Events()
	if len(events) != 2 {
		t.Fatalf("expected departure and arrival events, got %d", len(events))
	}
	dep, arr := events[0], events[1]
	if dep.Kind != models.TripDeparted || arr.Kind != models.TripArrived {
		t.Fatalf("unexpected kinds: %s, %s", dep.Kind, arr.Kind)
	}
	if dep.TripID == "" || dep.TripID != arr.TripID {
		t.Fatalf("departure and arrival should share trip id: %q vs %q", dep.TripID, arr.TripID)
	}
	if dep.From != domain.StationBase || dep.To != domain.StationSummit || arr.To != domain.StationSummit {
		t.Fatalf("unexpected route: dep=%+v arr=%+v", dep, arr)
	}
	if dep.Passengers != 1 {
		t.Fatalf("departure passenger count: got %d", dep.Passengers)
	}
}

func TestStartTripUnknownCabin(t *testing.T) {
	d, sched, _ := newTestDispatcher(t)
	if err := d.StartTrip(9); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(sched.Pending()) != 0 {
		t.Fatalf("nothing should be scheduled")
	}
}

func TestRoundTripReturnsToBase(t *testing.T) {
	d, sched, _ := newTestDispatcher(t)
	mustCabin(t, d, 1, 4)
	mustRider(t, d, 1, "Juan")

	_ = d.StartTrip(1)
	sched.FireAll()
	if _, err := d.RequestTrip(1, domain.StationBase); err != nil {
		t.Fatalf("cabin at summit should serve a trip to base: %v", err)
	}
	_ = d.StartTrip(1)
	sched.FireAll()

	st, _ := d.Cabin(1)
	if st.Station != domain.StationBase || st.InMotion {
		t.Fatalf("expected stopped at base, got %+v", st)
	}
}

func TestRecorderFailureDoesNotFailTrip(t *testing.T) {
	d, sched, rec := newTestDispatcher(t)
	rec.err = errors.New("db down")
	mustCabin(t, d, 1, 4)

	if err := d.StartTrip(1); err != nil {
		t.Fatalf("start should ignore recorder errors: %v", err)
	}
	sched.FireAll()
	st, _ := d.Cabin(1)
	if st.Station != domain.StationSummit {
		t.Fatalf("trip should complete despite recorder error")
	}
}

// gatedRecorder blocks every write until open is closed or the write times out.
type gatedRecorder struct {
	memoryRecorder
	open chan struct{}
}

func (r *gatedRecorder) RecordTrip(ctx context.Context, ev models.TripEvent) error {
	select {
	case <-r.open:
	case <-ctx.Done():
		return ctx.Err()
	}
	return r.memoryRecorder.RecordTrip(ctx, ev)
}

func TestStartTripDoesNotWaitForRecorder(t *testing.T) {
	sched := &manualScheduler{}
	rec := &gatedRecorder{open: make(chan struct{})}
	d := NewDispatcher(DispatcherOptions{Scheduler: sched, Recorder: rec})
	mustCabin(t, d, 1, 4)

	start := time.Now()
	if err := d.StartTrip(1); err != nil {
		t.Fatalf("start: %v", err)
	}
	sched.FireAll()
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("StartTrip and completion waited on the recorder: %s", elapsed)
	}
	if n := len(rec.Events()); n != 0 {
		t.Fatalf("nothing should be written while the recorder is blocked, got %d", n)
	}

	close(rec.open)
	d.Close()
	events := rec.Events()
	if len(events) != 2 || events[0].Kind != models.TripDeparted || events[1].Kind != models.TripArrived {
		t.Fatalf("expected departure then arrival, got %+v", events)
	}
}

func TestJournalKeepsOrderAcrossTrips(t *testing.T) {
	d, sched, rec := newTestDispatcher(t)
	mustCabin(t, d, 1, 4)
	mustCabin(t, d, 2, 4)

	for i := 0; i < 3; i++ {
		_ = d.StartTrip(1)
		_ = d.StartTrip(2)
		sched.FireAll()
	}
	d.Close()

	departed := map[string]bool{}
	for _, ev := range rec.Events() {
		switch ev.Kind {
		case models.TripDeparted:
			departed[ev.TripID] = true
		case models.TripArrived:
			if !departed[ev.TripID] {
				t.Fatalf("arrival of trip %s recorded before its departure", ev.TripID)
			}
		}
	}
	if len(rec.Events()) != 12 {
		t.Fatalf("expected 12 events, got %d", len(rec.Events()))
	}
}

func TestRemovedMovingCabinArrivalNotJournaled(t *testing.T) {
	d, sched, rec := newTestDispatcher(t)
	mustCabin(t, d, 1, 4)
	if err := d.StartTrip(1); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := d.RemoveCabin(1); err != nil {
		t.Fatalf("remove empty moving cabin: %v", err)
	}
	mustCabin(t, d, 1, 2)

	sched.FireAll()
	st, _ := d.Cabin(1)
	if st.InMotion || st.Station != domain.StationBase || st.Capacity != 2 {
		t.Fatalf("old completion touched the new cabin: %+v", st)
	}

	d.Close()
	events := rec.Events()
	if len(events) != 1 || events[0].Kind != models.TripDeparted {
		t.Fatalf("expected only the departure, got %+v", events)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	mustCabin(t, d, 1, 4)
	d.Close()
	d.Close()
	if err := d.StartTrip(1); err != nil {
		t.Fatalf("dispatch keeps working after the journal is closed: %v", err)
	}
}

func TestRemoveCabin(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	mustCabin(t, d, 1, 4)
	mustCabin(t, d, 2, 4)
	mustRider(t, d, 1, "Juan")

	if err := d.RemoveCabin(5); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := d.RequestTrip(1, domain.StationSummit); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := d.RemoveCabin(1); !errors.Is(err, domain.ErrNotEmpty) {
		t.Fatalf("expected ErrNotEmpty, got %v", err)
	}

	if _, err := d.Disembark(1, 1); err != nil {
		t.Fatalf("disembark: %v", err)
	}
	if err := d.RemoveCabin(1); err != nil {
		t.Fatalf("remove empty cabin: %v", err)
	}
	if d.CabinCount() != 1 {
		t.Fatalf("expected 1 cabin left, got %d", d.CabinCount())
	}
	cabins := d.Cabins()
	if len(cabins) != 1 || cabins[0].ID != 2 {
		t.Fatalf("iteration order should drop removed cabin: %+v", cabins)
	}
}

func TestDisembark(t *testing.T) {
	d, sched, _ := newTestDispatcher(t)
	mustCabin(t, d, 1, 4)
	mustRider(t, d, 1, "Juan")
	_, _ = d.RequestTrip(1, domain.StationSummit)

	if _, err := d.Disembark(2, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown cabin: expected ErrNotFound, got %v", err)
	}
	if _, err := d.Disembark(1, 7); !errors.Is(err, domain.ErrPassengerNotFound) {
		t.Fatalf("unknown passenger: expected ErrPassengerNotFound, got %v", err)
	}

	_ = d.StartTrip(1)
	if _, err := d.Disembark(1, 1); !errors.Is(err, domain.ErrAlreadyMoving) {
		t.Fatalf("moving cabin: expected ErrAlreadyMoving, got %v", err)
	}
	sched.FireAll()

	r, err := d.Disembark(1, 1)
	if err != nil {
		t.Fatalf("disembark at summit: %v", err)
	}
	if r.ID != 1 {
		t.Fatalf("wrong rider: %+v", r)
	}
}

func TestConcurrentRequestsRespectCapacity(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	mustCabin(t, d, 1, 3)
	mustCabin(t, d, 2, 2)
	for i := 1; i <= 20; i++ {
		mustRider(t, d, domain.ID(i), "r")
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		full int
	)
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(id domain.ID) {
			defer wg.Done()
			_, err := d.RequestTrip(id, domain.StationSummit)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrCabinFull):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(domain.ID(i))
	}
	wg.Wait()

	if ok != 5 || full != 15 {
		t.Fatalf("expected 5 boarded and 15 rejected, got %d/%d", ok, full)
	}
	for _, st := range d.Cabins() {
		if st.PassengerCount() > st.Capacity {
			t.Fatalf("cabin %d over capacity: %d/%d", st.ID, st.PassengerCount(), st.Capacity)
		}
	}
}

func TestNewDispatcherDefaults(t *testing.T) {
	d := NewDispatcher(DispatcherOptions{})
	if d.TravelDuration() != DefaultTravelDuration {
		t.Fatalf("default travel duration: got %s", d.TravelDuration())
	}
	if _, ok := d.scheduler.(TimerScheduler); !ok {
		t.Fatalf("default scheduler should be TimerScheduler, got %T", d.scheduler)
	}
}
