package services

import (
	"context"
	"fmt"
	"sync"

	"teleferico/internal/domain/models"
	"teleferico/internal/utils"
)

const journalQueueSize = 256

// journalQueue hands trip events to the recorder on a single worker, so
// dispatch calls never wait on storage and events keep their enqueue order.
type journalQueue struct {
	recorder TripRecorder

	mu     sync.Mutex
	closed bool
	events chan models.TripEvent
	done   chan struct{}
}

func newJournalQueue(rec TripRecorder) *journalQueue {
	q := &journalQueue{
		recorder: rec,
		events:   make(chan models.TripEvent, journalQueueSize),
		done:     make(chan struct{}),
	}
	go q.run()
	return q
}

// enqueue never blocks. A full queue drops the event with a log line.
func (q *journalQueue) enqueue(ev models.TripEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		utils.LogEvent("", "dispatch", "record_trip", fmt.Sprintf("trip_id=%s kind=%s err=journal closed", ev.TripID, ev.Kind))
		return
	}
	select {
	case q.events <- ev:
	default:
		utils.LogEvent("", "dispatch", "record_trip", fmt.Sprintf("trip_id=%s kind=%s err=journal queue full", ev.TripID, ev.Kind))
	}
}

func (q *journalQueue) run() {
	defer close(q.done)
	for ev := range q.events {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		if err := q.recorder.RecordTrip(ctx, ev); err != nil {
			utils.LogEvent("", "dispatch", "record_trip", fmt.Sprintf("trip_id=%s kind=%s err=%v", ev.TripID, ev.Kind, err))
		}
		cancel()
	}
}

// close stops accepting events and waits until the queued ones are written.
func (q *journalQueue) close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.events)
	}
	q.mu.Unlock()
	<-q.done
}
