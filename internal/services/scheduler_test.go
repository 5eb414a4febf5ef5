package services

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerSchedulerRunsOnceAfterDelay(t *testing.T) {
	var calls atomic.Int32
	done := make(chan time.Time, 1)
	start := time.Now()

	TimerScheduler{}.Schedule(20*time.Millisecond, func() {
		calls.Add(1)
		done <- time.Now()
	})

	select {
	case at := <-done:
		if at.Sub(start) < 20*time.Millisecond {
			t.Fatalf("fired too early: %s", at.Sub(start))
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("scheduled work never ran")
	}

	time.Sleep(30 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected exactly one run, got %d", n)
	}
}

func TestTimerSchedulerStop(t *testing.T) {
	var calls atomic.Int32
	task := TimerScheduler{}.Schedule(50*time.Millisecond, func() { calls.Add(1) })
	if !task.Stop() {
		t.Fatalf("Stop should prevent a pending run")
	}
	time.Sleep(80 * time.Millisecond)
	if calls.Load() != 0 {
		t.Fatalf("stopped task ran")
	}
}

func TestDispatcherWithTimerScheduler(t *testing.T) {
	d := NewDispatcher(DispatcherOptions{TravelDuration: 10 * time.Millisecond})
	if _, err := d.CreateCabin(1, 2); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := d.StartTrip(1); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st, _ := d.Cabin(1)
		if !st.InMotion {
			if st.Station != "summit" {
				t.Fatalf("expected summit after arrival, got %s", st.Station)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("cabin never arrived")
}
