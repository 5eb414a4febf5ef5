package services

import "time"

// Task is a handle on deferred work. Stop reports whether the call prevented
// the work from running.
type Task interface {
	Stop() bool
}

// Scheduler runs fn once, no earlier than d after Schedule returns.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) Task
}

// TimerScheduler runs deferred work on the runtime timer.
type TimerScheduler struct{}

func (TimerScheduler) Schedule(d time.Duration, fn func()) Task {
	return time.AfterFunc(d, fn)
}
