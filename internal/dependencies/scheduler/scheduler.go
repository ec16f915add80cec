package scheduler

import "time"

// Scheduler provides deferred execution that can be mocked for testing.
// Scheduled functions run on their own goroutine and are not cancellable;
// callbacks must re-validate any shared state they touch.
type Scheduler interface {
	// AfterFunc runs f after d has elapsed
	AfterFunc(d time.Duration, f func())
}

// RealScheduler implements Scheduler using time.AfterFunc
type RealScheduler struct{}

// New creates a new RealScheduler
func New() *RealScheduler {
	return &RealScheduler{}
}

// AfterFunc runs f on its own goroutine after d has elapsed
func (s *RealScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}
