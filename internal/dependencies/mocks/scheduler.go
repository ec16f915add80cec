package mocks

import (
	"time"

	"github.com/averykip/invadersync/internal/dependencies/scheduler"
)

// ScheduledTask is one deferred function captured by MockScheduler
type ScheduledTask struct {
	Delay time.Duration
	Fn    func()
}

// MockScheduler captures scheduled functions instead of running them,
// letting tests fire deferred actions deterministically
type MockScheduler struct {
	Tasks []ScheduledTask
}

// Ensure MockScheduler implements Scheduler
var _ scheduler.Scheduler = (*MockScheduler)(nil)

// NewMockScheduler creates a new MockScheduler
func NewMockScheduler() *MockScheduler {
	return &MockScheduler{}
}

// AfterFunc records the task without running it
func (s *MockScheduler) AfterFunc(d time.Duration, f func()) {
	s.Tasks = append(s.Tasks, ScheduledTask{Delay: d, Fn: f})
}

// FireAll runs every pending task in schedule order and clears the queue.
// Tasks scheduled by running tasks are run as well.
func (s *MockScheduler) FireAll() {
	for len(s.Tasks) > 0 {
		task := s.Tasks[0]
		s.Tasks = s.Tasks[1:]
		task.Fn()
	}
}

// FireNext runs the earliest pending task, if any
func (s *MockScheduler) FireNext() bool {
	if len(s.Tasks) == 0 {
		return false
	}
	task := s.Tasks[0]
	s.Tasks = s.Tasks[1:]
	task.Fn()
	return true
}

// Pending returns the number of captured tasks
func (s *MockScheduler) Pending() int {
	return len(s.Tasks)
}
