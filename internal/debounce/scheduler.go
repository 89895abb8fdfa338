// Package debounce collapses bursts of trigger calls into a single
// trailing-edge invocation after a quiet interval.
package debounce

import (
	"sync"
	"time"
)

// DefaultInterval is the quiet period used for live tokenization.
const DefaultInterval = 500 * time.Millisecond

// Scheduler runs at most one pending trigger, Interval after the most
// recent Schedule call.
type Scheduler struct {
	mu       sync.Mutex
	clock    Clock
	interval time.Duration
	pending  Timer
	seq      uint64
}

// New creates a Scheduler. A nil clock uses RealClock.
func New(interval time.Duration, clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock{}
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		clock:    clock,
		interval: interval,
	}
}

// Interval returns the quiet period.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Schedule cancels any pending trigger and schedules trigger to run after
// the quiet interval.
func (s *Scheduler) Schedule(trigger func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.seq++
	seq := s.seq
	s.pending = s.clock.AfterFunc(s.interval, func() {
		s.mu.Lock()
		// A timer that lost the race with Stop must not fire.
		if seq != s.seq || s.pending == nil {
			s.mu.Unlock()
			return
		}
		s.pending = nil
		s.mu.Unlock()

		trigger()
	})
}

// Immediate cancels any pending trigger and runs trigger now on the
// calling goroutine.
func (s *Scheduler) Immediate(trigger func()) {
	s.CancelPending()
	trigger()
}

// CancelPending drops the pending trigger. It reports whether one was pending.
func (s *Scheduler) CancelPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

// Pending reports whether a trigger is scheduled.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

func (s *Scheduler) stopLocked() bool {
	if s.pending == nil {
		return false
	}
	s.pending.Stop()
	s.pending = nil
	s.seq++
	return true
}
