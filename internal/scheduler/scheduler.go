// Package scheduler runs one-shot deferred tasks. Callbacks execute through
// the same store serialization as request handling, so a deferred send
// never races an ordinary one.
package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type Scheduler struct {
	logger *zap.Logger

	mu     sync.Mutex
	timers []*time.Timer
	closed bool
}

func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

// Schedule fires fn once at t. A time at or before now fires immediately.
// There is no cancellation path: once scheduled, a task always fires
// (unless the whole scheduler shuts down first).
func (s *Scheduler) Schedule(at time.Time, fn func()) {
	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	timer := time.AfterFunc(delay, func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("scheduled task panicked", zap.Any("panic", r))
			}
		}()
		fn()
	})
	s.timers = append(s.timers, timer)
}

// Stop prevents any not-yet-fired task from running. Used on shutdown and
// in tests.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}
