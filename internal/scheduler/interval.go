// Package scheduler runs the sync cycle on a fixed wall-clock interval.
package scheduler

import (
	"context"
	"sync"
	"time"

	"predictbot/internal/logger"
)

// IntervalScheduler invokes a task every interval until its context is
// cancelled. The task itself is never interrupted mid-run: cancellation is
// only observed between runs, so an in-flight cycle always completes.
// The interval may be changed while running; the new value takes effect
// after the current wait.
type IntervalScheduler struct {
	Name         string
	InitialDelay time.Duration

	mu       sync.Mutex
	interval time.Duration

	ctx context.Context
}

func NewIntervalScheduler(ctx context.Context, name string, interval, initialDelay time.Duration) *IntervalScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &IntervalScheduler{
		Name:         name,
		InitialDelay: initialDelay,
		interval:     interval,
		ctx:          ctx,
	}
}

// SetInterval updates the run interval. Non-positive values are ignored.
func (s *IntervalScheduler) SetInterval(d time.Duration) {
	if s == nil || d <= 0 {
		return
	}
	s.mu.Lock()
	prev := s.interval
	s.interval = d
	s.mu.Unlock()
	if prev != d {
		logger.Infof("scheduler[%s]: interval %s -> %s", s.Name, prev, d)
	}
}

func (s *IntervalScheduler) currentInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Start blocks, running task on the schedule, and returns when the context is
// cancelled.
func (s *IntervalScheduler) Start(task func()) {
	if s == nil || task == nil {
		return
	}
	if s.currentInterval() <= 0 {
		logger.Warnf("scheduler[%s]: invalid interval=%s, exit", s.Name, s.currentInterval())
		return
	}
	if s.InitialDelay < 0 {
		s.InitialDelay = 0
	}

	logger.Infof("scheduler[%s]: started interval=%s initial_delay=%s", s.Name, s.currentInterval(), s.InitialDelay)
	if s.InitialDelay > 0 {
		if !s.wait(s.InitialDelay) {
			return
		}
	}

	for {
		task()
		if !s.wait(s.currentInterval()) {
			return
		}
	}
}

func (s *IntervalScheduler) wait(d time.Duration) bool {
	timer := time.NewTimer(d)
	select {
	case <-s.ctx.Done():
		timer.Stop()
		logger.Infof("scheduler[%s]: ctx done, exit", s.Name)
		return false
	case <-timer.C:
		return true
	}
}
