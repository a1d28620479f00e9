package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is one unit of periodic work. Jobs receive the scheduler's run
// context and must return when it is cancelled.
type Job func(ctx context.Context)

// Scheduler fires every registered job on a fixed interval while
// enabled. Disabling suspends firing without stopping the loop;
// re-enabling restarts a full countdown, it never fires immediately.
type Scheduler struct {
	mu      sync.Mutex
	jobs    map[string]Job
	order   []string
	enabled bool

	interval time.Duration
	reset    chan struct{}
	logger   *slog.Logger
}

func New(interval time.Duration, enabled bool, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		jobs:     make(map[string]Job),
		enabled:  enabled,
		interval: interval,
		reset:    make(chan struct{}, 1),
		logger:   logger,
	}
}

// Register adds a job under id, replacing any previous job with the
// same id without changing its position in the firing order.
func (s *Scheduler) Register(id string, job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[id]; !exists {
		s.order = append(s.order, id)
	}
	s.jobs[id] = job
}

// Unregister removes a job. Removing an unknown id is a no-op, so
// teardown paths may call it unconditionally.
func (s *Scheduler) Unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[id]; !exists {
		return
	}
	delete(s.jobs, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetEnabled toggles firing. Turning the scheduler on restarts the
// countdown from zero; toggling to the current state changes nothing.
func (s *Scheduler) SetEnabled(enabled bool) {
	s.mu.Lock()
	changed := s.enabled != enabled
	s.enabled = enabled
	s.mu.Unlock()

	if changed && enabled {
		s.requestReset()
	}
	if changed {
		s.logger.Info("auto refresh toggled", "enabled", enabled)
	}
}

// Kick restarts the countdown without firing, for callers that just
// refreshed manually and do not need another cycle soon.
func (s *Scheduler) Kick() {
	s.requestReset()
}

func (s *Scheduler) requestReset() {
	select {
	case s.reset <- struct{}{}:
	default:
	}
}

// Run drives the firing loop until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	s.logger.Info("scheduler started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-s.reset:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.interval)
		case <-timer.C:
			s.fire(ctx)
			timer.Reset(s.interval)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	s.mu.Lock()
	if !s.enabled {
		s.mu.Unlock()
		return
	}
	ids := append([]string(nil), s.order...)
	jobs := make([]Job, 0, len(ids))
	for _, id := range ids {
		jobs = append(jobs, s.jobs[id])
	}
	s.mu.Unlock()

	for i, job := range jobs {
		s.logger.Debug("running scheduled job", "job", ids[i])
		job(ctx)
	}
}
