// Package scheduler implements the Per-Host Scheduler (C5): a registry of
// per-host semaphores plus a global worker-pool limit, and the shared
// run deadline every lane consults before starting new work.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrSkipDeadline marks a task that was skipped because the run deadline
// left less than the caller's minimum remaining threshold.
var ErrSkipDeadline = errors.New("skip reason=deadline")

// Deadline is a shared, read-mostly wall-clock budget. Spec.md's
// cooperative-cancellation design note: lanes and workers check this at
// task entry rather than forcing in-flight network calls to abort.
type Deadline struct {
	at time.Time
}

// NewDeadline returns a Deadline expiring after d from now.
func NewDeadline(d time.Duration) *Deadline {
	return &Deadline{at: time.Now().Add(d)}
}

// TimeLeft returns the remaining budget; negative once expired.
func (d *Deadline) TimeLeft() time.Duration {
	return time.Until(d.at)
}

// Expired reports whether less than threshold remains.
func (d *Deadline) Expired(threshold time.Duration) bool {
	return d.TimeLeft() < threshold
}

// Scheduler gates fetch dispatch behind a global worker-pool semaphore and
// a lazily-constructed per-host semaphore, per spec.md §4.3/§5.
type Scheduler struct {
	mu           sync.Mutex
	hostSems     map[string]*semaphore.Weighted
	hostLimiters map[string]*rate.Limiter
	perHostLimit int64
	hostRPS      rate.Limit
	hostBurst    int
	global       *semaphore.Weighted
}

// New builds a Scheduler with the given global worker-pool size and
// per-host concurrency cap. Per-host request pacing defaults to 1 req/s
// with a burst of 1, smoothing bursts within the concurrency cap rather
// than just bounding them, in the idiom of a sliding-window limiter keyed
// per host instead of per client IP.
func New(parallelWorkers, perHostLimit int) *Scheduler {
	if parallelWorkers < 1 {
		parallelWorkers = 1
	}
	if perHostLimit < 1 {
		perHostLimit = 1
	}
	return &Scheduler{
		hostSems:     make(map[string]*semaphore.Weighted),
		hostLimiters: make(map[string]*rate.Limiter),
		perHostLimit: int64(perHostLimit),
		hostRPS:      rate.Limit(1),
		hostBurst:    1,
		global:       semaphore.NewWeighted(int64(parallelWorkers)),
	}
}

// WithHostRate overrides the default per-host pacing.
func (s *Scheduler) WithHostRate(rps float64, burst int) *Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hostRPS = rate.Limit(rps)
	s.hostBurst = burst
	s.hostLimiters = make(map[string]*rate.Limiter)
	return s
}

func (s *Scheduler) hostSemaphore(host string) *semaphore.Weighted {
	s.mu.Lock()
	defer s.mu.Unlock()
	sem, ok := s.hostSems[host]
	if !ok {
		sem = semaphore.NewWeighted(s.perHostLimit)
		s.hostSems[host] = sem
	}
	return sem
}

func (s *Scheduler) hostLimiter(host string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	lim, ok := s.hostLimiters[host]
	if !ok {
		lim = rate.NewLimiter(s.hostRPS, s.hostBurst)
		s.hostLimiters[host] = lim
	}
	return lim
}

// Run acquires the global and per-host tokens for host, waits out the
// host's pacing limiter, re-checks the deadline once held, then executes
// task. The deadline is also checked before acquiring so a task that will
// be skipped never occupies a slot.
func (s *Scheduler) Run(ctx context.Context, host string, deadline *Deadline, minRemaining time.Duration, task func(ctx context.Context) error) error {
	if deadline != nil && deadline.Expired(minRemaining) {
		return ErrSkipDeadline
	}

	if err := s.global.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.global.Release(1)

	hostSem := s.hostSemaphore(host)
	if err := hostSem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer hostSem.Release(1)

	if err := s.hostLimiter(host).Wait(ctx); err != nil {
		return err
	}

	if deadline != nil && deadline.Expired(minRemaining) {
		return ErrSkipDeadline
	}

	return task(ctx)
}
