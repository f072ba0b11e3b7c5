// Package schedule models countdowns as explicit state machines instead of
// goroutines with sleeps. A Timer moves Idle → Running → Expired, or
// Running → Stopped when stopped early. Expiry is observed lazily against
// an injected Clock, so nothing fires in the background and tests control
// time directly.
package schedule

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotRunning is returned by Stop when there is no running timer.
	ErrNotRunning = errors.New("schedule: timer is not running")
	// ErrRunning is returned by StartIfIdle when the timer is already running.
	ErrRunning = errors.New("schedule: timer is already running")
)

// ExpiredRetention is how long Sweep keeps an expired timer, so a late Stop
// still sees it and reports the capped duration.
const ExpiredRetention = 24 * time.Hour

type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type State int

const (
	Idle State = iota
	Running
	Expired
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Expired:
		return "expired"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Timer is a single countdown. The zero value is not usable; build one
// with NewTimer.
type Timer struct {
	mu       sync.Mutex
	clock    Clock
	state    State
	started  time.Time
	deadline time.Time
	stopped  time.Time
}

func NewTimer(clock Clock) *Timer {
	return &Timer{clock: clock}
}

// Start (re)arms the timer to expire d from now, whatever its state.
func (t *Timer) Start(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.arm(t.clock.Now(), d)
}

// StartIfIdle arms the timer unless it is running. The check and the start
// happen under one lock.
func (t *Timer) StartIfIdle(d time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	if t.observe(now) == Running {
		return ErrRunning
	}
	t.arm(now, d)
	return nil
}

// arm is Start without locking. Callers hold mu.
func (t *Timer) arm(now time.Time, d time.Duration) {
	t.state = Running
	t.started = now
	t.deadline = now.Add(d)
	t.stopped = time.Time{}
}

// Stop halts a running timer and returns how long it ran. A timer that has
// already expired reports its full duration and is not an error.
func (t *Timer) Stop() (time.Duration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	switch t.observe(now) {
	case Running:
		t.state = Stopped
		t.stopped = now
		return now.Sub(t.started), nil
	case Expired:
		t.state = Stopped
		t.stopped = t.deadline
		return t.deadline.Sub(t.started), nil
	default:
		return 0, ErrNotRunning
	}
}

func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.observe(t.clock.Now())
}

// Remaining is zero unless the timer is running.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	if t.observe(now) != Running {
		return 0
	}
	return t.deadline.Sub(now)
}

// Deadline is when the current or last countdown ends.
func (t *Timer) Deadline() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deadline
}

// observe applies the Running → Expired transition. Callers hold mu.
func (t *Timer) observe(now time.Time) State {
	if t.state == Running && !now.Before(t.deadline) {
		t.state = Expired
	}
	return t.state
}

// Scheduler owns one Timer per key (for example "session:<user>").
// Finished timers are dropped by Sweep, so keys never accumulate. All
// operations take the scheduler lock, so a sweep never removes a timer
// between lookup and use.
type Scheduler struct {
	clock  Clock
	mu     sync.Mutex
	timers map[string]*Timer
}

func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{clock: clock, timers: make(map[string]*Timer)}
}

// timer returns the timer for key, creating an Idle one. Callers hold mu.
func (s *Scheduler) timer(key string) *Timer {
	t, ok := s.timers[key]
	if !ok {
		t = NewTimer(s.clock)
		s.timers[key] = t
	}
	return t
}

// Start (re)arms key's timer for d and returns its deadline.
func (s *Scheduler) Start(key string, d time.Duration) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.timer(key)
	t.Start(d)
	return t.Deadline()
}

// StartIfIdle arms key's timer for d, or returns ErrRunning if it is
// already running.
func (s *Scheduler) StartIfIdle(key string, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer(key).StartIfIdle(d)
}

// Stop stops key's timer; see Timer.Stop.
func (s *Scheduler) Stop(key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.timers[key]
	if !ok {
		return 0, ErrNotRunning
	}
	return t.Stop()
}

// State reports key's state without creating a timer.
func (s *Scheduler) State(key string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.timers[key]
	if !ok {
		return Idle
	}
	return t.State()
}

// Sweep forgets idle and stopped timers, and expired ones whose deadline
// is more than ExpiredRetention ago. It returns how many were removed.
func (s *Scheduler) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	removed := 0
	for key, t := range s.timers {
		switch t.State() {
		case Running:
			continue
		case Expired:
			if now.Sub(t.Deadline()) <= ExpiredRetention {
				continue
			}
		}
		delete(s.timers, key)
		removed++
	}
	return removed
}

// Run calls Sweep every interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
