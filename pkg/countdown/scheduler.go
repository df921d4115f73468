package countdown

import (
	"errors"
	"sync"
	"time"
)

// DefaultInterval is the time between ticks.
const DefaultInterval = time.Second

// Scheduler errors.
var ErrInvalidTicks = errors.New("countdown needs at least one tick")

// Tick is delivered once per elapsed interval.
type Tick struct {
	// ID is the id passed to Start.
	ID uint64

	// Remaining is the number of ticks still to come after this one.
	Remaining int

	// At is when the tick fired.
	At time.Time
}

// Last reports whether this is the final tick of the countdown.
func (t Tick) Last() bool {
	return t.Remaining == 0
}

// Scheduler runs at most one countdown at a time.
type Scheduler struct {
	mu sync.Mutex

	interval time.Duration

	// gen increments on every Start and Stop; timers carry the generation
	// they were armed for.
	gen       uint64
	timer     *time.Timer
	running   bool
	id        uint64
	remaining int
	fn        func(Tick)
}

// New creates a Scheduler ticking every interval. A non-positive interval
// selects DefaultInterval.
func New(interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{interval: interval}
}

// Interval returns the tick interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Start begins a countdown of ticks intervals. Any running countdown is
// replaced without delivering further ticks.
func (s *Scheduler) Start(id uint64, ticks int, fn func(Tick)) error {
	if ticks <= 0 {
		return ErrInvalidTicks
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.gen++
	s.running = true
	s.id = id
	s.remaining = ticks
	s.fn = fn
	s.armLocked(s.gen)
	return nil
}

// Stop cancels the running countdown. It returns false if none was running.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasRunning := s.running
	s.stopLocked()
	s.gen++
	return wasRunning
}

// Running reports whether a countdown is in progress.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Remaining returns the ticks left in the running countdown.
func (s *Scheduler) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return 0
	}
	return s.remaining
}

func (s *Scheduler) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.running = false
	s.remaining = 0
	s.fn = nil
}

func (s *Scheduler) armLocked(gen uint64) {
	s.timer = time.AfterFunc(s.interval, func() {
		s.fire(gen)
	})
}

// fire delivers one tick for generation gen.
func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.running {
		s.mu.Unlock()
		return
	}

	s.remaining--
	tick := Tick{ID: s.id, Remaining: s.remaining, At: time.Now()}
	fn := s.fn
	if s.remaining == 0 {
		s.running = false
		s.timer = nil
		s.fn = nil
	}
	s.mu.Unlock()

	if fn != nil {
		fn(tick)
	}

	if tick.Last() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.gen && s.running {
		s.armLocked(gen)
	}
}
