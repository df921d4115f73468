package countdown

import (
	"sync"
	"testing"
	"time"
)

type tickRecorder struct {
	mu    sync.Mutex
	ticks []Tick
	done  chan struct{}
}

func newTickRecorder() *tickRecorder {
	return &tickRecorder{done: make(chan struct{}, 1)}
}

func (r *tickRecorder) record(t Tick) {
	r.mu.Lock()
	r.ticks = append(r.ticks, t)
	r.mu.Unlock()
	if t.Last() {
		r.done <- struct{}{}
	}
}

func (r *tickRecorder) snapshot() []Tick {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Tick(nil), r.ticks...)
}

func TestSchedulerDefaults(t *testing.T) {
	s := New(0)
	if s.Interval() != DefaultInterval {
		t.Errorf("Interval() = %v, want %v", s.Interval(), DefaultInterval)
	}
	if s.Running() {
		t.Error("Running() = true before Start")
	}
	if s.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", s.Remaining())
	}
}

func TestSchedulerEmitsTicks(t *testing.T) {
	s := New(5 * time.Millisecond)
	rec := newTickRecorder()

	if err := s.Start(7, 3, rec.record); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !s.Running() {
		t.Error("Running() = false after Start")
	}

	select {
	case <-rec.done:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for countdown to finish")
	}

	ticks := rec.snapshot()
	if len(ticks) != 3 {
		t.Fatalf("got %d ticks, want 3", len(ticks))
	}
	for i, tick := range ticks {
		if tick.ID != 7 {
			t.Errorf("tick %d ID = %d, want 7", i, tick.ID)
		}
		if want := 2 - i; tick.Remaining != want {
			t.Errorf("tick %d Remaining = %d, want %d", i, tick.Remaining, want)
		}
	}
	if s.Running() {
		t.Error("Running() = true after last tick")
	}
}

func TestSchedulerStopDropsPendingTicks(t *testing.T) {
	s := New(20 * time.Millisecond)
	rec := newTickRecorder()

	if err := s.Start(1, 5, rec.record); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !s.Stop() {
		t.Error("Stop() = false, want true for running countdown")
	}

	time.Sleep(80 * time.Millisecond)

	if n := len(rec.snapshot()); n != 0 {
		t.Errorf("got %d ticks after Stop, want 0", n)
	}
	if s.Stop() {
		t.Error("second Stop() = true, want false")
	}
}

func TestSchedulerStartReplaces(t *testing.T) {
	s := New(5 * time.Millisecond)
	first := newTickRecorder()
	second := newTickRecorder()

	if err := s.Start(1, 50, first.record); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(2, 2, second.record); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case <-second.done:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for replacement countdown")
	}

	for _, tick := range first.snapshot() {
		t.Errorf("replaced countdown delivered tick %+v", tick)
	}
	if n := len(second.snapshot()); n != 2 {
		t.Errorf("got %d ticks, want 2", n)
	}
}

func TestSchedulerInvalidTicks(t *testing.T) {
	s := New(time.Millisecond)
	if err := s.Start(1, 0, func(Tick) {}); err != ErrInvalidTicks {
		t.Errorf("Start(0) error = %v, want ErrInvalidTicks", err)
	}
	if err := s.Start(1, -3, func(Tick) {}); err != ErrInvalidTicks {
		t.Errorf("Start(-3) error = %v, want ErrInvalidTicks", err)
	}
}

func TestSchedulerStopFromCallback(t *testing.T) {
	s := New(5 * time.Millisecond)

	var mu sync.Mutex
	count := 0
	if err := s.Start(1, 10, func(Tick) {
		mu.Lock()
		count++
		mu.Unlock()
		s.Stop()
	}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("callback ran %d times, want 1", count)
	}
}
