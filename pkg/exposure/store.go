package exposure

import (
	"sync"
	"time"
)

// Store holds the current Config. All setters clamp silently.
// It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	cfg   Config
	guard ModeGuard

	onChange []func(Config)
}

// ModeGuard vets a switch of the exposure mode. A non-nil error rejects the
// switch and is returned to the caller. The guard runs under the store lock
// and must not call back into the Store.
type ModeGuard func(auto bool) error

// NewStore creates a Store seeded with cfg (clamped).
func NewStore(cfg Config) *Store {
	return &Store{cfg: cfg.Clamped()}
}

// Config returns a copy of the current configuration.
func (s *Store) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// ISO returns the stored ISO.
func (s *Store) ISO() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.ISO
}

// Exposure returns the stored exposure.
func (s *Store) Exposure() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Exposure
}

// ExposureSeconds returns the stored exposure in seconds.
func (s *Store) ExposureSeconds() float64 {
	return s.Exposure().Seconds()
}

// FocusDistance returns the stored focus distance.
func (s *Store) FocusDistance() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.FocusDistance
}

// AutoExposure reports whether automatic metering is selected.
func (s *Store) AutoExposure() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.AutoExposure
}

// SetISO stores iso clamped to [MinISO, MaxISO] and returns the stored value.
func (s *Store) SetISO(iso float64) float64 {
	v := ClampISO(iso)
	s.update(func(c *Config) { c.ISO = v })
	return v
}

// SetExposure stores d clamped to [MinExposure, MaxExposure] and returns
// the stored value.
func (s *Store) SetExposure(d time.Duration) time.Duration {
	v := ClampExposure(d)
	s.update(func(c *Config) { c.Exposure = v })
	return v
}

// SetExposureSeconds is SetExposure for fractional seconds.
func (s *Store) SetExposureSeconds(sec float64) time.Duration {
	if sec < 0 {
		sec = 0
	}
	return s.SetExposure(Seconds(sec))
}

// SetFocusDistance stores f clamped to [FocusInfinity, MaxFocusDistance]
// and returns the stored value.
func (s *Store) SetFocusDistance(f float64) float64 {
	v := ClampFocusDistance(f)
	s.update(func(c *Config) { c.FocusDistance = v })
	return v
}

// SetAutoExposure switches the exposure mode. Manual values are retained.
// Every call is vetted by the mode guard, even one that keeps the mode.
func (s *Store) SetAutoExposure(auto bool) error {
	return s.modify(true, func(c *Config) { c.AutoExposure = auto })
}

// Replace swaps the whole configuration atomically. A replacement that
// changes the exposure mode is vetted by the mode guard; on rejection
// nothing changes.
func (s *Store) Replace(cfg Config) error {
	cfg = cfg.Clamped()
	return s.modify(false, func(c *Config) { *c = cfg })
}

// SetModeGuard installs g, replacing any previous guard. Nil removes it.
func (s *Store) SetModeGuard(g ModeGuard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guard = g
}

// OnChange registers fn to be called with the new configuration after every
// mutation. Callbacks run outside the lock.
func (s *Store) OnChange(fn func(Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

func (s *Store) update(fn func(*Config)) {
	_ = s.modify(false, fn)
}

// modify applies fn to a copy, consults the guard when the mode changes
// (or always, with vetMode), commits, and then notifies listeners with no
// lock held.
func (s *Store) modify(vetMode bool, fn func(*Config)) error {
	s.mu.Lock()
	next := s.cfg
	fn(&next)
	if s.guard != nil && (vetMode || next.AutoExposure != s.cfg.AutoExposure) {
		if err := s.guard(next.AutoExposure); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.cfg = next
	listeners := s.onChange
	s.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	return nil
}
