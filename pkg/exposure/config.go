package exposure

import (
	"fmt"
	"math"
	"time"
)

// Parameter bounds.
const (
	// MinISO is the lowest selectable sensitivity.
	MinISO = 50.0

	// MaxISO is the highest selectable sensitivity.
	MaxISO = 3200.0

	// MinExposure is the shortest selectable exposure.
	MinExposure = time.Millisecond

	// MaxExposure is the longest selectable exposure.
	MaxExposure = 30 * time.Second

	// FocusInfinity is the focus distance that focuses at infinity.
	FocusInfinity = 0.0

	// MaxFocusDistance is the closest focus distance (in normalized units).
	MaxFocusDistance = 1.0
)

// Defaults used by a fresh Store.
const (
	DefaultISO           = 800.0
	DefaultExposure      = 100 * time.Millisecond
	DefaultFocusDistance = FocusInfinity
)

// Config is a complete set of exposure parameters.
type Config struct {
	// ISO is the sensor sensitivity.
	ISO float64 `json:"iso" yaml:"iso"`

	// Exposure is the requested total exposure time.
	Exposure time.Duration `json:"exposure" yaml:"exposure"`

	// FocusDistance is the lens focus distance; 0.0 focuses at infinity.
	FocusDistance float64 `json:"focus_distance" yaml:"focus_distance"`

	// AutoExposure selects automatic metering. When set, ISO, Exposure and
	// FocusDistance are retained but never forwarded.
	AutoExposure bool `json:"auto_exposure" yaml:"auto_exposure"`
}

// DefaultConfig returns the start-up configuration: manual mode, ISO 800,
// 100 ms, focus at infinity.
func DefaultConfig() Config {
	return Config{
		ISO:           DefaultISO,
		Exposure:      DefaultExposure,
		FocusDistance: DefaultFocusDistance,
	}
}

// Clamped returns a copy with every field forced into its bounds.
func (c Config) Clamped() Config {
	c.ISO = ClampISO(c.ISO)
	c.Exposure = ClampExposure(c.Exposure)
	c.FocusDistance = ClampFocusDistance(c.FocusDistance)
	return c
}

// Applied returns the view of c that may be forwarded to an imaging
// subsystem.
func (c Config) Applied() Applied {
	if c.AutoExposure {
		return Applied{AutoExposure: true}
	}
	return Applied{
		Manual: &Manual{
			ISO:           c.ISO,
			Exposure:      c.Exposure,
			FocusDistance: c.FocusDistance,
		},
	}
}

// String returns a compact description for logs.
func (c Config) String() string {
	if c.AutoExposure {
		return "auto"
	}
	return fmt.Sprintf("manual iso=%.0f exp=%v focus=%.2f", c.ISO, c.Exposure, c.FocusDistance)
}

// Applied is the configuration as seen by an adapter.
// Exactly one of AutoExposure or Manual is set.
type Applied struct {
	AutoExposure bool
	Manual       *Manual
}

// Manual holds the parameters forwarded in manual mode.
type Manual struct {
	ISO           float64
	Exposure      time.Duration
	FocusDistance float64
}

// IsManual reports whether manual parameters are present.
func (a Applied) IsManual() bool {
	return !a.AutoExposure && a.Manual != nil
}

// Seconds converts fractional seconds to a Duration, rounding to the
// nearest nanosecond.
func Seconds(s float64) time.Duration {
	if math.IsNaN(s) {
		return 0
	}
	if s >= math.MaxInt64/float64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(math.Round(s * float64(time.Second)))
}

// ClampISO forces iso into [MinISO, MaxISO]. NaN maps to MinISO.
func ClampISO(iso float64) float64 {
	if math.IsNaN(iso) || iso < MinISO {
		return MinISO
	}
	if iso > MaxISO {
		return MaxISO
	}
	return iso
}

// ClampExposure forces d into [MinExposure, MaxExposure].
func ClampExposure(d time.Duration) time.Duration {
	if d < MinExposure {
		return MinExposure
	}
	if d > MaxExposure {
		return MaxExposure
	}
	return d
}

// ClampFocusDistance forces f into [FocusInfinity, MaxFocusDistance].
// NaN maps to infinity.
func ClampFocusDistance(f float64) float64 {
	if math.IsNaN(f) || f < FocusInfinity {
		return FocusInfinity
	}
	if f > MaxFocusDistance {
		return MaxFocusDistance
	}
	return f
}
