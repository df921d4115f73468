package exposure

import "time"

// MaxPreviewExposure caps the preview stream so the viewfinder stays live
// while long still exposures are configured (1/15 s).
const MaxPreviewExposure = 66_666_666 * time.Nanosecond

// Range is an inclusive numeric range. The zero value means unknown.
type Range struct {
	Lower float64
	Upper float64
}

// Known reports whether the range carries device limits.
func (r Range) Known() bool {
	return r.Upper > 0 && r.Upper >= r.Lower
}

// Clamp forces v into r when r is known.
func (r Range) Clamp(v float64) float64 {
	if !r.Known() {
		return v
	}
	if v < r.Lower {
		return r.Lower
	}
	if v > r.Upper {
		return r.Upper
	}
	return v
}

// DurationRange is an inclusive duration range. The zero value means unknown.
type DurationRange struct {
	Lower time.Duration
	Upper time.Duration
}

// Known reports whether the range carries device limits.
func (r DurationRange) Known() bool {
	return r.Upper > 0 && r.Upper >= r.Lower
}

// Clamp forces d into r when r is known.
func (r DurationRange) Clamp(d time.Duration) time.Duration {
	if !r.Known() {
		return d
	}
	if d < r.Lower {
		return r.Lower
	}
	if d > r.Upper {
		return r.Upper
	}
	return d
}

// Capability describes what the imaging subsystem can do once configured.
type Capability struct {
	// MaxFrameExposure is the longest single-frame exposure (frame ceiling).
	MaxFrameExposure time.Duration

	// ISORange is the sensitivity range supported by the sensor.
	ISORange Range

	// ExposureRange is the exposure time range supported by the sensor.
	ExposureRange DurationRange

	// SupportsManual reports manual sensor control.
	SupportsManual bool

	// SupportsRaw reports RAW (DNG) output.
	SupportsRaw bool
}

// ClampISO clamps iso to the device range, if known.
func (c Capability) ClampISO(iso float64) float64 {
	return c.ISORange.Clamp(iso)
}

// ClampExposure clamps d to the device range, if known.
func (c Capability) ClampExposure(d time.Duration) time.Duration {
	return c.ExposureRange.Clamp(d)
}

// PreviewSettings are the parameters used for the live viewfinder.
type PreviewSettings struct {
	Applied Applied
}

// Preview derives viewfinder settings from c: identical to Applied except
// that manual exposure is capped at MaxPreviewExposure.
func (c Config) Preview() PreviewSettings {
	a := c.Applied()
	if a.Manual != nil && a.Manual.Exposure > MaxPreviewExposure {
		m := *a.Manual
		m.Exposure = MaxPreviewExposure
		a.Manual = &m
	}
	return PreviewSettings{Applied: a}
}
