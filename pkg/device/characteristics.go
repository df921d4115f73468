package device

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cameraestellar/astrocam-go/pkg/exposure"
)

// ErrNoSuitableCamera is returned when no camera supports manual long
// exposures.
var ErrNoSuitableCamera = errors.New("no camera suitable for astrophotography")

// Facing is the direction a lens points.
type Facing uint8

const (
	FacingBack Facing = iota
	FacingFront
	FacingExternal
)

// String returns the facing name.
func (f Facing) String() string {
	switch f {
	case FacingBack:
		return "back"
	case FacingFront:
		return "front"
	case FacingExternal:
		return "external"
	default:
		return "unknown"
	}
}

// ParseFacing parses a facing name.
func ParseFacing(s string) (Facing, error) {
	switch strings.ToLower(s) {
	case "", "back":
		return FacingBack, nil
	case "front":
		return FacingFront, nil
	case "external":
		return FacingExternal, nil
	}
	return 0, fmt.Errorf("unknown facing %q", s)
}

// HardwareLevel is the camera pipeline support level.
type HardwareLevel uint8

const (
	LevelUnknown HardwareLevel = iota
	LevelLegacy
	LevelLimited
	LevelFull
	Level3
	LevelExternal
)

// String returns the level name.
func (l HardwareLevel) String() string {
	switch l {
	case LevelLegacy:
		return "LEGACY"
	case LevelLimited:
		return "LIMITED"
	case LevelFull:
		return "FULL"
	case Level3:
		return "LEVEL_3"
	case LevelExternal:
		return "EXTERNAL"
	default:
		return "UNKNOWN"
	}
}

// ParseHardwareLevel parses a level name (case-insensitive).
func ParseHardwareLevel(s string) HardwareLevel {
	switch strings.ToUpper(s) {
	case "LEGACY":
		return LevelLegacy
	case "LIMITED":
		return LevelLimited
	case "FULL":
		return LevelFull
	case "LEVEL_3", "LEVEL3":
		return Level3
	case "EXTERNAL":
		return LevelExternal
	default:
		return LevelUnknown
	}
}

// Characteristics are the static properties of one camera.
type Characteristics struct {
	ID            string
	Facing        Facing
	HardwareLevel HardwareLevel

	ISORange      exposure.Range
	ExposureRange exposure.DurationRange

	// SensorWidth is the physical sensor width in millimetres and
	// ActiveWidth the active pixel array width. Either may be zero.
	SensorWidth float64
	ActiveWidth int

	ManualSensor bool
	Raw          bool
}

// PixelPitch is the photosite width in millimetres, or zero if unknown.
func (c Characteristics) PixelPitch() float64 {
	if c.SensorWidth <= 0 || c.ActiveWidth <= 0 {
		return 0
	}
	return c.SensorWidth / float64(c.ActiveWidth)
}

// Capability derives what the camera reports once configured.
func (c Characteristics) Capability() exposure.Capability {
	return exposure.Capability{
		MaxFrameExposure: c.ExposureRange.Upper,
		ISORange:         c.ISORange,
		ExposureRange:    c.ExposureRange,
		SupportsManual:   c.ManualSensor,
		SupportsRaw:      c.Raw,
	}
}

// String returns a one-line description.
func (c Characteristics) String() string {
	return fmt.Sprintf("%s (%s, %s) iso=%.0f-%.0f exp=%v-%v manual=%t raw=%t",
		c.ID, c.Facing, c.HardwareLevel,
		c.ISORange.Lower, c.ISORange.Upper,
		c.ExposureRange.Lower, c.ExposureRange.Upper,
		c.ManualSensor, c.Raw)
}

// SelectAstroCamera picks the camera to use for long exposures.
func SelectAstroCamera(cams []Characteristics) (Characteristics, error) {
	var (
		best  Characteristics
		found bool
	)
	for _, c := range cams {
		if c.Facing != FacingBack || !c.ManualSensor {
			continue
		}
		if !found || better(c, best) {
			best = c
			found = true
		}
	}
	if !found {
		return Characteristics{}, ErrNoSuitableCamera
	}
	return best, nil
}

func better(a, b Characteristics) bool {
	if a.ExposureRange.Upper != b.ExposureRange.Upper {
		return a.ExposureRange.Upper > b.ExposureRange.Upper
	}
	return a.PixelPitch() > b.PixelPitch()
}

// BackCameras returns the back-facing cameras, in input order.
func BackCameras(cams []Characteristics) []Characteristics {
	var out []Characteristics
	for _, c := range cams {
		if c.Facing == FacingBack {
			out = append(out, c)
		}
	}
	return out
}
