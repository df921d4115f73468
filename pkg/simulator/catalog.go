package simulator

import (
	"time"

	"github.com/cameraestellar/astrocam-go/pkg/device"
	"github.com/cameraestellar/astrocam-go/pkg/exposure"
)

// Catalog returns the cameras of a simulated phone: the main camera from
// DefaultCharacteristics plus an ultra-wide, a telephoto and a front camera.
func Catalog() []device.Characteristics {
	ultraWide := DefaultCharacteristics()
	ultraWide.ID = "sim-1"
	ultraWide.HardwareLevel = device.LevelLimited
	ultraWide.ExposureRange = exposure.DurationRange{Lower: 10 * time.Microsecond, Upper: time.Second}
	ultraWide.SensorWidth = 3.2
	ultraWide.Raw = false

	tele := DefaultCharacteristics()
	tele.ID = "sim-2"
	tele.SensorWidth = 4.0

	front := DefaultCharacteristics()
	front.ID = "sim-3"
	front.Facing = device.FacingFront
	front.HardwareLevel = device.LevelLimited
	front.ManualSensor = false

	return []device.Characteristics{ultraWide, DefaultCharacteristics(), tele, front}
}

// Lookup returns the catalog camera with the given id.
func Lookup(id string) (device.Characteristics, bool) {
	for _, c := range Catalog() {
		if c.ID == id {
			return c, true
		}
	}
	return device.Characteristics{}, false
}
