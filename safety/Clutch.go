package safety

import (
	"math"

	"github.com/samuelfneumann/torcsrl/config"
	"github.com/samuelfneumann/torcsrl/sensor"
)

// Clutch models launch clutch engagement. The clutch is pressed fully
// at the start of a race and released gradually, more slowly and from
// a higher ceiling while in first gear during the first seconds of the
// lap.
type Clutch struct {
	c     config.SafetyConfig
	stage sensor.Stage
	value float64
}

// NewClutch returns a released clutch for a session of the argument
// stage
func NewClutch(c config.SafetyConfig, stage sensor.Stage) *Clutch {
	return &Clutch{c: c, stage: stage}
}

// Step advances the clutch by one tick and returns its new value
func (c *Clutch) Step(s sensor.Snapshot) float64 {
	max := c.c.ClutchMax
	clutch := c.value

	if s.CurLapTime < c.c.ClutchDeltaTime && c.stage == sensor.Race &&
		s.DistRaced < c.c.ClutchDeltaRaced {
		clutch = max
	}

	if clutch > 0 {
		delta := c.c.ClutchDelta
		if s.Gear < 2 {
			delta /= 2
			max *= c.c.ClutchMaxModifier
			if s.CurLapTime < c.c.ClutchMaxTime {
				clutch = max
			}
		}

		clutch = math.Min(max, clutch)
		if clutch != max {
			clutch = math.Max(0, clutch-delta)
		} else {
			clutch -= c.c.ClutchDec
		}
	}

	c.value = clutch
	return clutch
}

// Value returns the current clutch value
func (c *Clutch) Value() float64 {
	return c.value
}

// Reset releases the clutch
func (c *Clutch) Reset() {
	c.value = 0
}
