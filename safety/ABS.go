// Package safety implements the deterministic driving aids that act
// independently of any learned policy: stuck detection and recovery,
// the anti-lock brake filter, and the launch clutch heuristic.
package safety

import (
	"math"

	"github.com/samuelfneumann/torcsrl/config"
	"github.com/samuelfneumann/torcsrl/sensor"
)

// ABS filters brake commands to reduce wheel lock
type ABS struct {
	radius   [4]float64
	slip     float64
	rng      float64
	minSpeed float64 // m/s
}

// NewABS returns a new ABS filter
func NewABS(c config.SafetyConfig) ABS {
	return ABS{
		radius:   c.WheelRadius,
		slip:     c.AbsSlip,
		rng:      c.AbsRange,
		minSpeed: c.AbsMinSpeed,
	}
}

// Slip returns the difference in m/s between the speed of the car and
// the mean linear speed of its wheels
func (a ABS) Slip(s sensor.Snapshot) float64 {
	return s.Speed/3.6 - s.MeanWheelSpeed(a.radius)
}

// Reduction returns how much a brake command should be lowered given
// the current wheel slip. It is zero when the slip is within the
// threshold.
func (a ABS) Reduction(s sensor.Snapshot) float64 {
	slip := a.Slip(s)
	if slip <= a.slip {
		return 0
	}
	return (slip - a.slip) / a.rng
}

// Filter returns the brake command to apply when brake is requested.
// Below the minimum speed the request is returned unchanged.
func (a ABS) Filter(s sensor.Snapshot, brake float64) float64 {
	if s.Speed/3.6 < a.minSpeed {
		return brake
	}
	return math.Max(0, brake-a.Reduction(s))
}
