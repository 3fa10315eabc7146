package safety

import (
	"math"

	"github.com/samuelfneumann/torcsrl/config"
	"github.com/samuelfneumann/torcsrl/control"
	"github.com/samuelfneumann/torcsrl/sensor"
)

// Stuck detects a car that has been pointing away from the track axis
// for too long, and computes the manoeuvre that recovers it
type Stuck struct {
	angle     float64
	time      int
	steerLock float64
	ticks     int
}

// NewStuck returns a new stuck detector
func NewStuck(c config.SafetyConfig, steerLock float64) *Stuck {
	return &Stuck{angle: c.StuckAngle, time: c.StuckTime, steerLock: steerLock}
}

// Observe records a tick, returning whether the car is now stuck. The
// counter grows while |angle| exceeds the stuck angle and is reset
// otherwise.
func (s *Stuck) Observe(snap sensor.Snapshot) bool {
	if math.Abs(snap.Angle) > s.angle {
		s.ticks++
	} else {
		s.ticks = 0
	}
	return s.Stuck()
}

// Stuck returns whether the car has been misaligned for more than the
// configured number of ticks
func (s *Stuck) Stuck() bool {
	return s.ticks > s.time
}

// Ticks returns the number of consecutive misaligned ticks
func (s *Stuck) Ticks() int {
	return s.ticks
}

// Reset clears the counter
func (s *Stuck) Reset() {
	s.ticks = 0
}

// Recover returns the recovery manoeuvre: reverse with the wheel turned
// to bring the car parallel to the track axis at full throttle. If the
// car already points back toward the axis, it drives forward instead.
func (s *Stuck) Recover(snap sensor.Snapshot) control.Action {
	steer := -snap.Angle / s.steerLock
	gear := -1

	if snap.Angle*snap.TrackPos > 0 {
		gear = 1
		steer = -steer
	}

	a := control.New()
	a.Gear = gear
	a.Steering = steer
	a.Accelerate = 1
	a.Brake = 0
	return a
}
