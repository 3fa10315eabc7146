// Package control implements the command sent back to the race server
// on each tick
package control

import (
	"fmt"

	"github.com/samuelfneumann/torcsrl/utils/floatutils"
	"gonum.org/v1/gonum/spatial/r1"
)

// FocusOff is the focus direction that disables the focus sensors
const FocusOff = 360

// Ranges of the numeric command fields
var (
	PedalRange    = r1.Interval{Min: 0, Max: 1}
	SteeringRange = r1.Interval{Min: -1, Max: 1}
	FocusRange    = r1.Interval{Min: -90, Max: FocusOff}
)

// Gear limits
const (
	MinGear = -1
	MaxGear = 6
)

// Action is a single command to the car
type Action struct {
	Accelerate float64
	Brake      float64
	Clutch     float64
	Gear       int
	Steering   float64
	Focus      int
	Restart    bool
}

// New returns an Action with every pedal released, in neutral, with
// the focus sensors disabled
func New() Action {
	return Action{Focus: FocusOff}
}

// Restart returns an Action requesting the server to restart the race
func Restart() Action {
	a := New()
	a.Restart = true
	return a
}

// Limit returns a copy of the Action with every field clamped to its
// range
func (a Action) Limit() Action {
	a.Accelerate = floatutils.ClipInterval(a.Accelerate, PedalRange)
	a.Brake = floatutils.ClipInterval(a.Brake, PedalRange)
	a.Clutch = floatutils.ClipInterval(a.Clutch, PedalRange)
	a.Steering = floatutils.ClipInterval(a.Steering, SteeringRange)
	a.Focus = int(floatutils.ClipInterval(float64(a.Focus), FocusRange))

	if a.Gear < MinGear {
		a.Gear = MinGear
	} else if a.Gear > MaxGear {
		a.Gear = MaxGear
	}
	return a
}

// String encodes the Action in the wire format of the race server
func (a Action) String() string {
	meta := 0
	if a.Restart {
		meta = 1
	}
	return fmt.Sprintf("(accel %v) (brake %v) (clutch %v) (gear %d) "+
		"(steer %v) (meta %d) (focus %d)", a.Accelerate, a.Brake, a.Clutch,
		a.Gear, a.Steering, meta, a.Focus)
}
