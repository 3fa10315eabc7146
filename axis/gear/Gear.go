// Package gear implements the gearbox axis
package gear

import (
	"github.com/samuelfneumann/torcsrl/config"
	"github.com/samuelfneumann/torcsrl/control"
	"github.com/samuelfneumann/torcsrl/sensor"
	"github.com/samuelfneumann/torcsrl/timestep"
)

// State is a gearbox state
type State int

const (
	NeutralReverse State = iota
	NeedUpShift
	NeedDownShift
	Steady
)

func (s State) String() string {
	switch s {
	case NeutralReverse:
		return "NEUTRAL_REVERSE"
	case NeedUpShift:
		return "ENOUGH_RPM_UP"
	case NeedDownShift:
		return "LOW_RPM"
	case Steady:
		return "REVOLUTIONIZING_ENGINE"
	}
	return "UNKNOWN"
}

// States returns every gearbox state in index order
func States() []State {
	return []State{NeutralReverse, NeedUpShift, NeedDownShift, Steady}
}

// Action is a gearbox action
type Action int

const (
	ActiveLimiter Action = iota // engage first gear
	GearUp
	GearDown
	KeepGear
)

func (a Action) String() string {
	switch a {
	case ActiveLimiter:
		return "ACTIVE_LIMITER"
	case GearUp:
		return "GEAR_UP"
	case GearDown:
		return "GEAR_DOWN"
	case KeepGear:
		return "KEEP_GEAR"
	}
	return "UNKNOWN"
}

// Actions returns every gearbox action in index order
func Actions() []Action {
	return []Action{ActiveLimiter, GearUp, GearDown, KeepGear}
}

// Thresholds holds the rpm at which each forward gear should be left
// for the next higher or lower one. Index i is gear i+1.
type Thresholds struct {
	Up   [6]float64
	Down [6]float64
}

// NewThresholds returns the shift thresholds of c
func NewThresholds(c config.PhysicsConfig) Thresholds {
	return Thresholds{Up: c.GearUp, Down: c.GearDown}
}

// Classify returns the gearbox state of the argument gear and rpm
func (t Thresholds) Classify(gear int, rpm float64) State {
	switch {
	case gear < 1:
		return NeutralReverse
	case gear < 6 && rpm >= t.Up[gear-1]:
		return NeedUpShift
	case gear > 1 && gear <= 6 && rpm <= t.Down[gear-1]:
		return NeedDownShift
	default:
		return Steady
	}
}

// Shift returns the gear the thresholds recommend
func (t Thresholds) Shift(gear int, rpm float64) int {
	switch t.Classify(gear, rpm) {
	case NeutralReverse:
		return 1
	case NeedUpShift:
		return gear + 1
	case NeedDownShift:
		return gear - 1
	default:
		return gear
	}
}

// Apply returns the gear resulting from action a in the argument gear,
// limited to the gears of the car
func Apply(gear int, a Action) int {
	switch a {
	case ActiveLimiter:
		gear = 1
	case GearUp:
		gear++
	case GearDown:
		gear--
	case KeepGear:
	default:
		panic("apply: unknown gear action")
	}

	if gear < control.MinGear {
		return control.MinGear
	} else if gear > control.MaxGear {
		return control.MaxGear
	}
	return gear
}

// Axis classifies, decodes and rewards gear changes
type Axis struct {
	Thresholds
}

// New returns a new gearbox axis
func New(c config.PhysicsConfig) Axis {
	return Axis{NewThresholds(c)}
}

// Classify returns the gearbox state of s
func (x Axis) Classify(s sensor.Snapshot) State {
	return x.Thresholds.Classify(s.Gear, s.RPM)
}

// Decode sets the gear of out for action a
func (Axis) Decode(s sensor.Snapshot, a Action, out *control.Action) {
	out.Gear = Apply(s.Gear, a)
}

// Heuristic sets the gear of out from the shift thresholds
func (x Axis) Heuristic(s sensor.Snapshot, out *control.Action) {
	out.Gear = x.Shift(s.Gear, s.RPM)
}

// Hold returns the action to take on ticks without an update. The
// gear is never shifted between updates.
func (Axis) Hold(last, greedy Action) Action {
	return KeepGear
}

// Reward scores a gear change by whether the gear moved the way the
// previous state called for
func (x Axis) Reward(t timestep.Transition) float64 {
	if t.First() {
		return 0
	}

	prev, curr := t.Prev.Gear, t.Curr.Gear
	var right bool
	switch x.Thresholds.Classify(prev, t.Prev.RPM) {
	case NeutralReverse:
		right = curr == 1
	case NeedUpShift:
		right = curr > prev
	case NeedDownShift:
		right = curr < prev
	default:
		right = curr == prev
	}

	if right {
		return 100
	}
	return -100
}
