// Package clutch implements the combined gear and clutch axis. Its
// actions choose a gear while the clutch value itself always follows
// the launch heuristic.
package clutch

import (
	"github.com/samuelfneumann/torcsrl/axis/gear"
	"github.com/samuelfneumann/torcsrl/config"
	"github.com/samuelfneumann/torcsrl/control"
	"github.com/samuelfneumann/torcsrl/safety"
	"github.com/samuelfneumann/torcsrl/sensor"
	"github.com/samuelfneumann/torcsrl/timestep"
)

// State is a clutch state
type State int

const (
	StartingGrid State = iota // neutral or reverse
	NeedUpShift
	NeedDownShift
	Steady
)

func (s State) String() string {
	switch s {
	case StartingGrid:
		return "FIRST_GEAR"
	case NeedUpShift:
		return "ENOUGH_RPM_UP"
	case NeedDownShift:
		return "LOWER_RPM_DOWN"
	case Steady:
		return "REVOLUTIONIZING_ENGINE"
	}
	return "UNKNOWN"
}

// States returns every clutch state in index order
func States() []State {
	return []State{StartingGrid, NeedUpShift, NeedDownShift, Steady}
}

// Action is a clutch action
type Action int

const (
	IdleSpeed Action = iota // engage first gear
	KeepGear
	UpGear
	DownGear
)

func (a Action) String() string {
	switch a {
	case IdleSpeed:
		return "IDLE_SPEED"
	case KeepGear:
		return "KEEP_GEAR"
	case UpGear:
		return "UP_GEAR"
	case DownGear:
		return "DOWN_GEAR"
	}
	return "UNKNOWN"
}

// Actions returns every clutch action in index order
func Actions() []Action {
	return []Action{IdleSpeed, KeepGear, UpGear, DownGear}
}

// gearAction maps clutch actions onto gearbox actions
var gearAction = map[Action]gear.Action{
	IdleSpeed: gear.ActiveLimiter,
	KeepGear:  gear.KeepGear,
	UpGear:    gear.GearUp,
	DownGear:  gear.GearDown,
}

// Axis classifies, decodes and rewards gear changes made together with
// the clutch
type Axis struct {
	thresholds gear.Thresholds
	clutch     *safety.Clutch
}

// New returns a new clutch axis. The clutch heuristic is stepped every
// time an action is decoded.
func New(c config.PhysicsConfig, clutch *safety.Clutch) Axis {
	return Axis{thresholds: gear.NewThresholds(c), clutch: clutch}
}

// Classify returns the clutch state of s
func (x Axis) Classify(s sensor.Snapshot) State {
	switch x.thresholds.Classify(s.Gear, s.RPM) {
	case gear.NeutralReverse:
		return StartingGrid
	case gear.NeedUpShift:
		return NeedUpShift
	case gear.NeedDownShift:
		return NeedDownShift
	default:
		return Steady
	}
}

// Decode sets the gear and clutch of out for action a
func (x Axis) Decode(s sensor.Snapshot, a Action, out *control.Action) {
	g, ok := gearAction[a]
	if !ok {
		panic("decode: unknown clutch action")
	}
	out.Gear = gear.Apply(s.Gear, g)
	out.Clutch = x.clutch.Step(s)
}

// Heuristic sets the gear of out from the shift thresholds and its
// clutch from the launch heuristic
func (x Axis) Heuristic(s sensor.Snapshot, out *control.Action) {
	out.Gear = x.thresholds.Shift(s.Gear, s.RPM)
	out.Clutch = x.clutch.Step(s)
}

// Hold returns the action to take on ticks without an update. The
// gear is never shifted between updates.
func (Axis) Hold(last, greedy Action) Action {
	return KeepGear
}

// Reward scores a gear change: dropping from first into neutral is
// penalised, moving the way the previous state called for is rewarded.
func (x Axis) Reward(t timestep.Transition) float64 {
	if t.First() {
		return 0
	}

	prev, curr := t.Prev.Gear, t.Curr.Gear
	if prev == 1 && curr == 0 {
		return -100
	}

	var right bool
	switch x.Classify(*t.Prev) {
	case StartingGrid:
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
	return -10
}
