// Package steer implements the steering axis: its discrete states and
// actions, the decoder from actions to steering commands, and its
// reward.
package steer

import (
	"math"

	"github.com/samuelfneumann/torcsrl/config"
	"github.com/samuelfneumann/torcsrl/control"
	"github.com/samuelfneumann/torcsrl/sensor"
	"github.com/samuelfneumann/torcsrl/timestep"
	"github.com/samuelfneumann/torcsrl/utils/floatutils"
)

// State is a steering state
type State int

const (
	Centered  State = iota // car parallel to the track axis
	OffCenter              // car at an angle to the track axis
)

func (s State) String() string {
	switch s {
	case Centered:
		return "CENTERED"
	case OffCenter:
		return "OFF_CENTER"
	}
	return "UNKNOWN"
}

// States returns every steering state in index order
func States() []State {
	return []State{Centered, OffCenter}
}

// Action is a steering action
type Action int

const (
	KeepStraight Action = iota
	Turn
)

func (a Action) String() string {
	switch a {
	case KeepStraight:
		return "KEEP_STEERING_WHEEL_STRAIGHT"
	case Turn:
		return "TURN_STEERING_WHEEL"
	}
	return "UNKNOWN"
}

// Actions returns every steering action in index order
func Actions() []Action {
	return []Action{KeepStraight, Turn}
}

// Axis classifies, decodes and rewards steering
type Axis struct {
	lock        float64
	offset      float64
	sensitivity float64
}

// New returns a new steering axis
func New(c config.PhysicsConfig) Axis {
	return Axis{
		lock:        c.SteerLock,
		offset:      c.SteerSensitivityOffset,
		sensitivity: c.WheelSensitivityCoeff,
	}
}

// Classify returns the steering state of s
func (Axis) Classify(s sensor.Snapshot) State {
	if s.Angle == 0 {
		return Centered
	}
	return OffCenter
}

// Steering returns the steering command that aims the car at the
// track axis. Above the sensitivity offset speed the command is
// softened in proportion to the excess speed.
func (x Axis) Steering(s sensor.Snapshot) float64 {
	target := s.Angle - s.TrackPos*0.5

	var steer float64
	if s.Speed > x.offset {
		steer = target / (x.lock * (s.Speed - x.offset) * x.sensitivity)
	} else {
		steer = target / x.lock
	}
	return floatutils.ClipInterval(steer, control.SteeringRange)
}

// Decode sets the steering command of out for action a
func (x Axis) Decode(s sensor.Snapshot, a Action, out *control.Action) {
	switch a {
	case KeepStraight:
		out.Steering = 0
	case Turn:
		out.Steering = x.Steering(s)
	default:
		panic("decode: unknown steering action")
	}
}

// Heuristic sets the steering command of out without a learned policy
func (x Axis) Heuristic(s sensor.Snapshot, out *control.Action) {
	out.Steering = x.Steering(s)
}

// Hold returns the action to take on ticks without an update: the
// greedy action of the current state
func (Axis) Hold(last, greedy Action) Action {
	return greedy
}

// Reward scores a steering transition: leaving the track is heavily
// penalised, reducing the angle to the track axis is rewarded.
func (Axis) Reward(t timestep.Transition) float64 {
	if t.First() {
		return 0
	}
	if math.Abs(t.Curr.TrackPos) >= 1 {
		return -1000
	}
	if math.Abs(t.Prev.Angle) > math.Abs(t.Curr.Angle) {
		return 100
	}
	return -10
}
