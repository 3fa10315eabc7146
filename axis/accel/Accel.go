// Package accel implements the throttle and brake axis.
//
// The axis estimates the curvature of the track ahead from the three
// range finders around the car axis, derives a target speed from it,
// and compares the target with the current speed through a logistic
// accel/brake signal in [-1, 1].
package accel

import (
	"math"

	"github.com/samuelfneumann/torcsrl/config"
	"github.com/samuelfneumann/torcsrl/control"
	"github.com/samuelfneumann/torcsrl/safety"
	"github.com/samuelfneumann/torcsrl/sensor"
	"github.com/samuelfneumann/torcsrl/timestep"
	"github.com/samuelfneumann/torcsrl/utils/floatutils"
)

// State is an acceleration state
type State int

const (
	OffTrack State = iota
	StraightLine
	CurveNeedsAccel
	CurveNeedsBrake
	CurveAllowRoll // braking would lock the wheels
)

func (s State) String() string {
	switch s {
	case OffTrack:
		return "OFF_TRACK"
	case StraightLine:
		return "STRAIGHT_LINE"
	case CurveNeedsAccel:
		return "IN_CURVE_SHOULD_ACCEL"
	case CurveNeedsBrake:
		return "IN_CURVE_SHOULD_HAND_BRAKE"
	case CurveAllowRoll:
		return "IN_CURVE_SHOULD_ALLOW_ROLL"
	}
	return "UNKNOWN"
}

// States returns every acceleration state in index order
func States() []State {
	return []State{OffTrack, StraightLine, CurveNeedsAccel, CurveNeedsBrake,
		CurveAllowRoll}
}

// Action is an acceleration action
type Action int

const (
	ActiveLimiter Action = iota // fixed low throttle
	FullThrottle
	Accelerate
	Brake
	HandBrake
	KeepRolling
)

func (a Action) String() string {
	switch a {
	case ActiveLimiter:
		return "ACTIVE_LIMITER"
	case FullThrottle:
		return "FULL_THROTTLE"
	case Accelerate:
		return "ACCELERATE"
	case Brake:
		return "BRAKE"
	case HandBrake:
		return "HANDBRAKE"
	case KeepRolling:
		return "KEEP_ROLLING"
	}
	return "UNKNOWN"
}

// Actions returns every acceleration action in index order
func Actions() []Action {
	return []Action{ActiveLimiter, FullThrottle, Accelerate, Brake, HandBrake,
		KeepRolling}
}

// Axis classifies, decodes and rewards throttle and brake commands
type Axis struct {
	c   config.PhysicsConfig
	abs safety.ABS
}

// New returns a new acceleration axis
func New(c config.PhysicsConfig, abs safety.ABS) Axis {
	return Axis{c: c, abs: abs}
}

// Straight returns whether the track ahead of s is straight: the
// center range finder sees past the max speed distance, or sees at
// least as far as both of its neighbours.
func (x Axis) Straight(s sensor.Snapshot) bool {
	right := s.Track[sensor.TrackRight]
	center := s.Track[sensor.TrackCenter]
	left := s.Track[sensor.TrackLeft]

	return center > x.c.MaxSpeedDist || (center >= right && center >= left)
}

// TargetSpeed returns the speed to drive at given the curvature of the
// track ahead of s
func (x Axis) TargetSpeed(s sensor.Snapshot) float64 {
	if x.Straight(s) {
		return x.c.MaxSpeed
	}

	center := s.Track[sensor.TrackCenter]
	side := s.Track[sensor.TrackLeft]
	if s.Track[sensor.TrackRight] > side {
		side = s.Track[sensor.TrackRight]
	}

	h := center * x.c.Sin5
	b := side - center*x.c.Cos5
	if h*h+b*b == 0 {
		return 0
	}
	sinAngle := b * b / (h*h + b*b)
	return x.c.MaxSpeed * (center * sinAngle / x.c.MaxSpeedDist)
}

// Signal returns the accel/brake signal of s: positive values call for
// throttle, negative values for brake
func (x Axis) Signal(s sensor.Snapshot) float64 {
	return signal(s.Speed, x.TargetSpeed(s))
}

func signal(speed, target float64) float64 {
	return 2/(1+math.Exp(speed-target)) - 1
}

// Classify returns the acceleration state of s
func (x Axis) Classify(s sensor.Snapshot) State {
	if s.OffTrack() {
		return OffTrack
	}
	if x.Straight(s) {
		return StraightLine
	}

	sig := x.Signal(s)
	if sig > 0 {
		return CurveNeedsAccel
	}
	if -sig-x.abs.Reduction(s) >= 0 {
		return CurveNeedsBrake
	}
	return CurveAllowRoll
}

// Decode sets the throttle and brake of out for action a
func (x Axis) Decode(s sensor.Snapshot, a Action, out *control.Action) {
	out.Accelerate, out.Brake = 0, 0

	switch a {
	case ActiveLimiter:
		out.Accelerate = x.c.LimiterThrottle
	case FullThrottle:
		out.Accelerate = math.Max(0, signal(s.Speed, x.c.MaxSpeed))
	case Accelerate:
		out.Accelerate = math.Abs(x.Signal(s))
	case Brake:
		out.Brake = x.abs.Filter(s, math.Abs(x.Signal(s)))
	case HandBrake:
		out.Brake = x.abs.Filter(s, 1)
	case KeepRolling:
	default:
		panic("decode: unknown acceleration action")
	}
}

// Heuristic sets the throttle and brake of out from the accel/brake
// signal without a learned policy
func (x Axis) Heuristic(s sensor.Snapshot, out *control.Action) {
	out.Accelerate, out.Brake = 0, 0

	if s.OffTrack() {
		out.Accelerate = x.c.LimiterThrottle
		return
	}

	sig := x.Signal(s)
	if sig > 0 {
		out.Accelerate = sig
	} else {
		out.Brake = x.abs.Filter(s, -sig)
	}
}

// Hold returns the action to take on ticks without an update: the
// greedy action of the current state
func (Axis) Hold(last, greedy Action) Action {
	return greedy
}

// Reward scores an acceleration transition. The transition's commands
// tell whether the throttle was raised or eased between its snapshots.
func (x Axis) Reward(t timestep.Transition) float64 {
	if t.First() || t.Curr.CurLapTime <= 0.018 {
		return 0
	}

	prev, curr := *t.Prev, t.Curr
	if !prev.OffTrack() && curr.OffTrack() {
		return -1000
	}
	if prev.DistRaced == curr.DistRaced {
		return -100
	}

	prevThrottle := floatutils.Round(t.PrevCommand.Accelerate, 3)
	throttle := floatutils.Round(t.Command.Accelerate, 3)
	pushing := prevThrottle < throttle
	easing := prevThrottle > throttle
	faster := prev.Speed < curr.Speed
	slower := prev.Speed > curr.Speed

	from, to := x.Classify(prev), x.Classify(curr)
	switch from {
	case StraightLine:
		switch to {
		case StraightLine:
			// Speeding up on a straight is rewarded whatever the
			// throttle did
			if faster || int(prev.Speed) == int(x.c.MaxSpeed-1) {
				return 100
			}
			return -100
		case CurveNeedsAccel:
			if faster && pushing {
				return 100
			}
			return -100
		case CurveNeedsBrake:
			if slower && easing {
				return 200
			} else if slower {
				return 100
			}
			return -100
		}
		if slower {
			return -100
		}

	case CurveNeedsAccel:
		switch to {
		case StraightLine:
			if faster && pushing {
				return 200
			} else if faster {
				return 100
			}
			return -100
		case CurveNeedsAccel:
			if faster && pushing {
				return 200
			} else if faster {
				return 100
			} else if int(prev.Speed) == int(curr.Speed) {
				return 200
			}
			return -100
		case CurveNeedsBrake:
			if slower || (faster && easing) {
				return 100
			}
			return -100
		}
		if slower {
			return -100
		}

	case CurveNeedsBrake:
		switch to {
		case CurveNeedsAccel:
			if slower {
				return 100
			}
			return -100
		case CurveNeedsBrake:
			if slower && easing {
				return 200
			} else if slower && pushing {
				return 100
			}
			return -100
		}
		if faster {
			return -100
		}

	case CurveAllowRoll:
		switch to {
		case CurveNeedsAccel:
			if slower && easing {
				return 200
			} else if slower && pushing {
				return 100
			}
			return -100
		case CurveNeedsBrake:
			if slower && easing {
				return 100
			}
			return -100
		}
		if faster {
			return -100
		}
	}

	return -10
}
