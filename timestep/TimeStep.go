// Package timestep implements timesteps of the driver-simulator
// interaction
package timestep

import (
	"fmt"

	"github.com/samuelfneumann/torcsrl/control"
	"github.com/samuelfneumann/torcsrl/sensor"
)

// StepType denotes the type of step that a TimeStep can be, either  first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndType denotes why an episode ended
type EndType int

const (
	Running EndType = iota
	TimedOut
	OffTrack
	LapComplete
	Shutdown
)

func (e EndType) String() string {
	switch e {
	case TimedOut:
		return "TimedOut"
	case OffTrack:
		return "OffTrack"
	case LapComplete:
		return "LapComplete"
	case Shutdown:
		return "Shutdown"
	default:
		return "Running"
	}
}

// TimeStep packages together a single tick of an episode
type TimeStep struct {
	StepType
	Reward      float64
	Observation sensor.Snapshot
	Number      int
	end         EndType
}

// New returns a new TimeStep
func New(t StepType, r float64, o sensor.Snapshot, n int) TimeStep {
	return TimeStep{StepType: t, Reward: r, Observation: o, Number: n}
}

// First returns whether a TimeStep is the first in an episode
func (t *TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an episode
func (t *TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an episode
func (t *TimeStep) Last() bool {
	return t.StepType == Last
}

// SetEnd sets why the episode ended at this TimeStep
func (t *TimeStep) SetEnd(e EndType) {
	t.end = e
}

// EndType returns why the episode ended at this TimeStep, or Running if
// it did not
func (t *TimeStep) EndType() EndType {
	return t.end
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  End: %v  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.StepType, t.Reward, t.end, t.Number)
}

// Transition is the pair of consecutive snapshots a reward is computed
// from. Prev is nil on the first tick of an episode. PrevCommand is the
// command sent when Prev was observed, Command the last command sent
// before Curr was observed.
type Transition struct {
	Prev *sensor.Snapshot
	Curr sensor.Snapshot

	PrevCommand control.Action
	Command     control.Action
}

// NewTransition returns a Transition from prev to curr. The previous
// snapshot is copied so that the Transition never aliases caller state.
func NewTransition(prev *sensor.Snapshot, curr sensor.Snapshot) Transition {
	if prev == nil {
		return Transition{Curr: curr}
	}
	p := *prev
	return Transition{Prev: &p, Curr: curr}
}

// First returns whether the Transition has no previous snapshot
func (t Transition) First() bool {
	return t.Prev == nil
}

// WithCommands returns a copy of the Transition carrying the argument
// commands
func (t Transition) WithCommands(prev, curr control.Action) Transition {
	t.PrevCommand, t.Command = prev, curr
	return t
}
