package environment

import (
	"github.com/samuelfneumann/torcsrl/sensor"
	"github.com/samuelfneumann/torcsrl/timestep"
)

// FunctionEnder ends an episode whenever a function of the snapshot
// returns true.
type FunctionEnder struct {
	end     func(sensor.Snapshot) bool
	endType timestep.EndType
}

// NewFunctionEnder returns a new FunctionEnder which ends episodes with
// end type endType when f returns true.
func NewFunctionEnder(f func(sensor.Snapshot) bool,
	endType timestep.EndType) Ender {
	return &FunctionEnder{f, endType}
}

// NewOffTrack returns an Ender ending the episode as soon as the car
// leaves the track, |trackPos| >= 1
func NewOffTrack() Ender {
	return NewFunctionEnder(sensor.Snapshot.OffTrack, timestep.OffTrack)
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode temrination. If the episode
// should be ended, End() will modify the timestep so that its StepType
// field is timestep.Last and its EndType is the appropriate ending
// type.
func (f *FunctionEnder) End(t *timestep.TimeStep) bool {
	if f.end(t.Observation) {
		t.StepType = timestep.Last
		t.SetEnd(f.endType)
		return true
	}
	return false
}
