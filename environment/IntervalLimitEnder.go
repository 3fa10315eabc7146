package environment

import (
	"math"

	"github.com/samuelfneumann/torcsrl/sensor"
	"github.com/samuelfneumann/torcsrl/timestep"
	"gonum.org/v1/gonum/spatial/r1"
)

// Reading selects a single reading from a snapshot
type Reading func(sensor.Snapshot) float64

// CurLapTime selects the current lap time of a snapshot
func CurLapTime(s sensor.Snapshot) float64 { return s.CurLapTime }

// IntervalLimit implements the Ender interface to end episodes
// whenever a single reading leaves some interval
type IntervalLimit struct {
	intervals []r1.Interval
	readings  []Reading
	endType   timestep.EndType
}

// NewIntervalLimit creates and returns a new inteval limit. The endType
// argument determines what the episode end should be considered as.
func NewIntervalLimit(limits []r1.Interval, readings []Reading,
	endType timestep.EndType) Ender {
	if len(limits) != len(readings) {
		panic("limits should have same length as readings")
	}

	return &IntervalLimit{limits, readings, endType}
}

// NewTimeLimit returns an Ender ending the episode once the current lap
// has taken longer than limit seconds
func NewTimeLimit(limit float64) Ender {
	return NewIntervalLimit(
		[]r1.Interval{{Min: math.Inf(-1), Max: limit}},
		[]Reading{CurLapTime},
		timestep.TimedOut,
	)
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode temrination. If the episode
// should be ended End() will modify the timestep so that its StepType
// field is timestep.Last and its EndType is the appropriate ending
// type.
func (i *IntervalLimit) End(t *timestep.TimeStep) bool {
	for index, reading := range i.readings {
		interval := i.intervals[index]
		value := reading(t.Observation)

		if value > interval.Max || value < interval.Min {
			t.StepType = timestep.Last
			t.SetEnd(i.endType)
			return true
		}
	}
	return false
}
