package environment

import "github.com/samuelfneumann/torcsrl/timestep"

// LapComplete ends the episode once the car has completed a lap. A lap
// is counted each time the distance from the start line drops from
// above 1 to below 1. The race starts behind the line, so the first
// crossing only starts the first lap.
type LapComplete struct {
	prev  float64
	laps  int
	first bool
}

// NewLapComplete returns a new LapComplete ender
func NewLapComplete() *LapComplete {
	l := &LapComplete{}
	l.Reset()
	return l
}

// End determines whether or not the current episode should be ended
func (l *LapComplete) End(t *timestep.TimeStep) bool {
	curr := t.Observation.DistFromStart
	if !l.first && l.prev > 1 && curr < 1 {
		l.laps++
	}
	l.prev, l.first = curr, false

	if l.laps >= 1 {
		t.StepType = timestep.Last
		t.SetEnd(timestep.LapComplete)
		return true
	}
	return false
}

// Laps returns the number of laps completed this episode, -1 before
// the start line was first crossed
func (l *LapComplete) Laps() int {
	return l.laps
}

// Reset prepares the ender for a new episode
func (l *LapComplete) Reset() {
	l.prev, l.laps, l.first = 0, -1, true
}
