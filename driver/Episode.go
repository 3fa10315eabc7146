package driver

import (
	"fmt"

	"github.com/samuelfneumann/torcsrl/timestep"
)

// State is a state of the episode controller
type State int

const (
	Running State = iota
	StuckRecovery
	Terminating // waiting for the server to restart the race
	Resetting
	Shutdown
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case StuckRecovery:
		return "StuckRecovery"
	case Terminating:
		return "Terminating"
	case Resetting:
		return "Resetting"
	case Shutdown:
		return "Shutdown"
	}
	return "Unknown"
}

// Episode holds the bookkeeping of the current episode. Epochs and
// CompletedLaps persist across episodes, every other field is cleared
// when a new episode starts.
type Episode struct {
	Track     string
	Training  bool
	MaxEpochs int

	Ticks         int
	Epochs        int
	Laps          int // -1 until the start line is first crossed
	CompletedLaps int
	StuckTicks    int
	Clutch        float64
	DistRaced     float64
	TopSpeed      float64
	End           timestep.EndType

	// Sum of the rewards of every learning axis
	Return float64

	// Exploration rate of each learning axis
	Epsilon map[string]float64
}

// TimedOut returns whether the episode ended because the lap took too
// long
func (e Episode) TimedOut() bool {
	return e.End == timestep.TimedOut
}

// OffTrack returns whether the episode ended with the car leaving the
// track
func (e Episode) OffTrack() bool {
	return e.End == timestep.OffTrack
}

// LapComplete returns whether the episode ended with a completed lap
func (e Episode) LapComplete() bool {
	return e.End == timestep.LapComplete
}

func (e Episode) String() string {
	return fmt.Sprintf("Episode{track: %v, epoch: %v/%v, ticks: %v, "+
		"distance: %.2f, laps: %v, end: %v}", e.Track, e.Epochs, e.MaxEpochs,
		e.Ticks, e.DistRaced, e.CompletedLaps, e.End)
}

// clear resets the per-episode fields
func (e *Episode) clear() {
	e.Ticks = 0
	e.Laps = -1
	e.StuckTicks = 0
	e.Clutch = 0
	e.DistRaced = 0
	e.TopSpeed = 0
	e.End = timestep.Running
}

// Recorder records finished episodes
type Recorder interface {
	Track(e Episode)
	Save()
}
