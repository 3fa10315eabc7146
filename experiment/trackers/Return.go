package trackers

import (
	"fmt"

	"github.com/samuelfneumann/torcsrl/driver"
)

// Return tracks and saves the episodic return in an experiment: the
// sum of the rewards every learning axis observed in an episode,
// including the penalty of leaving the track.
//
// Note: Episodes must be tracked in the order they were run. The
// return of an episode that has not finished is never saved.
type Return struct {
	lastEpoch      int
	episodeReturns []float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker
func NewReturn(filename string) Tracker {
	var saver Return
	saver.filename = filename
	return &saver
}

// Track caches the return of a finished episode.
//
// Track panics if it is called for non-sequential episodes
func (r *Return) Track(e driver.Episode) {
	// Ensure that Track is called on sequential episodes
	if r.lastEpoch != 0 && r.lastEpoch+1 != e.Epochs {
		msg := fmt.Sprintf("last two episodes tracked are not "+
			"sequential: epoch %v --> epoch %v were tracked",
			r.lastEpoch, e.Epochs)
		panic(msg)
	}

	r.episodeReturns = append(r.episodeReturns, e.Return)
	r.lastEpoch = e.Epochs
}

// Save saves the data tracked by the Return Tracker to disk.
func (r *Return) Save() {
	save(r.filename, r.episodeReturns)
}
