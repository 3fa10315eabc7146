package trackers

import "github.com/samuelfneumann/torcsrl/driver"

// EpisodeLength tracks and saves the lengths of episodes in ticks
type EpisodeLength struct {
	episodeLengths []int
	filename       string
}

// NewEpisodeLength returns a new EpisodeLength saver which will save
// its data at the specified location filename
func NewEpisodeLength(filename string) Tracker {
	var saver EpisodeLength
	saver.filename = filename
	return &saver
}

// Track caches the length of a finished episode
func (e *EpisodeLength) Track(ep driver.Episode) {
	e.episodeLengths = append(e.episodeLengths, ep.Ticks)
}

// Save saves the data tracked by the EpisodeLength Tracker to disk.
func (e *EpisodeLength) Save() {
	save(e.filename, e.episodeLengths)
}
