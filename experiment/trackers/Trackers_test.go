package trackers

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/samuelfneumann/torcsrl/driver"
	"github.com/samuelfneumann/torcsrl/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func episodes() []driver.Episode {
	return []driver.Episode{
		{
			Track: "g-track-1", Training: true, MaxEpochs: 250, Epochs: 1,
			Ticks: 812, DistRaced: 431.5, TopSpeed: 98.25,
			End: timestep.OffTrack, Return: -1210,
			Epsilon: map[string]float64{"steer": 0.98, "accel": 0.98},
		},
		{
			Track: "g-track-1", Training: true, MaxEpochs: 250, Epochs: 2,
			Ticks: 4020, DistRaced: 2057.125, CompletedLaps: 1, TopSpeed: 141,
			End: timestep.LapComplete, Return: 3400,
			Epsilon: map[string]float64{"steer": 0.96, "accel": 0.96},
		},
	}
}

func TestStatistics(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "StatisticsTrain.csv")

	s := NewStatistics(filename)
	for _, e := range episodes() {
		s.Track(e)
	}
	s.Save()

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "track,epoch,ticks,distance,completedLaps,maxEpochs,topSpeed",
		lines[0])
	assert.Equal(t, "g-track-1,1,812,431.5,0,250,98.25", lines[1])

	rows, err := LoadStatistics(filename)
	require.NoError(t, err)
	want := []Row{NewRow(episodes()[0]), NewRow(episodes()[1])}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("statistics mismatch (-want +got):\n%s", diff)
	}

	// A second run appends without repeating the header
	NewStatistics(filename).Track(episodes()[0])
	rows, err = LoadStatistics(filename)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestLoadStatisticsErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadStatistics(filepath.Join(dir, "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	tests := map[string]string{
		"fields": "g-track-1,1,812\n",
		"number": "g-track-1,one,812,431.5,0,250,98.25\n",
		"float":  "g-track-1,1,812,far,0,250,98.25\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			filename := filepath.Join(dir, name+".csv")
			require.NoError(t, os.WriteFile(filename, []byte(content), 0o644))

			_, err := LoadStatistics(filename)
			assert.True(t, errors.Is(err, ErrCorrupt), "got %v", err)
		})
	}
}

func TestReturn(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "returns.bin")

	r := NewReturn(filename)
	for _, e := range episodes() {
		r.Track(e)
	}
	r.Save()

	assert.Equal(t, []float64{-1210, 3400}, LoadData[float64](filename))

	assert.Panics(t, func() { r.Track(episodes()[0]) })
}

func TestEpisodeLength(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "lengths.bin")

	l := NewEpisodeLength(filename)
	for _, e := range episodes() {
		l.Track(e)
	}
	l.Save()

	assert.Equal(t, []int{812, 4020}, LoadData[int](filename))
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	assert.NotEmpty(t, s.RunID())

	for _, e := range episodes() {
		s.Track(e)
	}

	rows, err := s.Episodes()
	require.NoError(t, err)
	want := []Row{NewRow(episodes()[0]), NewRow(episodes()[1])}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("run log mismatch (-want +got):\n%s", diff)
	}

	eps, err := s.Epsilon("steer")
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{1: 0.98, 2: 0.96}, eps)

	// Runs sharing a database are kept apart
	other, err := NewSQLite(path)
	require.NoError(t, err)
	other.Track(episodes()[0])
	rows, err = other.Episodes()
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	other.Save()
	s.Save()
}

func TestChart(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "chart.html")

	c := NewChart(filename)
	for _, e := range episodes() {
		c.Track(e)
	}
	c.Save()

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Distance raced per epoch")
	assert.Contains(t, string(data), "g-track-1")
}
