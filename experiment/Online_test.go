package experiment

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/torcsrl/config"
	"github.com/samuelfneumann/torcsrl/control"
	"github.com/samuelfneumann/torcsrl/driver"
	"github.com/samuelfneumann/torcsrl/environment"
	"github.com/samuelfneumann/torcsrl/experiment/trackers"
	"github.com/samuelfneumann/torcsrl/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// server is a race server restarting the race after a fixed number of
// ticks, or whenever a restart is requested, and shutting the session
// down after a fixed number of races
type server struct {
	ticks    int
	races    int
	started  int
	tick     int
	actions  []control.Action
	restarts int
}

func (s *server) snapshot() sensor.Snapshot {
	snap := sensor.Snapshot{
		Speed:         60,
		Gear:          2,
		RPM:           4000,
		CurLapTime:    float64(s.tick) * 0.02,
		DistRaced:     float64(s.tick),
		DistFromStart: 100 + float64(s.tick),
	}
	for i := range snap.Track {
		snap.Track[i] = 30
	}
	snap.Track[sensor.TrackCenter] = 200
	return snap
}

func (s *server) Start(ctx context.Context) (sensor.Snapshot, error) {
	s.started++
	if s.started > s.races {
		return sensor.Snapshot{}, environment.ErrShutdown
	}
	s.tick = 0
	return s.snapshot(), nil
}

func (s *server) Step(ctx context.Context, a control.Action) (sensor.Snapshot,
	error) {
	s.actions = append(s.actions, a)
	if err := ctx.Err(); err != nil {
		return sensor.Snapshot{}, err
	}

	s.tick++
	if a.Restart || s.tick >= s.ticks {
		s.restarts++
		return sensor.Snapshot{}, environment.ErrRestart
	}
	return s.snapshot(), nil
}

func (s *server) Close() error { return nil }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) config.Config {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Persistence.TableDir = dir
	cfg.Persistence.StatsTrain = filepath.Join(dir, "StatisticsTrain.csv")
	cfg.Persistence.StatsTest = filepath.Join(dir, "StatisticsTest.csv")
	return cfg
}

func TestOnlineMaxSteps(t *testing.T) {
	cfg := testConfig(t)
	cfg.Transport.MaxEpisodes = 2
	cfg.Transport.MaxSteps = 3
	env := &server{ticks: 100, races: 10}

	o, err := New(cfg, env, discard())
	require.NoError(t, err)
	require.NoError(t, o.Run(context.Background()))

	// Three commands, then a restart request, in each of two races
	require.Len(t, env.actions, 8)
	for i, a := range env.actions {
		assert.Equal(t, i%4 == 3, a.Restart, "action %v", i)
	}
	assert.Equal(t, 2, env.restarts)
	assert.Equal(t, driver.Shutdown, o.Controller().State())

	rows, err := trackers.LoadStatistics(cfg.Persistence.StatsTrain)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 3, rows[0].Ticks)
	assert.Equal(t, []int{1, 2, 3}, []int{rows[0].Epoch, rows[1].Epoch,
		rows[2].Epoch})
}

func TestOnlineShutdown(t *testing.T) {
	cfg := testConfig(t)
	cfg.Transport.MaxEpisodes = 0
	env := &server{ticks: 5, races: 1}

	o, err := New(cfg, env, discard())
	require.NoError(t, err)
	require.NoError(t, o.Run(context.Background()))

	assert.Equal(t, 2, env.started)
	assert.Equal(t, 1, env.restarts)
	assert.Equal(t, driver.Shutdown, o.Controller().State())

	over, err := o.RunEpisode(context.Background())
	assert.NoError(t, err)
	assert.True(t, over)
}

func TestOnlineDone(t *testing.T) {
	cfg := testConfig(t)
	cfg.Transport.MaxEpisodes = 0
	cfg.Learner.MaxEpochs = 3
	env := &server{ticks: 4, races: 100}

	o, err := New(cfg, env, discard())
	require.NoError(t, err)
	require.NoError(t, o.Run(context.Background()))

	assert.Equal(t, 3, env.restarts)
	assert.True(t, o.Controller().Done())
}

func TestOnlineCancel(t *testing.T) {
	cfg := testConfig(t)
	env := &server{ticks: 100, races: 1}

	o, err := New(cfg, env, discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = o.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, driver.Shutdown, o.Controller().State())
}

func TestOnlineCheckpoint(t *testing.T) {
	cfg := testConfig(t)
	cfg.Transport.MaxEpisodes = 2
	cfg.Persistence.CheckpointEvery = 1
	env := &server{ticks: 3, races: 10}

	o, err := New(cfg, env, discard())
	require.NoError(t, err)
	require.NoError(t, o.Run(context.Background()))

	for _, epoch := range []string{"epoch1", "epoch2"} {
		_, err := os.Stat(driver.TableFile(
			filepath.Join(cfg.Persistence.TableDir, epoch), config.Steer))
		assert.NoError(t, err, epoch)
	}
}

func TestTrackers(t *testing.T) {
	cfg := testConfig(t)
	dir := cfg.Persistence.TableDir
	cfg.Persistence.Returns = filepath.Join(dir, "returns.bin")
	cfg.Persistence.EpisodeLengths = filepath.Join(dir, "lengths.bin")
	cfg.Persistence.Chart = filepath.Join(dir, "chart.html")
	cfg.Persistence.RunLog = filepath.Join(dir, "runs.db")

	tr, err := Trackers(cfg)
	require.NoError(t, err)
	assert.Len(t, tr, 5)

	cfg.Driver.Mode = config.Drive
	cfg.Persistence = config.PersistenceConfig{
		TableDir:  dir,
		StatsTest: filepath.Join(dir, "StatisticsTest.csv"),
	}
	tr, err = Trackers(cfg)
	require.NoError(t, err)
	require.Len(t, tr, 1)
	assert.IsType(t, &trackers.Statistics{}, tr[0])
}
