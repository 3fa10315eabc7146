// Package experiment implements functionality for running a driver
// against a race server
package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samuelfneumann/torcsrl/config"
	"github.com/samuelfneumann/torcsrl/driver"
	"github.com/samuelfneumann/torcsrl/environment"
	"github.com/samuelfneumann/torcsrl/experiment/checkpointer"
	"github.com/samuelfneumann/torcsrl/experiment/trackers"
)

// Interface Experiment outlines structs that can run experiments. The
// Run() method runs episodes until the episode limit is reached, the
// server shuts the session down or training is done. The RunEpisode()
// method runs a single episode.
//
// Data about finished episodes is tracked by the trackers.Trackers the
// driver was created with, which are saved when the driver shuts down.
type Experiment interface {
	Run(ctx context.Context) error

	// RunEpisode runs a single episode, returning whether the session
	// is over
	RunEpisode(ctx context.Context) (bool, error)
}

// Trackers returns the Trackers configured by cfg
func Trackers(cfg config.Config) ([]trackers.Tracker, error) {
	p := cfg.Persistence
	var t []trackers.Tracker

	if path := cfg.StatsPath(); path != "" {
		t = append(t, trackers.NewStatistics(path))
	}
	if p.Returns != "" {
		t = append(t, trackers.NewReturn(p.Returns))
	}
	if p.EpisodeLengths != "" {
		t = append(t, trackers.NewEpisodeLength(p.EpisodeLengths))
	}
	if p.Chart != "" {
		t = append(t, trackers.NewChart(p.Chart))
	}
	if p.RunLog != "" {
		runLog, err := trackers.NewSQLite(p.RunLog)
		if err != nil {
			return nil, fmt.Errorf("trackers: %w", err)
		}
		t = append(t, runLog)
	}
	return t, nil
}

// New creates the Online experiment described by cfg on the argument
// Environment, with a new driver recording to the configured trackers
func New(cfg config.Config, env environment.Environment,
	log *slog.Logger) (*Online, error) {
	t, err := Trackers(cfg)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	recorders := make([]driver.Recorder, len(t))
	for i := range t {
		recorders[i] = t[i]
	}
	c, err := driver.New(cfg, log, recorders...)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	var check []checkpointer.Checkpointer
	if n := cfg.Persistence.CheckpointEvery; n > 0 && cfg.Learning() {
		check = append(check, checkpointer.NewNStep(n, c,
			checkpointer.Enumerator(cfg.Persistence.TableDir, "epoch", 0)))
	}

	return NewOnline(env, c, cfg.Transport.MaxEpisodes, cfg.Transport.MaxSteps,
		log, check...), nil
}
