// Package driver implements the episode controller of the car.
//
// A Controller turns one sensor snapshot into one command per tick. It
// checks the termination conditions of the episode first, then the
// stuck detector, and only then lets each learning axis select and
// decode an action. Axes that are not learning fall back to their
// hand-coded heuristic.
package driver

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/samuelfneumann/torcsrl/agent/tabular/qlearning"
	"github.com/samuelfneumann/torcsrl/axis/accel"
	"github.com/samuelfneumann/torcsrl/axis/clutch"
	"github.com/samuelfneumann/torcsrl/axis/gear"
	"github.com/samuelfneumann/torcsrl/axis/steer"
	"github.com/samuelfneumann/torcsrl/config"
	"github.com/samuelfneumann/torcsrl/control"
	"github.com/samuelfneumann/torcsrl/environment"
	"github.com/samuelfneumann/torcsrl/metrics"
	"github.com/samuelfneumann/torcsrl/safety"
	"github.com/samuelfneumann/torcsrl/sensor"
	"github.com/samuelfneumann/torcsrl/timestep"
)

// ErrShutdown is returned when a shut down Controller is reset
var ErrShutdown = errors.New("controller is shut down")

// Controller is the episode controller. It is not safe for concurrent
// use: ticks must be handled sequentially.
type Controller struct {
	cfg     config.Config
	state   State
	episode Episode

	runners    []runner
	heuristics []func(sensor.Snapshot, *control.Action)
	clutchAxis bool // the clutch axis commands the clutch

	stuck  *safety.Stuck
	launch *safety.Clutch
	laps   *environment.LapComplete
	enders environment.Enders

	// Command sent on the previous tick
	last control.Action

	recorders []Recorder
	log       *slog.Logger
}

// New creates a new Controller for the configured axes. Tables already
// stored in the table directory are loaded; missing tables start at
// zero. In drive mode every axis selects actions greedily and its
// table is never written.
func New(cfg config.Config, log *slog.Logger, recorders ...Recorder) (*Controller,
	error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	launch := safety.NewClutch(cfg.Safety, sensor.ParseStage(cfg.Driver.Stage))
	c := &Controller{
		cfg:       cfg,
		state:     Running,
		stuck:     safety.NewStuck(cfg.Safety, cfg.Physics.SteerLock),
		launch:    launch,
		laps:      environment.NewLapComplete(),
		last:      control.New(),
		recorders: recorders,
		log:       log.With("track", cfg.Driver.Track, "mode", cfg.Driver.Mode),
	}
	c.enders = environment.Enders{
		environment.NewTimeLimit(cfg.Driver.LapTimeLimit),
		c.laps,
		environment.NewOffTrack(),
	}
	c.episode = Episode{
		Track:     cfg.Driver.Track,
		Training:  cfg.Learning(),
		MaxEpochs: cfg.Learner.MaxEpochs,
	}
	c.episode.clear()

	steerAxis := steer.New(cfg.Physics)
	accelAxis := accel.New(cfg.Physics, safety.NewABS(cfg.Safety))
	gearAxis := gear.New(cfg.Physics)
	clutchAxis := clutch.New(cfg.Physics, launch)

	active := make(map[string]bool)
	for i, a := range cfg.Driver.Axes {
		qc, err := agentConfig(cfg.Learner, a)
		if err != nil {
			return nil, fmt.Errorf("new: %w", err)
		}
		seed := cfg.Learner.Seed + 2*uint64(i)

		var r runner
		switch a.Name {
		case config.Steer:
			r, err = newLearner[steer.State, steer.Action](a.Name, steerAxis,
				steer.States(), steer.Actions(), steer.KeepStraight, qc,
				a.Every, a.Interval, seed, c.log)
		case config.Accel:
			r, err = newLearner[accel.State, accel.Action](a.Name, accelAxis,
				accel.States(), accel.Actions(), accel.FullThrottle, qc,
				a.Every, a.Interval, seed, c.log)
		case config.Gear:
			r, err = newLearner[gear.State, gear.Action](a.Name, gearAxis,
				gear.States(), gear.Actions(), gear.KeepGear, qc,
				a.Every, a.Interval, seed, c.log)
		case config.Clutch:
			r, err = newLearner[clutch.State, clutch.Action](a.Name, clutchAxis,
				clutch.States(), clutch.Actions(), clutch.KeepGear, qc,
				a.Every, a.Interval, seed, c.log)
		}
		if err != nil {
			return nil, fmt.Errorf("new: %w", err)
		}

		if err := r.Load(cfg.Persistence.TableDir); err != nil {
			return nil, fmt.Errorf("new: %w", err)
		}
		if !cfg.Learning() {
			r.Eval()
		}

		c.runners = append(c.runners, r)
		active[a.Name] = true
	}

	if !active[config.Steer] {
		c.heuristics = append(c.heuristics, steerAxis.Heuristic)
	}
	if !active[config.Accel] {
		c.heuristics = append(c.heuristics, accelAxis.Heuristic)
	}
	if !active[config.Gear] && !active[config.Clutch] {
		c.heuristics = append(c.heuristics, gearAxis.Heuristic)
	}
	c.clutchAxis = active[config.Clutch]

	c.log.Info("controller ready", "axes", len(c.runners),
		"epsilon", c.epsilon())
	return c, nil
}

// agentConfig returns the configuration of the Q-learning agent of an
// axis
func agentConfig(l config.LearnerConfig, a config.AxisConfig) (qlearning.Config,
	error) {
	rule, err := qlearning.ParseRule(l.Rule)
	if err != nil {
		return qlearning.Config{}, fmt.Errorf("agentConfig: %w", err)
	}

	var schedule qlearning.Schedule
	switch a.Schedule {
	case config.Linear:
		schedule = qlearning.Linear{Step: l.DecayStep}
	default:
		schedule = qlearning.Hyperbolic{MaxEpochs: l.MaxEpochs, K: l.DecayK}
	}

	return qlearning.Config{
		Epsilon:      l.Epsilon,
		LearningRate: l.LearningRate,
		Discount:     l.Discount,
		Schedule:     schedule,
		Rule:         rule,
		MaxAbsValue:  l.MaxAbsValue,
	}, nil
}

// Control returns the command for the snapshot of the current tick.
// Once the episode has ended, every call requests a restart until the
// Controller is reset.
func (c *Controller) Control(raw sensor.Snapshot) control.Action {
	start := time.Now()
	defer func() {
		metrics.TickLatency.Observe(time.Since(start).Seconds())
	}()
	metrics.Ticks.WithLabelValues(c.state.String()).Inc()

	switch c.state {
	case Terminating:
		return control.Restart()
	case Resetting, Shutdown:
		return control.New()
	}

	s, fit := raw.Sanitize()
	if !fit {
		metrics.RejectedSnapshots.Inc()
		c.log.Warn("snapshot out of range, not learning from it",
			"tick", c.episode.Ticks+1)
	}

	c.episode.Ticks++
	c.episode.DistRaced = s.DistRaced
	c.episode.TopSpeed = math.Max(c.episode.TopSpeed, s.Speed)
	metrics.DistanceRaced.Set(s.DistRaced)

	stepType := timestep.Mid
	if c.episode.Ticks == 1 {
		stepType = timestep.First
	}
	step := timestep.New(stepType, 0, s, c.episode.Ticks)
	ended := c.enders.End(&step)
	c.episode.Laps = c.laps.Laps()
	if ended {
		c.terminate(step.EndType())
		return control.Restart()
	}

	stuck := c.stuck.Observe(s)
	c.episode.StuckTicks = c.stuck.Ticks()
	if stuck {
		if c.state != StuckRecovery {
			c.log.Info("car stuck, recovering", "tick", c.episode.Ticks,
				"angle", s.Angle, "trackPos", s.TrackPos)
			c.state = StuckRecovery
		}

		a := c.stuck.Recover(s)
		a.Clutch = c.launch.Step(s)
		return c.send(a)
	}
	if c.state == StuckRecovery {
		c.log.Info("car recovered", "tick", c.episode.Ticks)
		c.state = Running
	}

	out := control.New()
	for _, r := range c.runners {
		r.Act(s, fit, c.last, &out)
	}
	for _, heuristic := range c.heuristics {
		heuristic(s, &out)
	}
	if !c.clutchAxis {
		out.Clutch = c.launch.Step(s)
	}
	return c.send(out)
}

// send records and returns the clamped command a
func (c *Controller) send(a control.Action) control.Action {
	a = a.Limit()
	c.episode.Clutch = a.Clutch
	c.last = a
	return a
}

// terminate ends the current episode
func (c *Controller) terminate(end timestep.EndType) {
	c.episode.End = end
	switch end {
	case timestep.OffTrack:
		for _, r := range c.runners {
			r.Terminal(c.cfg.Driver.OffTrackPenalty)
		}
	case timestep.LapComplete:
		c.episode.CompletedLaps++
	}

	c.state = Terminating
	metrics.Episodes.WithLabelValues(end.String()).Inc()
	c.log.Info("episode ended", "end", end, "epoch", c.episode.Epochs+1,
		"ticks", c.episode.Ticks, "distance", c.episode.DistRaced)
}

// Reset ends the current episode and starts the next one. The tables
// of the learning axes are saved and the episode is recorded before
// the exploration rate of each axis is decayed. An error saving the
// tables does not prevent the next episode from starting.
func (c *Controller) Reset() error {
	if c.state == Shutdown {
		return fmt.Errorf("reset: %w", ErrShutdown)
	}
	c.state = Resetting

	c.episode.Epochs++
	err := c.persist()

	for _, r := range c.runners {
		r.Reset(c.episode.Epochs)
	}
	c.episode.clear()
	c.enders.Reset()
	c.stuck.Reset()
	c.launch.Reset()
	c.last = control.New()

	metrics.Epoch.Set(float64(c.episode.Epochs))
	c.log.Info("restarting race", "epoch", c.episode.Epochs,
		"epsilon", c.epsilon())
	c.state = Running

	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

// Shutdown persists the tables and the final episode once more and
// stops the Controller. Shutting down twice does nothing.
func (c *Controller) Shutdown() error {
	if c.state == Shutdown {
		return nil
	}

	c.episode.Epochs++
	if c.episode.End == timestep.Running {
		c.episode.End = timestep.Shutdown
		metrics.Episodes.WithLabelValues(timestep.Shutdown.String()).Inc()
	}
	err := c.persist()
	for _, rec := range c.recorders {
		rec.Save()
	}

	c.state = Shutdown
	c.log.Info("shut down", "epochs", c.episode.Epochs,
		"completedLaps", c.episode.CompletedLaps)

	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// persist saves the tables in training mode and records the current
// episode
func (c *Controller) persist() error {
	var errs []error
	if c.cfg.Learning() {
		errs = append(errs, c.SaveTables(c.cfg.Persistence.TableDir))
	}

	e := c.Episode()
	for _, rec := range c.recorders {
		rec.Track(e)
	}
	return errors.Join(errs...)
}

// SaveTables saves the table of each learning axis to dir
func (c *Controller) SaveTables(dir string) error {
	var errs []error
	for _, r := range c.runners {
		if err := r.Save(dir); err != nil {
			c.log.Error("could not save table", "axis", r.Name(), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Done returns whether training has run for the configured number of
// epochs. A driving Controller is never done.
func (c *Controller) Done() bool {
	return c.cfg.Learning() && c.episode.Epochs >= c.cfg.Learner.MaxEpochs
}

// State returns the state of the Controller
func (c *Controller) State() State {
	return c.state
}

// Episode returns the bookkeeping of the current episode
func (c *Controller) Episode() Episode {
	e := c.episode
	e.Epsilon = c.epsilon()
	for _, r := range c.runners {
		e.Return += r.Return()
	}
	return e
}

// Epsilon returns the exploration rate of the named axis and whether
// the axis is learning
func (c *Controller) Epsilon(axis string) (float64, bool) {
	for _, r := range c.runners {
		if r.Name() == axis {
			return r.Epsilon(), true
		}
	}
	return 0, false
}

// Skipped returns the number of updates of each learning axis that
// produced a non-finite value
func (c *Controller) Skipped() map[string]int {
	skipped := make(map[string]int, len(c.runners))
	for _, r := range c.runners {
		skipped[r.Name()] = r.Skipped()
	}
	return skipped
}

func (c *Controller) epsilon() map[string]float64 {
	eps := make(map[string]float64, len(c.runners))
	for _, r := range c.runners {
		eps[r.Name()] = r.Epsilon()
	}
	return eps
}
