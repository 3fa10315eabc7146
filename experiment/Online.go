package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samuelfneumann/torcsrl/control"
	"github.com/samuelfneumann/torcsrl/driver"
	"github.com/samuelfneumann/torcsrl/environment"
	"github.com/samuelfneumann/torcsrl/experiment/checkpointer"
)

// Online is an Experiment that drives a Controller online against an
// Environment, one tick at a time
type Online struct {
	env         environment.Environment
	controller  *driver.Controller
	maxEpisodes int // 0 for no limit
	maxSteps    int // per episode, 0 for no limit

	checkpointers []checkpointer.Checkpointer
	log           *slog.Logger
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given controller. Once an episode has run for
// maxSteps ticks, a restart is requested instead of consulting the
// controller.
func NewOnline(e environment.Environment, c *driver.Controller, maxEpisodes,
	maxSteps int, log *slog.Logger, check ...checkpointer.Checkpointer) *Online {
	return &Online{
		env:           e,
		controller:    c,
		maxEpisodes:   maxEpisodes,
		maxSteps:      maxSteps,
		checkpointers: check,
		log:           log,
	}
}

// Controller returns the controller driven by the experiment
func (o *Online) Controller() *driver.Controller {
	return o.controller
}

// RunEpisode runs a single episode, returning whether the session is
// over. The episode lasts until the server restarts the race or shuts
// the session down.
func (o *Online) RunEpisode(ctx context.Context) (bool, error) {
	s, err := o.env.Start(ctx)
	if err != nil {
		return o.handle(err)
	}

	for step := 1; ; step++ {
		var a control.Action
		if o.maxSteps == 0 || step <= o.maxSteps {
			a = o.controller.Control(s)
		} else {
			a = control.Restart()
		}

		s, err = o.env.Step(ctx, a)
		if err != nil {
			return o.handle(err)
		}
	}
}

// handle reacts to an error ending an episode
func (o *Online) handle(err error) (bool, error) {
	switch {
	case errors.Is(err, environment.ErrRestart):
		if err := o.controller.Reset(); err != nil {
			o.log.Error("could not persist episode", "error", err)
		}
		o.checkpoint()
		return false, nil

	case errors.Is(err, environment.ErrShutdown):
		o.log.Info("server shut down the session")
		return true, nil
	}
	return true, fmt.Errorf("runEpisode: %w", err)
}

// checkpoint checkpoints the controller after an episode
func (o *Online) checkpoint() {
	e := o.controller.Episode()
	for _, c := range o.checkpointers {
		if err := c.Checkpoint(e); err != nil {
			o.log.Error("could not checkpoint tables", "epoch", e.Epochs,
				"error", err)
		}
	}
}

// Run runs episodes until the episode limit is reached, the session is
// shut down, training is done or ctx is cancelled. The controller is
// always shut down before Run returns.
func (o *Online) Run(ctx context.Context) (err error) {
	defer func() {
		err = errors.Join(err, o.controller.Shutdown())
	}()

	for episode := 0; o.maxEpisodes == 0 || episode < o.maxEpisodes; episode++ {
		over, err := o.RunEpisode(ctx)
		if err != nil {
			return err
		}
		if over {
			return nil
		}

		if o.controller.Done() {
			o.log.Info("training done", "epochs", o.controller.Episode().Epochs)
			return nil
		}
	}
	return nil
}
