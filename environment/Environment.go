// Package environment outlines the interfaces and structs connecting a
// driver to the race server, and the conditions ending an episode
package environment

import (
	"context"
	"errors"

	"github.com/samuelfneumann/torcsrl/control"
	"github.com/samuelfneumann/torcsrl/sensor"
	"github.com/samuelfneumann/torcsrl/timestep"
)

var (
	// ErrRestart is returned by an Environment when the server restarts
	// the race
	ErrRestart = errors.New("race restarted by server")

	// ErrShutdown is returned by an Environment when the server ends
	// the session
	ErrShutdown = errors.New("session shut down by server")
)

// Environment is a race server a driver interacts with
type Environment interface {
	// Start registers the driver with the server and returns the
	// first snapshot of the race
	Start(ctx context.Context) (sensor.Snapshot, error)

	// Step sends an action to the server and returns the snapshot of
	// the next tick. If the server restarts the race or ends the
	// session, ErrRestart or ErrShutdown is returned.
	Step(ctx context.Context, a control.Action) (sensor.Snapshot, error)

	// Close releases the connection to the server
	Close() error
}

// Ender determines when an episode ends
type Ender interface {
	// End determines whether or not the current episode should be
	// ended. If so, the TimeStep is marked as the last of the episode
	// along with the reason it ended.
	End(t *timestep.TimeStep) bool
}

// Resetter is an Ender with state that must be cleared between
// episodes
type Resetter interface {
	Ender
	Reset()
}

// Enders is a list of Enders checked in order. The first Ender that
// ends the episode determines the end type.
type Enders []Ender

// End ends the episode if any Ender in the list does
func (e Enders) End(t *timestep.TimeStep) bool {
	for _, ender := range e {
		if ender.End(t) {
			return true
		}
	}
	return false
}

// Reset resets every Ender in the list that holds state
func (e Enders) Reset() {
	for _, ender := range e {
		if r, ok := ender.(Resetter); ok {
			r.Reset()
		}
	}
}
