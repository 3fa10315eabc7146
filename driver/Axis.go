package driver

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/samuelfneumann/torcsrl/agent"
	"github.com/samuelfneumann/torcsrl/agent/tabular/qlearning"
	"github.com/samuelfneumann/torcsrl/control"
	"github.com/samuelfneumann/torcsrl/metrics"
	"github.com/samuelfneumann/torcsrl/sensor"
	"github.com/samuelfneumann/torcsrl/timestep"
	"golang.org/x/time/rate"
)

// Axis is a single control axis of the car with discrete states S and
// discrete actions A
type Axis[S, A agent.Discrete] interface {
	// Classify returns the discrete state of a snapshot
	Classify(s sensor.Snapshot) S

	// Decode writes the continuous command of action a in snapshot s
	// to the fields of out owned by the axis
	Decode(s sensor.Snapshot, a A, out *control.Action)

	// Heuristic writes the hand-coded command of the axis to out
	Heuristic(s sensor.Snapshot, out *control.Action)

	// Hold returns the action to decode on ticks without an update
	// given the last action selected and the greedy action of the
	// current state
	Hold(last, greedy A) A

	// Reward scores a transition
	Reward(t timestep.Transition) float64
}

// runner drives a single learning axis. It hides the state and action
// types of the axis so that axes of different types can be driven
// together.
type runner interface {
	Name() string

	// Act writes the command of the axis for snapshot s to out. If fit
	// is false the snapshot is not used for learning. last is the
	// command sent on the previous tick.
	Act(s sensor.Snapshot, fit bool, last control.Action, out *control.Action)

	Terminal(r float64)
	Reset(epochs int)
	Eval()

	Epsilon() float64
	Return() float64
	Skipped() int
	Load(dir string) error
	Save(dir string) error
}

// TableFile returns the file the Q-table of the named axis is stored in
func TableFile(dir, axis string) string {
	return filepath.Join(dir, fmt.Sprintf("%vQTable.csv", axis))
}

// learner implements runner with a QLearning agent whose updates are
// throttled
type learner[S, A agent.Discrete] struct {
	name  string
	axis  Axis[S, A]
	agent *qlearning.QLearning[S, A]

	every    int
	interval time.Duration
	throttle *rate.Sometimes

	// Snapshot, state and command of the last update
	prev    *sensor.Snapshot
	state   *S
	command control.Action

	initial A

	// selected is the action the agent chose in state at the last
	// update, action the one decoded on the current tick
	selected A
	action   A

	// Sum of rewards this episode
	ret float64

	log *slog.Logger
}

func newLearner[S, A agent.Discrete](name string, axis Axis[S, A],
	states []S, actions []A, initial A, c qlearning.Config, every int,
	interval time.Duration, seed uint64, log *slog.Logger) (*learner[S, A],
	error) {
	q, err := qlearning.New(states, actions, c, seed)
	if err != nil {
		return nil, fmt.Errorf("newLearner: axis %v: %w", name, err)
	}

	// A throttle without any cadence only runs once
	if every == 0 && interval == 0 {
		every = 1
	}

	l := &learner[S, A]{
		name:     name,
		axis:     axis,
		agent:    q,
		every:    every,
		interval: interval,
		initial:  initial,
		log:      log.With("axis", name),
	}
	l.Reset(0)
	return l, nil
}

func (l *learner[S, A]) Name() string {
	return l.name
}

func (l *learner[S, A]) Act(s sensor.Snapshot, fit bool, last control.Action,
	out *control.Action) {
	updated := false
	if fit {
		l.throttle.Do(func() {
			curr := l.axis.Classify(s)
			t := timestep.NewTransition(l.prev, s).WithCommands(l.command, last)
			r := l.axis.Reward(t)

			l.selected = l.agent.Update(l.state, curr, l.selected, r)
			l.action = l.selected
			l.prev, l.state = &s, &curr
			l.ret += r
			updated = true

			metrics.Updates.WithLabelValues(l.name).Inc()
			metrics.Rewards.WithLabelValues(l.name).Observe(r)
		})
	}

	if !updated {
		l.action = l.axis.Hold(l.selected,
			l.agent.GreedyAction(l.axis.Classify(s)))
	}
	l.axis.Decode(s, l.action, out)

	if updated {
		l.command = *out
	}
}

func (l *learner[S, A]) Terminal(r float64) {
	l.agent.TerminalUpdate(r)
	l.ret += r
	metrics.Rewards.WithLabelValues(l.name).Observe(r)
}

// Reset prepares the learner for a new episode following epochs
// completed epochs
func (l *learner[S, A]) Reset(epochs int) {
	l.agent.EndEpisode()
	if !l.agent.IsEval() {
		l.agent.DecayEpsilon(epochs)
	}

	l.throttle = &rate.Sometimes{Every: l.every, Interval: l.interval}
	l.prev, l.state = nil, nil
	l.command = control.New()
	l.selected, l.action = l.initial, l.initial
	l.ret = 0

	metrics.Epsilon.WithLabelValues(l.name).Set(l.agent.Epsilon())
}

func (l *learner[S, A]) Eval() {
	l.agent.Eval()
}

func (l *learner[S, A]) Epsilon() float64 {
	return l.agent.Epsilon()
}

func (l *learner[S, A]) Return() float64 {
	return l.ret
}

func (l *learner[S, A]) Skipped() int {
	return l.agent.Skipped()
}

func (l *learner[S, A]) Load(dir string) error {
	filename := TableFile(dir, l.name)
	if err := l.agent.Load(filename); err != nil {
		return fmt.Errorf("load: axis %v: %w", l.name, err)
	}
	l.log.Debug("loaded table", "file", filename)
	return nil
}

func (l *learner[S, A]) Save(dir string) error {
	filename := TableFile(dir, l.name)
	if err := l.agent.Save(filename); err != nil {
		return fmt.Errorf("save: axis %v: %w", l.name, err)
	}
	l.log.Debug("saved table", "file", filename)
	return nil
}
