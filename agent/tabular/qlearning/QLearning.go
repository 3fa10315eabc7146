// Package qlearning implements the tabular Q-Learning algorithm.
//
// A QLearning agent is generic over the discrete state and action types
// of a single control axis, so the same engine drives every axis
// without knowing which one it controls.
package qlearning

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/torcsrl/agent"
	"github.com/samuelfneumann/torcsrl/agent/tabular/policy"
	"github.com/samuelfneumann/torcsrl/agent/tabular/qtable"
	"github.com/samuelfneumann/torcsrl/utils/floatutils"
)

// QLearning implements the Q-Learning algorithm
type QLearning[S, A agent.Discrete] struct {
	table     *qtable.QTable[S, A]
	behaviour *policy.EGreedy[S, A]
	target    *policy.EGreedy[S, A]
	config    Config

	// State and action most recently selected by Update, used by
	// TerminalUpdate
	last       *S
	lastAction A

	skipped int
}

// New creates a new QLearning agent over the argument states and
// actions with an all-zero table
func New[S, A agent.Discrete](states []S, actions []A, c Config,
	seed uint64) (*QLearning[S, A], error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	table := qtable.New(states, actions)
	return &QLearning[S, A]{
		table:     table,
		behaviour: policy.NewEGreedy(c.Epsilon, seed, table),
		target:    policy.NewGreedy(seed+1, table),
		config:    c,
	}, nil
}

// SelectAction selects an action in state s using the ε-greedy
// behaviour policy
func (q *QLearning[S, A]) SelectAction(s S) A {
	return q.behaviour.SelectAction(s)
}

// GreedyAction returns a maximal action in state s, breaking ties
// uniformly at random
func (q *QLearning[S, A]) GreedyAction(s S) A {
	return q.target.GreedyAction(s)
}

// Update updates the value of taking action a in state prev given that
// the agent arrived in state curr with reward r, then returns the next
// action selected in curr. If prev is nil, or the agent is in
// evaluation mode, the table is left unchanged.
func (q *QLearning[S, A]) Update(prev *S, curr S, a A, r float64) A {
	if prev != nil && !q.IsEval() {
		old := q.table.At(*prev, a)
		max, _ := q.table.Max(curr)

		var value float64
		switch q.config.Rule {
		case TD:
			value = old + q.config.LearningRate*
				(r+q.config.Discount*max-old)
		default:
			value = old + q.config.LearningRate*
				(old+r+q.config.Discount*max)
		}
		q.store(*prev, a, value)
	}

	next := q.SelectAction(curr)
	s := curr
	q.last, q.lastAction = &s, next
	return next
}

// TerminalUpdate corrects the value of the last action selected by
// Update when the episode ends abnormally:
//
//	Q ← (1 − α)Q + α(r + γ max Q)
//
// where both values are taken in the state the action was selected in.
// If Update has not been called this episode, TerminalUpdate does
// nothing.
func (q *QLearning[S, A]) TerminalUpdate(r float64) {
	if q.last == nil || q.IsEval() {
		return
	}

	old := q.table.At(*q.last, q.lastAction)
	max, _ := q.table.Max(*q.last)
	lr := q.config.LearningRate

	q.store(*q.last, q.lastAction, (1-lr)*old+lr*(r+q.config.Discount*max))
}

// store writes value to the table unless it is NaN. Infinite values are
// clamped to the configured maximum magnitude.
func (q *QLearning[S, A]) store(s S, a A, value float64) {
	if math.IsNaN(value) {
		q.skipped++
		return
	}
	if math.IsInf(value, 0) {
		q.skipped++
	}
	max := q.config.MaxAbsValue
	q.table.Set(s, a, floatutils.Clip(value, -max, max))
}

// EndEpisode forgets the last selected state and action
func (q *QLearning[S, A]) EndEpisode() {
	q.last = nil
}

// DecayEpsilon sets the exploration rate to that of the configured
// schedule after the argument number of epochs
func (q *QLearning[S, A]) DecayEpsilon(epochs int) {
	e := q.config.Schedule.Epsilon(q.config.Epsilon, epochs)
	q.behaviour.SetEpsilon(floatutils.Clip(e, 0, 1))
}

// Epsilon returns the current exploration rate
func (q *QLearning[S, A]) Epsilon() float64 {
	return q.behaviour.Epsilon()
}

// Skipped returns the number of updates that produced a non-finite
// value
func (q *QLearning[S, A]) Skipped() int {
	return q.skipped
}

// Table returns the action values of the agent
func (q *QLearning[S, A]) Table() *qtable.QTable[S, A] {
	return q.table
}

// Load loads the action values of the agent from filename
func (q *QLearning[S, A]) Load(filename string) error {
	return q.table.Load(filename)
}

// Save saves the action values of the agent to filename
func (q *QLearning[S, A]) Save(filename string) error {
	return q.table.Save(filename)
}

// Eval sets the agent to evaluation mode: actions are selected
// greedily and the table is never updated
func (q *QLearning[S, A]) Eval() {
	q.behaviour.Eval()
}

// Train sets the agent to training mode
func (q *QLearning[S, A]) Train() {
	q.behaviour.Train()
}

// IsEval indicates if the agent is in evaluation mode
func (q *QLearning[S, A]) IsEval() bool {
	return q.behaviour.IsEval()
}
