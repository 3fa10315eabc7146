// Package policy implements tabular policies
package policy

import (
	"fmt"

	"github.com/samuelfneumann/torcsrl/agent"
	"github.com/samuelfneumann/torcsrl/agent/tabular/qtable"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// EGreedy implements an ε-greedy policy over a QTable. Ties between
// maximal actions are broken uniformly at random.
type EGreedy[S, A agent.Discrete] struct {
	table   *qtable.QTable[S, A]
	epsilon float64
	eval    bool

	seed rand.Source // Seed for random number generation
	rng  *rand.Rand
}

// NewEGreedy constructs a new EGreedy policy, where e=epsilon is the
// probability with which a random action is selected
func NewEGreedy[S, A agent.Discrete](e float64, seed uint64,
	table *qtable.QTable[S, A]) *EGreedy[S, A] {
	if e < 0 || e > 1 {
		panic(fmt.Sprintf("newEGreedy: epsilon %v not in [0, 1]", e))
	}

	source := rand.NewSource(seed)
	return &EGreedy[S, A]{
		table:   table,
		epsilon: e,
		seed:    source,
		rng:     rand.New(source),
	}
}

// SelectAction selects an action from an ε-greedy policy. In
// evaluation mode the greedy action is always returned.
func (p *EGreedy[S, A]) SelectAction(s S) A {
	greedy := p.GreedyAction(s)
	if p.eval || p.epsilon == 0 {
		return greedy
	}

	actions := p.table.Actions()
	numActions := len(actions)

	// Calculate the ε probability of choosing any action at random
	prob := p.epsilon / float64(numActions)
	actionProbabilites := make([]float64, numActions)
	for i := 0; i < numActions; i++ {
		actionProbabilites[i] = prob
	}

	// Adjust the probability of choosing the greedy action
	actionProbabilites[int(greedy)] += (1.0 - p.epsilon)

	// Construct a categorical distribution over actions using action
	// probabilities
	dist := distuv.NewCategorical(actionProbabilites, p.seed)
	return actions[int(dist.Rand())]
}

// GreedyAction returns an action of maximal value in state s, chosen
// uniformly at random among all maximal actions. The table is never
// modified.
func (p *EGreedy[S, A]) GreedyAction(s S) A {
	_, ties := p.table.Max(s)
	if len(ties) == 1 {
		return ties[0]
	}
	return ties[p.rng.Intn(len(ties))]
}

// Epsilon returns the probability of selecting a random action
func (p *EGreedy[S, A]) Epsilon() float64 {
	return p.epsilon
}

// SetEpsilon sets the probability of selecting a random action
func (p *EGreedy[S, A]) SetEpsilon(e float64) {
	if e < 0 || e > 1 {
		panic(fmt.Sprintf("setEpsilon: epsilon %v not in [0, 1]", e))
	}
	p.epsilon = e
}

// Eval sets the policy to evaluation mode
func (p *EGreedy[S, A]) Eval() {
	p.eval = true
}

// Train sets the policy to training mode
func (p *EGreedy[S, A]) Train() {
	p.eval = false
}

// IsEval indicates if the policy is in evaluation mode
func (p *EGreedy[S, A]) IsEval() bool {
	return p.eval
}
