package policy

import (
	"github.com/samuelfneumann/torcsrl/agent"
	"github.com/samuelfneumann/torcsrl/agent/tabular/qtable"
)

// NewGreedy creates a new Greedy policy
func NewGreedy[S, A agent.Discrete](seed uint64,
	table *qtable.QTable[S, A]) *EGreedy[S, A] {
	return NewEGreedy(0.0, seed, table)
}
