package policy

import (
	"testing"

	"github.com/samuelfneumann/torcsrl/agent/tabular/qtable"
	"github.com/stretchr/testify/assert"
)

type state int

func (s state) String() string { return [...]string{"A", "B"}[s] }

type action int

func (a action) String() string { return [...]string{"X", "Y", "Z", "W"}[a] }

var (
	states  = []state{0, 1}
	actions = []action{0, 1, 2, 3}
)

func TestGreedyUniqueMax(t *testing.T) {
	table := qtable.New(states, actions)
	table.Set(0, 2, 5)
	p := NewGreedy(1, table)

	for i := 0; i < 50; i++ {
		assert.Equal(t, action(2), p.SelectAction(0))
	}
}

func TestGreedyTieBreakIsUniform(t *testing.T) {
	table := qtable.New(states, actions)
	p := NewGreedy(7, table)

	counts := make(map[action]int)
	for i := 0; i < 4000; i++ {
		counts[p.GreedyAction(1)]++
	}

	assert.Len(t, counts, len(actions))
	for _, c := range counts {
		assert.InDelta(t, 1000, c, 150)
	}
}

func TestGreedyIdempotent(t *testing.T) {
	table := qtable.New(states, actions)
	table.Set(1, 0, 1)
	table.Set(1, 3, 1)
	before := table.Values()

	p1, p2 := NewGreedy(42, table), NewGreedy(42, table)
	for i := 0; i < 20; i++ {
		assert.Equal(t, p1.GreedyAction(1), p2.GreedyAction(1))
	}
	assert.Equal(t, before, table.Values())
}

func TestEGreedyExplores(t *testing.T) {
	table := qtable.New(states, actions)
	table.Set(0, 1, 10)
	p := NewEGreedy(0.4, 3, table)

	n := 10000
	greedy := 0
	for i := 0; i < n; i++ {
		if p.SelectAction(0) == 1 {
			greedy++
		}
	}

	// 1 - ε + ε/|A|
	assert.InDelta(t, 0.7, float64(greedy)/float64(n), 0.03)
}

func TestEvalModeIsGreedy(t *testing.T) {
	table := qtable.New(states, actions)
	table.Set(0, 3, 1)
	p := NewEGreedy(1.0, 3, table)
	p.Eval()
	assert.True(t, p.IsEval())

	for i := 0; i < 50; i++ {
		assert.Equal(t, action(3), p.SelectAction(0))
	}

	p.Train()
	assert.False(t, p.IsEval())
}

func TestSetEpsilon(t *testing.T) {
	p := NewEGreedy(0.5, 1, qtable.New(states, actions))
	p.SetEpsilon(0.25)
	assert.Equal(t, 0.25, p.Epsilon())
	assert.Panics(t, func() { p.SetEpsilon(-1) })
}
