// Package agent defines the interfaces of tabular agents
package agent

import "fmt"

// Discrete is the capability every discrete state or action type has:
// an integer index into a closed, enumerated set with a printable name.
// Index i of a Discrete type must be valid for 0 <= i < the size of the
// set the type is enumerated by.
type Discrete interface {
	~int
	fmt.Stringer
}

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns action values, and a
// Policy which chooses actions in each state. The Learner and Policy
// share the same action values so that changes the Learner makes are
// reflected in the actions the Policy chooses.
type Agent[S, A Discrete] interface {
	Learner[S, A]
	Policy[S, A]
}

// Learner implements a learning algorithm that defines how action
// values are updated.
type Learner[S, A Discrete] interface {
	// Update performs a single update for taking action a in state prev
	// and arriving in state curr with reward r. It returns the next
	// action to take in curr. If prev is nil, only an action is
	// selected.
	Update(prev *S, curr S, a A, r float64) A

	// TerminalUpdate corrects the value of the last action taken when
	// the episode ends
	TerminalUpdate(r float64)

	// EndEpisode performs cleanup at the end of an episode
	EndEpisode()
}

// Policy represents a policy that an agent can have.
type Policy[S, A Discrete] interface {
	SelectAction(s S) A
	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}
