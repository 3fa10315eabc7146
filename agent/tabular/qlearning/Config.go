package qlearning

import (
	"fmt"
	"math"
)

// Rule determines how the target of an update is combined with the
// current action value
type Rule int

const (
	// Accumulate adds the step-sized sum of the current value, reward
	// and discounted next value onto the current value:
	//	Q ← Q + α(Q + r + γ max Q')
	Accumulate Rule = iota

	// TD performs the standard temporal difference update:
	//	Q ← Q + α(r + γ max Q' − Q)
	TD
)

func (r Rule) String() string {
	if r == TD {
		return "td"
	}
	return "accumulate"
}

// ParseRule returns the Rule named by s
func ParseRule(s string) (Rule, error) {
	switch s {
	case Accumulate.String():
		return Accumulate, nil
	case TD.String():
		return TD, nil
	}
	return 0, fmt.Errorf("parseRule: unknown rule %q", s)
}

// Schedule determines the exploration rate after some number of epochs
type Schedule interface {
	Epsilon(initial float64, epochs int) float64
}

// Linear lowers ε by Step every epoch, down to 0
type Linear struct {
	Step float64
}

// Epsilon returns the exploration rate after epochs epochs
func (l Linear) Epsilon(initial float64, epochs int) float64 {
	return math.Max(0, initial-l.Step*float64(epochs))
}

// Hyperbolic decays ε as ε₀·MaxEpochs / (MaxEpochs + epochs·K)
type Hyperbolic struct {
	MaxEpochs int
	K         float64
}

// Epsilon returns the exploration rate after epochs epochs
func (h Hyperbolic) Epsilon(initial float64, epochs int) float64 {
	max := float64(h.MaxEpochs)
	return initial * max / (max + float64(epochs)*h.K)
}

// Config represents a configuration for the QLearning agent
type Config struct {
	Epsilon      float64 // initial epsilon for behaviour policy
	LearningRate float64
	Discount     float64
	Schedule     Schedule
	Rule         Rule

	// MaxAbsValue bounds the magnitude of any stored action value.
	// Updates producing an infinite value are clamped to it.
	MaxAbsValue float64
}

// Validate ensures that the Config is valid
func (c Config) Validate() error {
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("epsilon must be in [0, 1]")
	}
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return fmt.Errorf("learning rate must be in (0, 1]")
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("discount must be in [0, 1]")
	}
	if c.Schedule == nil {
		return fmt.Errorf("no epsilon schedule specified")
	}
	if h, ok := c.Schedule.(Hyperbolic); ok && (h.MaxEpochs <= 0 || h.K < 0) {
		return fmt.Errorf("hyperbolic schedule needs positive max epochs " +
			"and non-negative k")
	}
	if c.Rule != Accumulate && c.Rule != TD {
		return fmt.Errorf("unknown rule %v", int(c.Rule))
	}
	if c.MaxAbsValue <= 0 {
		return fmt.Errorf("max absolute value must be positive")
	}
	return nil
}
