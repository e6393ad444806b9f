// Package pipeline computes the active window of a promotion and the
// purchase, refund and remaining-capacity figures for it.
//
// A run is a fixed sequence of pure steps over a State. Steps never fail:
// a promotion without a window containing the reference date simply leaves
// State.Active nil, and later steps pass the state through untouched.
package pipeline

import (
	"github.com/xenking/promo-tracker/internal/calendar"
	"github.com/xenking/promo-tracker/internal/domain/promotion"
	"github.com/xenking/promo-tracker/internal/domain/purchase"
)

// Input is the data a run is computed from.
type Input struct {
	Definition promotion.Definition
	Today      calendar.Date
	Purchases  []purchase.Purchase
}

// State is threaded through the steps of a run.
type State struct {
	Input     Input
	Intervals []calendar.Interval
	Active    *ActiveInterval
}

// Step transforms a State. Implementations must not mutate the input state's
// slices or the pointed-to ActiveInterval.
type Step interface {
	Run(s State) State
}

// StepFunc adapts a function to the Step interface.
type StepFunc func(s State) State

// Run implements Step.
func (f StepFunc) Run(s State) State { return f(s) }

// Pipeline runs its steps in order.
type Pipeline struct {
	steps []Step
}

// New creates a Pipeline from the given steps.
func New(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Default returns the standard four-step pipeline: build intervals, select
// the active interval, aggregate purchases, compute available amounts.
func Default() *Pipeline {
	return New(
		BuildIntervals{},
		SelectActive{},
		AggregatePurchases{},
		ComputeAvailable{},
	)
}

// Run executes every step against a fresh state built from in.
func (p *Pipeline) Run(in Input) State {
	s := State{Input: in}
	for _, step := range p.steps {
		s = step.Run(s)
	}
	return s
}
