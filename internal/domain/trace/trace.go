// Package trace records the decision points of one recommendation request.
package trace

import "time"

// Step is one evaluated rule or pipeline stage.
type Step struct {
	Rule    string
	Fired   bool
	Source  string
	Count   int
	Latency time.Duration
	Detail  string
}

// Trace is an append-only list of steps.
type Trace struct {
	steps []Step
}

// Add appends a step.
func (t *Trace) Add(s Step) { t.steps = append(t.steps, s) }

// Steps returns the recorded steps in order.
func (t *Trace) Steps() []Step { return t.steps }

// Fired returns the names of rules that fired, in order.
func (t *Trace) Fired() []string {
	var out []string
	for _, s := range t.steps {
		if s.Fired {
			out = append(out, s.Rule)
		}
	}
	return out
}
