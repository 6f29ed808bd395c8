package sequencer

import (
	"errors"
	"time"

	"github.com/1broseidon/deskplace/internal/config"
)

// RuleReport is the outcome of one rule.
type RuleReport struct {
	Index   int
	Rule    config.Rule
	Monitor string // connector name of the target monitor, empty if unresolved
	Matched int    // windows matched by the placement step
	// Mutations counts platform requests that were accepted.
	Mutations int
	// Errors holds every recovered failure, in order. A rule with errors may
	// still have been partly applied.
	Errors []error
}

// OK reports whether the rule ran without recovered failures.
func (r *RuleReport) OK() bool {
	return len(r.Errors) == 0
}

// Err joins the rule's recovered errors.
func (r *RuleReport) Err() error {
	return errors.Join(r.Errors...)
}

func (r *RuleReport) fail(err error) {
	r.Errors = append(r.Errors, err)
}

// Report is the outcome of one run.
type Report struct {
	Started  time.Time
	Finished time.Time
	Rules    []RuleReport
	// Canceled is set when the context ended the run early.
	Canceled bool
}

// Failed returns the rules that recorded at least one error.
func (r *Report) Failed() []RuleReport {
	var out []RuleReport
	for _, rr := range r.Rules {
		if !rr.OK() {
			out = append(out, rr)
		}
	}
	return out
}

// Err joins every recovered error of the run.
func (r *Report) Err() error {
	var errs []error
	for _, rr := range r.Rules {
		errs = append(errs, rr.Errors...)
	}
	return errors.Join(errs...)
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}
