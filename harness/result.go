// Package harness measures every benchmark operation against every
// selected client adapter and collects the timing summaries.
package harness

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Result is the outcome of one operation against one adapter. A failed or
// skipped result carries no timings.
type Result struct {
	Operation string `json:"operation"`
	Client    string `json:"client"`
	Group     Group  `json:"group"`

	Summary

	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`

	err error
}

// OK reports whether the result holds timings.
func (r Result) OK() bool {
	return r.Error == "" && !r.Skipped
}

// Err returns the failure recorded for the result, if any. Skipped
// results return nil.
func (r Result) Err() error {
	return r.err
}

// Run is the outcome of one harness invocation.
type Run struct {
	ID       uuid.UUID `json:"id"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Results  []Result  `json:"results"`
}

// Err joins the failures of all results.
func (r *Run) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.err != nil {
			errs = append(errs, res.err)
		}
	}

	return errors.Join(errs...)
}

// Operations returns the distinct operation names in result order.
func (r *Run) Operations() []string {
	var ops []string

	seen := make(map[string]bool)
	for _, res := range r.Results {
		if !seen[res.Operation] {
			seen[res.Operation] = true
			ops = append(ops, res.Operation)
		}
	}

	return ops
}

// ByOperation returns the results of the named operation in adapter order.
func (r *Run) ByOperation(op string) []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Operation == op {
			out = append(out, res)
		}
	}

	return out
}
