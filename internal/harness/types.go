package harness

import (
	"github.com/roach88/barcodebuddy/internal/scan"
)

// TraceEvent records one scan step.
type TraceEvent struct {
	Seq     int          `json:"seq"`
	Barcode string       `json:"barcode"`
	Advance string       `json:"advance,omitempty"`
	Outcome scan.Outcome `json:"outcome"`

	// Calls are the mutating catalog calls the step made.
	Calls []string `json:"calls,omitempty"`

	// State is the persisted transaction state after the step.
	State string `json:"state"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
