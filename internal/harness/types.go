package harness

import "github.com/roach88/schemaforge/internal/value"

// TraceEvent records one delivery to a scenario subscription.
type TraceEvent struct {
	Subscription string       `json:"subscription"`
	Field        string       `json:"field"`
	Event        string       `json:"event"`
	Payload      value.Object `json:"payload"`
	Seq          int          `json:"seq"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Trace lists every delivery, grouped by subscription in scenario order
	// and in publish order within a subscription.
	Trace []TraceEvent `json:"trace"`

	// Refused maps subscription names to the error that refused them.
	Refused map[string]string `json:"refused,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Refused: make(map[string]string),
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Delivered returns the ids of the events delivered to subscription, in
// order.
func (r *Result) Delivered(subscription string) []string {
	ids := []string{}
	for _, ev := range r.Trace {
		if ev.Subscription == subscription {
			ids = append(ids, ev.Event)
		}
	}
	return ids
}
