package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/roach88/schemaforge/internal/extract"
	"github.com/roach88/schemaforge/internal/predicate"
	"github.com/roach88/schemaforge/internal/schema"
	"github.com/roach88/schemaforge/internal/subscription"
)

// Harness is the test execution engine for one scenario.
type Harness struct {
	schema *schema.Schema
	broker *subscription.Broker
	logger zerolog.Logger
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Load declarations and build the schema
// 2. Open every subscription, checking expected refusals
// 3. Publish every event and dispatch until the queue drains
// 4. Collect deliveries and evaluate assertions
//
// A returned error means the scenario could not run at all; assertion
// failures are reported in the result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	return RunWithLogger(ctx, scenario, zerolog.Nop())
}

// RunWithLogger is Run with a caller-supplied logger.
func RunWithLogger(ctx context.Context, scenario *Scenario, logger zerolog.Logger) (*Result, error) {
	m, err := extract.Load(scenario.Schema)
	if err != nil {
		return nil, fmt.Errorf("load declarations: %w", err)
	}
	s, err := schema.Build(m, schema.Options{ExcludeDeprecated: scenario.ExcludeDeprecated, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}

	b, err := subscription.New(s, subscription.Options{
		Workers: 4,
		// deliveries are read after the queue drains, so every one must fit
		Buffer:     len(scenario.Events) + 1,
		Logger:     logger,
		Registerer: prometheus.NewRegistry(),
	})
	if err != nil {
		return nil, err
	}
	defer b.Close()

	h := &Harness{schema: s, broker: b, logger: logger}
	result := NewResult()

	subs := h.subscribe(ctx, scenario.Subscriptions, result)
	if err := h.publish(ctx, scenario.Events, result); err != nil {
		return nil, err
	}
	h.collect(scenario.Subscriptions, subs, result)

	for i, a := range scenario.Assertions {
		if err := h.evaluateAssertion(a, result); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return result, nil
}

func (h *Harness) subscribe(ctx context.Context, steps []SubscriptionStep, result *Result) map[string]*subscription.Subscription {
	subs := make(map[string]*subscription.Subscription, len(steps))
	for _, step := range steps {
		sub, err := h.broker.Subscribe(ctx, subscription.Request{Query: step.Query, Variables: step.Variables})
		if err != nil {
			result.Refused[step.Name] = err.Error()
			switch {
			case step.ExpectError == "":
				result.AddError(fmt.Sprintf("subscription %s refused: %v", step.Name, err))
			case step.ExpectError != errorKind(err):
				result.AddError(fmt.Sprintf("subscription %s: expected %s error, got %s: %v",
					step.Name, step.ExpectError, errorKind(err), err))
			}
			continue
		}
		if step.ExpectError != "" {
			result.AddError(fmt.Sprintf("subscription %s: expected %s error, got none", step.Name, step.ExpectError))
		}
		subs[step.Name] = sub
	}
	return subs
}

// errorKind classifies a Subscribe error for ExpectError.
func errorKind(err error) string {
	var (
		verr *schema.ValidationError
		lerr *predicate.LiteralError
		ferr *predicate.FilterError
		rerr *subscription.RequestError
	)
	switch {
	case errors.As(err, &verr):
		return ErrorValidation
	case errors.As(err, &lerr):
		return ErrorLiteral
	case errors.As(err, &ferr):
		return ErrorFilter
	case errors.As(err, &rerr):
		return ErrorRequest
	default:
		return "unknown"
	}
}

func (h *Harness) publish(ctx context.Context, steps []EventStep, result *Result) error {
	for _, step := range steps {
		ev := step.ChangeEvent
		err := h.broker.Publish(&ev)
		switch {
		case err != nil && !step.ExpectRejected:
			result.AddError(fmt.Sprintf("event %s rejected: %v", ev.ID, err))
		case err == nil && step.ExpectRejected:
			result.AddError(fmt.Sprintf("event %s: expected rejection, was accepted", ev.ID))
		}
	}
	h.broker.Drain()
	if err := h.broker.Run(ctx); err != nil {
		return fmt.Errorf("dispatch events: %w", err)
	}
	return nil
}

// collect moves buffered deliveries into the trace.
func (h *Harness) collect(steps []SubscriptionStep, subs map[string]*subscription.Subscription, result *Result) {
	seq := 0
	for _, step := range steps {
		sub, ok := subs[step.Name]
		if !ok {
			continue
		}
		for drained := false; !drained; {
			select {
			case d, open := <-sub.Deliveries():
				if !open {
					drained = true
					continue
				}
				seq++
				result.Trace = append(result.Trace, TraceEvent{
					Subscription: step.Name,
					Field:        d.Field,
					Event:        d.Event.ID,
					Payload:      d.Payload,
					Seq:          seq,
				})
			default:
				drained = true
			}
		}
	}
}
