package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Deliveries for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nDeliveries:\n")
		for i, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s <- %s (%s)\n", i+1, ev.Subscription, ev.Event, ev.Field)
		}
	}
	return buf.String()
}

func (h *Harness) evaluateAssertion(a Assertion, result *Result) error {
	switch a.Type {
	case AssertDelivered:
		return assertDelivered(result, a)
	case AssertHasFields:
		return h.assertFields(a, true)
	case AssertLacksFields:
		return h.assertFields(a, false)
	case AssertTypeAbsent:
		if h.schema.Type(a.Target) != nil {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("no type %s", a.Target),
				Actual:   "type was generated",
			}
		}
		return nil
	case AssertDocumentValid, AssertDocumentInvalid:
		_, err := h.schema.Validate(a.Document)
		want := a.Type == AssertDocumentValid
		if (err == nil) != want {
			actual := "valid"
			if err != nil {
				actual = err.Error()
			}
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("document %s", strings.TrimPrefix(a.Type, "document_")),
				Actual:   actual,
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertDelivered checks that a subscription received exactly the listed
// events, in order.
func assertDelivered(result *Result, a Assertion) error {
	got := result.Delivered(a.Subscription)
	want := a.Events
	if want == nil {
		want = []string{}
	}
	if slices.Equal(got, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertDelivered,
		Expected: fmt.Sprintf("%s received %v", a.Subscription, want),
		Actual:   fmt.Sprintf("received %v", got),
		Trace:    result.Trace,
	}
}

// assertFields checks that every listed field is present (or, with present
// false, that none is) on a generated type.
func (h *Harness) assertFields(a Assertion, present bool) error {
	td := h.schema.Type(a.Target)
	if td == nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("type %s", a.Target),
			Actual:   "type was not generated",
		}
	}

	var wrong []string
	for _, name := range a.Fields {
		if (td.Field(name) != nil) != present {
			wrong = append(wrong, name)
		}
	}
	if len(wrong) == 0 {
		return nil
	}

	verb := "missing"
	if !present {
		verb = "present"
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s fields %v", a.Target, a.Fields),
		Actual:   fmt.Sprintf("%s: %v (type has %v)", verb, wrong, td.FieldNames()),
	}
}
