package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/schemaforge/internal/event"
)

// Scenario defines a conformance test scenario.
// A scenario compiles a schema, opens subscriptions against it, publishes a
// sequence of change events and asserts on what each subscriber received.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the path of the declaration file (.graphql, .gql or .cue) or
	// CUE directory. Relative paths resolve against the scenario file.
	Schema string `yaml:"schema"`

	// ExcludeDeprecated builds the schema without deprecated aliases.
	ExcludeDeprecated bool `yaml:"exclude_deprecated,omitempty"`

	// Subscriptions are opened in order before any event is published.
	Subscriptions []SubscriptionStep `yaml:"subscriptions,omitempty"`

	// Events are published in order.
	Events []EventStep `yaml:"events,omitempty"`

	// Assertions validate the generated schema and the deliveries.
	Assertions []Assertion `yaml:"assertions"`
}

// SubscriptionStep opens one subscription.
type SubscriptionStep struct {
	// Name identifies the subscription in assertions.
	Name string `yaml:"name"`

	// Query is the subscription document.
	Query string `yaml:"query"`

	// Variables are passed with the document.
	Variables map[string]any `yaml:"variables,omitempty"`

	// ExpectError, when set, requires the subscription to be refused with
	// the given kind of error: "validation", "literal", "filter" or
	// "request".
	ExpectError string `yaml:"expect_error,omitempty"`
}

// EventStep publishes one change event.
type EventStep struct {
	event.ChangeEvent `yaml:",inline"`

	// ExpectRejected requires Publish to refuse the event.
	ExpectRejected bool `yaml:"expect_rejected,omitempty"`
}

// Assertion validates the schema or the deliveries.
type Assertion struct {
	// Type specifies the assertion type:
	// - "delivered": Subscription received exactly Events, in order
	// - "has_fields": Target type has every field in Fields
	// - "lacks_fields": Target type has none of the fields in Fields
	// - "type_absent": Target type was not generated
	// - "document_valid": Document validates against the schema
	// - "document_invalid": Document fails validation
	Type string `yaml:"type"`

	// Subscription names a subscription step (used by delivered).
	Subscription string `yaml:"subscription,omitempty"`

	// Events lists expected event ids (used by delivered).
	Events []string `yaml:"events,omitempty"`

	// Target is a generated type name (used by has_fields, lacks_fields,
	// type_absent).
	Target string `yaml:"target,omitempty"`

	// Fields lists field names (used by has_fields, lacks_fields).
	Fields []string `yaml:"fields,omitempty"`

	// Document is a GraphQL document (used by document_valid,
	// document_invalid).
	Document string `yaml:"document,omitempty"`
}

// Assertion type constants.
const (
	AssertDelivered       = "delivered"
	AssertHasFields       = "has_fields"
	AssertLacksFields     = "lacks_fields"
	AssertTypeAbsent      = "type_absent"
	AssertDocumentValid   = "document_valid"
	AssertDocumentInvalid = "document_invalid"
)

// Subscription error kinds accepted by SubscriptionStep.ExpectError.
const (
	ErrorValidation = "validation"
	ErrorLiteral    = "literal"
	ErrorFilter     = "filter"
	ErrorRequest    = "request"
)

// LoadScenario reads and parses a scenario YAML file.
// The schema path is resolved relative to the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Reject unknown fields so "assertion:" vs "assertions:" is caught.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	names := make(map[string]bool, len(s.Subscriptions))
	for i, sub := range s.Subscriptions {
		if sub.Name == "" {
			return fmt.Errorf("subscriptions[%d]: name is required", i)
		}
		if names[sub.Name] {
			return fmt.Errorf("subscriptions[%d]: duplicate name %q", i, sub.Name)
		}
		names[sub.Name] = true
		if sub.Query == "" {
			return fmt.Errorf("subscriptions[%d]: query is required", i)
		}
		switch sub.ExpectError {
		case "", ErrorValidation, ErrorLiteral, ErrorFilter, ErrorRequest:
		default:
			return fmt.Errorf("subscriptions[%d]: unknown expect_error %q", i, sub.ExpectError)
		}
	}

	ids := make(map[string]bool, len(s.Events))
	for i, ev := range s.Events {
		if ev.ID == "" {
			return fmt.Errorf("events[%d]: id is required", i)
		}
		if ids[ev.ID] {
			return fmt.Errorf("events[%d]: duplicate id %q", i, ev.ID)
		}
		ids[ev.ID] = true
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a, i, names); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(a Assertion, index int, subscriptions map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertDelivered:
		if !subscriptions[a.Subscription] {
			return fmt.Errorf("assertions[%d]: unknown subscription %q", index, a.Subscription)
		}
	case AssertHasFields, AssertLacksFields:
		if a.Target == "" || len(a.Fields) == 0 {
			return fmt.Errorf("assertions[%d]: target and fields are required for %s", index, a.Type)
		}
	case AssertTypeAbsent:
		if a.Target == "" {
			return fmt.Errorf("assertions[%d]: target is required for type_absent", index)
		}
	case AssertDocumentValid, AssertDocumentInvalid:
		if a.Document == "" {
			return fmt.Errorf("assertions[%d]: document is required for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
