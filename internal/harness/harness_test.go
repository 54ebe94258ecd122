package harness

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemaforge/internal/value"
)

const scenarioDir = "testdata/scenarios"

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join(scenarioDir, name))
	require.NoError(t, err)
	return s
}

func TestLoadScenario_ResolvesSchemaRelativeToFile(t *testing.T) {
	s := loadScenario(t, "budget_precision.yaml")

	assert.Equal(t, "budget_precision", s.Name)
	assert.Equal(t, filepath.Join(scenarioDir, "movies.graphql"), s.Schema)
	require.Len(t, s.Events, 2)
	assert.Equal(t, value.Number("9223372036854775807"), s.Events[1].After["budget"])
	assert.Equal(t, int64(1700000000), s.Events[0].Timestamp.Unix())
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown field",
			content: "name: x\ndescription: y\nschema: s.graphql\nassertion: []\n",
			wantErr: "field assertion not found",
		},
		{
			name:    "missing name",
			content: "description: y\nschema: s.graphql\nassertions: [{type: type_absent, target: X}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing schema",
			content: "name: x\ndescription: y\nassertions: [{type: type_absent, target: X}]\n",
			wantErr: "schema is required",
		},
		{
			name: "duplicate subscription",
			content: `name: x
description: y
schema: s.graphql
subscriptions:
  - {name: a, query: "subscription { movieCreated { event } }"}
  - {name: a, query: "subscription { movieCreated { event } }"}
assertions: [{type: type_absent, target: X}]
`,
			wantErr: `duplicate name "a"`,
		},
		{
			name: "unknown expect_error",
			content: `name: x
description: y
schema: s.graphql
subscriptions:
  - {name: a, query: "subscription { movieCreated { event } }", expect_error: boom}
assertions: [{type: type_absent, target: X}]
`,
			wantErr: `unknown expect_error "boom"`,
		},
		{
			name: "event without id",
			content: `name: x
description: y
schema: s.graphql
events:
  - {entity: Movie, op: created, after: {id: "1"}}
assertions: [{type: type_absent, target: X}]
`,
			wantErr: "events[0]: id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scenario.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRun_ReleasedInMatrix(t *testing.T) {
	s := loadScenario(t, "released_in_matrix.yaml")

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, []string{"e2000", "e2001"}, result.Delivered("after_1999"))
	assert.Equal(t, []string{"e1999", "e2001"}, result.Delivered("either_end"))
	assert.Empty(t, result.Delivered("updates"))
	assert.Contains(t, result.Refused, "bad_literal")
	assert.Contains(t, result.Refused, "string_ordering")
	assert.Contains(t, result.Refused, "hidden_field")
}

func TestRun_ReadSelectability(t *testing.T) {
	result, err := Run(context.Background(), loadScenario(t, "read_selectability.yaml"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Trace)
}

func TestRunWithGolden_BudgetPrecision(t *testing.T) {
	result, err := RunWithGolden(t, loadScenario(t, "budget_precision.yaml"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_FailingAssertionsAreReported(t *testing.T) {
	s := loadScenario(t, "budget_precision.yaml")
	s.Assertions = []Assertion{
		{Type: AssertDelivered, Subscription: "big_budget", Events: []string{"b1", "b2"}},
		{Type: AssertHasFields, Target: "MovieEventPayload", Fields: []string{"secret"}},
		{Type: AssertTypeAbsent, Target: "MovieWhere"},
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "big_budget received [b1 b2]")
	assert.Contains(t, result.Errors[0], "received [b2]")
	assert.Contains(t, result.Errors[1], "missing: [secret]")
	assert.Contains(t, result.Errors[2], "type was generated")
}

func TestRun_UnexpectedRefusal(t *testing.T) {
	s := loadScenario(t, "budget_precision.yaml")
	s.Subscriptions = append(s.Subscriptions, SubscriptionStep{
		Name:  "typo",
		Query: `subscription { movieCreated(where: { budgett: { gt: "1" } }) { event } }`,
	})

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Refused, "typo")
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "subscription typo refused")
}

func TestRun_MissingSchema(t *testing.T) {
	s := loadScenario(t, "budget_precision.yaml")
	s.Schema = filepath.Join(t.TempDir(), "absent.graphql")

	_, err := Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load declarations")
}

func TestAssertionError_Message(t *testing.T) {
	err := error(&AssertionError{
		Type:     AssertDelivered,
		Expected: "recent received [e1]",
		Actual:   "received []",
		Trace:    []TraceEvent{{Subscription: "other", Field: "movieCreated", Event: "e1", Seq: 1}},
	})

	var aerr *AssertionError
	require.True(t, errors.As(err, &aerr))
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: delivered")
	assert.Contains(t, msg, "Expected: recent received [e1]")
	assert.Contains(t, msg, "[1] other <- e1 (movieCreated)")
}
