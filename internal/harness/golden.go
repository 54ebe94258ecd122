package harness

import (
	"context"
	"encoding/json"
	"slices"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot captures what a scenario's subscribers received.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
	// Refused lists refused subscriptions by name.
	Refused []string `json:"refused,omitempty"`
}

// NewTraceSnapshot builds the snapshot of a scenario run.
func NewTraceSnapshot(scenarioName string, result *Result) *TraceSnapshot {
	snapshot := &TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
	}
	for name := range result.Refused {
		snapshot.Refused = append(snapshot.Refused, name)
	}
	slices.Sort(snapshot.Refused)
	return snapshot
}

// Marshal renders the snapshot as indented JSON. Payload objects marshal
// with sorted keys, so equal snapshots produce identical bytes.
func (s *TraceSnapshot) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares its deliveries against a
// golden file in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against the golden file for
// scenarioName without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewTraceSnapshot(scenarioName, result).Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
