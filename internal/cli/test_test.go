package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recentScenario = `name: recent_movies
description: "Only movies released after 1999 reach the subscriber"
schema: movies.graphql
subscriptions:
  - name: recent
    query: |
      subscription { movieCreated(where: { releasedIn: { gt: 1999 } }) { event } }
events:
  - id: m1
    entity: Movie
    op: created
    after: { id: "m1", title: "The Matrix", releasedIn: 1999 }
    timestamp: 2023-11-14T22:13:20Z
  - id: m2
    entity: Movie
    op: created
    after: { id: "m2", title: "Gladiator", releasedIn: 2000 }
    timestamp: 2023-11-14T22:13:21Z
assertions:
  - type: delivered
    subscription: recent
    events: [m2]
`

func writeScenarioDir(t *testing.T, scenarios map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	writeDeclarations(t, dir)
	for name, content := range scenarios {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestTestCommandMissingArgs(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"/nonexistent/scenarios"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandNoScenarios(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{t.TempDir()})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "No scenarios found.")
}

func TestTestCommandPassingScenario(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{"recent.yaml": recentScenario})

	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "✓ recent_movies")
	assert.Contains(t, buf.String(), "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommandFailingScenarioJSON(t *testing.T) {
	failing := `name: wrong_expectation
description: "Expects an event the filter excludes"
schema: movies.graphql
subscriptions:
  - name: recent
    query: |
      subscription { movieCreated(where: { releasedIn: { gt: 1999 } }) { event } }
events:
  - id: m1
    entity: Movie
    op: created
    after: { id: "m1", title: "The Matrix", releasedIn: 1999 }
    timestamp: 2023-11-14T22:13:20Z
assertions:
  - type: delivered
    subscription: recent
    events: [m1]
`
	dir := writeScenarioDir(t, map[string]string{"recent.yaml": recentScenario, "wrong.yaml": failing})

	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
	assert.Equal(t, 2, resp.Data.Total)
}

func TestTestCommandFilter(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{
		"recent.yaml": recentScenario,
		"broken.yaml": "name: [\n",
	})

	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "--filter", "rec*"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "1 passed, 0 failed, 1 total")
}

func TestTestCommandLoadError(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{"broken.yaml": "name: x\nassertion: []\n"})

	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, buf.String(), "✗ broken.yaml")
	assert.Contains(t, buf.String(), "failed to load scenario")
}

func TestTestCommandGoldenRoundTrip(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{"recent.yaml": recentScenario})
	goldenPath := filepath.Join(dir, "golden", "recent.golden")

	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "--update"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "✓ recent_movies (golden updated)")

	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name": "recent_movies"`)
	assert.Contains(t, string(golden), `"event": "m2"`)
	assert.NotContains(t, string(golden), `"event": "m1"`)

	buf.Reset()
	cmd = NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "✓ recent_movies")

	require.NoError(t, os.WriteFile(goldenPath, []byte("{}\n"), 0644))
	buf.Reset()
	cmd = NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})
	err = cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, buf.String(), "trace does not match golden file")
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("scenarios", "golden", "recent.golden"),
		goldenFilePath(filepath.Join("scenarios", "recent.yaml")))
}
