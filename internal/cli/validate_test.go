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

func writeDocument(t *testing.T, dir, name, doc string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func TestValidateDeclarationsOnly(t *testing.T) {
	path := writeDeclarations(t, t.TempDir())

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "✓ Declarations are valid")
}

func TestValidateDocuments(t *testing.T) {
	dir := t.TempDir()
	path := writeDeclarations(t, dir)
	good := writeDocument(t, dir, "recent.graphql",
		`subscription { movieCreated(where: { releasedIn: { gt: 1999 } }) { createdMovie { title } } }`)
	ordered := writeDocument(t, dir, "ordered.graphql",
		`{ movies(where: { title: { gt: "M" } }) { title } }`)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, good, ordered})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out := buf.String()
	assert.Contains(t, out, "✓ "+good)
	assert.Contains(t, out, "✗ "+ordered)
	assert.Contains(t, out, ErrCodeInvalidDocument)
}

func TestValidateHiddenFieldJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeDeclarations(t, dir)
	read := writeDocument(t, dir, "read.graphql", `{ movies { secret } }`)
	filter := writeDocument(t, dir, "filter.graphql", `{ movies(where: { secret: { eq: "x" } }) { title } }`)

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, read, filter})

	err := cmd.Execute()
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidDocument, resp.Error.Code)
	require.Len(t, resp.Data.Documents, 2)
	assert.False(t, resp.Data.Documents[0].Valid)
	assert.NotEmpty(t, resp.Data.Documents[0].Errors)
	assert.True(t, resp.Data.Documents[1].Valid)
}

func TestValidateDeprecatedAliasesExcluded(t *testing.T) {
	dir := t.TempDir()
	path := writeDeclarations(t, dir)
	doc := writeDocument(t, dir, "alias.graphql", `{ movies(where: { releasedIn_GT: 1999 }) { title } }`)

	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{path, doc})
	require.NoError(t, cmd.Execute())

	cmd = NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{path, doc, "--exclude-deprecated"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestValidateMissingDocument(t *testing.T) {
	path := writeDeclarations(t, t.TempDir())

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, "/nonexistent/doc.graphql"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), ErrCodeReadFailed)
}

func TestValidateMissingArgs(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}
