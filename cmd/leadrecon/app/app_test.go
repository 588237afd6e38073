package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/leadrecon/pkg/constants"
	"github.com/agentstation/leadrecon/pkg/errors"
)

const sampleInput = `{"leads":[
  {"id":1,"email":"a@x.com","entryDate":"2020-01-01","name":"Al"},
  {"id":1,"email":"b@x.com","entryDate":"2020-01-02","name":"Bob"},
  {"id":2,"email":"c@x.com","entryDate":"whenever","name":"Cy"},
  {"id":2,"email":"c@x.com","entryDate":"2020-01-03","name":"Cyd"}
]}`

type harness struct {
	app    *App
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	outDir string
	input  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()

	input := filepath.Join(dir, "leads.json")
	require.NoError(t, os.WriteFile(input, []byte(sampleInput), 0o644))

	outDir := filepath.Join(dir, "bin")
	require.NoError(t, os.Mkdir(outDir, 0o755))

	h := &harness{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		outDir: outDir,
		input:  input,
	}

	app, err := New("1.2.3", "abc123", "2024-01-01", "test",
		WithConfig(&Config{LogFormat: "json", LogOutput: "discard", NoColor: true}),
		WithStreams(h.stdout, h.stderr),
		WithOutputDir(outDir),
	)
	require.NoError(t, err)
	h.app = app
	return h
}

func (h *harness) run(args ...string) error {
	return h.app.Execute(context.Background(), args)
}

func TestApp_New(t *testing.T) {
	app, err := New("1.0.0", "abc123", "2024-01-01", "test")
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", app.Version())
	assert.Equal(t, "abc123", app.Commit())
	assert.Equal(t, "2024-01-01", app.Date())
	assert.Equal(t, "test", app.BuiltBy())
	assert.NotNil(t, app.Logger())
	assert.NotNil(t, app.Config())

	outputs, err := app.Outputs()
	require.NoError(t, err)
	assert.Equal(t, constants.DedupedFileName, filepath.Base(outputs.Deduplicated))
	assert.Equal(t, constants.ChangelogFileName, filepath.Base(outputs.Changelog))
	assert.Equal(t, filepath.Dir(outputs.Deduplicated), filepath.Dir(outputs.Changelog))
}

func TestExecute_Success(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run(h.input))

	deduped := filepath.Join(h.outDir, constants.DedupedFileName)
	changelog := filepath.Join(h.outDir, constants.ChangelogFileName)

	assert.Contains(t, h.stdout.String(), "Wrote "+deduped)
	assert.Contains(t, h.stdout.String(), "Wrote "+changelog)

	data, err := os.ReadFile(deduped)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"email": "b@x.com"`)
	assert.NotContains(t, string(data), `"a@x.com"`)

	log, err := os.ReadFile(changelog)
	require.NoError(t, err)
	assert.Contains(t, string(log), "     name: Al ==> Bob\n")

	// The second record was created with an unreadable date, so the later
	// entry could not be compared against it and was discarded.
	assert.Contains(t, h.stderr.String(), "1 lead(s) discarded")
	assert.Contains(t, string(log), "     name: Cy")
}

func TestExecute_MissingArgument(t *testing.T) {
	h := newHarness(t)
	err := h.run()
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assertNoOutputs(t, h.outDir)
}

func TestExecute_TooManyArguments(t *testing.T) {
	h := newHarness(t)
	err := h.run(h.input, h.input)
	assert.True(t, errors.IsValidationError(err))
}

func TestExecute_NonexistentInput(t *testing.T) {
	h := newHarness(t)
	err := h.run(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assertNoOutputs(t, h.outDir)
}

func TestExecute_WriteFailureReported(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.RemoveAll(h.outDir))

	err := h.run(h.input)
	require.Error(t, err)
	assert.True(t, errors.IsWriteFailed(err))
	assert.Contains(t, h.stderr.String(), "Could not write "+filepath.Join(h.outDir, constants.DedupedFileName))
	assert.Contains(t, h.stderr.String(), "Could not write "+filepath.Join(h.outDir, constants.ChangelogFileName))
	assert.NotContains(t, h.stdout.String(), "Wrote")
}

func TestExecute_StatsJSON(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run(h.input, "--stats", "--format", "json"))

	out := h.stdout.String()
	start := strings.Index(out, "{")
	require.GreaterOrEqual(t, start, 0, out)

	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(out[start:]), &summary))
	assert.Equal(t, float64(2), summary["records"])

	stats := summary["stats"].(map[string]any)
	assert.Equal(t, float64(4), stats["inputs_processed"])
	assert.Equal(t, float64(1), stats["merges"])
	assert.Equal(t, float64(1), stats["unparsable_dates"])
}

func TestExecute_StatsTable(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run(h.input, "--stats", "-o", "table"))
	assert.Contains(t, h.stdout.String(), "Records Created")
}

func TestExecute_InvalidFormat(t *testing.T) {
	h := newHarness(t)
	err := h.run(h.input, "--format", "xml")
	assert.True(t, errors.IsValidationError(err))
	assertNoOutputs(t, h.outDir)
}

func TestVersionCommand(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("version"))
	assert.Equal(t, "leadrecon 1.2.3\n", h.stdout.String())

	h = newHarness(t)
	require.NoError(t, h.run("version", "-v"))
	assert.Contains(t, h.stdout.String(), "commit:   abc123")
}

func assertNoOutputs(t *testing.T, dir string) {
	t.Helper()
	for _, name := range []string{constants.DedupedFileName, constants.ChangelogFileName} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.True(t, os.IsNotExist(err), name)
	}
}
