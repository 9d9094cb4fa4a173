package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/halverson/orrery/internal/engine"
)

const (
	validScenePath   = "testdata/valid_scene.json"
	invalidScenePath = "testdata/invalid_scene.json"
)

// writeScene drops scene JSON into a temp file and returns its path.
func writeScene(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs a command with captured output.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// testEngineFlags mirrors the flag defaults with a coarser time step so
// direct command-function calls behave like a parsed command line.
func testEngineFlags() engineFlags {
	return engineFlags{
		DT:            0.1,
		Method:        "semi-implicit-euler",
		MaxSteps:      10_000,
		MaxSnapshots:  100,
		Tolerance:     1e-6,
		MaxIterations: 100,
	}
}

// seedRun simulates the valid scene with persistence enabled, writing
// snapshots for run token "run-1" into dbPath.
func seedRun(t *testing.T, dbPath string, until float64) {
	t.Helper()

	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "json"},
		engineFlags: testEngineFlags(),
		Until:       until,
		Database:    dbPath,
		Tokens:      engine.NewFixedGenerator("run-1"),
	}

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.NoError(t, runScene(opts, validScenePath, cmd))
}
