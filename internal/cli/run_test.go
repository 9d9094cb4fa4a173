package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halverson/orrery/internal/engine"
	"github.com/halverson/orrery/internal/snapshot"
)

func TestRun_TextOutput(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewRunCommand(rootOpts), validScenePath, "--until", "0.45", "--dt", "0.1")
	require.NoError(t, err)

	assert.Contains(t, out, "Run ")
	assert.Contains(t, out, "steps:       5")
	assert.Contains(t, out, "fingerprint:")
}

func TestRun_JSONOutput(t *testing.T) {
	rootOpts := &RootOptions{Format: "json"}
	out, err := execute(t, NewRunCommand(rootOpts), validScenePath, "--until", "0.45", "--dt", "0.1")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, validScenePath, data["scene"])
	assert.EqualValues(t, 5, data["steps"])
	assert.NotEmpty(t, data["run_token"])
	assert.NotEmpty(t, data["fingerprint"])
}

func TestRun_Deterministic(t *testing.T) {
	fingerprints := make([]string, 0, 2)
	for i := 0; i < 2; i++ {
		rootOpts := &RootOptions{Format: "json"}
		out, err := execute(t, NewRunCommand(rootOpts), validScenePath, "--until", "0.95", "--dt", "0.1")
		require.NoError(t, err)

		var resp CLIResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		data := resp.Data.(map[string]any)
		fingerprints = append(fingerprints, data["fingerprint"].(string))
	}
	assert.Equal(t, fingerprints[0], fingerprints[1])
}

func TestRun_MissingScene(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	_, err := execute(t, NewRunCommand(rootOpts), "testdata/nope.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_InvalidScene(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewRunCommand(rootOpts), invalidScenePath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}

func TestRun_BadMethodFlag(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	_, err := execute(t, NewRunCommand(rootOpts), validScenePath, "--method", "leapfrog")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_PersistsSnapshots(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "orrery.db")

	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "json"},
		engineFlags: testEngineFlags(),
		Until:       0.45,
		Database:    dbPath,
		Tokens:      engine.NewFixedGenerator("run-1"),
	}

	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	require.NoError(t, runScene(opts, validScenePath, cmd))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	data := resp.Data.(map[string]any)
	assert.Equal(t, "run-1", data["run_token"])

	st, err := snapshot.OpenStore(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	runs, err := st.ListRuns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1"}, runs)

	snaps, err := st.ListSnapshots(ctx, "run-1")
	require.NoError(t, err)
	// Initial snapshot plus one per step.
	require.Len(t, snaps, 6)
	assert.Equal(t, "Initial", snaps[0].Label)
	assert.EqualValues(t, 5, snaps[5].Step)
}

func TestRun_DefaultTargetUsesTimeline(t *testing.T) {
	// Timeline duration 0.3 with dt 0.1 means three steps.
	path := writeScene(t, `{
		"entities": [{"id": "dot", "kind": "solid", "geometry": {"primitive": "sphere"}}],
		"timeline": {"duration": 0.3}
	}`)

	rootOpts := &RootOptions{Format: "json"}
	out, err := execute(t, NewRunCommand(rootOpts), path, "--dt", "0.1")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	data := resp.Data.(map[string]any)
	assert.EqualValues(t, 3, data["steps"])
}
