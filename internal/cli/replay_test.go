package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplay_Deterministic(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "orrery.db")
	seedRun(t, dbPath, 0.45)

	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewReplayCommand(rootOpts),
		"--db", dbPath, "--run", "run-1", "--dt", "0.1")
	require.NoError(t, err)
	assert.Contains(t, out, "deterministic")
	assert.NotContains(t, out, "MISMATCH")
}

func TestReplay_JSONChecks(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "orrery.db")
	seedRun(t, dbPath, 0.45)

	rootOpts := &RootOptions{Format: "json"}
	out, err := execute(t, NewReplayCommand(rootOpts),
		"--db", dbPath, "--run", "run-1", "--dt", "0.1")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "run-1", data["run_token"])
	assert.Equal(t, true, data["deterministic"])

	checks := data["checks"].([]any)
	// Five stepped snapshots verified beyond the restored one.
	assert.Len(t, checks, 5)
	for _, raw := range checks {
		check := raw.(map[string]any)
		assert.Equal(t, true, check["match"])
	}
}

func TestReplay_FromMidRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "orrery.db")
	seedRun(t, dbPath, 0.45)

	rootOpts := &RootOptions{Format: "json"}
	out, err := execute(t, NewReplayCommand(rootOpts),
		"--db", dbPath, "--run", "run-1", "--from", "3", "--dt", "0.1")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	data := resp.Data.(map[string]any)
	assert.EqualValues(t, 3, data["start_id"])
	assert.Equal(t, true, data["deterministic"])

	// Snapshot 3 is step 2, so steps 3..5 remain to verify.
	checks := data["checks"].([]any)
	assert.Len(t, checks, 3)
}

func TestReplay_DivergesOnDifferentTimeStep(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "orrery.db")
	seedRun(t, dbPath, 0.45)

	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewReplayCommand(rootOpts),
		"--db", dbPath, "--run", "run-1", "--dt", "0.05")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "MISMATCH")
	assert.Contains(t, out, "diverged")
}

func TestReplay_UnknownRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "orrery.db")
	seedRun(t, dbPath, 0.45)

	rootOpts := &RootOptions{Format: "text"}
	_, err := execute(t, NewReplayCommand(rootOpts),
		"--db", dbPath, "--run", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplay_UnknownStartSnapshot(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "orrery.db")
	seedRun(t, dbPath, 0.45)

	rootOpts := &RootOptions{Format: "text"}
	_, err := execute(t, NewReplayCommand(rootOpts),
		"--db", dbPath, "--run", "run-1", "--from", "42")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
