package cli

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidScene(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewValidateCommand(rootOpts), validScenePath)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")
}

func TestValidate_ValidSceneJSON(t *testing.T) {
	rootOpts := &RootOptions{Format: "json"}
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{validScenePath})

	require.NoError(t, cmd.Execute())

	g := goldie.New(t)
	g.Assert(t, "validate_valid", buf.Bytes())
}

func TestValidate_InvalidSceneJSON(t *testing.T) {
	rootOpts := &RootOptions{Format: "json"}
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{invalidScenePath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	g := goldie.New(t)
	g.Assert(t, "validate_invalid", buf.Bytes())
}

func TestValidate_InvalidSceneText(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewValidateCommand(rootOpts), invalidScenePath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "is invalid")
	assert.Contains(t, out, `unknown entity "ghost"`)
}

func TestValidate_MissingFile(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	_, err := execute(t, NewValidateCommand(rootOpts), "testdata/nope.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_SchemaViolation(t *testing.T) {
	path := writeScene(t, `{"entities": [{"id": "a", "geometry": {"primitive": "torus"}}]}`)

	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewValidateCommand(rootOpts), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "is invalid")
}

func TestValidate_RejectsHyphenatedEntityID(t *testing.T) {
	// "gear-1" would splice into generated equations as a subtraction, so
	// the schema refuses it up front.
	path := writeScene(t, `{"entities": [{"id": "gear-1", "geometry": {"primitive": "cube"}}]}`)

	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewValidateCommand(rootOpts), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "is invalid")
}

func TestValidate_LoaderRejection(t *testing.T) {
	// Schema-clean and referentially sound, but the loader refuses
	// motions on rigid entities.
	path := writeScene(t, `{
		"entities": [{"id": "wall", "physical": {"rigid": true}}],
		"motions": [{"id": "m", "target": "wall", "kind": "translation", "direction": [1, 0, 0], "speed": 1}]
	}`)

	rootOpts := &RootOptions{Format: "text"}
	out, err := execute(t, NewValidateCommand(rootOpts), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "is invalid")
}
