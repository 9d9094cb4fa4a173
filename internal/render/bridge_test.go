package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halverson/orrery/internal/snapshot"
	"github.com/halverson/orrery/internal/state"
)

func frameWith(t *testing.T, b *snapshot.Builder, objects ...*state.ObjectState) *snapshot.RendererSnapshot {
	t.Helper()
	w := state.NewWorldState()
	for _, obj := range objects {
		require.NoError(t, w.AddObject(obj))
	}
	rs := state.NewRuntimeState(w, state.NewTimeState())
	return b.Build(rs, nil)
}

func TestBridgeCreatesThenUpdates(t *testing.T) {
	backend := NewMockBackend()
	bridge := NewBridge(backend)
	builder := snapshot.NewBuilder()

	sphere := state.NewObject("ball", state.KindSphere).WithScale(state.Vec3(2, 2, 2))
	require.NoError(t, bridge.Render(frameWith(t, builder, sphere)))

	assert.Equal(t, 1, backend.Count())
	assert.Equal(t, 1, bridge.Stats().ObjectsCreated)

	sphere.Position = state.Vec3(0, 5, 0)
	require.NoError(t, bridge.Render(frameWith(t, builder, sphere)))

	assert.Equal(t, 1, backend.Count(), "second frame updates, not recreates")
	assert.Equal(t, 1, bridge.Stats().ObjectsUpdated)
	obj := backend.Object(backend.IDs()[0])
	assert.Equal(t, [3]float64{0, 5, 0}, obj.Transform.Position)
}

func TestBridgeRemovesVanishedObjects(t *testing.T) {
	backend := NewMockBackend()
	bridge := NewBridge(backend)
	builder := snapshot.NewBuilder()

	a := state.NewObject("a", state.KindSphere)
	b := state.NewObject("b", state.KindBox)
	require.NoError(t, bridge.Render(frameWith(t, builder, a, b)))
	require.Equal(t, 2, backend.Count())

	require.NoError(t, bridge.Render(frameWith(t, builder, a)))
	assert.Equal(t, 1, backend.Count())
	assert.Equal(t, 1, bridge.Stats().ObjectsRemoved)
}

func TestBridgeVisibilityPropagates(t *testing.T) {
	backend := NewMockBackend()
	bridge := NewBridge(backend)
	builder := snapshot.NewBuilder()

	obj := state.NewObject("ghost", state.KindBox)
	require.NoError(t, bridge.Render(frameWith(t, builder, obj)))

	obj.Visible = false
	require.NoError(t, bridge.Render(frameWith(t, builder, obj)))

	assert.False(t, backend.Object(backend.IDs()[0]).Visible)
}

func TestBridgeToleratesBackendErrors(t *testing.T) {
	backend := NewMockBackend()
	bridge := NewBridge(backend)
	builder := snapshot.NewBuilder()

	obj := state.NewObject("x", state.KindSphere)
	require.NoError(t, bridge.Render(frameWith(t, builder, obj)))

	// Sabotage: remove the object behind the bridge's back so the next
	// update hits an unknown id.
	require.NoError(t, backend.RemoveObject(backend.IDs()[0]))

	require.NoError(t, bridge.Render(frameWith(t, builder, obj)))
	assert.Equal(t, 1, bridge.Stats().ErrorsTolerated)
}

func TestBridgeClear(t *testing.T) {
	backend := NewMockBackend()
	bridge := NewBridge(backend)
	builder := snapshot.NewBuilder()

	require.NoError(t, bridge.Render(frameWith(t, builder,
		state.NewObject("a", state.KindSphere))))
	require.NoError(t, bridge.Clear())

	assert.Zero(t, backend.Count())

	// After clear the same object is created fresh on the next frame.
	require.NoError(t, bridge.Render(frameWith(t, builder,
		state.NewObject("a", state.KindSphere))))
	assert.Equal(t, 1, backend.Count())
	assert.Equal(t, 2, bridge.Stats().ObjectsCreated)
}

func TestMockBackendCommandLog(t *testing.T) {
	m := NewMockBackend()
	id, err := m.CreateObject(snapshot.Geometry{Kind: "sphere"}, snapshot.Transform{}, snapshot.Material{})
	require.NoError(t, err)
	require.NoError(t, m.SetVisible(id, false))
	require.NoError(t, m.RemoveObject(id))

	assert.Equal(t, []string{"create 1 sphere", "visible 1 false", "remove 1"}, m.Ops())

	err = m.UpdateTransform(id, snapshot.Transform{})
	var oerr *ObjectError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, "update_transform", oerr.Op)
}
