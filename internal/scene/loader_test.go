package scene

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halverson/orrery/internal/ir"
	"github.com/halverson/orrery/internal/state"
)

const clockworkJSON = `{
  "name": "clockwork",
  "entities": [
    {"id": "frame", "kind": "solid",
     "geometry": {"primitive": "cube"},
     "transform": {"scale": [4, 4, 0.5]},
     "physical": {"rigid": true}},
    {"id": "hand", "kind": "solid",
     "geometry": {"primitive": "cylinder"},
     "transform": {"position": [0, 1, 0], "rotation": [0, 0, 1.5707963267948966]}},
    {"id": "marker", "kind": "abstract"}
  ],
  "motions": [
    {"id": "tick", "target": "hand", "kind": "rotation",
     "axis": [0, 0, 2], "speed": 0.1},
    {"id": "drift", "target": "marker", "kind": "translation",
     "direction": [0, 1, 0], "speed": 2.0}
  ],
  "constraints": [
    {"id": "reach", "kind": "distance", "a": "frame", "b": "hand",
     "distance": 1.0, "priority": 5}
  ],
  "timeline": {"duration": 60.0}
}`

func loadClockwork(t *testing.T) *state.RuntimeState {
	t.Helper()
	sc, err := ir.Decode(strings.NewReader(clockworkJSON))
	require.NoError(t, err)
	require.NoError(t, sc.Validate())
	rs, err := Load(sc)
	require.NoError(t, err)
	return rs
}

func TestLoadEntities(t *testing.T) {
	rs := loadClockwork(t)

	frame := rs.World.Object("frame")
	require.NotNil(t, frame)
	assert.Equal(t, state.KindBox, frame.Kind, "cube infers box")
	assert.True(t, frame.Static, "rigid loads static")
	assert.Equal(t, state.Vec3(4, 4, 0.5), frame.Scale)

	hand := rs.World.Object("hand")
	require.NotNil(t, hand)
	assert.Equal(t, state.KindCylinder, hand.Kind)
	assert.Equal(t, state.Vec3(0, 1, 0), hand.Position)

	marker := rs.World.Object("marker")
	require.NotNil(t, marker)
	assert.Equal(t, state.KindCustom, marker.Kind, "no geometry loads custom")
}

func TestLoadEulerRotation(t *testing.T) {
	rs := loadClockwork(t)

	// Yaw of pi/2 about z.
	q := rs.World.Object("hand").Orientation
	assert.InDelta(t, math.Cos(math.Pi/4), q.W, 1e-12)
	assert.InDelta(t, 0, q.X, 1e-12)
	assert.InDelta(t, 0, q.Y, 1e-12)
	assert.InDelta(t, math.Sin(math.Pi/4), q.Z, 1e-12)
	assert.True(t, q.IsUnit(1e-9))
}

func TestLoadMotions(t *testing.T) {
	rs := loadClockwork(t)

	hand := rs.World.Object("hand")
	require.NotNil(t, hand.AngularVelocity)
	// Axis [0,0,2] normalizes; speed 0.1 rad/s about z.
	assert.InDelta(t, 0.1, hand.AngularVelocity.Z, 1e-12)
	assert.Zero(t, hand.AngularVelocity.X)

	marker := rs.World.Object("marker")
	require.NotNil(t, marker.Velocity)
	assert.Equal(t, state.Vec3(0, 2, 0), *marker.Velocity)
}

func TestLoadTimeParameterAndBounds(t *testing.T) {
	rs := loadClockwork(t)

	p := rs.World.Parameters.Parameter("time")
	require.NotNil(t, p)
	assert.Equal(t, state.ParamTime, p.Kind)
	assert.Equal(t, 0.0, p.Value)

	require.NotNil(t, rs.Time.Bounds.Max)
	assert.Equal(t, 60.0, *rs.Time.Bounds.Max)
	assert.False(t, rs.Time.Bounds.Wraps)
}

func TestLoadLoopingTimeline(t *testing.T) {
	sc := &ir.Scene{
		Entities: []ir.Entity{{ID: "a", Kind: "solid"}},
		Timeline: &ir.Timeline{Duration: 2.0, Loop: true},
	}
	rs, err := Load(sc)
	require.NoError(t, err)
	assert.True(t, rs.Time.Bounds.Wraps)
}

func TestLoadConstraints(t *testing.T) {
	rs := loadClockwork(t)

	require.Len(t, rs.World.Constraints, 1)
	c := rs.World.Constraints[0]
	assert.Equal(t, state.ConstraintDistance, c.Kind)
	assert.Equal(t, []state.ObjectID{"frame", "hand"}, c.Objects)
	assert.Equal(t, 1.0, c.Target)
	assert.Equal(t, 5, c.Priority)
	assert.True(t, c.Enabled)
}

func TestLoadRejectsMotionOnRigidEntity(t *testing.T) {
	sc := &ir.Scene{
		Entities: []ir.Entity{
			{ID: "rock", Kind: "solid", Physical: &ir.Physical{Rigid: true}},
		},
		Motions: []ir.Motion{
			{ID: "shove", Target: "rock", Kind: ir.MotionTranslation,
				Direction: [3]float64{1, 0, 0}, Speed: 1},
		},
	}
	_, err := Load(sc)
	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "shove", lerr.Subject)
}

func TestLoadRejectsScaleMotion(t *testing.T) {
	sc := &ir.Scene{
		Entities: []ir.Entity{{ID: "a", Kind: "solid"}},
		Motions: []ir.Motion{
			{ID: "grow", Target: "a", Kind: ir.MotionScale, Speed: 1},
		},
	}
	_, err := Load(sc)
	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Contains(t, lerr.Error(), "scale motions")
}

func TestInferKindTable(t *testing.T) {
	tests := []struct {
		primitive string
		want      state.ObjectKind
	}{
		{"cube", state.KindBox},
		{"sphere", state.KindSphere},
		{"cylinder", state.KindCylinder},
		{"plane", state.KindPlane},
		{"torus", state.KindCustom},
	}
	for _, tt := range tests {
		e := &ir.Entity{ID: "x", Kind: "solid", Geometry: &ir.Geometry{Primitive: tt.primitive}}
		assert.Equal(t, tt.want, inferKind(e), tt.primitive)
	}
}

func TestLoadedStateValidates(t *testing.T) {
	rs := loadClockwork(t)
	require.NoError(t, rs.Validate())
	assert.True(t, rs.Verify())
}
