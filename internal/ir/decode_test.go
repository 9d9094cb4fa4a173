package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pendulumJSON = `{
  "name": "pendulum",
  "entities": [
    {"id": "pivot", "kind": "solid",
     "geometry": {"primitive": "sphere"},
     "physical": {"rigid": true}},
    {"id": "bob", "kind": "solid",
     "geometry": {"primitive": "sphere"},
     "transform": {"position": [0, -2, 0]}}
  ],
  "motions": [
    {"id": "swing", "target": "bob", "kind": "translation",
     "direction": [1, 0, 0], "speed": 0.5}
  ],
  "constraints": [
    {"id": "rod", "kind": "distance", "a": "pivot", "b": "bob", "distance": 2.0}
  ],
  "timeline": {"duration": 10.0, "loop": true}
}`

func TestDecodeScene(t *testing.T) {
	scene, err := Decode(strings.NewReader(pendulumJSON))
	require.NoError(t, err)

	assert.Equal(t, "pendulum", scene.Name)
	require.Len(t, scene.Entities, 2)
	assert.True(t, scene.Entities[0].Physical.Rigid)
	assert.Equal(t, [3]float64{0, -2, 0}, *scene.Entities[1].Transform.Position)
	require.Len(t, scene.Constraints, 1)
	assert.Equal(t, ConstraintDistance, scene.Constraints[0].Kind)
	assert.Equal(t, 10.0, scene.Timeline.Duration)
	require.NoError(t, scene.Validate())
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"entities": [], "bogus": 1}`))
	require.Error(t, err)
}

func TestValidateReferences(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Scene)
		want   string
	}{
		{"duplicate entity", func(s *Scene) {
			s.Entities = append(s.Entities, Entity{ID: "pivot", Kind: "solid"})
		}, "duplicate"},
		{"missing entity id", func(s *Scene) {
			s.Entities = append(s.Entities, Entity{Kind: "solid"})
		}, "missing id"},
		{"hyphenated entity id", func(s *Scene) {
			s.Entities = append(s.Entities, Entity{ID: "gear-1", Kind: "solid"})
		}, "letters, digits, and underscores"},
		{"entity id starts with digit", func(s *Scene) {
			s.Entities = append(s.Entities, Entity{ID: "1st", Kind: "solid"})
		}, "start with a letter"},
		{"reserved entity id", func(s *Scene) {
			s.Entities = append(s.Entities, Entity{ID: "math", Kind: "solid"})
		}, "reserved word"},
		{"motion unknown target", func(s *Scene) {
			s.Motions[0].Target = "ghost"
		}, "unknown entity"},
		{"motion unknown kind", func(s *Scene) {
			s.Motions[0].Kind = "teleport"
		}, "unknown motion kind"},
		{"constraint unknown entity", func(s *Scene) {
			s.Constraints[0].B = "ghost"
		}, "unknown entity"},
		{"constraint unknown kind", func(s *Scene) {
			s.Constraints[0].Kind = "weld"
		}, "unknown constraint kind"},
		{"bad timeline", func(s *Scene) {
			s.Timeline.Duration = 0
		}, "duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene, err := Decode(strings.NewReader(pendulumJSON))
			require.NoError(t, err)
			tt.mutate(scene)

			vErr := scene.Validate()
			var verr *ValidationError
			require.ErrorAs(t, vErr, &verr)
			assert.Contains(t, vErr.Error(), tt.want)
		})
	}
}

func TestFixedAxisNeedsNoSecondEntity(t *testing.T) {
	scene := &Scene{
		Entities: []Entity{{ID: "wheel", Kind: "solid"}},
		Constraints: []Constraint{
			{ID: "spin-axis", Kind: ConstraintFixedAxis, A: "wheel", Axis: [3]float64{0, 0, 1}},
		},
	}
	require.NoError(t, scene.Validate())
}
