package scene

import (
	"fmt"

	"github.com/halverson/orrery/internal/ir"
	"github.com/halverson/orrery/internal/state"
)

// LoadError reports an IR element the loader could not translate.
type LoadError struct {
	Subject string
	Reason  string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load scene: %s: %s", e.Subject, e.Reason)
}

// Load translates a scene description into runtime state. The scene is
// assumed validated; referential integrity is not re-checked here.
func Load(s *ir.Scene) (*state.RuntimeState, error) {
	world := state.NewWorldState()

	for i := range s.Entities {
		obj, err := loadEntity(&s.Entities[i])
		if err != nil {
			return nil, err
		}
		if err := world.AddObject(obj); err != nil {
			return nil, err
		}
	}

	for i := range s.Motions {
		if err := applyMotion(world, &s.Motions[i]); err != nil {
			return nil, err
		}
	}

	for i := range s.Constraints {
		ac, err := translateConstraint(&s.Constraints[i])
		if err != nil {
			return nil, err
		}
		if err := world.AddConstraint(ac); err != nil {
			return nil, err
		}
	}

	timeParam := state.NewParameter("time", 0)
	timeParam.Kind = state.ParamTime
	timeParam.Units = "s"
	if err := world.Parameters.Add(timeParam); err != nil {
		return nil, err
	}

	ts := state.NewTimeState()
	if s.Timeline != nil {
		if s.Timeline.Loop {
			ts.Bounds = state.WrappingTime(0, s.Timeline.Duration)
		} else {
			ts.Bounds = state.BoundedTime(0, s.Timeline.Duration)
		}
	}

	rs := state.NewRuntimeState(world, ts)
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

func loadEntity(e *ir.Entity) (*state.ObjectState, error) {
	obj := state.NewObject(e.ID, inferKind(e))

	if tr := e.Transform; tr != nil {
		if tr.Position != nil {
			obj.Position = state.Vec3(tr.Position[0], tr.Position[1], tr.Position[2])
		}
		if tr.Rotation != nil {
			obj.Orientation = state.FromEuler(tr.Rotation[0], tr.Rotation[1], tr.Rotation[2])
		}
		if tr.Scale != nil {
			obj.Scale = state.Vec3(tr.Scale[0], tr.Scale[1], tr.Scale[2])
		}
	}
	if e.Physical != nil && e.Physical.Rigid {
		obj.MakeStatic()
	}
	return obj, nil
}

// inferKind maps a geometry primitive to the runtime object taxonomy.
// Entities without geometry, and unrecognized primitives, load as Custom.
func inferKind(e *ir.Entity) state.ObjectKind {
	if e.Kind != "solid" || e.Geometry == nil {
		return state.KindCustom
	}
	switch e.Geometry.Primitive {
	case "cube":
		return state.KindBox
	case "sphere":
		return state.KindSphere
	case "cylinder":
		return state.KindCylinder
	case "plane":
		return state.KindPlane
	default:
		return state.KindCustom
	}
}

func applyMotion(w *state.WorldState, m *ir.Motion) error {
	obj := w.Object(m.Target)
	if obj == nil {
		return &LoadError{Subject: m.ID, Reason: "motion target not loaded"}
	}
	if obj.Static {
		return &LoadError{Subject: m.ID, Reason: "motion targets a rigid entity"}
	}
	switch m.Kind {
	case ir.MotionTranslation:
		v := state.Vec3(m.Direction[0], m.Direction[1], m.Direction[2]).Scale(m.Speed)
		obj.Velocity = &v
	case ir.MotionRotation:
		av := state.Vec3(m.Axis[0], m.Axis[1], m.Axis[2])
		if l := av.Length(); l > 0 {
			av = av.Scale(m.Speed / l)
		}
		obj.AngularVelocity = &av
	case ir.MotionScale:
		// Scale motion needs a growth model the runtime does not carry.
		return &LoadError{Subject: m.ID, Reason: "scale motions are not supported"}
	default:
		return &LoadError{Subject: m.ID, Reason: fmt.Sprintf("unknown motion kind %q", m.Kind)}
	}
	return nil
}
