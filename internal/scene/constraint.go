package scene

import (
	"fmt"

	"github.com/halverson/orrery/internal/ir"
	"github.com/halverson/orrery/internal/state"
)

// translateConstraint maps an IR constraint onto the runtime taxonomy.
// Distance keeps its dedicated kind; the rest become Equality constraints
// with generated residual equations.
func translateConstraint(c *ir.Constraint) (*state.ActiveConstraint, error) {
	switch c.Kind {
	case ir.ConstraintDistance:
		return &state.ActiveConstraint{
			ID:       c.ID,
			Kind:     state.ConstraintDistance,
			Objects:  []state.ObjectID{c.A, c.B},
			Target:   c.Distance,
			Priority: c.Priority,
			Enabled:  true,
		}, nil

	case ir.ConstraintParentChild:
		// Child rides the parent: residual is their separation.
		eq := fmt.Sprintf(
			"math.sqrt((%[2]s.position.x - %[1]s.position.x)^2 + "+
				"(%[2]s.position.y - %[1]s.position.y)^2 + "+
				"(%[2]s.position.z - %[1]s.position.z)^2)",
			c.A, c.B)
		return &state.ActiveConstraint{
			ID:       c.ID,
			Kind:     state.ConstraintEquality,
			Objects:  []state.ObjectID{c.A, c.B},
			Inputs:   []state.ObjectID{c.A},
			Equation: eq,
			Priority: c.Priority,
			Enabled:  true,
		}, nil

	case ir.ConstraintFixedAxis:
		ax, ay, az, err := unitAxis(c)
		if err != nil {
			return nil, err
		}
		// The orientation's vector part must lie on the axis: residual is
		// its squared magnitude orthogonal to the axis.
		eq := fmt.Sprintf(
			"(%[1]s.orientation.x^2 + %[1]s.orientation.y^2 + %[1]s.orientation.z^2) - "+
				"(%[1]s.orientation.x*%[2]v + %[1]s.orientation.y*%[3]v + %[1]s.orientation.z*%[4]v)^2",
			c.A, ax, ay, az)
		return &state.ActiveConstraint{
			ID:       c.ID,
			Kind:     state.ConstraintEquality,
			Objects:  []state.ObjectID{c.A},
			Equation: eq,
			Priority: c.Priority,
			Enabled:  true,
		}, nil

	case ir.ConstraintGear:
		if c.Ratio == 0 {
			return nil, &LoadError{Subject: c.ID, Reason: "gear ratio must be nonzero"}
		}
		// Rotation angle from the quaternion: 2*atan2(|v|, w). The driven
		// gear turns at ratio times the driver's angle.
		angle := func(id string) string {
			return fmt.Sprintf(
				"2 * math.atan2(math.sqrt(%[1]s.orientation.x^2 + "+
					"%[1]s.orientation.y^2 + %[1]s.orientation.z^2), %[1]s.orientation.w)",
				id)
		}
		eq := fmt.Sprintf("%s - %.9g * (%s)", angle(c.B), c.Ratio, angle(c.A))
		return &state.ActiveConstraint{
			ID:       c.ID,
			Kind:     state.ConstraintEquality,
			Objects:  []state.ObjectID{c.A, c.B},
			Inputs:   []state.ObjectID{c.A},
			Equation: eq,
			Priority: c.Priority,
			Enabled:  true,
		}, nil

	default:
		return nil, &LoadError{Subject: c.ID,
			Reason: fmt.Sprintf("unknown constraint kind %q", c.Kind)}
	}
}

func unitAxis(c *ir.Constraint) (float64, float64, float64, error) {
	v := state.Vec3(c.Axis[0], c.Axis[1], c.Axis[2])
	l := v.Length()
	if l == 0 {
		return 0, 0, 0, &LoadError{Subject: c.ID, Reason: "fixed axis must be nonzero"}
	}
	v = v.Scale(1 / l)
	return v.X, v.Y, v.Z, nil
}
