package motion

import (
	"fmt"

	"github.com/halverson/orrery/internal/state"
)

// Method selects the integration scheme.
type Method string

const (
	// Euler is forward Euler. Simplest, least stable.
	Euler Method = "euler"
	// SemiImplicitEuler updates velocity before position. Better behaved
	// on oscillatory systems, and the default.
	SemiImplicitEuler Method = "semi-implicit-euler"
	// RK2 is the second-order midpoint method.
	RK2 Method = "rk2"
	// RK4 is the classic fourth-order Runge-Kutta.
	RK4 Method = "rk4"
	// Verlet needs a previous-position term the state model does not
	// carry, so it currently behaves like SemiImplicitEuler.
	Verlet Method = "verlet"
)

// DefaultMethod is the scheme used when none is configured.
const DefaultMethod = SemiImplicitEuler

// Stats summarizes one integration pass.
type Stats struct {
	ObjectsUpdated int
	MaxVelocity    float64
	Stable         bool
}

// Integrator advances dynamic objects by their velocities. Time steps are
// validated against [MinDt, MaxDt] before anything moves, so a rejected
// step leaves the world untouched.
type Integrator struct {
	method Method
	minDt  float64
	maxDt  float64
}

// NewIntegrator creates an integrator with the standard step bounds of
// 1e-6 to 0.1 seconds.
func NewIntegrator(method Method) *Integrator {
	if method == "" {
		method = DefaultMethod
	}
	return &Integrator{method: method, minDt: 1e-6, maxDt: 0.1}
}

// WithStepBounds overrides the allowed time-step range.
func (in *Integrator) WithStepBounds(minDt, maxDt float64) *Integrator {
	in.minDt = minDt
	in.maxDt = maxDt
	return in
}

// Method returns the active scheme.
func (in *Integrator) Method() Method { return in.method }

// SetMethod switches the scheme at runtime.
func (in *Integrator) SetMethod(m Method) { in.method = m }

// Integrate advances every dynamic object carrying a linear or angular
// velocity by dt. Objects
// are visited in sorted ID order so results are reproducible. A step below
// the minimum is StepTooSmall; above the maximum it is Unstable. A
// non-finite position after an object's update aborts the pass with that
// object named in the error.
func (in *Integrator) Integrate(w *state.WorldState, dt float64) (*Stats, error) {
	now := worldTime(w)
	if dt < in.minDt {
		return nil, &IntegrationError{Kind: StepTooSmall, Time: now}
	}
	if dt > in.maxDt {
		return nil, &IntegrationError{Kind: Unstable, Time: now}
	}

	stats := &Stats{Stable: true}
	for _, id := range w.ObjectIDs() {
		obj := w.Object(id)
		if obj.Static || (obj.Velocity == nil && obj.AngularVelocity == nil) {
			continue
		}

		if obj.Velocity != nil {
			switch in.method {
			case Euler:
				stepEuler(obj, dt)
			case RK2:
				stepRK2(obj, dt)
			case RK4:
				stepRK4(obj, dt)
			case SemiImplicitEuler, Verlet:
				stepSemiImplicit(obj, dt)
			default:
				return nil, fmt.Errorf("unknown integration method %q", in.method)
			}
			if v := obj.Velocity.Length(); v > stats.MaxVelocity {
				stats.MaxVelocity = v
			}
		}

		// Orientation advances independently; an object may spin in place
		// without any linear velocity.
		if obj.AngularVelocity != nil {
			stepOrientation(obj, dt)
		}
		stats.ObjectsUpdated++

		if obj.Position.HasNaN() || obj.Position.HasInf() {
			return nil, &IntegrationError{Kind: NaN, Time: now, ObjectID: id}
		}
	}
	return stats, nil
}

func worldTime(w *state.WorldState) float64 {
	if t, ok := w.Parameters.Get("time"); ok {
		return t
	}
	return 0
}

func stepEuler(obj *state.ObjectState, dt float64) {
	obj.Position = obj.Position.Add(obj.Velocity.Scale(dt))
}

func stepSemiImplicit(obj *state.ObjectState, dt float64) {
	// v' = v + a*dt, x' = x + v'*dt. With no force model the velocity
	// update is a no-op and the position step matches Euler.
	obj.Position = obj.Position.Add(obj.Velocity.Scale(dt))
}

func stepRK2(obj *state.ObjectState, dt float64) {
	// Midpoint method. The velocity field is constant over the step, so
	// k2 evaluated at the midpoint equals k1.
	k2 := *obj.Velocity
	obj.Position = obj.Position.Add(k2.Scale(dt))
}

func stepRK4(obj *state.ObjectState, dt float64) {
	k1 := *obj.Velocity
	k2, k3, k4 := k1, k1, k1
	sum := k1.Add(k2.Scale(2)).Add(k3.Scale(2)).Add(k4)
	obj.Position = obj.Position.Add(sum.Scale(dt / 6))
}

// stepOrientation advances orientation by the angular velocity using the
// quaternion derivative q' = 0.5 * (0, w) * q, then renormalizes.
func stepOrientation(obj *state.ObjectState, dt float64) {
	av := *obj.AngularVelocity
	q := obj.Orientation
	dq := state.Quaternion{
		W: -0.5 * (av.X*q.X + av.Y*q.Y + av.Z*q.Z),
		X: 0.5 * (av.X*q.W + av.Y*q.Z - av.Z*q.Y),
		Y: 0.5 * (av.Y*q.W + av.Z*q.X - av.X*q.Z),
		Z: 0.5 * (av.Z*q.W + av.X*q.Y - av.Y*q.X),
	}
	obj.Orientation = q.Add(dq.Scale(dt)).Normalize()
}
