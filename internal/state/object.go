package state

import "math"

// ObjectID identifies an object within a world. IDs are assigned at scene
// load and never reused during a run.
type ObjectID = string

// ObjectKind tags the geometric role of an object. The runtime never
// interprets geometry beyond this tag; renderers do.
type ObjectKind string

const (
	KindPoint    ObjectKind = "point"
	KindLine     ObjectKind = "line"
	KindPlane    ObjectKind = "plane"
	KindCircle   ObjectKind = "circle"
	KindSphere   ObjectKind = "sphere"
	KindBox      ObjectKind = "box"
	KindCylinder ObjectKind = "cylinder"
	KindMesh     ObjectKind = "mesh"
	KindCustom   ObjectKind = "custom"
)

// ObjectState is the full simulated state of one object. Objects are
// created once at scene load, mutated every step by constraint enforcement
// and motion integration, and never destroyed during a run.
type ObjectState struct {
	ID          ObjectID   `json:"id"`
	Kind        ObjectKind `json:"kind"`
	Position    Vector3    `json:"position"`
	Orientation Quaternion `json:"orientation"`
	Scale       Vector3    `json:"scale"`

	// Velocity and AngularVelocity are nil for objects that never move.
	Velocity        *Vector3 `json:"velocity,omitempty"`
	AngularVelocity *Vector3 `json:"angular_velocity,omitempty"`

	// Derived holds named scalar properties computed from constraints and
	// motion (lengths, angles, energies).
	Derived map[string]float64 `json:"derived,omitempty"`

	Static  bool `json:"static"`
	Visible bool `json:"visible"`
}

// NewObject creates an object at the origin with identity orientation and
// unit scale.
func NewObject(id ObjectID, kind ObjectKind) *ObjectState {
	return &ObjectState{
		ID:          id,
		Kind:        kind,
		Orientation: Identity,
		Scale:       One3,
		Visible:     true,
	}
}

// WithPosition sets the position and returns the object for chaining.
func (o *ObjectState) WithPosition(p Vector3) *ObjectState {
	o.Position = p
	return o
}

// WithOrientation sets the orientation and returns the object for chaining.
func (o *ObjectState) WithOrientation(q Quaternion) *ObjectState {
	o.Orientation = q
	return o
}

// WithScale sets the scale and returns the object for chaining.
func (o *ObjectState) WithScale(s Vector3) *ObjectState {
	o.Scale = s
	return o
}

// WithVelocity sets the linear velocity and returns the object for chaining.
func (o *ObjectState) WithVelocity(v Vector3) *ObjectState {
	o.Velocity = &v
	return o
}

// MakeStatic marks the object immovable and clears any velocities.
func (o *ObjectState) MakeStatic() *ObjectState {
	o.Static = true
	o.Velocity = nil
	o.AngularVelocity = nil
	return o
}

// SetDerived records a named derived scalar.
func (o *ObjectState) SetDerived(key string, value float64) {
	if o.Derived == nil {
		o.Derived = make(map[string]float64)
	}
	o.Derived[key] = value
}

// GetDerived returns a derived scalar and whether it exists.
func (o *ObjectState) GetDerived(key string) (float64, bool) {
	v, ok := o.Derived[key]
	return v, ok
}

// orientationTolerance bounds |length^2 - 1| for a valid orientation.
const orientationTolerance = 1e-6

// Validate checks the object's numeric invariants.
func (o *ObjectState) Validate() error {
	switch {
	case o.Position.HasNaN():
		return NewObjectError(InvalidObject, o.ID, "position contains NaN")
	case o.Position.HasInf():
		return NewObjectError(InvalidObject, o.ID, "position contains infinity")
	case o.Orientation.HasNaN():
		return NewObjectError(InvalidObject, o.ID, "orientation contains NaN")
	case o.Orientation.HasInf():
		return NewObjectError(InvalidObject, o.ID, "orientation contains infinity")
	case o.Scale.HasNaN():
		return NewObjectError(InvalidObject, o.ID, "scale contains NaN")
	case o.Scale.HasInf():
		return NewObjectError(InvalidObject, o.ID, "scale contains infinity")
	}
	if !o.Orientation.IsUnit(orientationTolerance) {
		return NewObjectError(InvalidObject, o.ID,
			"orientation is not normalized (length^2 = %v)", o.Orientation.LengthSquared())
	}
	return nil
}

// HasNaN reports whether any numeric field is NaN.
func (o *ObjectState) HasNaN() bool {
	if o.Position.HasNaN() || o.Orientation.HasNaN() || o.Scale.HasNaN() {
		return true
	}
	if o.Velocity != nil && o.Velocity.HasNaN() {
		return true
	}
	if o.AngularVelocity != nil && o.AngularVelocity.HasNaN() {
		return true
	}
	for _, v := range o.Derived {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// HasInf reports whether any numeric field is infinite.
func (o *ObjectState) HasInf() bool {
	if o.Position.HasInf() || o.Orientation.HasInf() || o.Scale.HasInf() {
		return true
	}
	if o.Velocity != nil && o.Velocity.HasInf() {
		return true
	}
	if o.AngularVelocity != nil && o.AngularVelocity.HasInf() {
		return true
	}
	for _, v := range o.Derived {
		if math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (o *ObjectState) Clone() *ObjectState {
	c := *o
	if o.Velocity != nil {
		v := *o.Velocity
		c.Velocity = &v
	}
	if o.AngularVelocity != nil {
		v := *o.AngularVelocity
		c.AngularVelocity = &v
	}
	if o.Derived != nil {
		c.Derived = make(map[string]float64, len(o.Derived))
		for k, v := range o.Derived {
			c.Derived[k] = v
		}
	}
	return &c
}
