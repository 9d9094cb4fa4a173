package state

import "math"

// Vector3 is a 3-component double-precision vector.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Zero3 and One3 are the usual vector constants.
var (
	Zero3 = Vector3{}
	One3  = Vector3{X: 1, Y: 1, Z: 1}
)

// Vec3 constructs a Vector3.
func Vec3(x, y, z float64) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

// Add returns v + w.
func (v Vector3) Add(w Vector3) Vector3 {
	return Vector3{X: v.X + w.X, Y: v.Y + w.Y, Z: v.Z + w.Z}
}

// Sub returns v - w.
func (v Vector3) Sub(w Vector3) Vector3 {
	return Vector3{X: v.X - w.X, Y: v.Y - w.Y, Z: v.Z - w.Z}
}

// Scale returns v * s.
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dot returns the dot product of v and w.
func (v Vector3) Dot(w Vector3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns the cross product of v and w.
func (v Vector3) Cross(w Vector3) Vector3 {
	return Vector3{
		X: v.Y*w.Z - v.Z*w.Y,
		Y: v.Z*w.X - v.X*w.Z,
		Z: v.X*w.Y - v.Y*w.X,
	}
}

// LengthSquared returns |v|^2.
func (v Vector3) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Length returns |v|.
func (v Vector3) Length() float64 {
	return math.Sqrt(v.LengthSquared())
}

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Vector3) Normalize() Vector3 {
	l := v.Length()
	if l > 0 {
		return v.Scale(1 / l)
	}
	return v
}

// Lerp returns the linear blend (1-t)*v + t*w.
func (v Vector3) Lerp(w Vector3, t float64) Vector3 {
	return Vector3{
		X: v.X + (w.X-v.X)*t,
		Y: v.Y + (w.Y-v.Y)*t,
		Z: v.Z + (w.Z-v.Z)*t,
	}
}

// HasNaN reports whether any component is NaN.
func (v Vector3) HasNaN() bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z)
}

// HasInf reports whether any component is infinite.
func (v Vector3) HasInf() bool {
	return math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) || math.IsInf(v.Z, 0)
}

// Quaternion is a rotation stored as w + xi + yj + zk. When used as an
// orientation it must be unit-norm; see ObjectState.Validate.
type Quaternion struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Identity is the no-rotation quaternion.
var Identity = Quaternion{W: 1}

// Quat constructs a Quaternion.
func Quat(w, x, y, z float64) Quaternion {
	return Quaternion{W: w, X: x, Y: y, Z: z}
}

// FromAxisAngle builds a unit quaternion rotating by angle radians around
// axis. The axis is normalized first.
func FromAxisAngle(axis Vector3, angle float64) Quaternion {
	half := angle * 0.5
	s := math.Sin(half)
	a := axis.Normalize()
	return Quaternion{W: math.Cos(half), X: a.X * s, Y: a.Y * s, Z: a.Z * s}
}

// FromEuler composes roll/pitch/yaw (radians) into a unit quaternion using
// the standard half-angle composition.
func FromEuler(roll, pitch, yaw float64) Quaternion {
	cr, sr := math.Cos(roll*0.5), math.Sin(roll*0.5)
	cp, sp := math.Cos(pitch*0.5), math.Sin(pitch*0.5)
	cy, sy := math.Cos(yaw*0.5), math.Sin(yaw*0.5)
	return Quaternion{
		W: cr*cp*cy + sr*sp*sy,
		X: sr*cp*cy - cr*sp*sy,
		Y: cr*sp*cy + sr*cp*sy,
		Z: cr*cp*sy - sr*sp*cy,
	}
}

// Add returns the componentwise sum q + r. The result is generally not
// unit-norm; callers renormalize after applying orientation deltas.
func (q Quaternion) Add(r Quaternion) Quaternion {
	return Quaternion{W: q.W + r.W, X: q.X + r.X, Y: q.Y + r.Y, Z: q.Z + r.Z}
}

// Scale returns q with every component multiplied by s.
func (q Quaternion) Scale(s float64) Quaternion {
	return Quaternion{W: q.W * s, X: q.X * s, Y: q.Y * s, Z: q.Z * s}
}

// Dot returns the 4-component dot product.
func (q Quaternion) Dot(r Quaternion) float64 {
	return q.W*r.W + q.X*r.X + q.Y*r.Y + q.Z*r.Z
}

// LengthSquared returns |q|^2.
func (q Quaternion) LengthSquared() float64 {
	return q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z
}

// Normalize returns q scaled to unit length. A zero quaternion normalizes
// to the identity.
func (q Quaternion) Normalize() Quaternion {
	l := math.Sqrt(q.LengthSquared())
	if l > 0 {
		return q.Scale(1 / l)
	}
	return Identity
}

// IsUnit reports whether |q|^2 is within tol of 1.0.
func (q Quaternion) IsUnit(tol float64) bool {
	return math.Abs(q.LengthSquared()-1.0) <= tol
}

// Slerp spherically interpolates from q to r by t in [0,1]. When the
// quaternions are nearly identical it falls back to a linear blend with
// renormalization to avoid dividing by a near-zero sine.
func (q Quaternion) Slerp(r Quaternion, t float64) Quaternion {
	dot := q.Dot(r)
	if math.Abs(dot) > 0.9995 {
		return q.Add(r.Sub(q).Scale(t)).Normalize()
	}
	theta := math.Acos(clamp(dot, -1, 1))
	sinTheta := math.Sin(theta)
	if math.Abs(sinTheta) < 1e-6 {
		return q
	}
	w1 := math.Sin((1-t)*theta) / sinTheta
	w2 := math.Sin(t*theta) / sinTheta
	return q.Scale(w1).Add(r.Scale(w2)).Normalize()
}

// Sub returns the componentwise difference q - r.
func (q Quaternion) Sub(r Quaternion) Quaternion {
	return Quaternion{W: q.W - r.W, X: q.X - r.X, Y: q.Y - r.Y, Z: q.Z - r.Z}
}

// HasNaN reports whether any component is NaN.
func (q Quaternion) HasNaN() bool {
	return math.IsNaN(q.W) || math.IsNaN(q.X) || math.IsNaN(q.Y) || math.IsNaN(q.Z)
}

// HasInf reports whether any component is infinite.
func (q Quaternion) HasInf() bool {
	return math.IsInf(q.W, 0) || math.IsInf(q.X, 0) || math.IsInf(q.Y, 0) || math.IsInf(q.Z, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
