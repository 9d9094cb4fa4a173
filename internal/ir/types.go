package ir

// Scene is a complete scene description.
type Scene struct {
	Name        string       `json:"name,omitempty"`
	Entities    []Entity     `json:"entities"`
	Motions     []Motion     `json:"motions,omitempty"`
	Constraints []Constraint `json:"constraints,omitempty"`
	Timeline    *Timeline    `json:"timeline,omitempty"`
}

// Entity is one scene object with optional components.
type Entity struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"` // "solid" or a custom tag
	Transform *Transform `json:"transform,omitempty"`
	Geometry  *Geometry  `json:"geometry,omitempty"`
	Physical  *Physical  `json:"physical,omitempty"`
}

// Transform holds optional spatial fields. Rotation is Euler angles in
// radians, roll/pitch/yaw order.
type Transform struct {
	Position *[3]float64 `json:"position,omitempty"`
	Rotation *[3]float64 `json:"rotation,omitempty"`
	Scale    *[3]float64 `json:"scale,omitempty"`
}

// Geometry names the primitive an entity renders as.
type Geometry struct {
	Primitive string `json:"primitive"`
}

// Physical carries physics flags. Rigid entities do not move.
type Physical struct {
	Rigid bool `json:"rigid"`
}

// MotionKind selects how a motion drives its target.
type MotionKind string

const (
	MotionRotation    MotionKind = "rotation"
	MotionTranslation MotionKind = "translation"
	MotionScale       MotionKind = "scale"
)

// Motion continuously drives one entity. Axis applies to rotations,
// Direction to translations; Speed is radians or units per second.
type Motion struct {
	ID        string     `json:"id"`
	Target    string     `json:"target"`
	Kind      MotionKind `json:"kind"`
	Axis      [3]float64 `json:"axis,omitempty"`
	Direction [3]float64 `json:"direction,omitempty"`
	Speed     float64    `json:"speed"`
}

// ConstraintKind is the IR-level constraint taxonomy. The scene loader
// translates these to the runtime's canonical kinds.
type ConstraintKind string

const (
	ConstraintDistance    ConstraintKind = "distance"
	ConstraintFixedAxis   ConstraintKind = "fixed_axis"
	ConstraintParentChild ConstraintKind = "parent_child"
	ConstraintGear        ConstraintKind = "gear"
)

// Constraint relates entities. Field use depends on Kind: Distance uses
// A/B/Distance, FixedAxis uses A/Axis, ParentChild uses A (parent) and
// B (child), Gear uses A (driver), B (driven), and Ratio.
type Constraint struct {
	ID       string         `json:"id"`
	Kind     ConstraintKind `json:"kind"`
	A        string         `json:"a"`
	B        string         `json:"b,omitempty"`
	Distance float64        `json:"distance,omitempty"`
	Axis     [3]float64     `json:"axis,omitempty"`
	Ratio    float64        `json:"ratio,omitempty"`
	Priority int            `json:"priority,omitempty"`
}

// Timeline bounds simulation time. Loop makes time wrap at Duration
// instead of clamping.
type Timeline struct {
	Duration float64 `json:"duration"`
	Loop     bool    `json:"loop,omitempty"`
}
