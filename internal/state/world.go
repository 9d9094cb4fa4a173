package state

import "sort"

// ConstraintKind is the canonical runtime constraint taxonomy. IR-level
// constraint variants are translated into these kinds at scene load.
type ConstraintKind string

const (
	ConstraintEquality   ConstraintKind = "equality"   // f(x) = 0
	ConstraintInequality ConstraintKind = "inequality" // f(x) >= 0
	ConstraintDistance   ConstraintKind = "distance"
	ConstraintAngle      ConstraintKind = "angle"
	ConstraintCustom     ConstraintKind = "custom"
)

// ActiveConstraint is one constraint the solver evaluates each step.
// Equation is a scalar expression over the referenced objects and
// parameters; its value is the residual (zero means satisfied). Distance
// and Angle constraints may leave Equation empty and rely on Target.
type ActiveConstraint struct {
	ID         string         `json:"id"`
	Kind       ConstraintKind `json:"kind"`
	Objects    []ObjectID     `json:"objects"`
	Parameters []ParameterID  `json:"parameters,omitempty"`
	Equation   string         `json:"equation,omitempty"`

	// Inputs lists referenced objects the solver must read but never
	// correct, the object-side analogue of TargetParam. A gear's driver
	// drives; the residual is closed by moving the driven side.
	Inputs []ObjectID `json:"inputs,omitempty"`

	// Target is the desired distance or angle for kind-specific
	// constraints. TargetParam names a parameter supplying it instead.
	Target      float64 `json:"target,omitempty"`
	TargetParam string  `json:"target_param,omitempty"`

	// Priority orders evaluation: higher priorities are evaluated first.
	Priority int  `json:"priority"`
	Enabled  bool `json:"enabled"`
}

// Clone returns a deep copy.
func (c *ActiveConstraint) Clone() *ActiveConstraint {
	d := *c
	d.Objects = append([]ObjectID(nil), c.Objects...)
	d.Parameters = append([]ParameterID(nil), c.Parameters...)
	d.Inputs = append([]ObjectID(nil), c.Inputs...)
	return &d
}

// ExecutionFlags are per-world toggles consulted by the engine each step.
type ExecutionFlags struct {
	Paused          bool            `json:"paused"`
	Stepping        bool            `json:"stepping"`
	ValidateSteps   bool            `json:"validate_steps"`
	RecordSnapshots bool            `json:"record_snapshots"`
	Custom          map[string]bool `json:"custom,omitempty"`
}

// DefaultFlags validates every step and records snapshots.
func DefaultFlags() ExecutionFlags {
	return ExecutionFlags{ValidateSteps: true, RecordSnapshots: true}
}

// WorldState aggregates all objects, parameters, and active constraints.
type WorldState struct {
	Objects     map[ObjectID]*ObjectState `json:"objects"`
	Parameters  *ParameterState           `json:"parameters"`
	Constraints []*ActiveConstraint       `json:"constraints"`
	Flags       ExecutionFlags            `json:"flags"`
}

// NewWorldState creates an empty world with default flags.
func NewWorldState() *WorldState {
	return &WorldState{
		Objects:    make(map[ObjectID]*ObjectState),
		Parameters: NewParameterState(),
		Flags:      DefaultFlags(),
	}
}

// AddObject registers an object. Duplicate ids are rejected.
func (w *WorldState) AddObject(obj *ObjectState) error {
	if _, ok := w.Objects[obj.ID]; ok {
		return NewObjectError(InvalidObject, obj.ID, "object already exists")
	}
	w.Objects[obj.ID] = obj
	return nil
}

// Object returns the object with the given id, or nil.
func (w *WorldState) Object(id ObjectID) *ObjectState {
	return w.Objects[id]
}

// ObjectIDs returns all object ids in sorted order for deterministic
// iteration.
func (w *WorldState) ObjectIDs() []ObjectID {
	ids := make([]ObjectID, 0, len(w.Objects))
	for id := range w.Objects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AddConstraint appends a constraint and re-sorts by descending priority.
// Ties preserve insertion order. Duplicate ids and references to unknown
// objects are rejected.
func (w *WorldState) AddConstraint(c *ActiveConstraint) error {
	for _, existing := range w.Constraints {
		if existing.ID == c.ID {
			return NewError(InvariantViolation, "constraint %s already exists", c.ID)
		}
	}
	for _, objID := range c.Objects {
		if _, ok := w.Objects[objID]; !ok {
			return NewError(InvariantViolation,
				"constraint %s references unknown object %s", c.ID, objID)
		}
	}
	w.Constraints = append(w.Constraints, c)
	sort.SliceStable(w.Constraints, func(i, j int) bool {
		return w.Constraints[i].Priority > w.Constraints[j].Priority
	})
	return nil
}

// RemoveConstraint deletes the constraint with the given id.
func (w *WorldState) RemoveConstraint(id string) error {
	for i, c := range w.Constraints {
		if c.ID == id {
			w.Constraints = append(w.Constraints[:i], w.Constraints[i+1:]...)
			return nil
		}
	}
	return NewError(InvariantViolation, "constraint %s not found", id)
}

// EnabledConstraints returns enabled constraints in priority order.
func (w *WorldState) EnabledConstraints() []*ActiveConstraint {
	out := make([]*ActiveConstraint, 0, len(w.Constraints))
	for _, c := range w.Constraints {
		if c.Enabled {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks every object and parameter, and that constraints only
// reference objects that exist.
func (w *WorldState) Validate() error {
	for _, id := range w.ObjectIDs() {
		if err := w.Objects[id].Validate(); err != nil {
			return err
		}
	}
	if err := w.Parameters.Validate(); err != nil {
		return err
	}
	for _, c := range w.Constraints {
		for _, objID := range c.Objects {
			if _, ok := w.Objects[objID]; !ok {
				return NewError(InvariantViolation,
					"constraint %s references unknown object %s", c.ID, objID)
			}
		}
	}
	return nil
}

// HasNaN reports whether any object or parameter contains NaN.
func (w *WorldState) HasNaN() bool {
	for _, obj := range w.Objects {
		if obj.HasNaN() {
			return true
		}
	}
	return w.Parameters.HasNaN()
}

// HasInf reports whether any object or parameter contains infinity.
func (w *WorldState) HasInf() bool {
	for _, obj := range w.Objects {
		if obj.HasInf() {
			return true
		}
	}
	return w.Parameters.HasInf()
}

// Clone returns a deep copy.
func (w *WorldState) Clone() *WorldState {
	c := &WorldState{
		Objects:    make(map[ObjectID]*ObjectState, len(w.Objects)),
		Parameters: w.Parameters.Clone(),
		Flags:      w.Flags,
	}
	for id, obj := range w.Objects {
		c.Objects[id] = obj.Clone()
	}
	if w.Flags.Custom != nil {
		c.Flags.Custom = make(map[string]bool, len(w.Flags.Custom))
		for k, v := range w.Flags.Custom {
			c.Flags.Custom[k] = v
		}
	}
	for _, con := range w.Constraints {
		c.Constraints = append(c.Constraints, con.Clone())
	}
	return c
}

// Summary is a compact description of world contents for logs.
type Summary struct {
	Objects            int  `json:"objects"`
	Parameters         int  `json:"parameters"`
	Constraints        int  `json:"constraints"`
	EnabledConstraints int  `json:"enabled_constraints"`
	HasNaN             bool `json:"has_nan"`
	HasInf             bool `json:"has_inf"`
}

// Summarize builds a Summary of the world.
func (w *WorldState) Summarize() Summary {
	return Summary{
		Objects:            len(w.Objects),
		Parameters:         w.Parameters.Len(),
		Constraints:        len(w.Constraints),
		EnabledConstraints: len(w.EnabledConstraints()),
		HasNaN:             w.HasNaN(),
		HasInf:             w.HasInf(),
	}
}
