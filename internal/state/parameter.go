package state

import (
	"math"
	"sort"
)

// ParameterID identifies a parameter within a world.
type ParameterID = string

// ParameterKind tags the physical meaning of a parameter.
type ParameterKind string

const (
	ParamScalar ParameterKind = "scalar"
	ParamAngle  ParameterKind = "angle"
	ParamLength ParameterKind = "length"
	ParamTime   ParameterKind = "time"
	ParamMass   ParameterKind = "mass"
	ParamCustom ParameterKind = "custom"
)

// ParameterRange bounds a parameter's value. Wraps is set for cyclic
// quantities (angles): out-of-range values wrap instead of clamping.
type ParameterRange struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Wraps bool    `json:"wraps"`
}

// AngleRange is the conventional [0, 2π) wrapping range.
func AngleRange() ParameterRange {
	return ParameterRange{Min: 0, Max: 2 * math.Pi, Wraps: true}
}

// Apply clamps or wraps value into the range.
func (r ParameterRange) Apply(value float64) float64 {
	if r.Wraps {
		span := r.Max - r.Min
		if span <= 0 {
			return r.Min
		}
		v := value
		for v < r.Min {
			v += span
		}
		for v > r.Max {
			v -= span
		}
		return v
	}
	return clamp(value, r.Min, r.Max)
}

// Parameter is a named scalar. Derived parameters are computed from others
// during the Sync stage and reject direct Set calls.
type Parameter struct {
	ID    ParameterID   `json:"id"`
	Kind  ParameterKind `json:"kind"`
	Value float64       `json:"value"`

	Range *ParameterRange `json:"range,omitempty"`

	UserControllable bool   `json:"user_controllable"`
	Derived          bool   `json:"derived"`
	Derivation       string `json:"derivation,omitempty"`
	Units            string `json:"units,omitempty"`
}

// NewParameter creates a user-controllable scalar parameter.
func NewParameter(id ParameterID, value float64) *Parameter {
	return &Parameter{ID: id, Kind: ParamScalar, Value: value, UserControllable: true}
}

// WithKind sets the kind and returns the parameter for chaining.
func (p *Parameter) WithKind(kind ParameterKind) *Parameter {
	p.Kind = kind
	return p
}

// WithRange sets the valid range and returns the parameter for chaining.
func (p *Parameter) WithRange(min, max float64, wraps bool) *Parameter {
	p.Range = &ParameterRange{Min: min, Max: max, Wraps: wraps}
	return p
}

// WithUnits sets display units and returns the parameter for chaining.
func (p *Parameter) WithUnits(units string) *Parameter {
	p.Units = units
	return p
}

// MakeDerived marks the parameter as computed from expression. Derived
// parameters are not user-controllable.
func (p *Parameter) MakeDerived(expression string) *Parameter {
	p.Derived = true
	p.Derivation = expression
	p.UserControllable = false
	return p
}

// SetValue writes the value, applying the range. Non-finite values are
// rejected.
func (p *Parameter) SetValue(value float64) error {
	if math.IsNaN(value) {
		return NewError(InvalidParameter, "parameter %s: cannot set NaN", p.ID)
	}
	if math.IsInf(value, 0) {
		return NewError(InvalidParameter, "parameter %s: cannot set infinity", p.ID)
	}
	if p.Range != nil {
		p.Value = p.Range.Apply(value)
	} else {
		p.Value = value
	}
	return nil
}

// Validate checks finiteness and, for non-wrapping ranges, containment.
func (p *Parameter) Validate() error {
	if math.IsNaN(p.Value) {
		return NewError(InvalidParameter, "parameter %s contains NaN", p.ID)
	}
	if math.IsInf(p.Value, 0) {
		return NewError(InvalidParameter, "parameter %s contains infinity", p.ID)
	}
	if p.Range != nil && !p.Range.Wraps && (p.Value < p.Range.Min || p.Value > p.Range.Max) {
		return NewError(InvalidParameter, "parameter %s value %v outside range [%v, %v]",
			p.ID, p.Value, p.Range.Min, p.Range.Max)
	}
	return nil
}

// Clone returns a deep copy.
func (p *Parameter) Clone() *Parameter {
	c := *p
	if p.Range != nil {
		r := *p.Range
		c.Range = &r
	}
	return &c
}

// ParameterState holds all parameters of a world, keyed by id.
type ParameterState struct {
	Params map[ParameterID]*Parameter `json:"params"`
}

// NewParameterState creates an empty parameter set.
func NewParameterState() *ParameterState {
	return &ParameterState{Params: make(map[ParameterID]*Parameter)}
}

// Add registers a parameter. Duplicate ids are rejected.
func (s *ParameterState) Add(p *Parameter) error {
	if _, ok := s.Params[p.ID]; ok {
		return NewError(InvalidParameter, "parameter %s already exists", p.ID)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	s.Params[p.ID] = p
	return nil
}

// Get returns a parameter's value and whether it exists.
func (s *ParameterState) Get(id ParameterID) (float64, bool) {
	p, ok := s.Params[id]
	if !ok {
		return 0, false
	}
	return p.Value, true
}

// Set writes a parameter value. Derived parameters reject direct writes.
func (s *ParameterState) Set(id ParameterID, value float64) error {
	p, ok := s.Params[id]
	if !ok {
		return NewError(InvalidParameter, "parameter %s not found", id)
	}
	if p.Derived {
		return NewError(InvalidParameter, "cannot set derived parameter %s", id)
	}
	return p.SetValue(value)
}

// SetDerived writes a derived parameter's value. Used only by the Sync
// stage after re-evaluating derivations.
func (s *ParameterState) SetDerived(id ParameterID, value float64) error {
	p, ok := s.Params[id]
	if !ok {
		return NewError(InvalidParameter, "parameter %s not found", id)
	}
	return p.SetValue(value)
}

// Parameter returns the parameter record for id, or nil.
func (s *ParameterState) Parameter(id ParameterID) *Parameter {
	return s.Params[id]
}

// Len returns the number of parameters.
func (s *ParameterState) Len() int {
	return len(s.Params)
}

// IDs returns all parameter ids in sorted order for deterministic
// iteration.
func (s *ParameterState) IDs() []ParameterID {
	ids := make([]ParameterID, 0, len(s.Params))
	for id := range s.Params {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Values returns a copy of all parameter values keyed by id.
func (s *ParameterState) Values() map[ParameterID]float64 {
	out := make(map[ParameterID]float64, len(s.Params))
	for id, p := range s.Params {
		out[id] = p.Value
	}
	return out
}

// Validate checks every parameter.
func (s *ParameterState) Validate() error {
	for _, id := range s.IDs() {
		if err := s.Params[id].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// HasNaN reports whether any parameter value is NaN.
func (s *ParameterState) HasNaN() bool {
	for _, p := range s.Params {
		if math.IsNaN(p.Value) {
			return true
		}
	}
	return false
}

// HasInf reports whether any parameter value is infinite.
func (s *ParameterState) HasInf() bool {
	for _, p := range s.Params {
		if math.IsInf(p.Value, 0) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (s *ParameterState) Clone() *ParameterState {
	c := NewParameterState()
	for id, p := range s.Params {
		c.Params[id] = p.Clone()
	}
	return c
}
