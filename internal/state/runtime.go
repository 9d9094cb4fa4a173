package state

import "math"

// Checksum is the integrity fingerprint carried by RuntimeState. It is
// recomputed at construction and verified by Validate, catching snapshots
// whose contents were mutated after capture.
type Checksum struct {
	ObjectCount     int    `json:"object_count"`
	ParameterCount  int    `json:"parameter_count"`
	ConstraintCount int    `json:"constraint_count"`
	TimeBits        uint64 `json:"time_bits"`
}

// RuntimeState is the complete state owned by the engine: the world, the
// time state, and the integrity checksum.
type RuntimeState struct {
	World    *WorldState `json:"world"`
	Time     *TimeState  `json:"time"`
	Checksum Checksum    `json:"checksum"`
}

// NewRuntimeState assembles a runtime state and computes its checksum.
func NewRuntimeState(world *WorldState, t *TimeState) *RuntimeState {
	s := &RuntimeState{World: world, Time: t}
	s.Reseal()
	return s
}

// Reseal recomputes the checksum after a legitimate mutation. The engine
// calls this at the end of every step so that Validate distinguishes
// engine-driven change from outside tampering.
func (s *RuntimeState) Reseal() {
	s.Checksum = Checksum{
		ObjectCount:     len(s.World.Objects),
		ParameterCount:  s.World.Parameters.Len(),
		ConstraintCount: len(s.World.Constraints),
		TimeBits:        math.Float64bits(s.Time.CurrentTime),
	}
}

// Verify reports whether the checksum matches current contents.
func (s *RuntimeState) Verify() bool {
	return s.Checksum.ObjectCount == len(s.World.Objects) &&
		s.Checksum.ParameterCount == s.World.Parameters.Len() &&
		s.Checksum.ConstraintCount == len(s.World.Constraints) &&
		s.Checksum.TimeBits == math.Float64bits(s.Time.CurrentTime)
}

// Validate verifies the checksum and all world and time invariants.
func (s *RuntimeState) Validate() error {
	if !s.Verify() {
		return NewError(InvariantViolation, "state checksum mismatch")
	}
	if err := s.World.Validate(); err != nil {
		return err
	}
	return s.Time.Validate()
}

// Clone returns a deep copy. The copy never aliases the original, so it
// may be handed to arbitrarily slower consumers.
func (s *RuntimeState) Clone() *RuntimeState {
	return &RuntimeState{
		World:    s.World.Clone(),
		Time:     s.Time.Clone(),
		Checksum: s.Checksum,
	}
}
