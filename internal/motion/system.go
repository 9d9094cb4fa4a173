package motion

import (
	"github.com/halverson/orrery/internal/state"
)

// System bundles the integrator and the sampler. The execution loop calls
// Update once per step and records the post-step state so the sampler can
// answer renderer queries at arbitrary times.
type System struct {
	integrator *Integrator
	sampler    *Sampler
}

// NewSystem creates a motion system using the given integration method.
func NewSystem(method Method) *System {
	return &System{
		integrator: NewIntegrator(method),
		sampler:    NewSampler(),
	}
}

// Update advances all dynamic objects by dt.
func (s *System) Update(w *state.WorldState, dt float64) (*Stats, error) {
	return s.integrator.Integrate(w, dt)
}

// RecordState remembers the current object states for later sampling.
func (s *System) RecordState(w *state.WorldState, time float64) {
	s.sampler.Record(w, time)
}

// SampleAt reconstructs all objects at the given time.
func (s *System) SampleAt(w *state.WorldState, time float64) []Sample {
	return s.sampler.SampleAll(w, time)
}

// Integrator exposes the underlying integrator.
func (s *System) Integrator() *Integrator { return s.integrator }

// Sampler exposes the underlying sampler.
func (s *System) Sampler() *Sampler { return s.sampler }

// Reset drops sampler history, for engine resets.
func (s *System) Reset() { s.sampler.Clear() }
