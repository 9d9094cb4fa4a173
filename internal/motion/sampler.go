package motion

import (
	"github.com/halverson/orrery/internal/state"
)

// record is one remembered object state.
type record struct {
	time        float64
	position    state.Vector3
	orientation state.Quaternion
	velocity    *state.Vector3
}

// Sample is an object's state reconstructed at a query time.
type Sample struct {
	ObjectID    state.ObjectID
	Time        float64
	Position    state.Vector3
	Orientation state.Quaternion
	Velocity    *state.Vector3
}

// Sampler keeps a bounded per-object history and reconstructs object
// states at arbitrary times. Between two records it interpolates, past the
// newest record it extrapolates forward by velocity, and with no history
// at all it falls back to the live state.
type Sampler struct {
	history    map[state.ObjectID][]record
	maxHistory int
}

// NewSampler creates a sampler holding up to 1000 records per object.
func NewSampler() *Sampler {
	return &Sampler{history: make(map[state.ObjectID][]record), maxHistory: 1000}
}

// WithMaxHistory overrides the per-object history bound.
func (s *Sampler) WithMaxHistory(max int) *Sampler {
	if max > 0 {
		s.maxHistory = max
	}
	return s
}

// Record remembers the current state of every object at the given time.
// Oldest records fall off once an object's history hits the bound.
func (s *Sampler) Record(w *state.WorldState, time float64) {
	for _, id := range w.ObjectIDs() {
		obj := w.Object(id)
		rec := record{
			time:        time,
			position:    obj.Position,
			orientation: obj.Orientation,
		}
		if obj.Velocity != nil {
			v := *obj.Velocity
			rec.velocity = &v
		}
		h := append(s.history[id], rec)
		if len(h) > s.maxHistory {
			h = h[len(h)-s.maxHistory:]
		}
		s.history[id] = h
	}
}

// SampleAll reconstructs every object at the given time, in sorted object
// order.
func (s *Sampler) SampleAll(w *state.WorldState, time float64) []Sample {
	samples := make([]Sample, 0, len(w.Objects))
	for _, id := range w.ObjectIDs() {
		if sample, ok := s.SampleObject(id, time, w.Object(id)); ok {
			samples = append(samples, sample)
		}
	}
	return samples
}

// SampleObject reconstructs one object at the given time. The fallback is
// used when the sampler has never recorded the object.
func (s *Sampler) SampleObject(id state.ObjectID, time float64, fallback *state.ObjectState) (Sample, bool) {
	history, ok := s.history[id]
	if !ok || len(history) == 0 {
		if fallback == nil {
			return Sample{}, false
		}
		return Sample{
			ObjectID:    id,
			Time:        time,
			Position:    fallback.Position,
			Orientation: fallback.Orientation,
			Velocity:    cloneVel(fallback.Velocity),
		}, true
	}

	before, after := bracket(history, time)
	switch {
	case before != nil && after != nil:
		return interpolate(id, before, after, time), true
	case before != nil:
		return extrapolate(id, before, time), true
	case after != nil:
		return Sample{
			ObjectID:    id,
			Time:        time,
			Position:    after.position,
			Orientation: after.orientation,
			Velocity:    cloneVel(after.velocity),
		}, true
	default:
		return Sample{}, false
	}
}

// Count returns the number of records held for one object.
func (s *Sampler) Count(id state.ObjectID) int { return len(s.history[id]) }

// Total returns the number of records held across all objects.
func (s *Sampler) Total() int {
	n := 0
	for _, h := range s.history {
		n += len(h)
	}
	return n
}

// ClearObject drops one object's history.
func (s *Sampler) ClearObject(id state.ObjectID) { delete(s.history, id) }

// Clear drops all history.
func (s *Sampler) Clear() { s.history = make(map[state.ObjectID][]record) }

// bracket finds the latest record at or before time and the earliest one
// after it. Records are appended in time order, so a single scan works.
func bracket(history []record, time float64) (*record, *record) {
	var before, after *record
	for i := range history {
		if history[i].time <= time {
			before = &history[i]
		} else {
			after = &history[i]
			break
		}
	}
	return before, after
}

func interpolate(id state.ObjectID, before, after *record, time float64) Sample {
	span := after.time - before.time
	t := 0.0
	if span > 0 {
		t = (time - before.time) / span
		if t < 0 {
			t = 0
		}
		if t > 1 {
			t = 1
		}
	}

	sample := Sample{
		ObjectID:    id,
		Time:        time,
		Position:    before.position.Lerp(after.position, t),
		Orientation: before.orientation.Slerp(after.orientation, t),
	}
	switch {
	case before.velocity != nil && after.velocity != nil:
		v := before.velocity.Lerp(*after.velocity, t)
		sample.Velocity = &v
	case before.velocity != nil:
		sample.Velocity = cloneVel(before.velocity)
	case after.velocity != nil:
		sample.Velocity = cloneVel(after.velocity)
	}
	return sample
}

func extrapolate(id state.ObjectID, rec *record, time float64) Sample {
	dt := time - rec.time
	pos := rec.position
	if rec.velocity != nil {
		pos = pos.Add(rec.velocity.Scale(dt))
	}
	return Sample{
		ObjectID:    id,
		Time:        time,
		Position:    pos,
		Orientation: rec.orientation,
		Velocity:    cloneVel(rec.velocity),
	}
}

func cloneVel(v *state.Vector3) *state.Vector3 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
