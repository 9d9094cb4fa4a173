package state

import "math"

// TimeMode is the execution mode recorded on the time state.
type TimeMode string

const (
	TimeRunning  TimeMode = "running"
	TimePaused   TimeMode = "paused"
	TimeStepping TimeMode = "stepping"
)

// TimeBounds is the simulation time domain. Max is NaN-free and optional;
// Wraps makes advancement cycle through [Min, Max] instead of clamping.
type TimeBounds struct {
	Min   float64  `json:"min"`
	Max   *float64 `json:"max,omitempty"`
	Wraps bool     `json:"wraps"`
}

// BoundedTime creates a non-wrapping [min, max] domain.
func BoundedTime(min, max float64) TimeBounds {
	return TimeBounds{Min: min, Max: &max}
}

// WrappingTime creates a cyclic [min, max] domain.
func WrappingTime(min, max float64) TimeBounds {
	return TimeBounds{Min: min, Max: &max, Wraps: true}
}

// TimeState tracks simulation time. Time is explicit: nothing in the
// runtime reads a wall clock to decide simulation behavior.
type TimeState struct {
	CurrentTime float64    `json:"current_time"`
	DeltaTime   float64    `json:"delta_time"`
	RealTime    float64    `json:"real_time"`
	Bounds      TimeBounds `json:"bounds"`
	Mode        TimeMode   `json:"mode"`
	StepCount   uint64     `json:"step_count"`
}

// NewTimeState creates a paused time state at t=0 with an unbounded domain.
func NewTimeState() *TimeState {
	return &TimeState{Mode: TimePaused}
}

// WithBounds sets the time domain and returns the state for chaining.
func (t *TimeState) WithBounds(b TimeBounds) *TimeState {
	t.Bounds = b
	return t
}

// Start switches to running mode.
func (t *TimeState) Start() { t.Mode = TimeRunning }

// Pause switches to paused mode.
func (t *TimeState) Pause() { t.Mode = TimePaused }

// Step switches to single-step mode.
func (t *TimeState) Step() { t.Mode = TimeStepping }

// Reset returns time to the domain minimum and pauses.
func (t *TimeState) Reset() {
	t.CurrentTime = t.Bounds.Min
	t.DeltaTime = 0
	t.RealTime = 0
	t.StepCount = 0
	t.Mode = TimePaused
}

// Advance moves time forward by dt and increments the step count.
// Advancing past a bounded, non-wrapping maximum clamps to the maximum and
// forces paused mode.
func (t *TimeState) Advance(dt float64) error {
	if dt < 0 {
		return NewError(InvalidTime, "cannot advance time by negative delta %v", dt)
	}
	if math.IsNaN(dt) {
		return NewError(InvalidTime, "time delta is NaN")
	}
	if math.IsInf(dt, 0) {
		return NewError(InvalidTime, "time delta is infinite")
	}

	t.DeltaTime = dt
	t.CurrentTime += dt
	t.StepCount++

	if t.Bounds.Max != nil {
		max := *t.Bounds.Max
		if t.Bounds.Wraps {
			span := max - t.Bounds.Min
			for t.CurrentTime > max && span > 0 {
				t.CurrentTime -= span
			}
		} else if t.CurrentTime > max {
			t.CurrentTime = max
			t.Mode = TimePaused
		}
	}
	return nil
}

// AddRealTime accumulates wall-clock seconds for diagnostics.
func (t *TimeState) AddRealTime(dt float64) { t.RealTime += dt }

// AtEnd reports whether time has reached a bounded maximum.
func (t *TimeState) AtEnd() bool {
	if t.Bounds.Max == nil {
		return false
	}
	return math.Abs(t.CurrentTime-*t.Bounds.Max) < 1e-10
}

// IsPaused reports whether time is paused or single-stepping.
func (t *TimeState) IsPaused() bool {
	return t.Mode == TimePaused || t.Mode == TimeStepping
}

// CanAdvance reports whether Advance may be called in the current mode.
func (t *TimeState) CanAdvance() bool {
	return t.Mode == TimeRunning || t.Mode == TimeStepping
}

// Progress returns position within a bounded domain in [0,1]; 0 when the
// domain is unbounded.
func (t *TimeState) Progress() float64 {
	if t.Bounds.Max == nil {
		return 0
	}
	span := *t.Bounds.Max - t.Bounds.Min
	if span <= 0 {
		return 0
	}
	return clamp((t.CurrentTime-t.Bounds.Min)/span, 0, 1)
}

// Validate checks finiteness and bounds containment.
func (t *TimeState) Validate() error {
	if math.IsNaN(t.CurrentTime) || math.IsInf(t.CurrentTime, 0) {
		return NewError(InvalidTime, "current time is not finite: %v", t.CurrentTime)
	}
	if math.IsNaN(t.DeltaTime) || math.IsInf(t.DeltaTime, 0) {
		return NewError(InvalidTime, "delta time is not finite: %v", t.DeltaTime)
	}
	if t.CurrentTime < t.Bounds.Min {
		return NewError(InvalidTime, "current time %v below minimum %v", t.CurrentTime, t.Bounds.Min)
	}
	if t.Bounds.Max != nil && !t.Bounds.Wraps && t.CurrentTime > *t.Bounds.Max {
		return NewError(InvalidTime, "current time %v exceeds maximum %v", t.CurrentTime, *t.Bounds.Max)
	}
	return nil
}

// Clone returns a deep copy.
func (t *TimeState) Clone() *TimeState {
	c := *t
	if t.Bounds.Max != nil {
		m := *t.Bounds.Max
		c.Bounds.Max = &m
	}
	return &c
}
