package harness

import (
	"github.com/halverson/orrery/internal/engine"
	"github.com/halverson/orrery/internal/state"
)

// ObjectRecord is one object's pose inside a step record. Fields are
// ordered and objects sorted by id so marshaled traces are deterministic.
type ObjectRecord struct {
	ID          string      `json:"id"`
	Position    [3]float64  `json:"position"`
	Orientation [4]float64  `json:"orientation"` // w, x, y, z
	Velocity    *[3]float64 `json:"velocity,omitempty"`
}

// StepRecord is one captured simulation step in a scenario trace.
type StepRecord struct {
	Step       uint64             `json:"step"`
	Time       float64            `json:"time"`
	Objects    []ObjectRecord     `json:"objects"`
	Parameters map[string]float64 `json:"parameters,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success. True if every assertion
	// held.
	Pass bool `json:"pass"`

	// RunToken identifies the engine run that produced the trace.
	RunToken string `json:"run_token,omitempty"`

	// Trace contains one record per captured snapshot, oldest first.
	Trace []StepRecord `json:"trace"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Summary is the engine's run summary, nil when the scenario only
	// issued commands.
	Summary *engine.Summary `json:"summary,omitempty"`

	// Final is the state after execution, retained for custom checks.
	Final *state.RuntimeState `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []StepRecord{},
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
