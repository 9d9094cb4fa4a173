package engine

import (
	"time"

	"github.com/halverson/orrery/internal/motion"
)

// TimeStepMode selects how the per-step dt is resolved.
type TimeStepMode string

const (
	FixedStep    TimeStepMode = "fixed"
	AdaptiveStep TimeStepMode = "adaptive"
)

// TimeStep configures time advancement. Fixed uses DT every step.
// Adaptive is a placeholder that currently steps at Min; the bounds and
// target error are carried so a real error controller can slot in without
// a config change.
type TimeStep struct {
	Mode        TimeStepMode `json:"mode"`
	DT          float64      `json:"dt,omitempty"`
	Min         float64      `json:"min,omitempty"`
	Max         float64      `json:"max,omitempty"`
	TargetError float64      `json:"target_error,omitempty"`
}

// Fixed creates a fixed time step.
func Fixed(dt float64) TimeStep {
	return TimeStep{Mode: FixedStep, DT: dt}
}

// Adaptive creates an adaptive time step bounded to [min, max].
func Adaptive(min, max, targetError float64) TimeStep {
	return TimeStep{Mode: AdaptiveStep, Min: min, Max: max, TargetError: targetError}
}

// Resolve returns the dt for the next step.
func (t TimeStep) Resolve() float64 {
	if t.Mode == AdaptiveStep {
		return t.Min
	}
	return t.DT
}

// Config fixes engine behavior at construction time.
type Config struct {
	// Watchdog budgets for one run. A zero MaxMemoryBytes leaves the heap
	// budget disabled.
	MaxSteps         uint64        `json:"max_steps"`
	MaxExecutionTime time.Duration `json:"max_execution_time"`
	MaxMemoryBytes   uint64        `json:"max_memory_bytes,omitempty"`

	TimeStep TimeStep `json:"time_step"`

	// Snapshot retention. Disabled engines take no snapshots at all,
	// including the initial one.
	EnableSnapshots bool `json:"enable_snapshots"`
	MaxSnapshots    int  `json:"max_snapshots"`

	ConstraintTolerance     float64 `json:"constraint_tolerance"`
	MaxConstraintIterations int     `json:"max_constraint_iterations"`

	IntegrationMethod motion.Method `json:"integration_method"`
}

// DefaultConfig returns the configuration used when the host does not
// care: 60 Hz fixed stepping, generous but bounded budgets.
func DefaultConfig() Config {
	return Config{
		MaxSteps:                10_000,
		MaxExecutionTime:        5 * time.Second,
		TimeStep:                Fixed(1.0 / 60.0),
		EnableSnapshots:         true,
		MaxSnapshots:            100,
		ConstraintTolerance:     1e-6,
		MaxConstraintIterations: 100,
		IntegrationMethod:       motion.DefaultMethod,
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.MaxSteps == 0 {
		return &ConfigError{Reason: "max steps must be positive"}
	}
	if c.MaxExecutionTime <= 0 {
		return &ConfigError{Reason: "max execution time must be positive"}
	}
	switch c.TimeStep.Mode {
	case FixedStep:
		if c.TimeStep.DT <= 0 {
			return &ConfigError{Reason: "fixed time step must be positive"}
		}
	case AdaptiveStep:
		if c.TimeStep.Min <= 0 || c.TimeStep.Max < c.TimeStep.Min {
			return &ConfigError{Reason: "adaptive time step needs 0 < min <= max"}
		}
	default:
		return &ConfigError{Reason: "unknown time step mode " + string(c.TimeStep.Mode)}
	}
	if c.EnableSnapshots && c.MaxSnapshots <= 0 {
		return &ConfigError{Reason: "snapshot retention needs a positive max"}
	}
	if c.ConstraintTolerance <= 0 {
		return &ConfigError{Reason: "constraint tolerance must be positive"}
	}
	if c.MaxConstraintIterations <= 0 {
		return &ConfigError{Reason: "constraint iteration limit must be positive"}
	}
	return nil
}
