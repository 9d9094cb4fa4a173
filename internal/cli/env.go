package cli

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/halverson/orrery/internal/engine"
	"github.com/halverson/orrery/internal/motion"
)

// envOverrides are engine settings readable from the environment. Flags
// set them first; any ORRERY_* variable that is present wins over both
// the default and the flag.
type envOverrides struct {
	MaxSteps         uint64        `env:"ORRERY_MAX_STEPS"`
	MaxExecutionTime time.Duration `env:"ORRERY_MAX_EXECUTION_TIME"`
	DT               float64       `env:"ORRERY_DT"`
	Method           string        `env:"ORRERY_METHOD"`
	MaxSnapshots     int           `env:"ORRERY_MAX_SNAPSHOTS"`
	Tolerance        float64       `env:"ORRERY_CONSTRAINT_TOLERANCE"`
	MaxIterations    int           `env:"ORRERY_CONSTRAINT_ITERATIONS"`
}

// applyEnvOverrides layers ORRERY_* environment variables over cfg.
func applyEnvOverrides(cfg engine.Config) (engine.Config, error) {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return cfg, fmt.Errorf("reading environment config: %w", err)
	}

	if o.MaxSteps > 0 {
		cfg.MaxSteps = o.MaxSteps
	}
	if o.MaxExecutionTime > 0 {
		cfg.MaxExecutionTime = o.MaxExecutionTime
	}
	if o.DT > 0 {
		cfg.TimeStep = engine.Fixed(o.DT)
	}
	if o.Method != "" {
		m, err := parseMethod(o.Method)
		if err != nil {
			return cfg, err
		}
		cfg.IntegrationMethod = m
	}
	if o.MaxSnapshots > 0 {
		cfg.MaxSnapshots = o.MaxSnapshots
	}
	if o.Tolerance > 0 {
		cfg.ConstraintTolerance = o.Tolerance
	}
	if o.MaxIterations > 0 {
		cfg.MaxConstraintIterations = o.MaxIterations
	}
	return cfg, nil
}

// parseMethod maps a method name to an integration scheme.
func parseMethod(name string) (motion.Method, error) {
	switch motion.Method(name) {
	case motion.Euler, motion.SemiImplicitEuler, motion.RK2, motion.RK4, motion.Verlet:
		return motion.Method(name), nil
	default:
		return "", fmt.Errorf("unknown integration method %q", name)
	}
}
