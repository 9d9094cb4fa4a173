package cli

import (
	"github.com/spf13/cobra"

	"github.com/halverson/orrery/internal/engine"
)

// engineFlags are the per-command knobs that feed engine.Config.
type engineFlags struct {
	DT            float64
	Method        string
	MaxSteps      uint64
	MaxSnapshots  int
	NoSnapshots   bool
	Tolerance     float64
	MaxIterations int
}

// addEngineFlags registers the engine tuning flags on a command.
func addEngineFlags(cmd *cobra.Command, f *engineFlags) {
	cmd.Flags().Float64Var(&f.DT, "dt", 1.0/60.0, "fixed time step in seconds")
	cmd.Flags().StringVar(&f.Method, "method", string(engine.DefaultConfig().IntegrationMethod), "integration method (euler|semi-implicit-euler|rk2|rk4|verlet)")
	cmd.Flags().Uint64Var(&f.MaxSteps, "max-steps", engine.DefaultConfig().MaxSteps, "watchdog step limit")
	cmd.Flags().IntVar(&f.MaxSnapshots, "max-snapshots", engine.DefaultConfig().MaxSnapshots, "in-memory snapshot retention")
	cmd.Flags().BoolVar(&f.NoSnapshots, "no-snapshots", false, "disable per-step snapshot capture")
	cmd.Flags().Float64Var(&f.Tolerance, "tolerance", engine.DefaultConfig().ConstraintTolerance, "constraint convergence tolerance")
	cmd.Flags().IntVar(&f.MaxIterations, "max-iterations", engine.DefaultConfig().MaxConstraintIterations, "constraint solver iteration cap")
}

// buildConfig turns flags into an engine config, then layers environment
// overrides on top.
func buildConfig(f *engineFlags) (engine.Config, error) {
	cfg := engine.DefaultConfig()
	cfg.TimeStep = engine.Fixed(f.DT)
	cfg.MaxSteps = f.MaxSteps
	cfg.MaxSnapshots = f.MaxSnapshots
	cfg.EnableSnapshots = !f.NoSnapshots
	cfg.ConstraintTolerance = f.Tolerance
	cfg.MaxConstraintIterations = f.MaxIterations

	method, err := parseMethod(f.Method)
	if err != nil {
		return cfg, err
	}
	cfg.IntegrationMethod = method

	return applyEnvOverrides(cfg)
}
