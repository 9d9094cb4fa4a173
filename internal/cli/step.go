package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/halverson/orrery/internal/engine"
	"github.com/halverson/orrery/internal/executor"
	"github.com/halverson/orrery/internal/scene"
	"github.com/halverson/orrery/internal/snapshot"
)

// StepOptions holds flags for the step command.
type StepOptions struct {
	*RootOptions
	engineFlags
	Count int
}

// StepResult is the step command's output payload.
type StepResult struct {
	Scene       string  `json:"scene"`
	Steps       int     `json:"steps"`
	FinalTime   float64 `json:"final_time"`
	Fingerprint string  `json:"fingerprint"`
	Mode        string  `json:"mode"`
}

func (r StepResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stepped %s %d time(s).\n", r.Scene, r.Steps)
	fmt.Fprintf(&b, "  final time:  %.6f\n", r.FinalTime)
	fmt.Fprintf(&b, "  mode:        %s\n", r.Mode)
	fmt.Fprintf(&b, "  fingerprint: %s", r.Fingerprint)
	return b.String()
}

// NewStepCommand creates the step command.
func NewStepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "step <scene.json>",
		Short: "Advance a scene by single steps",
		Long: `Load a scene document and issue single-step commands, pausing between
each. Useful for inspecting how state evolves one tick at a time.

Examples:
  orrery step scene.json
  orrery step scene.json --count 10 --dt 0.1 --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return stepScene(opts, args[0], cmd)
		},
	}

	addEngineFlags(cmd, &opts.engineFlags)
	cmd.Flags().IntVar(&opts.Count, "count", 1, "number of steps to execute")

	return cmd
}

func stepScene(opts *StepOptions, scenePath string, cmd *cobra.Command) error {
	formatter := formatterFor(opts.RootOptions, cmd)

	if opts.Count < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid step count %d", opts.Count))
	}

	scn, schemaErrs, err := loadSceneFile(scenePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read scene", err)
	}
	if len(schemaErrs) > 0 {
		_ = formatter.Error(ErrCodeSceneSchema, fmt.Sprintf("scene %s is invalid", scenePath), schemaErrs)
		return NewExitError(ExitFailure, "scene validation failed")
	}

	rs, err := scene.Load(scn)
	if err != nil {
		_ = formatter.Error(ErrCodeSceneLoad, "failed to load scene", err.Error())
		return WrapExitError(ExitFailure, "scene load failed", err)
	}

	cfg, err := buildConfig(&opts.engineFlags)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid engine configuration", err)
	}
	eng, err := engine.New(cfg, engine.WithLogger(slog.Default()))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid engine configuration", err)
	}
	if err := eng.Initialize(rs, executor.StandardPlan()); err != nil {
		return WrapExitError(ExitFailure, "engine initialization failed", err)
	}

	for i := 0; i < opts.Count; i++ {
		if err := eng.Command(engine.CmdStep); err != nil {
			_ = formatter.Error(ErrCodeEngine, fmt.Sprintf("step %d failed", i+1), map[string]string{
				"error":    err.Error(),
				"recovery": engine.Classify(err).String(),
			})
			return WrapExitError(ExitFailure, "step failed", err)
		}
		formatter.VerboseLog("step %d: t=%.6f", i+1, eng.State().Time.CurrentTime)
	}

	fingerprint, err := snapshot.Fingerprint(eng.State())
	if err != nil {
		return WrapExitError(ExitFailure, "fingerprinting final state", err)
	}

	return formatter.Success(StepResult{
		Scene:       scenePath,
		Steps:       opts.Count,
		FinalTime:   eng.State().Time.CurrentTime,
		Fingerprint: fingerprint,
		Mode:        string(eng.Mode()),
	})
}
