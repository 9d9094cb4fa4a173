package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/halverson/orrery/internal/engine"
	"github.com/halverson/orrery/internal/executor"
	"github.com/halverson/orrery/internal/scene"
	"github.com/halverson/orrery/internal/snapshot"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	engineFlags
	Until    float64
	Database string

	// Tokens allows overriding the run token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	Tokens engine.TokenGenerator
}

// RunResult is the run command's output payload.
type RunResult struct {
	Scene       string  `json:"scene"`
	RunToken    string  `json:"run_token"`
	Steps       int     `json:"steps"`
	FinalTime   float64 `json:"final_time"`
	Fingerprint string  `json:"fingerprint"`
	Snapshots   int     `json:"snapshots"`
	Persisted   int     `json:"persisted,omitempty"`
}

func (r RunResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s complete.\n", r.RunToken)
	fmt.Fprintf(&b, "  scene:       %s\n", r.Scene)
	fmt.Fprintf(&b, "  steps:       %d\n", r.Steps)
	fmt.Fprintf(&b, "  final time:  %.6f\n", r.FinalTime)
	fmt.Fprintf(&b, "  fingerprint: %s\n", r.Fingerprint)
	fmt.Fprintf(&b, "  snapshots:   %d", r.Snapshots)
	if r.Persisted > 0 {
		fmt.Fprintf(&b, " (%d persisted)", r.Persisted)
	}
	return b.String()
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scene.json>",
		Short: "Simulate a scene to a target time",
		Long: `Load a scene document, run the initial positioning plan, and step the
simulation until the target time is reached.

The target defaults to the scene's timeline duration, or 1 second when the
scene has no timeline. With --db, every captured snapshot is persisted to a
SQLite database under the generated run token.

Examples:
  orrery run scene.json
  orrery run scene.json --until 10 --dt 0.01 --method rk4
  orrery run scene.json --db ./orrery.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScene(opts, args[0], cmd)
		},
	}

	addEngineFlags(cmd, &opts.engineFlags)
	cmd.Flags().Float64Var(&opts.Until, "until", 0, "target simulation time (default: timeline duration)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "persist snapshots to this SQLite database")

	return cmd
}

func runScene(opts *RunOptions, scenePath string, cmd *cobra.Command) error {
	formatter := formatterFor(opts.RootOptions, cmd)

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

	engOpts := []engine.Option{engine.WithLogger(slog.Default())}
	if opts.Tokens != nil {
		engOpts = append(engOpts, engine.WithTokenGenerator(opts.Tokens))
	}
	eng, err := engine.New(cfg, engOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid engine configuration", err)
	}
	if err := eng.Initialize(rs, executor.StandardPlan()); err != nil {
		return WrapExitError(ExitFailure, "engine initialization failed", err)
	}
	if _, err := eng.RunPlan(); err != nil {
		_ = formatter.Error(ErrCodeEngine, "initial positioning failed", err.Error())
		return WrapExitError(ExitFailure, "initial positioning failed", err)
	}

	target := opts.Until
	if target <= 0 {
		target = 1.0
		if scn.Timeline != nil {
			target = scn.Timeline.Duration
		}
	}

	summary, err := eng.RunUntil(target)
	if err != nil {
		_ = formatter.Error(ErrCodeEngine, "simulation failed", map[string]string{
			"error":    err.Error(),
			"recovery": engine.Classify(err).String(),
		})
		return WrapExitError(ExitFailure, "simulation failed", err)
	}

	fingerprint, err := snapshot.Fingerprint(eng.State())
	if err != nil {
		return WrapExitError(ExitFailure, "fingerprinting final state", err)
	}

	result := RunResult{
		Scene:       scenePath,
		RunToken:    summary.RunToken,
		Steps:       summary.StepsExecuted,
		FinalTime:   summary.FinalTime,
		Fingerprint: fingerprint,
	}
	if h := eng.History(); h != nil {
		result.Snapshots = h.Count()
	}

	if opts.Database != "" {
		persisted, err := persistRun(cmd.Context(), opts.Database, scn.Name, summary.RunToken, eng.History())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to persist snapshots", err)
		}
		result.Persisted = persisted
	}

	return formatter.Success(result)
}

// persistRun writes every captured snapshot to the database under the
// run token. Returns the number of snapshots written.
func persistRun(ctx context.Context, dbPath, sceneName, runToken string, h *snapshot.History) (int, error) {
	if h == nil {
		return 0, fmt.Errorf("snapshot capture is disabled")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := snapshot.OpenStore(dbPath)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing snapshot database", "error", closeErr)
		}
	}()

	if err := st.CreateRun(ctx, runToken, sceneName); err != nil {
		return 0, err
	}

	persisted := 0
	for _, snap := range h.All() {
		if err := st.SaveSnapshot(ctx, runToken, snap); err != nil {
			return persisted, err
		}
		persisted++
	}
	slog.Debug("snapshots persisted", "run_token", runToken, "count", persisted, "db", dbPath)
	return persisted, nil
}
