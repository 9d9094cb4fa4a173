package harness

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/halverson/orrery/internal/engine"
	"github.com/halverson/orrery/internal/executor"
	"github.com/halverson/orrery/internal/ir"
	"github.com/halverson/orrery/internal/motion"
	"github.com/halverson/orrery/internal/scene"
	"github.com/halverson/orrery/internal/snapshot"
	"github.com/halverson/orrery/internal/state"
	"github.com/halverson/orrery/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Each scenario builds a fresh engine from its own scene, so scenarios
// are fully isolated. A static run token and fixed time step keep the
// trace deterministic.
//
// Execution flow:
//  1. Load and validate the scene document
//  2. Build the engine from the scenario's settings
//  3. Run the initial positioning plan
//  4. Issue the scripted commands, then run to the target time
//  5. Capture the step trace and evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	rs, err := loadScene(scenario.Scene)
	if err != nil {
		return nil, err
	}

	cfg, err := buildEngineConfig(scenario.Engine)
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(cfg,
		engine.WithTokenGenerator(testutil.NewStaticTokenGenerator(scenario.RunToken)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		return nil, fmt.Errorf("failed to build engine: %w", err)
	}
	if err := eng.Initialize(rs, executor.StandardPlan()); err != nil {
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}
	if _, err := eng.RunPlan(); err != nil {
		return nil, fmt.Errorf("initial positioning failed: %w", err)
	}

	result := NewResult()

	for i, raw := range scenario.Commands {
		cmd, err := parseCommand(raw)
		if err != nil {
			return nil, fmt.Errorf("commands[%d]: %w", i, err)
		}
		if err := eng.Command(cmd); err != nil {
			result.AddError(fmt.Sprintf("commands[%d] (%s): %v", i, raw, err))
			break
		}
	}

	if scenario.RunUntil > 0 && result.Pass {
		summary, err := eng.RunUntil(scenario.RunUntil)
		if err != nil {
			result.AddError(fmt.Sprintf("run to t=%v: %v", scenario.RunUntil, err))
		} else {
			result.Summary = summary
		}
	}

	result.RunToken = eng.RunToken()
	result.Final = eng.State()
	if h := eng.History(); h != nil {
		for _, snap := range h.All() {
			result.Trace = append(result.Trace, recordFor(snap))
		}
	}

	evaluateAssertions(scenario.Assertions, eng.State(), eng.Mode(), result)
	return result, nil
}

// loadScene reads, validates, and loads a scene document.
func loadScene(path string) (*state.RuntimeState, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene: %w", err)
	}
	defer f.Close()

	scn, err := ir.Decode(f)
	if err != nil {
		return nil, err
	}
	if err := scn.Validate(); err != nil {
		return nil, err
	}
	return scene.Load(scn)
}

// buildEngineConfig applies scenario settings over the defaults.
func buildEngineConfig(settings EngineSettings) (engine.Config, error) {
	cfg := engine.DefaultConfig()
	if settings.DT > 0 {
		cfg.TimeStep = engine.Fixed(settings.DT)
	}
	if settings.Method != "" {
		switch m := motion.Method(settings.Method); m {
		case motion.Euler, motion.SemiImplicitEuler, motion.RK2, motion.RK4, motion.Verlet:
			cfg.IntegrationMethod = m
		default:
			return cfg, fmt.Errorf("unknown integration method %q", settings.Method)
		}
	}
	if settings.MaxSteps > 0 {
		cfg.MaxSteps = settings.MaxSteps
	}
	if settings.Tolerance > 0 {
		cfg.ConstraintTolerance = settings.Tolerance
	}
	if settings.MaxIterations > 0 {
		cfg.MaxConstraintIterations = settings.MaxIterations
	}
	return cfg, nil
}

// parseCommand maps a scenario command string to an engine command.
func parseCommand(raw string) (engine.Command, error) {
	switch engine.Command(raw) {
	case engine.CmdStart, engine.CmdPause, engine.CmdResume,
		engine.CmdStop, engine.CmdStep, engine.CmdReset:
		return engine.Command(raw), nil
	default:
		return "", fmt.Errorf("unknown command %q", raw)
	}
}

// recordFor flattens a snapshot into a trace record with objects sorted
// by id.
func recordFor(snap *snapshot.Snapshot) StepRecord {
	rec := StepRecord{
		Step:    snap.Metadata.Step,
		Time:    snap.Time,
		Objects: make([]ObjectRecord, 0, len(snap.State.World.Objects)),
	}

	for _, id := range snap.State.World.ObjectIDs() {
		obj := snap.State.World.Objects[id]
		or := ObjectRecord{
			ID:          id,
			Position:    [3]float64{obj.Position.X, obj.Position.Y, obj.Position.Z},
			Orientation: [4]float64{obj.Orientation.W, obj.Orientation.X, obj.Orientation.Y, obj.Orientation.Z},
		}
		if obj.Velocity != nil {
			or.Velocity = &[3]float64{obj.Velocity.X, obj.Velocity.Y, obj.Velocity.Z}
		}
		rec.Objects = append(rec.Objects, or)
	}

	if snap.State.World.Parameters.Len() > 0 {
		rec.Parameters = make(map[string]float64, snap.State.World.Parameters.Len())
		for id, value := range snap.State.World.Parameters.Values() {
			rec.Parameters[id] = value
		}
	}
	return rec
}
