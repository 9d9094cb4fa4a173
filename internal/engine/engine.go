package engine

import (
	"errors"
	"io"
	"log/slog"

	"github.com/halverson/orrery/internal/constraint"
	"github.com/halverson/orrery/internal/executor"
	"github.com/halverson/orrery/internal/motion"
	"github.com/halverson/orrery/internal/snapshot"
	"github.com/halverson/orrery/internal/state"
)

// initialLabel marks the snapshot taken at Initialize, restored by Reset.
const initialLabel = "Initial"

// Engine owns the runtime state and the per-step execution sequence.
// Exactly one RuntimeState exists; subsystems receive it exclusively for
// the duration of their call within a strict order, so no locking is
// needed, only sequencing.
type Engine struct {
	state *state.RuntimeState
	mode  ExecutionState

	config      Config
	stages      *executor.StageExecutor
	constraints *constraint.System
	motion      *motion.System
	watchdog    *executor.Watchdog
	history     *snapshot.History
	evaluator   *constraint.Evaluator
	plan        *executor.Plan

	tokens   TokenGenerator
	runToken string
	logger   *slog.Logger
}

// Option customizes engine construction.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithTokenGenerator sets the run token source. Tests use FixedGenerator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) { e.tokens = g }
}

// New creates an engine with an empty world. Call Initialize before
// issuing commands.
func New(config Config, opts ...Option) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	evaluator := constraint.NewEvaluator()
	e := &Engine{
		state: state.NewRuntimeState(state.NewWorldState(), state.NewTimeState()),
		mode:  Idle,
		config: config,
		stages: executor.NewStageExecutor(evaluator.EvaluateExpression),
		constraints: constraint.NewSystem(constraint.Config{
			Tolerance:     config.ConstraintTolerance,
			MaxIterations: config.MaxConstraintIterations,
			Method:        constraint.GaussSeidel,
			Relaxation:    1.0,
		}),
		motion:    motion.NewSystem(config.IntegrationMethod),
		watchdog:  executor.NewWatchdog(config.MaxSteps, config.MaxExecutionTime).WithMemoryLimit(config.MaxMemoryBytes),
		evaluator: evaluator,
		tokens:    UUIDv7Generator{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if config.EnableSnapshots {
		e.history = snapshot.NewHistory(config.MaxSnapshots)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Initialize installs a validated state and execution plan, returning the
// engine to Idle. With snapshots enabled the installed state is captured
// under the Initial label so Reset can restore it.
func (e *Engine) Initialize(rs *state.RuntimeState, plan *executor.Plan) error {
	if err := rs.Validate(); err != nil {
		return &ConfigError{Reason: "invalid initial state: " + err.Error()}
	}
	if err := plan.Validate(); err != nil {
		return err
	}

	e.state = rs
	e.plan = plan
	e.mode = Idle
	e.watchdog.Reset()
	e.motion.Reset()

	if e.history != nil {
		e.history.Take(e.state, initialLabel)
	}
	e.logger.Info("engine initialized",
		"objects", len(rs.World.Objects),
		"constraints", len(rs.World.Constraints),
		"stages", len(plan.Stages))
	return nil
}

// Command processes one control command through the state machine.
func (e *Engine) Command(cmd Command) error {
	next, err := nextState(e.mode, cmd)
	if err != nil {
		return err
	}

	switch cmd {
	case CmdStart:
		if e.plan == nil {
			return &executor.PlanError{Reason: "no execution plan set"}
		}
		e.state.Time.Start()
		e.watchdog.Start()
	case CmdPause:
		e.state.Time.Pause()
		e.watchdog.Stop()
	case CmdResume:
		e.state.Time.Start()
		e.watchdog.Start()
	case CmdStop:
		e.state.Time.Pause()
		e.watchdog.Stop()
	case CmdStep:
		e.state.Time.Step()
		if err := e.ExecuteSingleStep(); err != nil {
			e.mode = Errored
			return err
		}
		e.state.Time.Pause()
	case CmdReset:
		e.resetState()
	}

	e.mode = next
	return nil
}

// resetState rewinds time, clears the watchdog and sampler history, and
// restores the Initial snapshot if one was captured.
func (e *Engine) resetState() {
	e.state.Time.Reset()
	e.watchdog.Reset()
	e.motion.Reset()

	if e.history != nil {
		if initial := e.history.WithLabel(initialLabel); len(initial) > 0 {
			e.state = initial[0].State.Clone()
		}
	}
	e.state.Reseal()
}

// ExecuteSingleStep advances the simulation by exactly one tick:
// watchdog check, constraint solve and enforce, motion integration, time
// advance, optional validation, NaN check, optional snapshot.
func (e *Engine) ExecuteSingleStep() error {
	if err := e.watchdog.Check(); err != nil {
		return err
	}
	e.watchdog.Step()

	dt := e.config.TimeStep.Resolve()

	if _, err := e.constraints.SolveAndEnforce(e.state.World); err != nil {
		// A non-finite residual or world is the same terminal condition
		// as integration NaN and latches the watchdog identically.
		if constraint.IsUnstable(err) {
			e.watchdog.RecordNaN()
		}
		return err
	}
	if _, err := e.motion.Update(e.state.World, dt); err != nil {
		var merr *motion.IntegrationError
		if errors.As(err, &merr) && merr.Kind == motion.NaN {
			e.watchdog.RecordNaN()
		}
		return err
	}
	if err := e.state.Time.Advance(dt); err != nil {
		return err
	}
	e.syncTimeParameter()
	e.state.Reseal()

	if e.state.World.Flags.ValidateSteps {
		if err := e.state.Validate(); err != nil {
			return err
		}
	}

	// Either enforcement or integration can introduce NaN; check the
	// whole world after both have run.
	if e.state.World.HasNaN() {
		e.watchdog.RecordNaN()
		return &motion.IntegrationError{Kind: motion.NaN, Time: e.state.Time.CurrentTime}
	}

	e.motion.RecordState(e.state.World, e.state.Time.CurrentTime)

	if e.state.World.Flags.RecordSnapshots && e.history != nil {
		e.history.Take(e.state, "")
	}
	return nil
}

// syncTimeParameter mirrors current simulation time into the "time"
// parameter when the scene declares one, so equations and derivations can
// reference it.
func (e *Engine) syncTimeParameter() {
	p := e.state.World.Parameters.Parameter("time")
	if p == nil || p.Derived {
		return
	}
	_ = p.SetValue(e.state.Time.CurrentTime)
}

// Summary describes one completed (or aborted) run_until execution.
type Summary struct {
	RunToken      string  `json:"run_token"`
	StepsExecuted int     `json:"steps_executed"`
	TimeElapsed   float64 `json:"time_elapsed"`
	FinalTime     float64 `json:"final_time"`
	Success       bool    `json:"success"`
}

// RunUntil starts the engine and steps until simulation time reaches
// target or the mode leaves Running. A step error moves the engine to the
// Error state and propagates unchanged; on success the engine pauses and
// the summary is returned.
func (e *Engine) RunUntil(target float64) (*Summary, error) {
	startTime := e.state.Time.CurrentTime
	e.runToken = e.tokens.Generate()
	steps := 0

	if err := e.Command(CmdStart); err != nil {
		return nil, err
	}
	e.logger.Info("run started", "run_token", e.runToken, "target_time", target)

	for e.state.Time.CurrentTime < target && e.mode == Running {
		if err := e.ExecuteSingleStep(); err != nil {
			e.mode = Errored
			e.logger.Error("run failed",
				"run_token", e.runToken,
				"steps", steps,
				"recovery", Classify(err).String(),
				"error", err)
			return nil, err
		}
		steps++
	}

	if err := e.Command(CmdPause); err != nil {
		return nil, err
	}

	summary := &Summary{
		RunToken:      e.runToken,
		StepsExecuted: steps,
		TimeElapsed:   e.state.Time.CurrentTime - startTime,
		FinalTime:     e.state.Time.CurrentTime,
		Success:       true,
	}
	e.logger.Info("run complete",
		"run_token", e.runToken,
		"steps", steps,
		"final_time", summary.FinalTime)
	return summary, nil
}

// RunPlan executes every stage of the installed plan once, in order. Used
// for initial positioning before stepping begins.
func (e *Engine) RunPlan() ([]*executor.StageResult, error) {
	if e.plan == nil {
		return nil, &executor.PlanError{Reason: "no execution plan set"}
	}
	results := make([]*executor.StageResult, 0, len(e.plan.Stages))
	for _, stage := range e.plan.Stages {
		res, err := e.stages.Execute(stage, e.state)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// State exposes the runtime state read-only. Callers must not mutate it;
// the integrity checksum will catch them if they do.
func (e *Engine) State() *state.RuntimeState { return e.state }

// Mode returns the current execution state.
func (e *Engine) Mode() ExecutionState { return e.mode }

// RunToken returns the token of the most recent RunUntil, or "".
func (e *Engine) RunToken() string { return e.runToken }

// History returns the snapshot history, or nil when snapshots are
// disabled.
func (e *Engine) History() *snapshot.History { return e.history }

// TakeSnapshot captures the current state manually. Returns nil when
// snapshots are disabled.
func (e *Engine) TakeSnapshot(label string) *snapshot.Snapshot {
	if e.history == nil {
		return nil
	}
	return e.history.Take(e.state, label)
}

// RestoreSnapshot replaces the engine state with a deep copy of the
// identified snapshot's state.
func (e *Engine) RestoreSnapshot(id uint64) error {
	if e.history == nil {
		return &ConfigError{Reason: "snapshots are disabled"}
	}
	snap := e.history.Get(id)
	if snap == nil {
		return &ConfigError{Reason: "snapshot not found"}
	}
	e.state = snap.State.Clone()
	e.motion.Reset()
	return nil
}

// WatchdogStats reports the watchdog's current budget usage.
func (e *Engine) WatchdogStats() executor.WatchdogStats {
	return e.watchdog.Stats()
}

// Progress reports normalized budget utilization so hosts can warn before
// a hard stop.
func (e *Engine) Progress() executor.Progress {
	return e.watchdog.Progress()
}

// Stats summarizes the engine for diagnostics.
type Stats struct {
	Mode            ExecutionState `json:"mode"`
	CurrentTime     float64        `json:"current_time"`
	StepCount       uint64         `json:"step_count"`
	ObjectCount     int            `json:"object_count"`
	ParameterCount  int            `json:"parameter_count"`
	ConstraintCount int            `json:"constraint_count"`
	SnapshotCount   int            `json:"snapshot_count"`
}

// IsRunning reports whether the engine was running when sampled.
func (s Stats) IsRunning() bool { return s.Mode == Running }

// Stats returns current engine statistics.
func (e *Engine) Stats() Stats {
	snapCount := 0
	if e.history != nil {
		snapCount = e.history.Count()
	}
	return Stats{
		Mode:            e.mode,
		CurrentTime:     e.state.Time.CurrentTime,
		StepCount:       e.state.Time.StepCount,
		ObjectCount:     len(e.state.World.Objects),
		ParameterCount:  e.state.World.Parameters.Len(),
		ConstraintCount: len(e.state.World.Constraints),
		SnapshotCount:   snapCount,
	}
}
