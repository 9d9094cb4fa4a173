package executor

import (
	"github.com/halverson/orrery/internal/state"
)

// Plan is an ordered sequence of stages with a human-readable description.
type Plan struct {
	Stages      []Stage
	Description string
}

// NewPlan creates an empty plan.
func NewPlan(description string) *Plan {
	return &Plan{Description: description}
}

// AddStage appends a stage.
func (p *Plan) AddStage(s Stage) { p.Stages = append(p.Stages, s) }

// Validate rejects empty plans and unknown stages before anything runs.
func (p *Plan) Validate() error {
	if len(p.Stages) == 0 {
		return &PlanError{Reason: "plan has no stages"}
	}
	for _, s := range p.Stages {
		switch s {
		case StageInit, StageStaticSolve, StageDynamicUpdate, StageSync:
		default:
			return &PlanError{Reason: "unknown stage " + string(s)}
		}
	}
	return nil
}

// StandardPlan is the default per-run plan: initialize, settle static
// constraints, then step until done, syncing derived values.
func StandardPlan() *Plan {
	return &Plan{
		Description: "standard execution",
		Stages:      []Stage{StageInit, StageStaticSolve, StageDynamicUpdate, StageSync},
	}
}

// Context carries one plan execution's position and safety state.
type Context struct {
	State    *state.RuntimeState
	Plan     *Plan
	Position int
	Watchdog *Watchdog
}

// NewContext starts a plan execution at the first stage.
func NewContext(rs *state.RuntimeState, plan *Plan, wd *Watchdog) *Context {
	return &Context{State: rs, Plan: plan, Watchdog: wd}
}

// Advance moves to the next stage.
func (c *Context) Advance() { c.Position++ }

// Complete reports whether every stage has run.
func (c *Context) Complete() bool { return c.Position >= len(c.Plan.Stages) }

// CurrentStage returns the stage at the current position, or "" when the
// plan is complete.
func (c *Context) CurrentStage() Stage {
	if c.Complete() {
		return ""
	}
	return c.Plan.Stages[c.Position]
}
