// Package engine is the runtime orchestrator. It owns the single
// RuntimeState, drives the constraint and motion subsystems through a
// fixed per-step sequence, and exposes a command-driven state machine
// (Idle, Running, Paused, Stopped, Error) to the host application.
//
// The engine decides what happens next; the math lives in the subsystem
// packages. Execution is single-threaded and synchronous: commands take
// effect only at step boundaries, never mid-step.
package engine
