package engine

import "fmt"

// ExecutionState is the engine's mode. Error is terminal: every command
// except Reset is rejected until the engine has been reset.
type ExecutionState string

const (
	Idle    ExecutionState = "idle"
	Running ExecutionState = "running"
	Paused  ExecutionState = "paused"
	Stopped ExecutionState = "stopped"
	Errored ExecutionState = "error"
)

// Command is one control instruction issued by the host application.
type Command string

const (
	CmdStart  Command = "start"
	CmdPause  Command = "pause"
	CmdResume Command = "resume"
	CmdStop   Command = "stop"
	CmdStep   Command = "step"
	CmdReset  Command = "reset"
)

// transitions is the explicit state machine. A missing entry means the
// command is invalid in that state. Resume is deliberately a no-op target
// from Paused only; Pause maps Paused to Paused so pausing is idempotent.
var transitions = map[ExecutionState]map[Command]ExecutionState{
	Idle: {
		CmdStart: Running,
		CmdPause: Paused,
		CmdStop:  Stopped,
		CmdStep:  Paused,
		CmdReset: Idle,
	},
	Running: {
		CmdStart:  Running,
		CmdPause:  Paused,
		CmdResume: Running,
		CmdStop:   Stopped,
		CmdStep:   Paused,
		CmdReset:  Idle,
	},
	Paused: {
		CmdStart:  Running,
		CmdPause:  Paused,
		CmdResume: Running,
		CmdStop:   Stopped,
		CmdStep:   Paused,
		CmdReset:  Idle,
	},
	Stopped: {
		CmdStop:  Stopped,
		CmdReset: Idle,
	},
	Errored: {
		CmdReset: Idle,
	},
}

// TransitionError reports a command that is invalid in the current state.
// The engine state is unchanged; issuing a valid command is safe.
type TransitionError struct {
	From    ExecutionState
	Command Command
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("command %s is invalid in state %s", e.Command, e.From)
}

// nextState resolves a transition, or returns a TransitionError.
func nextState(from ExecutionState, cmd Command) (ExecutionState, error) {
	to, ok := transitions[from][cmd]
	if !ok {
		return from, &TransitionError{From: from, Command: cmd}
	}
	return to, nil
}
