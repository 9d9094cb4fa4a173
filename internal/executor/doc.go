// Package executor runs execution plans: ordered stages over runtime
// state, guarded by a watchdog.
//
// A plan is a validated sequence of stages (init, static solve, dynamic
// update, sync). The stage executor performs each stage against the
// runtime state and reports per-stage metrics. The watchdog enforces step
// and wall-clock budgets and latches NaN detection, so a runaway scene
// stops at a limit instead of spinning forever.
package executor
