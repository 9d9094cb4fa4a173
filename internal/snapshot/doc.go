// Package snapshot captures, indexes, and persists immutable copies of
// runtime state.
//
// A snapshot is a deep copy of the full RuntimeState tagged with a
// strictly increasing id, the simulation time, a wall-clock timestamp,
// and an optional label. History keeps a bounded FIFO of snapshots in
// memory for rewind and diffing; Store persists them to SQLite keyed by a
// run token so a run can be inspected or replayed later.
//
// Snapshot identity is content-addressed: the fingerprint is a SHA-256
// hash over a canonical JSON rendering of the state, with floats encoded
// by their bit patterns so that equal states always hash equal.
package snapshot
