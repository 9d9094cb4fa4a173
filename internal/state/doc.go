// Package state defines the simulation state model: vector and quaternion
// primitives, per-object state, parameters, time, and the aggregate
// WorldState/RuntimeState pair owned by the engine.
//
// All state is plain serializable data. Invariants enforced here:
//   - no NaN or infinity in any numeric field
//   - orientations stay unit-norm (length squared within 1e-6 of 1.0)
//   - object ids are unique within a world
//   - derived parameters reject direct writes
//
// RuntimeState carries an integrity checksum (object/parameter/constraint
// counts plus the current-time bit pattern) recomputed at construction and
// verified by Validate. Snapshots clone this structure deeply; nothing in
// this package ever aliases engine-owned state after a Clone.
package state
