// Package render is the boundary between the runtime and a rendering
// frontend. Data flows one way: the bridge consumes immutable renderer
// snapshots and issues backend commands. Nothing here calls back into
// the runtime or mutates simulation state.
package render
