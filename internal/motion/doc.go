// Package motion advances object state through time and samples it back
// out at arbitrary instants.
//
// The integrator applies one of several explicit schemes to every dynamic
// object carrying a velocity. With no force model the schemes degenerate
// to constant-velocity updates, but the scheme selection still matters for
// step validation and for callers that rely on the scheme's error
// characteristics. Time steps outside the configured bounds are rejected
// before any object moves.
//
// The sampler keeps a bounded per-object history of recorded states and
// answers queries at arbitrary times by linear interpolation of positions
// and spherical interpolation of orientations, extrapolating forward by
// velocity past the last record.
package motion
