// Package scene turns a validated IR scene into executable runtime
// state: entities become objects, motions seed velocities, and IR
// constraints translate into the runtime's canonical constraint kinds.
package scene
