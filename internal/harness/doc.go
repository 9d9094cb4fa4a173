// Package harness provides scenario-based conformance testing for the
// simulation runtime.
//
// The harness loads a scene document, steps it through the engine with a
// deterministic configuration, and validates assertions against the final
// state and the captured step trace.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	scene: scenes/orbit.json
//	run_token: "scenario-orbit"
//	engine:
//	  dt: 0.1
//	  method: semi-implicit-euler
//	  max_steps: 1000
//	commands:
//	  - step
//	  - step
//	run_until: 1.0
//	assertions:
//	  - type: position
//	    object: planet
//	    position: [2, 0.5, 0]
//	    tolerance: 1e-6
//	  - type: step_count
//	    count: 10
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - position: Verifies an object's final position within a tolerance
//   - parameter: Verifies a parameter's final value within a tolerance
//   - distance: Verifies the separation of two objects within a tolerance
//   - step_count: Verifies the number of executed steps
//   - mode: Verifies the engine's final execution state
//
// # Deterministic Testing
//
// Scenarios execute with a fixed time step and a static run token
// (testutil.StaticTokenGenerator), so the same scenario produces a
// byte-identical step trace on every run. Traces are compared against
// golden files under testdata/golden with goldie; regenerate them with:
//
//	go test ./internal/harness -update
package harness
