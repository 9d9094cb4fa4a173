package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test for the simulation runtime.
// A scenario loads one scene, drives the engine, and asserts on the
// resulting trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It is also the golden
	// file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Scene is the path to the scene JSON document, relative to the
	// scenario file location.
	Scene string `yaml:"scene"`

	// RunToken is an optional fixed run token for deterministic traces.
	// If empty, a stable default is used.
	RunToken string `yaml:"run_token,omitempty"`

	// Engine tunes the engine configuration. Zero fields keep the
	// defaults.
	Engine EngineSettings `yaml:"engine,omitempty"`

	// Commands are control commands issued before the timed run.
	// Supported: start, pause, resume, stop, step, reset.
	Commands []string `yaml:"commands,omitempty"`

	// RunUntil is the simulation time to run to after Commands.
	// Zero skips the timed run.
	RunUntil float64 `yaml:"run_until,omitempty"`

	// Assertions validate the final state and step count.
	Assertions []Assertion `yaml:"assertions"`
}

// EngineSettings is the scenario-tunable subset of the engine config.
type EngineSettings struct {
	DT            float64 `yaml:"dt,omitempty"`
	Method        string  `yaml:"method,omitempty"`
	MaxSteps      uint64  `yaml:"max_steps,omitempty"`
	Tolerance     float64 `yaml:"tolerance,omitempty"`
	MaxIterations int     `yaml:"max_iterations,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads a scenario YAML file, resolving the
// scene path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Scene != "" && !filepath.IsAbs(scenario.Scene) && basePath != "" {
		scenario.Scene = filepath.Join(basePath, scenario.Scene)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Scene == "" {
		return fmt.Errorf("scene is required")
	}
	if _, err := os.Stat(s.Scene); os.IsNotExist(err) {
		return fmt.Errorf("scene file not found: %s", s.Scene)
	}

	if s.RunUntil < 0 {
		return fmt.Errorf("run_until must not be negative")
	}
	if s.RunUntil == 0 && len(s.Commands) == 0 {
		return fmt.Errorf("scenario must set run_until or commands")
	}

	for i, cmd := range s.Commands {
		if _, err := parseCommand(cmd); err != nil {
			return fmt.Errorf("commands[%d]: %w", i, err)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}
