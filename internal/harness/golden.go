package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the golden-file payload for a scenario run.
type TraceSnapshot struct {
	Scenario string       `json:"scenario"`
	RunToken string       `json:"run_token"`
	Trace    []StepRecord `json:"trace"`
}

// RunWithGolden executes a scenario and compares its step trace against
// the golden file named after the scenario. Regenerate fixtures with
// `go test -update`.
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}
	for _, msg := range result.Errors {
		t.Errorf("scenario %s: %s", scenario.Name, msg)
	}

	data, err := json.MarshalIndent(TraceSnapshot{
		Scenario: scenario.Name,
		RunToken: result.RunToken,
		Trace:    result.Trace,
	}, "", "  ")
	if err != nil {
		t.Fatalf("scenario %s: marshal trace: %v", scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"))
	g.Assert(t, scenario.Name, append(data, '\n'))

	if !result.Pass {
		t.Errorf("scenario %s: assertions failed", scenario.Name)
	}
	return result
}
