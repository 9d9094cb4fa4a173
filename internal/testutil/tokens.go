package testutil

// StaticTokenGenerator returns the same run token every time.
//
// Unlike engine.FixedGenerator, which hands out a finite token sequence
// and panics on exhaustion, this generator never runs out. Scenario runs
// that restart the engine repeatedly share one stable token, which keeps
// golden traces byte-identical across runs.
//
// StaticTokenGenerator is stateless and safe for concurrent use.
type StaticTokenGenerator struct {
	token string
}

// NewStaticTokenGenerator creates a generator for the given token.
// An empty token defaults to "test-run-default".
func NewStaticTokenGenerator(token string) *StaticTokenGenerator {
	if token == "" {
		token = "test-run-default"
	}
	return &StaticTokenGenerator{token: token}
}

// Generate returns the fixed run token.
//
// Implements engine.TokenGenerator.
func (g *StaticTokenGenerator) Generate() string {
	return g.token
}
