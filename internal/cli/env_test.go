package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halverson/orrery/internal/engine"
	"github.com/halverson/orrery/internal/motion"
)

func TestApplyEnvOverrides_Empty(t *testing.T) {
	base := engine.DefaultConfig()
	cfg, err := applyEnvOverrides(base)
	require.NoError(t, err)
	assert.Equal(t, base, cfg)
}

func TestApplyEnvOverrides_Layered(t *testing.T) {
	t.Setenv("ORRERY_MAX_STEPS", "500")
	t.Setenv("ORRERY_MAX_EXECUTION_TIME", "30s")
	t.Setenv("ORRERY_DT", "0.01")
	t.Setenv("ORRERY_METHOD", "rk4")
	t.Setenv("ORRERY_MAX_SNAPSHOTS", "25")
	t.Setenv("ORRERY_CONSTRAINT_TOLERANCE", "1e-8")
	t.Setenv("ORRERY_CONSTRAINT_ITERATIONS", "200")

	cfg, err := applyEnvOverrides(engine.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, uint64(500), cfg.MaxSteps)
	assert.Equal(t, 30*time.Second, cfg.MaxExecutionTime)
	assert.Equal(t, engine.Fixed(0.01), cfg.TimeStep)
	assert.Equal(t, motion.RK4, cfg.IntegrationMethod)
	assert.Equal(t, 25, cfg.MaxSnapshots)
	assert.Equal(t, 1e-8, cfg.ConstraintTolerance)
	assert.Equal(t, 200, cfg.MaxConstraintIterations)
}

func TestApplyEnvOverrides_PartialKeepsBase(t *testing.T) {
	t.Setenv("ORRERY_MAX_STEPS", "42")

	base := engine.DefaultConfig()
	cfg, err := applyEnvOverrides(base)
	require.NoError(t, err)

	assert.Equal(t, uint64(42), cfg.MaxSteps)
	assert.Equal(t, base.IntegrationMethod, cfg.IntegrationMethod)
	assert.Equal(t, base.TimeStep, cfg.TimeStep)
}

func TestApplyEnvOverrides_BadMethod(t *testing.T) {
	t.Setenv("ORRERY_METHOD", "leapfrog")

	_, err := applyEnvOverrides(engine.DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leapfrog")
}

func TestParseMethod(t *testing.T) {
	for _, name := range []string{"euler", "semi-implicit-euler", "rk2", "rk4", "verlet"} {
		m, err := parseMethod(name)
		require.NoError(t, err)
		assert.Equal(t, motion.Method(name), m)
	}

	_, err := parseMethod("midpoint")
	assert.Error(t, err)
}

func TestBuildConfig_FromFlags(t *testing.T) {
	flags := testEngineFlags()
	flags.NoSnapshots = true

	cfg, err := buildConfig(&flags)
	require.NoError(t, err)

	assert.Equal(t, engine.Fixed(0.1), cfg.TimeStep)
	assert.False(t, cfg.EnableSnapshots)
	assert.Equal(t, motion.SemiImplicitEuler, cfg.IntegrationMethod)
}

func TestBuildConfig_EnvWinsOverFlags(t *testing.T) {
	t.Setenv("ORRERY_DT", "0.5")

	flags := testEngineFlags()
	cfg, err := buildConfig(&flags)
	require.NoError(t, err)
	assert.Equal(t, engine.Fixed(0.5), cfg.TimeStep)
}
