package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ShelteredLine(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/sheltered_line.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, "test-run-default", result.RunID)
	assert.Equal(t, 2.0, result.FinalTime)

	require.Len(t, result.Trace, 2)
	for _, step := range result.Trace {
		assert.Zero(t, step.Retreated)
		assert.Zero(t, step.Volume)
		assert.Equal(t, 7, step.Nodes)
	}
	assert.Zero(t, result.Supplied)
	assert.Equal(t, result.Initial.Points, result.Final.Points)
}

func TestRun_ExponentialParallelBeach(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/exponential_parallel_beach.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)

	require.Len(t, result.Trace, 1)
	step := result.Trace[0]
	assert.Equal(t, 10, step.Retreated, "every node but the last")
	assert.Less(t, step.Volume, 0.0)
	assert.InDelta(t, 0.75*-step.Volume, result.Supplied, 1e-9)
	assert.InDelta(t, 0.25*-step.Volume, result.Lost, 1e-9)
}

func TestRun_StraightFixedHumped(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/straight_fixed_humped.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	require.Len(t, result.Trace, 50)

	for i := 1; i < len(result.Trace); i++ {
		assert.Greater(t, result.Trace[i].Seq, result.Trace[i-1].Seq)
	}
	assert.Greater(t, -result.TotalVolume(), 0.0)
}

func TestRun_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/straight_fixed_humped.yaml")
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.Final, second.Final)
}

func TestRun_HaltStopsAndFails(t *testing.T) {
	s, err := LoadScenario("testdata/failing/zigzag_halt.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err, "a halted run is a failed result, not an error")
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "run stopped after 0 steps")
	assert.Contains(t, result.Errors[0], "SELF_INTERSECTION")
	assert.Empty(t, result.Trace)
}

func TestRun_FailingAssertion(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/sheltered_line.yaml")
	require.NoError(t, err)
	eight := 8
	s.Assertions = []Assertion{{Type: AssertNodeCount, Count: &eight}}
	s.RunID = "run-count"

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Expected: 8 nodes")
	assert.Equal(t, "run-count", result.RunID)
}

func TestRunContext_Cancelled(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/straight_fixed_humped.yaml")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = RunContext(ctx, s)
	assert.Error(t, err)
}

func TestRun_BuildError(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)
	s.Cliff.Points = [][]float64{{0, 0}, {0, 0}, {0, 0}}

	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build scenario minimal")
}
