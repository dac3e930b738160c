package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cove/internal/runlog"
)

func TestRunWithGolden_ShelteredLine(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/sheltered_line.yaml")
	require.NoError(t, err)

	// Regenerate with:
	//   go test ./internal/harness -run TestRunWithGolden_ShelteredLine -update
	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass)
}

func TestFinalSnapshot_Format(t *testing.T) {
	result := &Result{
		Boundary: 2,
		Final: runlog.Snapshot{Time: 0.5, Points: []runlog.Point{
			{X: 0, Y: 0, Fixed: true}, {X: 10.25, Y: -1.5}, {X: 20, Y: 0, Fixed: true},
		}},
	}
	data, err := FinalSnapshot(result)
	require.NoError(t, err)
	assert.Equal(t, "2 2\n0.5 0 10.25 20\n0.5 0 -1.5 0\n", string(data))
}

func TestFinalSnapshot_Empty(t *testing.T) {
	data, err := FinalSnapshot(&Result{Boundary: 3})
	require.NoError(t, err)
	assert.Equal(t, "3 3\n0\n0\n", string(data))
}
