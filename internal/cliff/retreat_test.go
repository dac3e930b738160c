package cliff

import (
	"context"
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cove/internal/testutil"
)

func TestParseRetreatLaw(t *testing.T) {
	for in, want := range map[string]RetreatLaw{
		"exponential": LawExponential,
		"1":           LawExponential,
		"Humped":      LawHumped,
		" 2 ":         LawHumped,
	} {
		got, err := ParseRetreatLaw(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseRetreatLaw("linear")
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeInvalidRetreatLaw))
	assert.True(t, IsConfigError(err))
}

func TestRetreatDistance(t *testing.T) {
	p := Params{MaxRetreatRate: 2, CliffHeight: 5, CriticalWidth: 10, WidthScale: 20, LostFraction: 0}
	tests := []struct {
		name  string
		law   RetreatLaw
		width float64
		dt    float64
		want  float64
	}{
		{"exponential no beach", LawExponential, 0, 365, -2},
		{"exponential decays", LawExponential, 10, 365, -2 * math.Exp(-1)},
		{"exponential scales with dt", LawExponential, 0, 36.5, -0.2},
		{"humped no beach", LawHumped, 0, 365, -1},
		{"humped rising branch", LawHumped, 5, 365, -1.5},
		{"humped at critical", LawHumped, 10, 365, -2},
		{"humped decaying branch", LawHumped, 30, 365, -2 * math.Exp(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, p.RetreatDistance(tt.law, tt.width, tt.dt), 1e-12)
		})
	}
}

// scenario builds a straight Fixed cliff of 10 nodes along +x at 50 m
// spacing with a parallel shoreline 3 m seaward.
func scenario(t *testing.T, opts ...Option) (*Cliffline, *testutil.RecordingShoreline) {
	t.Helper()
	params := Params{MaxRetreatRate: 5, CliffHeight: 5, CriticalWidth: 5, WidthScale: 5, LostFraction: 0.5}
	opts = append([]Option{WithParams(params)}, opts...)
	c, err := FromPoints(testutil.Line(r2.Point{}, r2.Point{X: 50}, 10), Fixed, opts...)
	require.NoError(t, err)
	shore := testutil.NewRecordingShoreline(testutil.Line(r2.Point{Y: 3}, r2.Point{X: 50}, 10))
	return c, shore
}

func TestStep_HumpedFixedScenario(t *testing.T) {
	c, shore := scenario(t)
	before := c.Points()

	res, err := c.Step(context.Background(), 0.2, shore, LawHumped)
	require.NoError(t, err)

	want := -(5.0 / 2) * (1 + 3.0/5) * (0.2 / 365)
	assert.InDelta(t, -0.0021918, want, 1e-7)

	after := c.Points()
	for i := 0; i < 10; i++ {
		nd := c.Node(i)
		if nd.Fixed {
			assert.Equal(t, before[i], after[i], "pinned node %d moved", i)
			continue
		}
		assert.InDelta(t, 3.0, nd.BeachWidth, 1e-9, "node %d", i)
		assert.InDelta(t, want, nd.PositionChange, 1e-12, "node %d", i)
		assert.InDelta(t, before[i].X, after[i].X, 1e-12, "node %d", i)
		// Landward of an eastward cliff with the sea to the north is south.
		assert.InDelta(t, want, after[i].Y-before[i].Y, 1e-12, "node %d", i)
	}
	assert.Equal(t, 6, res.Retreated)
	assert.Equal(t, 10, res.Nodes)
	assert.Empty(t, res.Intersections)
	for _, i := range []int{0, 1, 8, 9} {
		assert.True(t, c.Node(i).Fixed)
	}
}

func TestStep_VolumeConservation(t *testing.T) {
	c, err := NewStraight(Straight{Spacing: 20, Length: 400, Trend: 90, Boundary: Prescribed, Seed: 5},
		WithParams(DefaultParams()))
	require.NoError(t, err)
	shore := testutil.NewRecordingShoreline(testutil.Line(r2.Point{X: -50, Y: 6}, r2.Point{X: 25}, 22))

	res, err := c.Step(context.Background(), 30, shore, LawExponential)
	require.NoError(t, err)

	nodeTotal := 0.0
	for _, nd := range c.Nodes() {
		if nd.VolumeChange != float64(Unset) {
			nodeTotal += nd.VolumeChange
		}
	}
	require.Len(t, shore.Calls, res.Retreated)
	assert.Less(t, res.Volume, 0.0)
	assert.InDelta(t, nodeTotal, res.Volume, 1e-9)
	assert.InDelta(t, res.Volume, shore.TotalVolume(), 1e-9)
}

func TestStep_VolumeMatchesNodeChanges(t *testing.T) {
	c, shore := scenario(t)
	res, err := c.Step(context.Background(), 1, shore, LawExponential)
	require.NoError(t, err)

	total := 0.0
	for i := 0; i < c.Len()-1; i++ {
		total += c.Node(i).VolumeChange
	}
	assert.InDelta(t, total, shore.TotalVolume(), 1e-12)
	assert.InDelta(t, total, res.Volume, 1e-12)

	// Each call goes to the node's nearest shoreline segment.
	for _, call := range shore.Calls {
		assert.GreaterOrEqual(t, call.Node, 0)
		assert.Less(t, call.Node, shore.Len()-1)
	}
}

func TestStep_ShadowedNodesHold(t *testing.T) {
	c, shore := scenario(t)
	for i := 0; i < shore.Len(); i++ {
		shore.Shadows[i] = true
	}
	before := c.Points()

	res, err := c.Step(context.Background(), 10, shore, LawHumped)
	require.NoError(t, err)
	assert.Equal(t, before, c.Points())
	assert.Equal(t, 6, res.Shadowed)
	assert.Zero(t, res.Retreated)
	assert.Empty(t, shore.Calls)
}

func TestStep_InvalidLaw(t *testing.T) {
	c, shore := scenario(t)
	before := c.Points()

	_, err := c.Step(context.Background(), 1, shore, RetreatLaw(7))
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeInvalidRetreatLaw))
	assert.Equal(t, before, c.Points())
	assert.Empty(t, shore.Calls)
}

func TestStep_EmptyIsNoop(t *testing.T) {
	c := NewEmpty()
	res, err := c.Step(context.Background(), 1, testutil.NewRecordingShoreline(nil), LawHumped)
	require.NoError(t, err)
	assert.Equal(t, StepResult{}, res)
}

func TestStep_CancelledContext(t *testing.T) {
	c, shore := scenario(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Step(ctx, 1, shore, LawHumped)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, shore.Calls)
}

func TestStep_IntersectionPolicy(t *testing.T) {
	farShore := []r2.Point{{X: -1000, Y: 1000}, {X: 1000, Y: 1000}}

	t.Run("report", func(t *testing.T) {
		c, err := FromPoints(zigzag, Prescribed)
		require.NoError(t, err)
		res, err := c.Step(context.Background(), 1, testutil.NewRecordingShoreline(farShore), LawExponential)
		require.NoError(t, err)
		assert.Len(t, res.Intersections, 1)
	})

	t.Run("halt", func(t *testing.T) {
		c, err := FromPoints(zigzag, Prescribed, WithIntersectionPolicy(IntersectionHalt))
		require.NoError(t, err)
		_, err = c.Step(context.Background(), 1, testutil.NewRecordingShoreline(farShore), LawExponential)
		require.Error(t, err)
		assert.True(t, IsIntersectionError(err))
	})
}

func TestStep_RepeatedStepsKeepSpacingBand(t *testing.T) {
	c, err := NewStraight(Straight{Spacing: 10, Length: 300, Trend: 0, Boundary: Fixed, Seed: 42})
	require.NoError(t, err)
	// Shoreline 2 m seaward (west) of a north-trending cliff.
	shore := testutil.NewRecordingShoreline(testutil.Line(r2.Point{X: -2, Y: -50}, r2.Point{Y: 10}, 50))

	for step := 0; step < 50; step++ {
		_, err := c.Step(context.Background(), 365, shore, LawHumped)
		require.NoError(t, err, "step %d", step)
		requireSpacingBand(t, c)
	}
	for _, i := range []int{0, 1, c.Len() - 2, c.Len() - 1} {
		assert.True(t, c.Node(i).Fixed, "node %d", i)
	}
}

func TestStep_PeriodicKeepsPeriodVector(t *testing.T) {
	params := Params{MaxRetreatRate: 5, CliffHeight: 5, CriticalWidth: 5, WidthScale: 5, LostFraction: 0.5}
	c, err := NewStraight(Straight{Spacing: 10, Length: 200, Trend: 90, Boundary: Periodic, Seed: 3}, WithParams(params))
	require.NoError(t, err)
	shore := testutil.NewRecordingShoreline(testutil.Line(r2.Point{X: -20, Y: 3}, r2.Point{X: 5}, 50))

	period := func() r2.Point {
		return c.Node(c.Len() - 1).Position.Sub(c.Node(0).Position)
	}
	want := period()
	start := c.Node(0).Position

	for step := 0; step < 20; step++ {
		_, err := c.Step(context.Background(), 36.5, shore, LawExponential)
		require.NoError(t, err, "step %d", step)
		got := period()
		require.InDelta(t, want.X, got.X, 1e-9, "step %d", step)
		require.InDelta(t, want.Y, got.Y, 1e-9, "step %d", step)
	}

	moved := c.Node(0).Position.Sub(start).Norm()
	assert.Greater(t, moved, 1.0)
	assert.Equal(t, c.Node(0).PositionChange, c.Node(c.Len()-1).PositionChange)
}
