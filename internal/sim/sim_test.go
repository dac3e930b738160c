package sim

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cove/internal/cliff"
	"github.com/roach88/cove/internal/config"
	"github.com/roach88/cove/internal/runlog"
	"github.com/roach88/cove/internal/shoreline"
	"github.com/roach88/cove/internal/snapshot"
	"github.com/roach88/cove/internal/testutil"
)

func TestClock_Monotonic(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())

	resumed := NewClockAt(41)
	assert.Equal(t, int64(42), resumed.Next())
}

func TestClock_ThreadSafe(t *testing.T) {
	c := NewClock()
	var wg sync.WaitGroup
	seen := make([]int64, 1000)
	for i := range seen {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seen[i] = c.Next()
		}(i)
	}
	wg.Wait()

	unique := map[int64]bool{}
	for _, v := range seen {
		unique[v] = true
	}
	assert.Len(t, unique, 1000)
	assert.Equal(t, int64(1000), c.Current())
}

func TestUUIDv7Generator_Unique(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func newTestSimulation(t *testing.T, settings Settings, opts ...Option) *Simulation {
	t.Helper()
	c, err := cliff.FromPoints(testutil.Line(r2.Point{}, r2.Point{X: 20}, 21), cliff.Fixed)
	require.NoError(t, err)
	shore, err := shoreline.OffsetFrom(c.Points(), 4, shoreline.WithLostFraction(0.5))
	require.NoError(t, err)
	s, err := New(settings, c, shore, opts...)
	require.NoError(t, err)
	return s
}

func TestRun_PrintsAndLogs(t *testing.T) {
	dir := t.TempDir()
	settings := Settings{
		Name:          "prints",
		EndTime:       1,
		TimeStep:      36.5,
		PrintInterval: 0.25,
		Law:           cliff.LawHumped,
		CliffFile:     filepath.Join(dir, "cliff.xy"),
		ShorelineFile: filepath.Join(dir, "shore.xy"),
		Config:        `{"run":{"name":"prints"}}`,
	}

	log, err := runlog.Open(":memory:")
	require.NoError(t, err)
	defer log.Close()

	s := newTestSimulation(t, settings,
		WithRunLog(log),
		WithRunIDGenerator(testutil.NewFixedRunIDGenerator("run-1")))

	sum, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", sum.RunID)
	assert.Equal(t, 10, sum.Steps)
	assert.Equal(t, 5, sum.Prints)
	assert.Equal(t, 1.0, sum.FinalTime)
	assert.Less(t, sum.ErodedVolume, 0.0)

	wantTimes := []float64{0, 0.25, 0.5, 0.75, 1}
	fileTimes, err := snapshot.Times(settings.CliffFile)
	require.NoError(t, err)
	assert.Equal(t, wantTimes, fileTimes)
	shoreTimes, err := snapshot.Times(settings.ShorelineFile)
	require.NoError(t, err)
	assert.Equal(t, wantTimes, shoreTimes)

	ctx := context.Background()
	run, err := log.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, int(cliff.Fixed), run.Boundary)
	assert.Equal(t, int64(1), run.CreatedSeq)

	logTimes, err := log.SnapshotTimes(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, wantTimes, logTimes)

	steps, err := log.ReadSteps(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, steps, 10)
	for i := 1; i < len(steps); i++ {
		assert.Greater(t, steps[i].Seq, steps[i-1].Seq)
		assert.Greater(t, steps[i].Time, steps[i-1].Time)
	}

	final, err := log.ReadSnapshot(ctx, "run-1", 1)
	require.NoError(t, err)
	require.Len(t, final.Points, s.Cliffline().Len())
	assert.True(t, final.Points[0].Fixed)
	assert.InDelta(t, s.Cliffline().Node(5).Position.Y, final.Points[5].Y, 1e-12)
}

func TestRun_FinalPrintWhenIntervalOvershoots(t *testing.T) {
	dir := t.TempDir()
	settings := Settings{
		EndTime:       1,
		TimeStep:      73,
		PrintInterval: 0.3,
		Law:           cliff.LawExponential,
		CliffFile:     filepath.Join(dir, "cliff.xy"),
	}
	s := newTestSimulation(t, settings)

	sum, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Steps)

	times, err := snapshot.Times(settings.CliffFile)
	require.NoError(t, err)
	require.Len(t, times, 5)
	assert.Equal(t, 0.0, times[0])
	assert.InDelta(t, 0.3, times[1], 1e-12)
	assert.InDelta(t, 0.6, times[2], 1e-12)
	assert.InDelta(t, 0.9, times[3], 1e-12)
	assert.Equal(t, 1.0, times[4])
}

func TestRun_Cancelled(t *testing.T) {
	s := newTestSimulation(t, Settings{EndTime: 10, TimeStep: 1, PrintInterval: 1, Law: cliff.LawHumped})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := s.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sum.Steps)
}

func TestRun_StepErrorStopsRun(t *testing.T) {
	zigzag := []r2.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 5, Y: -5}}
	c, err := cliff.FromPoints(zigzag, cliff.Prescribed, cliff.WithIntersectionPolicy(cliff.IntersectionHalt))
	require.NoError(t, err)
	shore, err := shoreline.New([]r2.Point{{X: -1000, Y: 1000}, {X: 1000, Y: 1000}})
	require.NoError(t, err)

	s, err := New(Settings{EndTime: 1, TimeStep: 1, PrintInterval: 1, Law: cliff.LawExponential}, c, shore)
	require.NoError(t, err)

	sum, err := s.Run(context.Background())
	require.Error(t, err)
	assert.True(t, cliff.IsIntersectionError(err))
	assert.Zero(t, sum.Steps)
}

func TestNew_ValidatesSettings(t *testing.T) {
	c, err := cliff.FromPoints(testutil.Line(r2.Point{}, r2.Point{X: 20}, 5), cliff.Prescribed)
	require.NoError(t, err)
	shore, err := shoreline.OffsetFrom(c.Points(), 4)
	require.NoError(t, err)

	for _, bad := range []Settings{
		{EndTime: 1, TimeStep: 0, PrintInterval: 1},
		{EndTime: 1, TimeStep: 1, PrintInterval: 0},
		{StartTime: 2, EndTime: 1, TimeStep: 1, PrintInterval: 1},
	} {
		_, err := New(bad, c, shore)
		assert.ErrorIs(t, err, ErrInvalidSettings, fmt.Sprintf("%+v", bad))
	}
	_, err = New(Settings{EndTime: 1, TimeStep: 1, PrintInterval: 1}, nil, shore)
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestFromConfig_SyntheticRun(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Parse([]byte(fmt.Sprintf(`
run: {name: synthetic, seed: 3, end_time: 2, time_step: 73, print_interval: 1}
cliff:
  synthetic: {spacing: 10, length: 300, trend: 90, boundary: fixed}
  retreat_law: humped
  max_retreat_rate: 5
  cliff_height: 10
  critical_width: 5
  lost_fraction: 0.2
shoreline: {offset: 3, shadows: [0]}
output: {cliff_file: %q}
`, filepath.Join(dir, "cliff.xy"))))
	require.NoError(t, err)

	s, err := FromConfig(cfg, nil, WithRunIDGenerator(testutil.NewFixedRunIDGenerator("")))
	require.NoError(t, err)
	assert.Equal(t, cliff.OriginSynthetic, s.Cliffline().Origin())
	assert.Equal(t, 0.2, s.Cliffline().Params().LostFraction)

	sum, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-run-default", sum.RunID)
	assert.Equal(t, 10, sum.Steps)

	final, err := cliff.FromSnapshot(filepath.Join(dir, "cliff.xy"), 2)
	require.NoError(t, err)
	assert.Equal(t, s.Cliffline().Len(), final.Len())
}

func TestFromConfig_MissingCliffFile(t *testing.T) {
	cfg, err := config.Parse([]byte(`
run: {end_time: 1}
cliff: {file: /nonexistent/cliff.xy, max_retreat_rate: 1, cliff_height: 1, critical_width: 1}
shoreline: {offset: 3}
`))
	require.NoError(t, err)

	_, err = FromConfig(cfg, nil)
	require.Error(t, err)
	assert.True(t, cliff.IsIOError(err))
}

func TestFromConfig_RejectsUnvalidatedConfig(t *testing.T) {
	cfg, err := config.Parse([]byte(`
run: {end_time: 1}
cliff:
  synthetic: {spacing: 10, length: 100, trend: 0, boundary: fixed}
  max_retreat_rate: 1
  cliff_height: 1
  critical_width: 1
shoreline: {offset: 3}
`))
	require.NoError(t, err)
	cfg.Shoreline.Offset = nil

	_, err = FromConfig(cfg, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalid)
}
