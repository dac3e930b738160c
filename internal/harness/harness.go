package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/golang/geo/r2"

	"github.com/roach88/cove/internal/cliff"
	"github.com/roach88/cove/internal/runlog"
	"github.com/roach88/cove/internal/shoreline"
	"github.com/roach88/cove/internal/sim"
	"github.com/roach88/cove/internal/testutil"
)

// Harness holds the collaborators of one scenario execution.
type Harness struct {
	log    *runlog.Log
	cliff  *cliff.Cliffline
	shore  *shoreline.Shoreline
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory run log for isolation.
//
// Execution flow:
// 1. Build the cliffline and shoreline
// 2. Run the simulation for the requested number of steps
// 3. Read the step trace and the first and last snapshots back
// 4. Evaluate assertions
//
// A run that stops early (for example under the halt intersection policy)
// is reported as a failed result, not an error. Errors are returned only
// when the scenario cannot be set up.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	log, err := runlog.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory run log: %w", err)
	}
	defer log.Close()

	h := &Harness{
		log:    log,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	if err := h.build(scenario); err != nil {
		return nil, fmt.Errorf("failed to build scenario %s: %w", scenario.Name, err)
	}

	law, err := cliff.ParseRetreatLaw(scenario.lawName())
	if err != nil {
		return nil, err
	}
	end := float64(scenario.Steps) * scenario.TimeStep / 365
	s, err := sim.New(sim.Settings{
		Name:          scenario.Name,
		EndTime:       end,
		TimeStep:      scenario.TimeStep,
		PrintInterval: end,
		Law:           law,
	}, h.cliff, h.shore,
		sim.WithRunLog(log),
		sim.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(scenario.RunID)),
		sim.WithLogger(h.logger),
	)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	sum, runErr := s.Run(ctx)
	result.RunID = sum.RunID
	result.Boundary = int(h.cliff.Boundary())
	result.FinalTime = sum.FinalTime
	result.DesiredSpacing = h.cliff.DesiredSpacing()
	result.Supplied = h.shore.TotalSupplied()
	result.Lost = h.shore.TotalLost()
	if runErr != nil {
		result.AddError(fmt.Sprintf("run stopped after %d steps: %v", sum.Steps, runErr))
	}

	if err := h.collect(ctx, result); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) build(s *Scenario) error {
	b, err := cliff.ParseBoundaryName(s.Cliff.Boundary)
	if err != nil {
		return err
	}
	policy, err := cliff.ParseIntersectionPolicy(s.IntersectionPolicy)
	if err != nil {
		return err
	}
	params := s.Params.resolve()
	opts := []cliff.Option{
		cliff.WithLogger(h.logger),
		cliff.WithDesiredSpacing(s.Cliff.DesiredSpacing),
		cliff.WithIntersectionPolicy(policy),
		cliff.WithSearchWindow(s.SearchWindow),
		cliff.WithParams(params),
	}

	if syn := s.Cliff.Synthetic; syn != nil {
		h.cliff, err = cliff.NewStraight(cliff.Straight{
			Spacing:  syn.Spacing,
			Length:   syn.Length,
			Trend:    syn.Trend,
			Boundary: b,
			Seed:     syn.Seed,
		}, opts...)
	} else {
		h.cliff, err = cliff.FromPoints(toPoints(s.Cliff.Points), b, opts...)
	}
	if err != nil {
		return err
	}

	shoreOpts := []shoreline.Option{
		shoreline.WithLostFraction(params.LostFraction),
		shoreline.WithBoundary(int(b)),
		shoreline.WithLogger(h.logger),
	}
	if s.Shoreline.Offset != nil {
		h.shore, err = shoreline.OffsetFrom(h.cliff.Points(), *s.Shoreline.Offset, shoreOpts...)
	} else {
		h.shore, err = shoreline.New(toPoints(s.Shoreline.Points), shoreOpts...)
	}
	if err != nil {
		return err
	}
	for _, i := range s.Shoreline.Shadows {
		if err := h.shore.SetShadow(i, true); err != nil {
			return err
		}
	}
	return nil
}

// collect reads the trace and the first and last snapshots from the log.
func (h *Harness) collect(ctx context.Context, result *Result) error {
	steps, err := h.log.ReadSteps(ctx, result.RunID)
	if err != nil {
		return err
	}
	for _, s := range steps {
		result.Trace = append(result.Trace, stepEvent(s))
	}

	times, err := h.log.SnapshotTimes(ctx, result.RunID)
	if err != nil {
		return err
	}
	if len(times) == 0 {
		return nil
	}
	if result.Initial, err = h.log.ReadSnapshot(ctx, result.RunID, times[0]); err != nil {
		return err
	}
	result.Final, err = h.log.ReadSnapshot(ctx, result.RunID, times[len(times)-1])
	return err
}

func toPoints(raw [][]float64) []r2.Point {
	pts := make([]r2.Point, len(raw))
	for i, p := range raw {
		pts[i] = r2.Point{X: p[0], Y: p[1]}
	}
	return pts
}
