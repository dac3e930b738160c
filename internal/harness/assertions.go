package harness

import (
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/r2"

	"github.com/roach88/cove/internal/runlog"
)

const (
	defaultBandMin   = 0.4
	defaultBandMax   = 1.5
	defaultTolerance = 1e-9
)

// AssertionError is returned when an assertion fails.
// It includes the step trace to help debug the failure.
type AssertionError struct {
	Type     string      // Assertion type for categorization
	Expected string      // Human-readable expected outcome
	Actual   string      // Human-readable actual outcome
	Trace    []StepEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, s := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] t=%g nodes=%d volume=%g intersections=%d +%d -%d\n",
				s.Seq, s.Time, s.Nodes, s.Volume, s.Intersections, s.Inserted, s.Removed)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertSpacingBand:
		return assertSpacingBand(result, a)
	case AssertNoIntersections:
		return assertNoIntersections(result)
	case AssertNodeCount:
		return assertNodeCount(result, a)
	case AssertNodeDisplacement:
		return assertNodeDisplacement(result, a)
	case AssertVolumeConserved:
		return assertVolumeConserved(result, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// assertSpacingBand checks the segments density control maintains: 1..N-3.
// A short segment between two fixed nodes is exempt, since neither node can
// be removed.
func assertSpacingBand(result *Result, a Assertion) error {
	lo := orDefault(a.Min, defaultBandMin) * result.DesiredSpacing
	hi := orDefault(a.Max, defaultBandMax) * result.DesiredSpacing

	pts := result.Final.Points
	for i := 1; i <= len(pts)-3; i++ {
		l := point(pts[i+1]).Sub(point(pts[i])).Norm()
		if l < lo && pts[i].Fixed && pts[i+1].Fixed {
			continue
		}
		if l < lo || l > hi {
			return &AssertionError{
				Type:     AssertSpacingBand,
				Expected: fmt.Sprintf("segment lengths in [%g, %g]", lo, hi),
				Actual:   fmt.Sprintf("segment %d has length %g", i, l),
				Trace:    result.Trace,
			}
		}
	}
	return nil
}

func assertNoIntersections(result *Result) error {
	for _, s := range result.Trace {
		if s.Intersections > 0 {
			return &AssertionError{
				Type:     AssertNoIntersections,
				Expected: "no self-intersections",
				Actual:   fmt.Sprintf("%d intersection(s) at step seq %d", s.Intersections, s.Seq),
				Trace:    result.Trace,
			}
		}
	}
	return nil
}

func assertNodeCount(result *Result, a Assertion) error {
	n := len(result.Final.Points)
	switch {
	case a.Count != nil && n != *a.Count:
		return &AssertionError{
			Type:     AssertNodeCount,
			Expected: fmt.Sprintf("%d nodes", *a.Count),
			Actual:   fmt.Sprintf("%d nodes", n),
		}
	case !inRange(float64(n), a.Min, a.Max):
		return &AssertionError{
			Type:     AssertNodeCount,
			Expected: fmt.Sprintf("node count in %s", describeRange(a.Min, a.Max)),
			Actual:   fmt.Sprintf("%d nodes", n),
		}
	}
	return nil
}

// assertNodeDisplacement compares a node's position in the first and last
// snapshot by index. Indices shift when density control inserts or removes
// nodes ahead of the checked one.
func assertNodeDisplacement(result *Result, a Assertion) error {
	i := *a.Node
	if i >= len(result.Initial.Points) || i >= len(result.Final.Points) {
		return &AssertionError{
			Type:     AssertNodeDisplacement,
			Expected: fmt.Sprintf("node %d in both snapshots", i),
			Actual: fmt.Sprintf("%d initial and %d final nodes",
				len(result.Initial.Points), len(result.Final.Points)),
		}
	}
	d := point(result.Final.Points[i]).Sub(point(result.Initial.Points[i])).Norm()

	if a.Expect != nil {
		tol := tolerance(a)
		if math.Abs(d-*a.Expect) > tol {
			return &AssertionError{
				Type:     AssertNodeDisplacement,
				Expected: fmt.Sprintf("node %d moved %g ± %g", i, *a.Expect, tol),
				Actual:   fmt.Sprintf("moved %g", d),
			}
		}
	}
	if !inRange(d, a.Min, a.Max) {
		return &AssertionError{
			Type:     AssertNodeDisplacement,
			Expected: fmt.Sprintf("node %d displacement in %s", i, describeRange(a.Min, a.Max)),
			Actual:   fmt.Sprintf("moved %g", d),
		}
	}
	return nil
}

// assertVolumeConserved checks that every eroded cubic metre reached the
// shoreline, either kept in its budget or lost offshore.
func assertVolumeConserved(result *Result, a Assertion) error {
	tol := tolerance(a)
	eroded := -result.TotalVolume()
	received := result.Supplied + result.Lost
	if math.Abs(eroded-received) > tol*math.Max(1, math.Abs(eroded)) {
		return &AssertionError{
			Type:     AssertVolumeConserved,
			Expected: fmt.Sprintf("shoreline received %g m³", eroded),
			Actual:   fmt.Sprintf("supplied %g + lost %g = %g m³", result.Supplied, result.Lost, received),
			Trace:    result.Trace,
		}
	}
	return nil
}

func point(p runlog.Point) r2.Point { return r2.Point{X: p.X, Y: p.Y} }

func orDefault(p *float64, d float64) float64 {
	if p == nil {
		return d
	}
	return *p
}

func tolerance(a Assertion) float64 {
	if a.Tolerance == 0 {
		return defaultTolerance
	}
	return a.Tolerance
}

func inRange(v float64, lo, hi *float64) bool {
	if lo != nil && v < *lo {
		return false
	}
	if hi != nil && v > *hi {
		return false
	}
	return true
}

func describeRange(lo, hi *float64) string {
	l, h := "-inf", "+inf"
	if lo != nil {
		l = fmt.Sprint(*lo)
	}
	if hi != nil {
		h = fmt.Sprint(*hi)
	}
	return "[" + l + ", " + h + "]"
}
