package cliff

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang/geo/r2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RetreatLaw selects the function mapping beach width to retreat rate.
type RetreatLaw int

const (
	// LawExponential decays retreat exponentially with beach width.
	LawExponential RetreatLaw = 1
	// LawHumped rises linearly to a peak at the critical width, then decays.
	LawHumped RetreatLaw = 2
)

func (l RetreatLaw) String() string {
	switch l {
	case LawExponential:
		return "exponential"
	case LawHumped:
		return "humped"
	default:
		return "law(" + strconv.Itoa(int(l)) + ")"
	}
}

// ParseRetreatLaw accepts a law name or its numeric code.
func ParseRetreatLaw(s string) (RetreatLaw, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exponential", "1":
		return LawExponential, nil
	case "humped", "2":
		return LawHumped, nil
	}
	return 0, newError(ErrCodeInvalidRetreatLaw, "unknown retreat law %q", s)
}

func (l RetreatLaw) validate() error {
	if l != LawExponential && l != LawHumped {
		return newError(ErrCodeInvalidRetreatLaw, "retreat law %d must be 1 (exponential) or 2 (humped)", int(l))
	}
	return nil
}

// RetreatDistance returns the signed retreat (m, negative landward) over
// dt days for a node with the given beach width.
func (p Params) RetreatDistance(law RetreatLaw, beachWidth, dt float64) float64 {
	years := dt / 365
	switch law {
	case LawHumped:
		if beachWidth < p.CriticalWidth {
			return -(p.MaxRetreatRate / 2) * (1 + beachWidth/p.CriticalWidth) * years
		}
		return -p.MaxRetreatRate * math.Exp(-(beachWidth-p.CriticalWidth)/p.WidthScale) * years
	default:
		return -p.MaxRetreatRate * math.Exp(-beachWidth/p.CriticalWidth) * years
	}
}

// StepResult summarises one call to Step.
type StepResult struct {
	// Retreated counts nodes that moved.
	Retreated int
	// Shadowed counts nodes skipped because their shoreline was sheltered.
	Shadowed int
	// Volume is the summed eroded volume forwarded to the shoreline (m³,
	// negative for erosion).
	Volume        float64
	Intersections []Intersection
	Inserted      int
	Removed       int
	// Nodes is the node count after density control.
	Nodes int
}

// Step advances the cliffline by dt days against shore.
//
// Morphology and beach width are refreshed, every free node from 0 to N-2
// retreats along its normal, the eroded volume is credited to the nearest
// shoreline node, and finally self-intersections are detected and node
// density is corrected. An empty cliffline does nothing.
func (c *Cliffline) Step(ctx context.Context, dt float64, shore Shoreline, law RetreatLaw) (StepResult, error) {
	ctx, span := otel.Tracer("cove/cliff").Start(ctx, "cliff.Step",
		trace.WithAttributes(
			attribute.Float64("dt_days", dt),
			attribute.String("law", law.String()),
			attribute.Int("nodes", len(c.nodes)),
		),
	)
	defer span.End()

	res, err := c.step(ctx, dt, shore, law)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}
	span.SetAttributes(
		attribute.Int("retreated", res.Retreated),
		attribute.Int("intersections", len(res.Intersections)),
		attribute.Float64("volume", res.Volume),
	)
	return res, nil
}

func (c *Cliffline) step(ctx context.Context, dt float64, shore Shoreline, law RetreatLaw) (StepResult, error) {
	if err := law.validate(); err != nil {
		return StepResult{}, err
	}
	if len(c.nodes) < 3 {
		return StepResult{Nodes: len(c.nodes)}, nil
	}
	if err := ctx.Err(); err != nil {
		return StepResult{}, err
	}
	start := time.Now()
	defer func() { cliffStepDuration.Observe(time.Since(start).Seconds()) }()

	if err := c.RefreshMorphology(); err != nil {
		return StepResult{}, err
	}
	c.DetermineBeachWidth(shore)

	var res StepResult
	var wrap r2.Point
	for i := range c.nodes {
		c.nodes[i].PositionChange = 0
		c.nodes[i].VolumeChange = 0
	}
	for i := 0; i < len(c.nodes)-1; i++ {
		nd := &c.nodes[i]
		if nd.Fixed {
			continue
		}
		if shore.InShadow(nd.NearestBeach) {
			res.Shadowed++
			continue
		}
		r := c.params.RetreatDistance(law, nd.BeachWidth, dt)
		nd.PositionChange = r
		nd.VolumeChange = r * nd.CellWidth * c.params.CliffHeight

		theta := degToRad(nd.Orientation)
		shift := r2.Point{X: -r * math.Cos(theta), Y: r * math.Sin(theta)}
		nd.Position = nd.Position.Add(shift)
		if i == 0 {
			wrap = shift
		}

		shore.AddVolume(nd.VolumeChange, nd.NearestBeach)
		res.Volume += nd.VolumeChange
		res.Retreated++
	}
	// The last node of a periodic vector is the image of node 0.
	if c.boundary == Periodic {
		last := &c.nodes[len(c.nodes)-1]
		last.Position = last.Position.Add(wrap)
		last.PositionChange = c.nodes[0].PositionChange
	}
	cliffErodedVolumeTotal.Add(math.Abs(res.Volume))

	res.Intersections = c.DetectIntersections()
	for _, x := range res.Intersections {
		c.logger.Warn("cliffline self-intersection",
			"first_segment", x.First, "second_segment", x.Second, "x", x.Point.X, "y", x.Point.Y)
	}
	cliffIntersectionsTotal.Add(float64(len(res.Intersections)))

	// Density control refreshes morphology only when it changes something.
	if err := c.RefreshMorphology(); err != nil {
		return res, err
	}
	stats, err := c.ControlDensity()
	res.Inserted, res.Removed = stats.Inserted, stats.Removed
	cliffNodesInsertedTotal.Add(float64(stats.Inserted))
	cliffNodesRemovedTotal.Add(float64(stats.Removed))
	res.Nodes = len(c.nodes)
	cliffNodesGauge.Set(float64(res.Nodes))
	if err != nil {
		return res, err
	}

	if c.policy == IntersectionHalt && len(res.Intersections) > 0 {
		first := res.Intersections[0]
		return res, nodeError(ErrCodeSelfIntersection, first.First,
			"cliffline crosses itself at %d place(s); first between segments %d and %d",
			len(res.Intersections), first.First, first.Second)
	}
	return res, nil
}
