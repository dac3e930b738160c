package cliff

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/golang/geo/r2"

	"github.com/roach88/cove/internal/snapshot"
)

// NewEmpty returns a placeholder cliffline with no nodes, for runs where no
// cliff exists. Step on an empty cliffline does nothing.
func NewEmpty(opts ...Option) *Cliffline {
	c := newCliffline(OriginEmpty, opts)
	c.logger.Warn("initialised an empty cliffline")
	return c
}

// FromSnapshot reads the frame recorded at time t from a snapshot file.
// Pass t = 0 to start from the initial condition.
func FromSnapshot(path string, t float64, opts ...Option) (*Cliffline, error) {
	frame, err := snapshot.Read(path, t)
	if err != nil {
		return nil, wrapError(ErrCodeIO, err, "initialise cliffline from %s at time %v", path, t)
	}
	b, err := ParseBoundaries(frame.StartBoundary, frame.EndBoundary)
	if err != nil {
		return nil, err
	}

	pts := make([]r2.Point, frame.Len())
	for i := range pts {
		pts[i] = r2.Point{X: frame.X[i], Y: frame.Y[i]}
	}

	c := newCliffline(OriginSnapshot, opts)
	c.logger.Info("initialising cliffline from snapshot",
		"path", path, "time", t, "boundary", b.String(), "nodes", len(pts))
	if err := c.initialise(pts, b, 0); err != nil {
		return nil, err
	}
	return c, nil
}

// FromPoints builds a cliffline from explicit node positions.
func FromPoints(pts []r2.Point, b Boundary, opts ...Option) (*Cliffline, error) {
	if _, err := ParseBoundary(int(b)); err != nil {
		return nil, err
	}
	c := newCliffline(OriginPoints, opts)
	if err := c.initialise(slices.Clone(pts), b, 0); err != nil {
		return nil, err
	}
	return c, nil
}

// Straight describes a synthetic straight cliffline.
type Straight struct {
	// Spacing is the mean node spacing (m).
	Spacing float64
	// Length is the along-trend length of the erodible section (m).
	Length float64
	// Trend is the azimuth (degrees) along which the line is laid out,
	// with the sea on the left looking down the line.
	Trend float64
	// Boundary applies to both ends.
	Boundary Boundary
	// Seed seeds the noise source when Rand is nil.
	Seed uint64
	// Rand supplies the positional noise. Optional.
	Rand *rand.Rand
}

// NewStraight lays out a noisy straight cliffline.
//
// Nodes walk forward from the origin along Trend, each step perturbed by
// uniform noise of amplitude Spacing/10 in x and y, until Length is reached.
// A Fixed boundary adds seawall anchors Length/5 before the first interior
// node and Length/5 and 2·Length/5 beyond the last one, and the first two
// and last two nodes are pinned.
func NewStraight(s Straight, opts ...Option) (*Cliffline, error) {
	switch {
	case s.Spacing <= 0:
		return nil, newError(ErrCodeInvalidParameter, "spacing %v must be positive", s.Spacing)
	case s.Length < 2*s.Spacing:
		return nil, newError(ErrCodeInvalidParameter, "length %v must be at least twice the spacing %v", s.Length, s.Spacing)
	}
	if _, err := ParseBoundary(int(s.Boundary)); err != nil {
		return nil, err
	}
	rng := s.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(s.Seed, 0))
	}

	c := newCliffline(OriginSynthetic, opts)
	c.logger.Info("initialising cliffline as straight segment",
		"spacing", s.Spacing, "length", s.Length, "trend", s.Trend, "boundary", s.Boundary.String())

	rad := s.Trend * math.Pi / 180
	dir := r2.Point{X: math.Sin(rad), Y: math.Cos(rad)}
	noise := s.Spacing / 10
	jitter := func() r2.Point {
		return r2.Point{
			X: noise * (rng.Float64() - 0.5),
			Y: noise * (rng.Float64() - 0.5),
		}
	}

	cur := r2.Point{}
	pts := []r2.Point{cur}
	dist := 0.0
	if s.Boundary == Fixed {
		cur = cur.Add(dir.Mul(s.Length / 5))
		pts = append(pts, cur)
		dist = 1
	}
	for dist < s.Length {
		cur = cur.Add(dir.Mul(s.Spacing)).Add(jitter())
		pts = append(pts, cur)
		dist += s.Spacing
	}
	if s.Boundary == Fixed {
		wall := cur.Add(dir.Mul(s.Length / 5))
		pts = append(pts, wall, wall.Add(dir.Mul(s.Length/5)))
	}

	if err := c.initialise(pts, s.Boundary, s.Spacing); err != nil {
		return nil, err
	}
	return c, nil
}

// initialise installs pts as the node sequence with every derived field at
// Unset, pins the ends of a Fixed vector, settles the desired spacing and
// computes morphology.
func (c *Cliffline) initialise(pts []r2.Point, b Boundary, nominalSpacing float64) error {
	if len(pts) < 3 {
		return newError(ErrCodeTooFewNodes, "a cliffline needs at least 3 nodes, got %d", len(pts))
	}
	if err := c.params.Validate(); err != nil {
		return err
	}
	if _, err := ParseIntersectionPolicy(string(c.policy)); err != nil {
		return err
	}

	c.boundary = b
	c.nodes = make([]Node, len(pts))
	for i, p := range pts {
		c.nodes[i] = newNode(p)
	}
	if b == Fixed {
		n := len(c.nodes)
		c.nodes[0].Fixed, c.nodes[1].Fixed = true, true
		c.nodes[n-2].Fixed, c.nodes[n-1].Fixed = true, true
	}

	if c.desiredSpacing <= 0 {
		if nominalSpacing > 0 {
			c.desiredSpacing = nominalSpacing
		} else {
			c.desiredSpacing = c.MeanNodeSpacing()
		}
	}

	return c.RefreshMorphology()
}
