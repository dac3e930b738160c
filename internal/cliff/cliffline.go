package cliff

import (
	"log/slog"
	"slices"

	"github.com/golang/geo/r2"

	"github.com/roach88/cove/internal/snapshot"
)

// DefaultSearchWindow is the number of shoreline segments examined ahead
// of the previous node's nearest segment when measuring beach width.
const DefaultSearchWindow = 5

// Cliffline is an evolving cliff-top vector.
//
// The node slice is the single source of truth for topology. Every derived
// field lives on the Node itself, so an insert or delete moves all of a
// node's state together.
//
// Thread-safety: a Cliffline has exactly one writer, the caller of Step.
// Accessors return copies and must not race with Step.
type Cliffline struct {
	nodes          []Node
	boundary       Boundary
	origin         Origin
	desiredSpacing float64
	params         Params
	policy         IntersectionPolicy
	searchWindow   int
	logger         *slog.Logger
}

// Option configures a Cliffline at construction.
type Option func(*Cliffline)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Cliffline) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDesiredSpacing overrides the target node spacing. A zero value keeps
// the spacing observed at initialisation.
func WithDesiredSpacing(d float64) Option {
	return func(c *Cliffline) {
		if d > 0 {
			c.desiredSpacing = d
		}
	}
}

// WithIntersectionPolicy sets the self-intersection policy.
func WithIntersectionPolicy(p IntersectionPolicy) Option {
	return func(c *Cliffline) {
		if p != "" {
			c.policy = p
		}
	}
}

// WithSearchWindow sets how many shoreline segments the beach-width search
// examines per node.
func WithSearchWindow(n int) Option {
	return func(c *Cliffline) {
		if n > 0 {
			c.searchWindow = n
		}
	}
}

// WithParams sets the retreat law parameters.
func WithParams(p Params) Option {
	return func(c *Cliffline) {
		c.params = p
	}
}

func newCliffline(origin Origin, opts []Option) *Cliffline {
	c := &Cliffline{
		origin:       origin,
		params:       DefaultParams(),
		policy:       IntersectionReport,
		searchWindow: DefaultSearchWindow,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Len returns the live node count.
func (c *Cliffline) Len() int {
	return len(c.nodes)
}

// Node returns a copy of node i.
func (c *Cliffline) Node(i int) Node {
	return c.nodes[i]
}

// Nodes returns a copy of every node.
func (c *Cliffline) Nodes() []Node {
	return slices.Clone(c.nodes)
}

// Points returns the node positions.
func (c *Cliffline) Points() []r2.Point {
	pts := make([]r2.Point, len(c.nodes))
	for i, n := range c.nodes {
		pts[i] = n.Position
	}
	return pts
}

// Boundary returns the boundary condition shared by both ends.
func (c *Cliffline) Boundary() Boundary { return c.boundary }

// Origin returns the factory that produced the cliffline.
func (c *Cliffline) Origin() Origin { return c.origin }

// DesiredSpacing returns the density controller's target spacing.
func (c *Cliffline) DesiredSpacing() float64 { return c.desiredSpacing }

// Policy returns the self-intersection policy.
func (c *Cliffline) Policy() IntersectionPolicy { return c.policy }

// Params returns the retreat law parameters.
func (c *Cliffline) Params() Params { return c.params }

// SetParams replaces all retreat parameters after validating them.
func (c *Cliffline) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.params = p
	return nil
}

// SetMaxRetreatRate sets the maximum retreat rate (m/yr).
func (c *Cliffline) SetMaxRetreatRate(rate float64) error {
	p := c.params
	p.MaxRetreatRate = rate
	return c.SetParams(p)
}

// SetCliffHeight sets the constant cliff height (m).
func (c *Cliffline) SetCliffHeight(h float64) error {
	p := c.params
	p.CliffHeight = h
	return c.SetParams(p)
}

// SetCriticalWidth sets the critical beach width and resets WidthScale to
// the same value.
func (c *Cliffline) SetCriticalWidth(w float64) error {
	p := c.params
	p.CriticalWidth = w
	p.WidthScale = w
	return c.SetParams(p)
}

// SetWidthScale sets the humped law decay length independently.
func (c *Cliffline) SetWidthScale(w float64) error {
	p := c.params
	p.WidthScale = w
	return c.SetParams(p)
}

// SetLostFraction sets the fraction of eroded material lost offshore.
func (c *Cliffline) SetLostFraction(f float64) error {
	p := c.params
	p.LostFraction = f
	return c.SetParams(p)
}

// SetDesiredSpacing changes the density controller's target spacing.
func (c *Cliffline) SetDesiredSpacing(d float64) error {
	if d <= 0 {
		return newError(ErrCodeInvalidParameter, "desired spacing %v must be positive", d)
	}
	c.desiredSpacing = d
	return nil
}

// MeanNodeSpacing returns the mean distance between adjacent nodes. The
// first segment is counted twice, standing in for the wrap-around segment
// of a periodic vector, and the sum is divided by the node count.
func (c *Cliffline) MeanNodeSpacing() float64 {
	n := len(c.nodes)
	if n < 2 {
		return 0
	}
	total := 0.0
	for i := 0; i < n-1; i++ {
		total += c.segmentLength(i)
	}
	total += c.segmentLength(0)
	return total / float64(n)
}

// Frame returns the node positions as a snapshot frame at time t.
func (c *Cliffline) Frame(t float64) snapshot.Frame {
	f := snapshot.Frame{
		StartBoundary: int(c.boundary),
		EndBoundary:   int(c.boundary),
		Time:          t,
		X:             make([]float64, len(c.nodes)),
		Y:             make([]float64, len(c.nodes)),
	}
	for i, n := range c.nodes {
		f.X[i] = n.Position.X
		f.Y[i] = n.Position.Y
	}
	return f
}

// WriteSnapshot appends the current positions to path at time t.
func (c *Cliffline) WriteSnapshot(path string, t float64) error {
	if err := snapshot.Write(path, c.Frame(t)); err != nil {
		return wrapError(ErrCodeIO, err, "write cliffline snapshot")
	}
	c.logger.Debug("cliffline snapshot written", "path", path, "time", t, "nodes", len(c.nodes))
	return nil
}

// ApplyCliffType marks nodes listed as 1 in the cliff type file as fixed.
func (c *Cliffline) ApplyCliffType(path string) error {
	fixed, err := snapshot.ReadCliffType(path, len(c.nodes))
	if err != nil {
		return wrapError(ErrCodeIO, err, "read cliff type")
	}
	for i := range c.nodes {
		c.nodes[i].Fixed = fixed[i]
	}
	c.logger.Info("cliff type applied", "path", path, "fixed", countFixed(c.nodes))
	return nil
}

func (c *Cliffline) segment(i int) r2.Point {
	return c.nodes[i+1].Position.Sub(c.nodes[i].Position)
}

func (c *Cliffline) segmentLength(i int) float64 {
	return c.segment(i).Norm()
}

// insertNode places a fresh, unpinned node at index i.
func (c *Cliffline) insertNode(i int, p r2.Point) {
	c.nodes = slices.Insert(c.nodes, i, newNode(p))
}

func (c *Cliffline) removeNode(i int) {
	c.nodes = slices.Delete(c.nodes, i, i+1)
}

func countFixed(nodes []Node) int {
	n := 0
	for _, nd := range nodes {
		if nd.Fixed {
			n++
		}
	}
	return n
}
