// Package shoreline provides the static shoreline a cliffline erodes
// against. It holds the polyline, per-node shadow flags and the sediment
// budget that eroded cliff material is credited to.
package shoreline

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/golang/geo/r2"

	"github.com/roach88/cove/internal/snapshot"
)

// ErrInvalid is returned for geometry or parameters a shoreline cannot hold.
var ErrInvalid = errors.New("invalid shoreline")

// Shoreline is a fixed polyline with a per-node sediment budget.
//
// Thread-safety: not safe for concurrent use. A run has a single writer.
type Shoreline struct {
	points       []r2.Point
	shadows      []bool
	budget       []float64
	boundary     int
	lostFraction float64
	supplied     float64
	lost         float64
	logger       *slog.Logger
}

// Option configures a Shoreline.
type Option func(*Shoreline)

// WithLostFraction sets the fraction of credited volume lost offshore.
func WithLostFraction(f float64) Option {
	return func(s *Shoreline) { s.lostFraction = f }
}

// WithBoundary sets the boundary code written to snapshot headers.
func WithBoundary(code int) Option {
	return func(s *Shoreline) { s.boundary = code }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Shoreline) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds a shoreline through pts.
func New(pts []r2.Point, opts ...Option) (*Shoreline, error) {
	if len(pts) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 nodes, got %d", ErrInvalid, len(pts))
	}
	s := &Shoreline{
		points:   slices.Clone(pts),
		shadows:  make([]bool, len(pts)),
		budget:   make([]float64, len(pts)),
		boundary: 3,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.lostFraction < 0 || s.lostFraction > 1 {
		return nil, fmt.Errorf("%w: lost fraction %v must lie in [0, 1]", ErrInvalid, s.lostFraction)
	}
	return s, nil
}

// FromSnapshot loads the frame at time t of a snapshot file.
func FromSnapshot(path string, t float64, opts ...Option) (*Shoreline, error) {
	f, err := snapshot.Read(path, t)
	if err != nil {
		return nil, fmt.Errorf("load shoreline: %w", err)
	}
	pts := make([]r2.Point, f.Len())
	for i := range pts {
		pts[i] = r2.Point{X: f.X[i], Y: f.Y[i]}
	}
	opts = append([]Option{WithBoundary(f.StartBoundary)}, opts...)
	return New(pts, opts...)
}

// OffsetFrom places a shoreline distance metres seaward of each cliff node,
// along the left normal of the local chord.
func OffsetFrom(cliff []r2.Point, distance float64, opts ...Option) (*Shoreline, error) {
	n := len(cliff)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 cliff nodes to offset, got %d", ErrInvalid, n)
	}
	pts := make([]r2.Point, n)
	for i := range cliff {
		prev, next := max(i-1, 0), min(i+1, n-1)
		tangent := cliff[next].Sub(cliff[prev])
		if tangent.Norm() == 0 {
			return nil, fmt.Errorf("%w: cliff nodes %d and %d coincide", ErrInvalid, prev, next)
		}
		pts[i] = cliff[i].Add(tangent.Normalize().Ortho().Mul(distance))
	}
	return New(pts, opts...)
}

// Len returns the number of shoreline nodes.
func (s *Shoreline) Len() int { return len(s.points) }

// Point returns the position of shoreline node i.
func (s *Shoreline) Point(i int) r2.Point { return s.points[i] }

// Points returns a copy of the polyline.
func (s *Shoreline) Points() []r2.Point { return slices.Clone(s.points) }

// InShadow reports whether node i is sheltered. Out-of-range indices are
// never in shadow.
func (s *Shoreline) InShadow(i int) bool {
	if i < 0 || i >= len(s.shadows) {
		return false
	}
	return s.shadows[i]
}

// SetShadow marks node i as sheltered or exposed.
func (s *Shoreline) SetShadow(i int, shadowed bool) error {
	if i < 0 || i >= len(s.shadows) {
		return fmt.Errorf("%w: shadow index %d out of range [0, %d)", ErrInvalid, i, len(s.shadows))
	}
	s.shadows[i] = shadowed
	return nil
}

// SetLostFraction changes the fraction of credited volume lost offshore.
func (s *Shoreline) SetLostFraction(f float64) error {
	if f < 0 || f > 1 {
		return fmt.Errorf("%w: lost fraction %v must lie in [0, 1]", ErrInvalid, f)
	}
	s.lostFraction = f
	return nil
}

// AddVolume credits cliff volume eroded in front of node i. Volumes arrive
// negative for erosion; the retained share joins node i's budget and the
// rest is lost offshore.
func (s *Shoreline) AddVolume(volume float64, i int) {
	if i < 0 || i >= len(s.budget) {
		s.logger.Warn("volume credited outside shoreline", "node", i, "volume", volume)
		return
	}
	sediment := -volume
	kept := sediment * (1 - s.lostFraction)
	s.budget[i] += kept
	s.supplied += kept
	s.lost += sediment * s.lostFraction
}

// Budget returns the sediment credited to node i so far.
func (s *Shoreline) Budget(i int) float64 { return s.budget[i] }

// TotalSupplied returns the volume retained on the shoreline.
func (s *Shoreline) TotalSupplied() float64 { return s.supplied }

// TotalLost returns the volume lost offshore.
func (s *Shoreline) TotalLost() float64 { return s.lost }

// Frame returns the polyline as a snapshot frame at time t.
func (s *Shoreline) Frame(t float64) snapshot.Frame {
	f := snapshot.Frame{
		StartBoundary: s.boundary,
		EndBoundary:   s.boundary,
		Time:          t,
		X:             make([]float64, len(s.points)),
		Y:             make([]float64, len(s.points)),
	}
	for i, p := range s.points {
		f.X[i], f.Y[i] = p.X, p.Y
	}
	return f
}

// WriteSnapshot appends the polyline to path at time t.
func (s *Shoreline) WriteSnapshot(path string, t float64) error {
	if err := snapshot.Write(path, s.Frame(t)); err != nil {
		return fmt.Errorf("write shoreline snapshot: %w", err)
	}
	return nil
}
