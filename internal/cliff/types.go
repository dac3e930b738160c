package cliff

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
)

// Unset marks a derived field that has not been computed.
const Unset = -9999

// NoBeachWidth is the beach width recorded when no shoreline segment lies
// inside a node's search window.
const NoBeachWidth = 9999.0

// Boundary is the condition applied at the ends of the vector.
type Boundary int

const (
	// Periodic wraps geometry from the opposite end of the vector.
	Periodic Boundary = 1
	// Fixed pins the two end nodes at each boundary and mirrors geometry.
	Fixed Boundary = 2
	// Prescribed mirrors geometry like Fixed but leaves end nodes free.
	Prescribed Boundary = 3
)

// String returns the lowercase boundary name.
func (b Boundary) String() string {
	switch b {
	case Periodic:
		return "periodic"
	case Fixed:
		return "fixed"
	case Prescribed:
		return "prescribed"
	default:
		return fmt.Sprintf("boundary(%d)", int(b))
	}
}

// ParseBoundary converts a boundary code (1, 2 or 3) into a Boundary.
func ParseBoundary(code int) (Boundary, error) {
	switch b := Boundary(code); b {
	case Periodic, Fixed, Prescribed:
		return b, nil
	}
	return 0, newError(ErrCodeInvalidBoundary,
		"boundary code %d must be 1 (periodic), 2 (fixed) or 3 (prescribed)", code)
}

// ParseBoundaries validates a start/end pair. Both ends must currently match.
func ParseBoundaries(start, end int) (Boundary, error) {
	b, err := ParseBoundary(start)
	if err != nil {
		return 0, err
	}
	if _, err := ParseBoundary(end); err != nil {
		return 0, err
	}
	if start != end {
		return 0, newError(ErrCodeInvalidBoundary,
			"start boundary %d and end boundary %d must be the same type", start, end)
	}
	return b, nil
}

// ParseBoundaryName accepts a boundary name or its numeric code.
func ParseBoundaryName(s string) (Boundary, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "periodic":
		return Periodic, nil
	case "fixed":
		return Fixed, nil
	case "prescribed":
		return Prescribed, nil
	}
	code, err := strconv.Atoi(s)
	if err != nil {
		return 0, newError(ErrCodeInvalidBoundary, "unknown boundary %q", s)
	}
	return ParseBoundary(code)
}

// Origin records which factory produced a Cliffline.
type Origin string

const (
	OriginEmpty     Origin = "empty"
	OriginSnapshot  Origin = "snapshot"
	OriginSynthetic Origin = "synthetic"
	OriginPoints    Origin = "points"
)

// IntersectionPolicy selects what a step does after detecting that the
// cliffline crosses itself. No policy repairs the geometry.
type IntersectionPolicy string

const (
	// IntersectionReport logs each intersection and carries on.
	IntersectionReport IntersectionPolicy = "report"
	// IntersectionHalt also fails the step with ErrCodeSelfIntersection.
	IntersectionHalt IntersectionPolicy = "halt"
)

// ParseIntersectionPolicy validates a policy name. Empty selects report.
func ParseIntersectionPolicy(s string) (IntersectionPolicy, error) {
	switch p := IntersectionPolicy(strings.ToLower(s)); p {
	case "":
		return IntersectionReport, nil
	case IntersectionReport, IntersectionHalt:
		return p, nil
	}
	return "", newError(ErrCodeInvalidParameter, "unknown intersection policy %q", s)
}

// Node is one vertex of the cliffline together with its derived fields.
//
// Angles are azimuths in degrees clockwise from north. Distances are metres.
type Node struct {
	Position r2.Point
	Fixed    bool

	// Distance is the cumulative length along the curve from node 0.
	Distance float64
	// FluxOrientation is the azimuth of the segment to the next node.
	FluxOrientation float64
	// Orientation is the azimuth of the chord from the previous to the
	// next node. The node retreats perpendicular to it.
	Orientation float64
	// CellWidth is the along-shore width attributed to the node.
	CellWidth float64
	// E1 and E2 are the facet angles at the left and right cell boundaries.
	E1 float64
	E2 float64

	BeachWidth   float64
	NearestBeach int

	PositionChange float64
	VolumeChange   float64
}

func newNode(p r2.Point) Node {
	return Node{
		Position:        p,
		Distance:        Unset,
		FluxOrientation: Unset,
		Orientation:     Unset,
		CellWidth:       Unset,
		E1:              Unset,
		E2:              Unset,
		BeachWidth:      Unset,
		NearestBeach:    Unset,
		PositionChange:  Unset,
		VolumeChange:    Unset,
	}
}

// Params holds the retreat law parameters.
type Params struct {
	// MaxRetreatRate is the maximum cliff retreat rate (m/yr).
	MaxRetreatRate float64
	// CliffHeight is the constant cliff height (m).
	CliffHeight float64
	// CriticalWidth is the beach width (m) at which retreat peaks.
	CriticalWidth float64
	// WidthScale is the decay length (m) of the humped law's wide-beach branch.
	WidthScale float64
	// LostFraction is the fraction of eroded material lost offshore.
	LostFraction float64
}

// Validate checks each parameter against its range.
func (p Params) Validate() error {
	switch {
	case p.MaxRetreatRate < 0:
		return newError(ErrCodeInvalidParameter, "max retreat rate %v must be non-negative", p.MaxRetreatRate)
	case p.CliffHeight < 0:
		return newError(ErrCodeInvalidParameter, "cliff height %v must be non-negative", p.CliffHeight)
	case p.CriticalWidth <= 0:
		return newError(ErrCodeInvalidParameter, "critical width %v must be positive", p.CriticalWidth)
	case p.WidthScale <= 0:
		return newError(ErrCodeInvalidParameter, "width scale %v must be positive", p.WidthScale)
	case p.LostFraction < 0 || p.LostFraction > 1:
		return newError(ErrCodeInvalidParameter, "lost fraction %v must lie in [0, 1]", p.LostFraction)
	}
	return nil
}

// DefaultParams mirrors the values used by the reference driver runs.
func DefaultParams() Params {
	return Params{
		MaxRetreatRate: 3,
		CliffHeight:    5,
		CriticalWidth:  10,
		WidthScale:     10,
		LostFraction:   0.5,
	}
}
