package testutil

import (
	"github.com/golang/geo/r2"
)

// VolumeCall records one AddVolume invocation.
type VolumeCall struct {
	Volume float64
	Node   int
}

// RecordingShoreline is a shoreline test double. It serves fixed geometry
// and shadow flags and records every volume credited to it.
//
// Thread-safety: not safe for concurrent use; a step has a single writer.
type RecordingShoreline struct {
	Points  []r2.Point
	Shadows map[int]bool
	Calls   []VolumeCall
}

// NewRecordingShoreline wraps pts with no shadowed nodes.
func NewRecordingShoreline(pts []r2.Point) *RecordingShoreline {
	return &RecordingShoreline{Points: pts, Shadows: map[int]bool{}}
}

func (s *RecordingShoreline) Len() int             { return len(s.Points) }
func (s *RecordingShoreline) Point(i int) r2.Point { return s.Points[i] }
func (s *RecordingShoreline) InShadow(i int) bool  { return s.Shadows[i] }

// AddVolume appends the call to Calls.
func (s *RecordingShoreline) AddVolume(volume float64, node int) {
	s.Calls = append(s.Calls, VolumeCall{Volume: volume, Node: node})
}

// TotalVolume sums every recorded volume.
func (s *RecordingShoreline) TotalVolume() float64 {
	total := 0.0
	for _, c := range s.Calls {
		total += c.Volume
	}
	return total
}

// Reset forgets recorded calls.
func (s *RecordingShoreline) Reset() {
	s.Calls = nil
}

// Line returns n points starting at origin and stepping by step.
func Line(origin, step r2.Point, n int) []r2.Point {
	pts := make([]r2.Point, n)
	for i := range pts {
		pts[i] = origin.Add(step.Mul(float64(i)))
	}
	return pts
}
