package cliff

import (
	"github.com/golang/geo/r2"
)

// ShorelineGeometry is the read-only view of the shoreline polyline.
type ShorelineGeometry interface {
	Len() int
	Point(i int) r2.Point
}

// Shoreline is the collaborator a step erodes against. The cliffline reads
// the geometry and shadow flags and reports eroded volume through AddVolume.
// It never writes anything else.
type Shoreline interface {
	ShorelineGeometry
	// InShadow reports whether shoreline node i is sheltered this step.
	InShadow(i int) bool
	// AddVolume credits eroded volume (m³, negative for erosion) to
	// shoreline node i.
	AddVolume(volume float64, i int)
}

// DetermineBeachWidth records, for nodes 0..N-2, the distance to the
// nearest point of shore and the index of the segment it lies on.
//
// The search for node i covers the window of segments starting at node
// i-1's nearest segment. Nodes with nothing in range keep NoBeachWidth
// and nearest index 0.
func (c *Cliffline) DetermineBeachWidth(shore ShorelineGeometry) {
	n := len(c.nodes)
	m := shore.Len()
	start := 0
	for i := 0; i < n-1; i++ {
		if i > 0 {
			start = c.nodes[i-1].NearestBeach
		}
		end := min(start+c.searchWindow, m-1)

		nd := &c.nodes[i]
		best, nearest := NoBeachWidth, 0
		prevT := 0.0
		for j := start; j < end; j++ {
			a, b := shore.Point(j), shore.Point(j+1)
			seg := b.Sub(a)
			t := 0.0
			if l2 := seg.Dot(seg); l2 > 0 {
				t = nd.Position.Sub(a).Dot(seg) / l2
			}

			var cand r2.Point
			switch {
			case j > start && ((prevT < 0 && t > 1) || (prevT > 1 && t < 0)):
				cand = a
			case t < 0:
				cand = a
			case t > 1:
				cand = b
			default:
				cand = a.Add(seg.Mul(t))
			}
			prevT = t

			if d := nd.Position.Sub(cand).Norm(); d < best {
				best, nearest = d, j
			}
		}
		nd.BeachWidth = best
		nd.NearestBeach = nearest
	}
}
