package cliff

import (
	"math"

	"github.com/golang/geo/r2"
)

// Azimuth returns the bearing of d in degrees clockwise from north, in
// [0, 360). A vertical vector resolves to exactly 0 or 180. The second
// result is false when d has zero length or non-finite components.
func Azimuth(d r2.Point) (float64, bool) {
	var az float64
	switch {
	case d.X == 0 && d.Y < 0:
		return 180, true
	case d.X == 0 && d.Y > 0:
		return 0, true
	case d.X > 0:
		az = 90 - math.Atan(d.Y/d.X)*180/math.Pi
	case d.X < 0:
		az = 270 - math.Atan(d.Y/d.X)*180/math.Pi
	default:
		return Unset, false
	}
	if math.IsNaN(az) {
		return Unset, false
	}
	if az >= 360 {
		az -= 360
	}
	return az, true
}

// angleBetween returns a-b folded into (-180, 180].
func angleBetween(a, b float64) float64 {
	d := math.Mod(a-b, 360)
	switch {
	case d > 180:
		d -= 360
	case d <= -180:
		d += 360
	}
	return d
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RefreshMorphology recomputes every geometric field from the node
// positions. It never touches beach width or retreat state.
func (c *Cliffline) RefreshMorphology() error {
	n := len(c.nodes)
	if n == 0 {
		return nil
	}
	if n < 3 {
		return newError(ErrCodeTooFewNodes, "morphology needs at least 3 nodes, got %d", n)
	}

	nodes := c.nodes
	for i := range nodes {
		nodes[i].Distance = Unset
		nodes[i].FluxOrientation = Unset
		nodes[i].Orientation = Unset
		nodes[i].CellWidth = Unset
		nodes[i].E1 = Unset
		nodes[i].E2 = Unset
	}

	nodes[0].Distance = 0
	for i := 0; i < n-1; i++ {
		nodes[i+1].Distance = nodes[i].Distance + c.segmentLength(i)
		az, ok := Azimuth(c.segment(i))
		if !ok {
			return nodeError(ErrCodeGeometry, i, "failed to compute flux orientation: nodes %d and %d coincide", i, i+1)
		}
		nodes[i].FluxOrientation = az
	}

	if err := c.startBoundaryMorphology(); err != nil {
		return err
	}

	for i := 1; i < n-1; i++ {
		chord := nodes[i+1].Position.Sub(nodes[i-1].Position)
		az, ok := Azimuth(chord)
		if !ok {
			return nodeError(ErrCodeGeometry, i, "failed to compute orientation: neighbours %d and %d coincide", i-1, i+1)
		}
		nd := &nodes[i]
		nd.Orientation = az
		nd.E1 = angleBetween(az, nodes[i-1].FluxOrientation)
		nd.E2 = angleBetween(nd.FluxOrientation, az)
		nd.CellWidth = 0.5*c.segmentLength(i-1)/math.Cos(degToRad(nd.E1)) +
			0.5*c.segmentLength(i)/math.Cos(degToRad(nd.E2))
	}

	c.endBoundaryMorphology()
	return nil
}

// startBoundaryMorphology sets the orientation of node 0. A periodic vector
// borrows the last segment as the segment before node 0; a fixed or
// prescribed vector mirrors the first segment.
func (c *Cliffline) startBoundaryMorphology() error {
	nodes := c.nodes
	n := len(nodes)
	first := c.segment(0)

	var chord r2.Point
	if c.boundary == Periodic {
		chord = c.segment(n - 2).Add(first)
	} else {
		chord = first.Mul(2)
	}
	az, ok := Azimuth(chord)
	if !ok {
		return nodeError(ErrCodeGeometry, 0, "failed to compute boundary orientation")
	}

	nd := &nodes[0]
	nd.Orientation = az
	if c.boundary == Periodic {
		// E1 and cell width are completed from the end node.
		nd.E2 = angleBetween(nd.FluxOrientation, az)
		return nil
	}
	nd.E1, nd.E2 = 0, 0
	nd.CellWidth = first.Norm()
	return nil
}

func (c *Cliffline) endBoundaryMorphology() {
	nodes := c.nodes
	n := len(nodes)
	last := &nodes[n-1]

	if c.boundary == Periodic {
		first := &nodes[0]
		last.FluxOrientation = first.FluxOrientation
		last.Orientation = first.Orientation
		last.E1 = angleBetween(last.Orientation, nodes[n-2].FluxOrientation)
		last.E2 = first.E2
		last.CellWidth = 0.5*c.segmentLength(n-2)/math.Cos(degToRad(last.E1)) +
			0.5*c.segmentLength(0)/math.Cos(degToRad(last.E2))
		first.E1 = last.E1
		first.CellWidth = last.CellWidth
		return
	}

	last.FluxOrientation = nodes[n-2].FluxOrientation
	last.Orientation = nodes[n-2].Orientation
	last.E1, last.E2 = 0, 0
	last.CellWidth = c.segmentLength(n - 2)
}
