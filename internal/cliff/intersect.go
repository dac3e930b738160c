package cliff

import (
	"math"

	"github.com/golang/geo/r2"
)

// Intersection is a crossing between segments First and Second, where
// segment k joins node k to node k+1.
type Intersection struct {
	First  int
	Second int
	Point  r2.Point
}

// DetectIntersections returns every crossing between non-adjacent segments.
// Pairs whose leading nodes are both fixed are ignored. The cliffline is
// not modified.
func (c *Cliffline) DetectIntersections() []Intersection {
	n := len(c.nodes)
	var out []Intersection
	for i := 0; i < n-1; i++ {
		for j := i + 2; j < n-1; j++ {
			if c.boundary == Periodic && i == 0 && j == n-2 {
				continue
			}
			if c.nodes[i].Fixed && c.nodes[j].Fixed {
				continue
			}
			p, ok := segmentIntersection(
				c.nodes[i].Position, c.nodes[i+1].Position,
				c.nodes[j].Position, c.nodes[j+1].Position,
			)
			if ok {
				out = append(out, Intersection{First: i, Second: j, Point: p})
			}
		}
	}
	return out
}

// segmentIntersection intersects p1p2 with p3p4. Parallel and colinear
// segments never intersect. Touching endpoints count.
func segmentIntersection(p1, p2, p3, p4 r2.Point) (r2.Point, bool) {
	d12 := p2.Sub(p1)
	d34 := p4.Sub(p3)
	x := d12.Cross(d34)
	if math.Abs(x) < 1e-12*d12.Norm()*d34.Norm() || x == 0 {
		return r2.Point{}, false
	}
	r := p3.Sub(p1)
	s := r.Cross(d34) / x
	t := r.Cross(d12) / x
	if s < 0 || s > 1 || t < 0 || t > 1 {
		return r2.Point{}, false
	}
	return p1.Add(d12.Mul(s)), true
}
