package cliff

const (
	minSpacingFactor = 0.4
	maxSpacingFactor = 1.5
)

// DensityStats counts the corrections made by one density pass.
type DensityStats struct {
	Inserted int
	Removed  int
}

// ControlDensity inserts and removes nodes until every interior spacing
// lies within [0.4, 1.5] times the desired spacing.
//
// Exactly one correction is applied per scan. Morphology is refreshed and
// the scan restarts from the first interior pair after each correction,
// since indices past the mutation point have shifted. The two segments at
// either end of the vector are never examined. A wide gap between two
// pinned nodes is split with a free midpoint; a short one is left alone.
func (c *Cliffline) ControlDensity() (DensityStats, error) {
	var stats DensityStats
	if len(c.nodes) < 4 || c.desiredSpacing <= 0 {
		return stats, nil
	}

	limit := 100*len(c.nodes) + 1000
	for corrections := 0; ; corrections++ {
		if corrections > limit {
			return stats, newError(ErrCodeDensityDiverged,
				"node density failed to settle after %d corrections (nodes=%d)", corrections, len(c.nodes))
		}
		changed := c.correctOnce(&stats)
		if !changed {
			return stats, nil
		}
		if err := c.RefreshMorphology(); err != nil {
			return stats, err
		}
	}
}

// correctOnce applies the first correction the scan finds and reports
// whether it changed the node sequence.
func (c *Cliffline) correctOnce(stats *DensityStats) bool {
	n := len(c.nodes)
	lo := minSpacingFactor * c.desiredSpacing
	hi := maxSpacingFactor * c.desiredSpacing

	for i := 1; i <= n-3; i++ {
		a, b := c.nodes[i], c.nodes[i+1]
		spacing := c.segmentLength(i)

		switch {
		case spacing < lo:
			// Neither node of a pinned pair may be removed.
			if a.Fixed && b.Fixed {
				continue
			}
			if n <= 3 {
				return false
			}
			c.removeClose(i)
			stats.Removed++
			c.logger.Debug("node removed", "index", i, "spacing", spacing, "nodes", len(c.nodes))
			return true

		case spacing > hi:
			mid := a.Position.Add(b.Position).Mul(0.5)
			c.insertNode(i+1, mid)
			stats.Inserted++
			c.logger.Debug("node inserted", "index", i+1, "spacing", spacing, "nodes", len(c.nodes))
			return true
		}
	}
	return false
}

// removeClose resolves a too-short segment between nodes i and i+1.
func (c *Cliffline) removeClose(i int) {
	n := len(c.nodes)
	if c.boundary == Fixed {
		switch i {
		case 1:
			c.removeNode(i + 1)
			return
		case n - 3:
			c.removeNode(i)
			return
		}
	}

	a, b := c.nodes[i], c.nodes[i+1]
	switch {
	case a.Fixed:
		c.removeNode(i + 1)
	case b.Fixed:
		c.removeNode(i)
	default:
		c.nodes[i].Position = a.Position.Add(b.Position).Mul(0.5)
		c.removeNode(i + 1)
	}
}
