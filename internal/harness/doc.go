// Package harness runs short cliffline simulations described in YAML and
// checks their outcome.
//
// # Scenario Format
//
//	name: straight_fixed
//	description: "Straight seawalled cliff behind a narrow beach"
//	cliff:
//	  boundary: fixed
//	  synthetic: { spacing: 10, length: 200, trend: 90, seed: 7 }
//	shoreline:
//	  offset: 3
//	  shadows: [4, 5]
//	params: { max_retreat_rate: 5, critical_width: 5 }
//	law: humped
//	steps: 20
//	time_step: 36.5
//	assertions:
//	  - type: spacing_band
//	  - type: no_intersections
//	  - type: volume_conserved
//
// The cliff is either synthetic or an explicit list of points. The
// shoreline is either offset from the initial cliff or an explicit list of
// points. Params left out take the cliff package defaults.
//
// # Assertion Types
//
//   - spacing_band: controlled segments lie within [min, max] times the
//     desired spacing (default 0.4 and 1.5)
//   - no_intersections: no step reported a self-intersection
//   - node_count: final node count equals count, or lies in [min, max]
//   - node_displacement: node `node` moved expect ± tolerance, or a
//     distance in [min, max], between the first and last snapshot
//   - volume_conserved: eroded volume equals what the shoreline received
//     plus what it lost offshore
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory run log with a fixed run
// ID and a logical clock starting at zero, so the step trace and the final
// snapshot are identical across runs and suitable for golden comparison.
package harness
