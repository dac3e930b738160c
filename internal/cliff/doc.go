// Package cliff evolves a cliff-top vector in plan view.
//
// A Cliffline is an ordered sequence of nodes. Each step measures the beach
// width in front of every node against a Shoreline collaborator, retreats
// the node landward according to a RetreatLaw, credits the eroded volume
// back to the shoreline, and then re-meshes so that node spacing stays
// close to a desired value.
//
// Coordinates are metres. Angles are azimuths in degrees clockwise from
// north. The sea lies on the left when walking from node 0 to node N-1.
//
// Faults are returned as *Error with an ErrorCode. Self-intersections are
// reported but never repaired; IntersectionHalt turns them into an error.
package cliff
