// Package runlog provides SQLite-backed storage for simulation runs.
//
// The log is append-only and holds:
//   - Runs: one row per simulation, with its name, boundary and config
//   - Snapshots: node positions at every print time
//   - Steps: per-step integrator statistics
//
// # Ordering
//
// All ordering uses seq INTEGER, the driver's logical step counter, never
// wall-clock timestamps. Queries order by seq then node so that repeated
// runs read back identically.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Snapshots and steps must belong to a run
package runlog
