package runlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Run identifies one simulation.
type Run struct {
	ID         string
	Name       string
	Boundary   int
	Config     string // JSON encoding of the run configuration
	CreatedSeq int64
}

// Point is one stored cliff node.
type Point struct {
	X     float64
	Y     float64
	Fixed bool
}

// Snapshot is a cliffline printed at a model time.
type Snapshot struct {
	RunID  string
	Seq    int64
	Time   float64
	Points []Point
}

// Step records the statistics of one integrator step.
type Step struct {
	RunID         string
	Seq           int64
	Time          float64
	Nodes         int
	Retreated     int
	Volume        float64
	Intersections int
	Inserted      int
	Removed       int
}

// CreateRun inserts a run row. Run IDs are unique.
func (l *Log) CreateRun(ctx context.Context, r Run) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO runs (id, name, boundary, config, created_seq)
		VALUES (?, ?, ?, ?, ?)
	`, r.ID, r.Name, r.Boundary, r.Config, r.CreatedSeq)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// ReadRun returns the run with the given ID.
func (l *Log) ReadRun(ctx context.Context, id string) (Run, error) {
	var r Run
	err := l.db.QueryRowContext(ctx, `
		SELECT id, name, boundary, config, created_seq
		FROM runs
		WHERE id = ?
	`, id).Scan(&r.ID, &r.Name, &r.Boundary, &r.Config, &r.CreatedSeq)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	return r, nil
}

// ListRuns returns every run ordered by creation seq then ID.
// Returns an empty slice (not nil) when there are none.
func (l *Log) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, name, boundary, config, created_seq
		FROM runs
		ORDER BY created_seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Name, &r.Boundary, &r.Config, &r.CreatedSeq); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// WriteSnapshot stores every node of s in one transaction.
func (l *Log) WriteSnapshot(ctx context.Context, s Snapshot) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshots (run_id, seq, time, node, x, y, fixed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	defer stmt.Close()

	for i, p := range s.Points {
		if _, err := stmt.ExecContext(ctx, s.RunID, s.Seq, s.Time, i, p.X, p.Y, p.Fixed); err != nil {
			return fmt.Errorf("write snapshot node %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot returns the first snapshot of a run printed at exactly time t.
func (l *Log) ReadSnapshot(ctx context.Context, runID string, t float64) (Snapshot, error) {
	var seq int64
	err := l.db.QueryRowContext(ctx, `
		SELECT seq FROM snapshots
		WHERE run_id = ? AND time = ?
		ORDER BY seq ASC
		LIMIT 1
	`, runID, t).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("%w: run %s at time %v", ErrSnapshotNotFound, runID, t)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT x, y, fixed FROM snapshots
		WHERE run_id = ? AND seq = ?
		ORDER BY node ASC
	`, runID, seq)
	if err != nil {
		return Snapshot{}, fmt.Errorf("query snapshot nodes: %w", err)
	}
	defer rows.Close()

	snap := Snapshot{RunID: runID, Seq: seq, Time: t, Points: []Point{}}
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.X, &p.Y, &p.Fixed); err != nil {
			return Snapshot{}, fmt.Errorf("scan snapshot node: %w", err)
		}
		snap.Points = append(snap.Points, p)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("iterate snapshot nodes: %w", err)
	}
	return snap, nil
}

// SnapshotTimes lists the print times of a run in seq order.
func (l *Log) SnapshotTimes(ctx context.Context, runID string) ([]float64, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT time FROM snapshots
		WHERE run_id = ?
		GROUP BY seq
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query snapshot times: %w", err)
	}
	defer rows.Close()

	times := []float64{}
	for rows.Next() {
		var t float64
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan snapshot time: %w", err)
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot times: %w", err)
	}
	return times, nil
}

// WriteStep records one step's statistics.
func (l *Log) WriteStep(ctx context.Context, s Step) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO steps (run_id, seq, time, nodes, retreated, volume, intersections, inserted, removed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.RunID, s.Seq, s.Time, s.Nodes, s.Retreated, s.Volume, s.Intersections, s.Inserted, s.Removed)
	if err != nil {
		return fmt.Errorf("write step: %w", err)
	}
	return nil
}

// ReadSteps returns every step of a run in seq order.
func (l *Log) ReadSteps(ctx context.Context, runID string) ([]Step, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT run_id, seq, time, nodes, retreated, volume, intersections, inserted, removed
		FROM steps
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	steps := []Step{}
	for rows.Next() {
		var s Step
		if err := rows.Scan(&s.RunID, &s.Seq, &s.Time, &s.Nodes, &s.Retreated, &s.Volume,
			&s.Intersections, &s.Inserted, &s.Removed); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		steps = append(steps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}
