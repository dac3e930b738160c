package harness

import (
	"github.com/roach88/cove/internal/runlog"
)

// StepEvent is one integrator step as recorded in the run log.
type StepEvent struct {
	Seq           int64   `json:"seq"`
	Time          float64 `json:"time"`
	Nodes         int     `json:"nodes"`
	Retreated     int     `json:"retreated"`
	Volume        float64 `json:"volume"`
	Intersections int     `json:"intersections"`
	Inserted      int     `json:"inserted"`
	Removed       int     `json:"removed"`
}

func stepEvent(s runlog.Step) StepEvent {
	return StepEvent{
		Seq:           s.Seq,
		Time:          s.Time,
		Nodes:         s.Nodes,
		Retreated:     s.Retreated,
		Volume:        s.Volume,
		Intersections: s.Intersections,
		Inserted:      s.Inserted,
		Removed:       s.Removed,
	}
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when the run completed and every assertion held.
	Pass bool `json:"pass"`

	// Trace lists the steps in seq order.
	Trace []StepEvent `json:"trace"`

	// Errors contains assertion failures and run errors.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	RunID     string  `json:"run_id"`
	Boundary  int     `json:"boundary"`
	FinalTime float64 `json:"final_time"`

	// Supplied and Lost are the shoreline's sediment totals (m³).
	Supplied float64 `json:"supplied"`
	Lost     float64 `json:"lost"`

	// Initial and Final are the first and last printed cliff snapshots.
	Initial runlog.Snapshot `json:"-"`
	Final   runlog.Snapshot `json:"-"`

	// DesiredSpacing is the cliffline's target spacing.
	DesiredSpacing float64 `json:"desired_spacing"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []StepEvent{},
		Errors: []string{},
	}
}

// AddError adds an error message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// TotalVolume sums the eroded volume over the trace.
func (r *Result) TotalVolume() float64 {
	var v float64
	for _, e := range r.Trace {
		v += e.Volume
	}
	return v
}

// TotalIntersections sums the reported self-intersections over the trace.
func (r *Result) TotalIntersections() int {
	var n int
	for _, e := range r.Trace {
		n += e.Intersections
	}
	return n
}
