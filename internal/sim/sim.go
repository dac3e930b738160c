// Package sim drives a cliffline through model time.
//
// A Simulation owns one cliffline and one shoreline. Run advances model
// time in years by a step given in days, calls the retreat integrator once
// per step, and prints snapshots at a fixed interval and at the end time.
// Snapshots go to text files and, when a run log is attached, to SQLite.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/cove/internal/cliff"
	"github.com/roach88/cove/internal/runlog"
)

// timeEpsilon absorbs the rounding of summed dt/365 increments so that a
// run of whole steps ends exactly at EndTime.
const timeEpsilon = 1e-9

// ErrInvalidSettings is returned for an unusable time configuration.
var ErrInvalidSettings = errors.New("invalid simulation settings")

// Settings controls the driver loop.
type Settings struct {
	Name string
	// StartTime and EndTime are model years.
	StartTime float64
	EndTime   float64
	// TimeStep is the integrator step in days.
	TimeStep float64
	// PrintInterval is the model time between prints, in years.
	PrintInterval float64
	Law           cliff.RetreatLaw

	// CliffFile and ShorelineFile receive snapshots. Empty skips the file.
	CliffFile     string
	ShorelineFile string

	// Config is stored verbatim with the run in the run log.
	Config string
}

func (s Settings) validate() error {
	switch {
	case s.TimeStep <= 0:
		return fmt.Errorf("%w: time step %v must be positive", ErrInvalidSettings, s.TimeStep)
	case s.PrintInterval <= 0:
		return fmt.Errorf("%w: print interval %v must be positive", ErrInvalidSettings, s.PrintInterval)
	case s.EndTime <= s.StartTime:
		return fmt.Errorf("%w: end time %v must be after start time %v", ErrInvalidSettings, s.EndTime, s.StartTime)
	}
	return nil
}

// Shore is the shoreline a simulation erodes against and prints.
type Shore interface {
	cliff.Shoreline
	WriteSnapshot(path string, t float64) error
}

// Simulation couples a cliffline to a shoreline over a run.
//
// Thread-safety: a Simulation is single-writer. Run must not be called
// concurrently.
type Simulation struct {
	settings Settings
	cliff    *cliff.Cliffline
	shore    Shore
	clock    *Clock
	ids      RunIDGenerator
	log      *runlog.Log
	logger   *slog.Logger
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithRunLog records steps and prints to l.
func WithRunLog(l *runlog.Log) Option {
	return func(s *Simulation) { s.log = l }
}

// WithRunIDGenerator sets the run ID source. Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(s *Simulation) {
		if g != nil {
			s.ids = g
		}
	}
}

// WithClock sets the logical clock. Default: a clock at 0.
func WithClock(c *Clock) Option {
	return func(s *Simulation) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

// New assembles a simulation from a ready cliffline and shoreline.
func New(settings Settings, c *cliff.Cliffline, shore Shore, opts ...Option) (*Simulation, error) {
	if err := settings.validate(); err != nil {
		return nil, err
	}
	if c == nil || shore == nil {
		return nil, fmt.Errorf("%w: cliffline and shoreline are required", ErrInvalidSettings)
	}
	s := &Simulation{
		settings: settings,
		cliff:    c,
		shore:    shore,
		clock:    NewClock(),
		ids:      UUIDv7Generator{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Cliffline returns the simulated cliffline.
func (s *Simulation) Cliffline() *cliff.Cliffline { return s.cliff }

// Summary reports a finished or interrupted run.
type Summary struct {
	RunID         string
	Steps         int
	Prints        int
	FinalTime     float64
	Nodes         int
	ErodedVolume  float64
	Intersections int
	Inserted      int
	Removed       int
}

// Run steps the cliffline from StartTime to EndTime.
//
// The initial state is printed at StartTime, then every PrintInterval,
// and finally at EndTime unless a print already landed there. The context
// is checked between steps; on cancellation the summary so far is returned
// with the context's error.
func (s *Simulation) Run(ctx context.Context) (Summary, error) {
	ctx, span := otel.Tracer("cove/sim").Start(ctx, "sim.Run",
		trace.WithAttributes(
			attribute.String("name", s.settings.Name),
			attribute.Float64("start_time", s.settings.StartTime),
			attribute.Float64("end_time", s.settings.EndTime),
			attribute.Float64("time_step_days", s.settings.TimeStep),
		),
	)
	defer span.End()

	sum, err := s.run(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(
		attribute.String("run_id", sum.RunID),
		attribute.Int("steps", sum.Steps),
		attribute.Int("nodes", sum.Nodes),
	)
	return sum, err
}

func (s *Simulation) run(ctx context.Context) (Summary, error) {
	set := s.settings
	sum := Summary{RunID: s.ids.Generate(), FinalTime: set.StartTime}

	if s.log != nil {
		err := s.log.CreateRun(ctx, runlog.Run{
			ID:         sum.RunID,
			Name:       set.Name,
			Boundary:   int(s.cliff.Boundary()),
			Config:     set.Config,
			CreatedSeq: s.clock.Next(),
		})
		if err != nil {
			return sum, err
		}
	}
	s.logger.Info("run started",
		"run_id", sum.RunID, "name", set.Name, "nodes", s.cliff.Len(),
		"start", set.StartTime, "end", set.EndTime, "dt_days", set.TimeStep, "law", set.Law.String())

	if err := s.print(ctx, &sum, set.StartTime); err != nil {
		return sum, err
	}

	t := set.StartTime
	printTime := set.StartTime + set.PrintInterval
	lastPrint := set.StartTime
	for t < set.EndTime-timeEpsilon {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("run interrupted", "run_id", sum.RunID, "time", t, "steps", sum.Steps)
			return sum, err
		}

		res, err := s.cliff.Step(ctx, set.TimeStep, s.shore, set.Law)
		if err != nil {
			return sum, fmt.Errorf("step %d at time %v: %w", sum.Steps+1, t, err)
		}
		t += set.TimeStep / 365
		sum.Steps++
		sum.FinalTime = t
		sum.Nodes = res.Nodes
		sum.ErodedVolume += res.Volume
		sum.Intersections += len(res.Intersections)
		sum.Inserted += res.Inserted
		sum.Removed += res.Removed

		if s.log != nil {
			err := s.log.WriteStep(ctx, runlog.Step{
				RunID:         sum.RunID,
				Seq:           s.clock.Next(),
				Time:          t,
				Nodes:         res.Nodes,
				Retreated:     res.Retreated,
				Volume:        res.Volume,
				Intersections: len(res.Intersections),
				Inserted:      res.Inserted,
				Removed:       res.Removed,
			})
			if err != nil {
				return sum, err
			}
		}

		if t >= printTime-timeEpsilon {
			if err := s.print(ctx, &sum, printTime); err != nil {
				return sum, err
			}
			lastPrint = printTime
			printTime += set.PrintInterval
		}
	}

	if lastPrint < set.EndTime-timeEpsilon {
		if err := s.print(ctx, &sum, set.EndTime); err != nil {
			return sum, err
		}
	}
	sum.FinalTime = set.EndTime
	sum.Nodes = s.cliff.Len()

	s.logger.Info("run complete",
		"run_id", sum.RunID, "steps", sum.Steps, "prints", sum.Prints,
		"nodes", sum.Nodes, "eroded_volume", sum.ErodedVolume, "intersections", sum.Intersections)
	return sum, nil
}

// print writes the cliffline and shoreline at time t.
func (s *Simulation) print(ctx context.Context, sum *Summary, t float64) error {
	set := s.settings
	if set.CliffFile != "" {
		if err := s.cliff.WriteSnapshot(set.CliffFile, t); err != nil {
			return err
		}
	}
	if set.ShorelineFile != "" {
		if err := s.shore.WriteSnapshot(set.ShorelineFile, t); err != nil {
			return err
		}
	}
	if s.log != nil {
		nodes := s.cliff.Nodes()
		pts := make([]runlog.Point, len(nodes))
		for i, nd := range nodes {
			pts[i] = runlog.Point{X: nd.Position.X, Y: nd.Position.Y, Fixed: nd.Fixed}
		}
		err := s.log.WriteSnapshot(ctx, runlog.Snapshot{
			RunID:  sum.RunID,
			Seq:    s.clock.Next(),
			Time:   t,
			Points: pts,
		})
		if err != nil {
			return err
		}
	}
	sum.Prints++
	s.logger.Info("snapshot printed", "run_id", sum.RunID, "time", t, "nodes", s.cliff.Len())
	return nil
}
