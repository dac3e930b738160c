package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cove/internal/runlog"
	"github.com/roach88/cove/internal/snapshot"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database string
	RunID    string
	Time     float64
	Out      string
}

// ExportResult describes one exported frame, or the runs in a log when
// no run was named.
type ExportResult struct {
	RunID string       `json:"run_id,omitempty"`
	Time  float64      `json:"time"`
	Nodes int          `json:"nodes,omitempty"`
	Path  string       `json:"path,omitempty"`
	Runs  []runSummary `json:"runs,omitempty"`
}

type runSummary struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Times []float64 `json:"times"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a recorded snapshot back out as a snapshot file",
		Long: `Read one printed snapshot of a run from a run log and append it to a
snapshot file, so it can seed a new run or be inspected.

Without --run, lists the runs in the log and their print times.

Examples:
  cove export --db runs.db
  cove export --db runs.db --run 0190a6c2-... --time 10 --out restart.xy`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to export from")
	cmd.Flags().Float64Var(&opts.Time, "time", 0, "print time to export (years)")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "snapshot file to append to (required with --run)")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	log, err := runlog.Open(opts.Database)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "failed to open database", err)
	}
	defer log.Close()

	if opts.RunID == "" {
		return listRuns(ctx, f, log)
	}
	if opts.Out == "" {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "--out is required with --run", nil)
	}

	run, err := log.ReadRun(ctx, opts.RunID)
	if errors.Is(err, runlog.ErrRunNotFound) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "run not found", err)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to read run", err)
	}
	snap, err := log.ReadSnapshot(ctx, run.ID, opts.Time)
	if errors.Is(err, runlog.ErrSnapshotNotFound) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "no snapshot at that time", err)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to read snapshot", err)
	}

	frame := snapshot.Frame{
		StartBoundary: run.Boundary,
		EndBoundary:   run.Boundary,
		Time:          snap.Time,
		X:             make([]float64, len(snap.Points)),
		Y:             make([]float64, len(snap.Points)),
	}
	for i, p := range snap.Points {
		frame.X[i], frame.Y[i] = p.X, p.Y
	}
	if err := snapshot.Write(opts.Out, frame); err != nil {
		return f.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to write snapshot", err)
	}

	res := ExportResult{RunID: run.ID, Time: snap.Time, Nodes: len(snap.Points), Path: opts.Out}
	if f.JSON() {
		return f.Success(res)
	}
	fmt.Fprintf(f.Writer, "Exported %d nodes of run %s at t=%v to %s\n", res.Nodes, res.RunID, res.Time, res.Path)
	return nil
}

func listRuns(ctx context.Context, f *OutputFormatter, log *runlog.Log) error {
	runs, err := log.ListRuns(ctx)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to list runs", err)
	}

	res := ExportResult{Runs: []runSummary{}}
	for _, r := range runs {
		times, err := log.SnapshotTimes(ctx, r.ID)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to list snapshot times", err)
		}
		res.Runs = append(res.Runs, runSummary{ID: r.ID, Name: r.Name, Times: times})
	}

	if f.JSON() {
		return f.Success(res)
	}
	if len(res.Runs) == 0 {
		fmt.Fprintln(f.Writer, "No runs recorded.")
		return nil
	}
	for _, r := range res.Runs {
		fmt.Fprintf(f.Writer, "%s  %s  prints at %v\n", r.ID, r.Name, r.Times)
	}
	return nil
}
