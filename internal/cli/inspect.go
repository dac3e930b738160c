package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/cove/internal/cliff"
	"github.com/roach88/cove/internal/snapshot"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Time  float64
	Times bool // list the frame times instead
}

// NodeRow is one line of the morphology table.
type NodeRow struct {
	Index       int     `json:"index"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Fixed       bool    `json:"fixed"`
	Distance    float64 `json:"distance"`
	Orientation float64 `json:"orientation"`
	Flux        float64 `json:"flux_orientation"`
	CellWidth   float64 `json:"cell_width"`
	E1          float64 `json:"e1"`
	E2          float64 `json:"e2"`
}

// InspectResult holds the morphology of one snapshot frame.
type InspectResult struct {
	Path          string    `json:"path"`
	Time          float64   `json:"time"`
	Boundary      string    `json:"boundary"`
	MeanSpacing   float64   `json:"mean_spacing"`
	Intersections int       `json:"intersections"`
	Nodes         []NodeRow `json:"nodes"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <snapshot>",
		Short: "Show the morphology of a snapshot frame",
		Long: `Load one frame of a cliffline snapshot file and print its morphology:
position, orientation, cell width and facet angles of every node.

Examples:
  cove inspect cliff.xy
  cove inspect cliff.xy --time 2.5 --format json
  cove inspect cliff.xy --times`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.Time, "time", 0, "frame time to load (years)")
	cmd.Flags().BoolVar(&opts.Times, "times", false, "list the frame times in the file")

	return cmd
}

func runInspect(opts *InspectOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.Times {
		times, err := snapshot.Times(path)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeNotFound, "failed to read snapshot", err)
		}
		if f.JSON() {
			return f.Success(map[string]any{"path": path, "times": times})
		}
		for _, t := range times {
			fmt.Fprintln(f.Writer, t)
		}
		return nil
	}

	c, err := cliff.FromSnapshot(path, opts.Time, cliff.WithLogger(newLogger(opts.RootOptions, io.Discard)))
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "failed to load snapshot", err)
	}

	res := InspectResult{
		Path:          path,
		Time:          opts.Time,
		Boundary:      c.Boundary().String(),
		MeanSpacing:   c.MeanNodeSpacing(),
		Intersections: len(c.DetectIntersections()),
	}
	for i, nd := range c.Nodes() {
		res.Nodes = append(res.Nodes, NodeRow{
			Index:       i,
			X:           nd.Position.X,
			Y:           nd.Position.Y,
			Fixed:       nd.Fixed,
			Distance:    nd.Distance,
			Orientation: nd.Orientation,
			Flux:        nd.FluxOrientation,
			CellWidth:   nd.CellWidth,
			E1:          nd.E1,
			E2:          nd.E2,
		})
	}

	if f.JSON() {
		return f.Success(res)
	}
	writeInspectText(f, res)
	return nil
}

func writeInspectText(f *OutputFormatter, res InspectResult) {
	p := f.Printer()
	w := f.Writer
	p.Fprintf(w, "%s at t=%v: %d nodes, %s boundary, mean spacing %.3f m, %d self-intersection(s)\n\n",
		res.Path, res.Time, len(res.Nodes), res.Boundary, res.MeanSpacing, res.Intersections)
	fmt.Fprintf(w, "%5s %12s %12s %5s %10s %8s %8s %8s %8s %8s\n",
		"node", "x", "y", "fixed", "distance", "orient", "flux", "cell", "e1", "e2")
	for _, r := range res.Nodes {
		fixed := ""
		if r.Fixed {
			fixed = "yes"
		}
		fmt.Fprintf(w, "%5d %12.3f %12.3f %5s %10.3f %8.2f %8.2f %8.3f %8.2f %8.2f\n",
			r.Index, r.X, r.Y, fixed, r.Distance, r.Orientation, r.Flux, r.CellWidth, r.E1, r.E2)
	}
}
