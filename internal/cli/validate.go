package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/roach88/cove/internal/config"
	"github.com/roach88/cove/internal/sim"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
	// Nodes is the initial node count when the cliffline could be built.
	Nodes int `json:"nodes,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.yaml>",
		Short: "Validate a run configuration without running it",
		Long: `Check a run configuration against its schema, then build the initial
cliffline and shoreline it describes without stepping or writing anything.

Exit codes:
  0 - Configuration is valid
  1 - Configuration is invalid
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "config file not found", err)
	}
	if err != nil {
		return invalid(f, err)
	}
	f.VerboseLog("Schema check passed for %s", path)

	s, err := sim.FromConfig(cfg, newLogger(opts, io.Discard))
	if err != nil {
		return invalid(f, err)
	}

	res := ValidationResult{Valid: true, Nodes: s.Cliffline().Len()}
	if f.JSON() {
		return f.Success(res)
	}
	fmt.Fprintf(f.Writer, "✓ %s is valid (%d initial nodes)\n", path, res.Nodes)
	return nil
}

func invalid(f *OutputFormatter, err error) error {
	res := ValidationResult{Valid: false, Errors: []string{err.Error()}}
	if f.JSON() {
		if encErr := f.Success(res); encErr != nil {
			return encErr
		}
	} else {
		fmt.Fprintf(f.Writer, "✗ invalid configuration\n  %v\n", err)
	}
	return WrapExitError(ExitFailure, "configuration is invalid", err)
}
