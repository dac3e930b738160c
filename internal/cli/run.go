package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/roach88/cove/internal/config"
	"github.com/roach88/cove/internal/runlog"
	"github.com/roach88/cove/internal/sim"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	MetricsAddr string

	// RunIDGenerator allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDGenerator sim.RunIDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <config.yaml>",
		Short: "Run a simulation from a configuration file",
		Long: `Run a cliffline simulation described by a YAML configuration.

Snapshots are appended to the configured cliff and shoreline files, and
when a database is configured every step and print is recorded in it.
Ctrl-C stops the run between steps.

Example:
  cove run ./runs/straight.yaml
  cove run ./runs/straight.yaml --metrics-addr :9090 --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	return cmd
}

func runSimulation(opts *RunOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	logger.Info("loading config", "path", path)
	cfg, err := config.Load(path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidConfig, "failed to load config", err)
	}

	var simOpts []sim.Option
	if opts.RunIDGenerator != nil {
		simOpts = append(simOpts, sim.WithRunIDGenerator(opts.RunIDGenerator))
	}
	if cfg.Output.Database != "" {
		logger.Info("opening run log", "path", cfg.Output.Database)
		log, err := runlog.Open(cfg.Output.Database)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeNotFound, "failed to open database", err)
		}
		defer func() {
			if closeErr := log.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		simOpts = append(simOpts, sim.WithRunLog(log))
	}

	s, err := sim.FromConfig(cfg, logger, simOpts...)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeBuildFailed, "failed to build simulation", err)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping run", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if opts.MetricsAddr != "" {
		stop := serveMetrics(opts.MetricsAddr, logger)
		defer stop()
	}

	sum, err := s.Run(ctx)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Info("run stopped before end time", "time", sum.FinalTime, "steps", sum.Steps)
	case err != nil:
		return f.Fail(ExitFailure, ErrCodeRunFailed, "simulation failed", err)
	}

	if f.JSON() {
		return f.Success(sum)
	}
	p := f.Printer()
	p.Fprintf(f.Writer, "Run %s: %d steps to t=%v, %d prints\n", sum.RunID, sum.Steps, sum.FinalTime, sum.Prints)
	p.Fprintf(f.Writer, "  nodes %d (+%d -%d), eroded %.2f m³, %d self-intersection(s)\n",
		sum.Nodes, sum.Inserted, sum.Removed, -sum.ErodedVolume, sum.Intersections)
	return nil
}

// serveMetrics exposes the default Prometheus registry on addr and returns
// a function that shuts the server down.
func serveMetrics(addr string, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("metrics server shutdown", "error", err)
		}
	}
}
