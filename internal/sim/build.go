package sim

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/roach88/cove/internal/cliff"
	"github.com/roach88/cove/internal/config"
	"github.com/roach88/cove/internal/shoreline"
)

// FromConfig builds the cliffline, shoreline and settings a configuration
// describes. cfg is validated first; a Config built without config.Parse
// must still carry its defaults.
func FromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	law, err := cliff.ParseRetreatLaw(cfg.Cliff.RetreatLaw)
	if err != nil {
		return nil, err
	}

	c, err := buildCliffline(cfg, logger)
	if err != nil {
		return nil, err
	}
	shore, err := buildShoreline(cfg, c, logger)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	settings := Settings{
		Name:          cfg.Run.Name,
		StartTime:     cfg.Run.StartTime,
		EndTime:       cfg.Run.EndTime,
		TimeStep:      cfg.Run.TimeStep,
		PrintInterval: cfg.Run.PrintInterval,
		Law:           law,
		CliffFile:     cfg.Output.CliffFile,
		ShorelineFile: cfg.Output.ShorelineFile,
		Config:        string(encoded),
	}
	opts = append([]Option{WithLogger(logger)}, opts...)
	return New(settings, c, shore, opts...)
}

func buildCliffline(cfg *config.Config, logger *slog.Logger) (*cliff.Cliffline, error) {
	cc := cfg.Cliff
	policy, err := cliff.ParseIntersectionPolicy(cc.IntersectionPolicy)
	if err != nil {
		return nil, err
	}
	lost := config.DefaultLostFraction
	if cc.LostFraction != nil {
		lost = *cc.LostFraction
	}
	opts := []cliff.Option{
		cliff.WithLogger(logger),
		cliff.WithDesiredSpacing(cc.DesiredSpacing),
		cliff.WithIntersectionPolicy(policy),
		cliff.WithSearchWindow(cc.SearchWindow),
		cliff.WithParams(cliff.Params{
			MaxRetreatRate: cc.MaxRetreatRate,
			CliffHeight:    cc.CliffHeight,
			CriticalWidth:  cc.CriticalWidth,
			WidthScale:     cc.WidthScale,
			LostFraction:   lost,
		}),
	}

	var c *cliff.Cliffline
	if syn := cc.Synthetic; syn != nil {
		b, err := cliff.ParseBoundaryName(syn.Boundary)
		if err != nil {
			return nil, err
		}
		c, err = cliff.NewStraight(cliff.Straight{
			Spacing:  syn.Spacing,
			Length:   syn.Length,
			Trend:    syn.Trend,
			Boundary: b,
			Seed:     cfg.Run.Seed,
		}, opts...)
		if err != nil {
			return nil, err
		}
	} else {
		c, err = cliff.FromSnapshot(cc.File, cc.StartTime, opts...)
		if err != nil {
			return nil, err
		}
	}

	if cc.TypeFile != "" {
		if err := c.ApplyCliffType(cc.TypeFile); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func buildShoreline(cfg *config.Config, c *cliff.Cliffline, logger *slog.Logger) (*shoreline.Shoreline, error) {
	sc := cfg.Shoreline
	lost := config.DefaultLostFraction
	if cfg.Cliff.LostFraction != nil {
		lost = *cfg.Cliff.LostFraction
	}
	opts := []shoreline.Option{
		shoreline.WithLostFraction(lost),
		shoreline.WithBoundary(int(c.Boundary())),
		shoreline.WithLogger(logger),
	}

	var (
		shore *shoreline.Shoreline
		err   error
	)
	if sc.File != "" {
		shore, err = shoreline.FromSnapshot(sc.File, sc.StartTime, opts...)
	} else {
		shore, err = shoreline.OffsetFrom(c.Points(), *sc.Offset, opts...)
	}
	if err != nil {
		return nil, err
	}

	for _, i := range sc.Shadows {
		if err := shore.SetShadow(i, true); err != nil {
			return nil, err
		}
	}
	return shore, nil
}
