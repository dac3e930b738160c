// Package config loads and validates cove run configuration files.
//
// A configuration is a YAML document with four sections: run, cliff,
// shoreline and output. Decoding is strict (unknown keys are errors),
// defaults are filled in Go, and the result is checked against an embedded
// CUE schema before use.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default values applied to omitted fields.
const (
	DefaultTimeStep      = 0.2        // days
	DefaultPrintInterval = 36.5 / 365 // years
	DefaultRetreatLaw    = "humped"
	DefaultLostFraction  = 0.5
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is a complete run description.
type Config struct {
	Run       Run       `yaml:"run" json:"run"`
	Cliff     Cliff     `yaml:"cliff" json:"cliff"`
	Shoreline Shoreline `yaml:"shoreline" json:"shoreline"`
	Output    Output    `yaml:"output" json:"output"`
}

// Run controls the driver loop. Times are years; the step is days.
type Run struct {
	Name          string  `yaml:"name" json:"name"`
	Seed          uint64  `yaml:"seed" json:"seed"`
	StartTime     float64 `yaml:"start_time" json:"start_time"`
	EndTime       float64 `yaml:"end_time" json:"end_time"`
	TimeStep      float64 `yaml:"time_step" json:"time_step"`
	PrintInterval float64 `yaml:"print_interval" json:"print_interval"`
}

// Cliff describes where the cliffline comes from and how it retreats.
// Exactly one of File and Synthetic is set.
type Cliff struct {
	File      string     `yaml:"file,omitempty" json:"file,omitempty"`
	StartTime float64    `yaml:"start_time" json:"start_time"`
	TypeFile  string     `yaml:"type_file,omitempty" json:"type_file,omitempty"`
	Synthetic *Synthetic `yaml:"synthetic,omitempty" json:"synthetic,omitempty"`

	DesiredSpacing     float64  `yaml:"desired_spacing,omitempty" json:"desired_spacing,omitempty"`
	RetreatLaw         string   `yaml:"retreat_law" json:"retreat_law"`
	MaxRetreatRate     float64  `yaml:"max_retreat_rate" json:"max_retreat_rate"`
	CliffHeight        float64  `yaml:"cliff_height" json:"cliff_height"`
	CriticalWidth      float64  `yaml:"critical_width" json:"critical_width"`
	WidthScale         float64  `yaml:"width_scale,omitempty" json:"width_scale,omitempty"`
	LostFraction       *float64 `yaml:"lost_fraction,omitempty" json:"lost_fraction,omitempty"`
	IntersectionPolicy string   `yaml:"intersection_policy,omitempty" json:"intersection_policy,omitempty"`
	SearchWindow       int      `yaml:"search_window,omitempty" json:"search_window,omitempty"`
}

// Synthetic describes a generated straight cliffline.
type Synthetic struct {
	Spacing  float64 `yaml:"spacing" json:"spacing"`
	Length   float64 `yaml:"length" json:"length"`
	Trend    float64 `yaml:"trend" json:"trend"`
	Boundary string  `yaml:"boundary" json:"boundary"`
}

// Shoreline describes the static shoreline. Exactly one of File and
// Offset is set; Offset places the shoreline that many metres seaward of
// the initial cliffline.
type Shoreline struct {
	File      string   `yaml:"file,omitempty" json:"file,omitempty"`
	StartTime float64  `yaml:"start_time" json:"start_time"`
	Offset    *float64 `yaml:"offset,omitempty" json:"offset,omitempty"`
	Shadows   []int    `yaml:"shadows,omitempty" json:"shadows,omitempty"`
}

// Output names the files a run writes. Empty entries are skipped.
type Output struct {
	CliffFile     string `yaml:"cliff_file,omitempty" json:"cliff_file,omitempty"`
	ShorelineFile string `yaml:"shoreline_file,omitempty" json:"shoreline_file,omitempty"`
	Database      string `yaml:"database,omitempty" json:"database,omitempty"`
}

// Load reads, defaults and validates a configuration file. Relative input
// and output paths are resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes, defaults and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills omitted optional fields.
func (c *Config) ApplyDefaults() {
	if c.Run.Name == "" {
		c.Run.Name = "cove"
	}
	if c.Run.TimeStep == 0 {
		c.Run.TimeStep = DefaultTimeStep
	}
	if c.Run.PrintInterval == 0 {
		c.Run.PrintInterval = DefaultPrintInterval
	}
	if c.Cliff.RetreatLaw == "" {
		c.Cliff.RetreatLaw = DefaultRetreatLaw
	}
	if c.Cliff.WidthScale == 0 {
		c.Cliff.WidthScale = c.Cliff.CriticalWidth
	}
	if c.Cliff.LostFraction == nil {
		f := DefaultLostFraction
		c.Cliff.LostFraction = &f
	}
	if c.Cliff.IntersectionPolicy == "" {
		c.Cliff.IntersectionPolicy = "report"
	}
}

// Validate checks the configuration against the schema and the rules the
// schema cannot express.
func (c *Config) Validate() error {
	if err := validateSchema(c); err != nil {
		return err
	}
	switch {
	case c.Cliff.File == "" && c.Cliff.Synthetic == nil:
		return fmt.Errorf("%w: cliff: one of file or synthetic is required", ErrInvalid)
	case c.Cliff.File != "" && c.Cliff.Synthetic != nil:
		return fmt.Errorf("%w: cliff: file and synthetic are mutually exclusive", ErrInvalid)
	case c.Shoreline.File == "" && c.Shoreline.Offset == nil:
		return fmt.Errorf("%w: shoreline: one of file or offset is required", ErrInvalid)
	case c.Shoreline.File != "" && c.Shoreline.Offset != nil:
		return fmt.Errorf("%w: shoreline: file and offset are mutually exclusive", ErrInvalid)
	case c.Run.EndTime <= c.Run.StartTime:
		return fmt.Errorf("%w: run: end_time %v must be after start_time %v", ErrInvalid, c.Run.EndTime, c.Run.StartTime)
	case c.Cliff.Synthetic != nil && c.Cliff.Synthetic.Length < 2*c.Cliff.Synthetic.Spacing:
		return fmt.Errorf("%w: cliff.synthetic: length must be at least twice the spacing", ErrInvalid)
	}
	return nil
}

func (c *Config) resolvePaths(base string) {
	for _, p := range []*string{
		&c.Cliff.File, &c.Cliff.TypeFile, &c.Shoreline.File,
		&c.Output.CliffFile, &c.Output.ShorelineFile, &c.Output.Database,
	} {
		if *p != "" && *p != ":memory:" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}
