package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cove/internal/cliff"
)

// Scenario defines a short simulation and the checks run on its outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	Cliff     CliffSpec     `yaml:"cliff"`
	Shoreline ShorelineSpec `yaml:"shoreline"`
	Params    ParamSpec     `yaml:"params,omitempty"`

	// Law is "exponential" or "humped". Default: humped.
	Law string `yaml:"law,omitempty"`

	// Steps is the number of integrator steps to run.
	Steps int `yaml:"steps"`

	// TimeStep is the step length in days.
	TimeStep float64 `yaml:"time_step"`

	// IntersectionPolicy is "report" or "halt". Default: report.
	IntersectionPolicy string `yaml:"intersection_policy,omitempty"`

	SearchWindow int `yaml:"search_window,omitempty"`

	Assertions []Assertion `yaml:"assertions"`

	// RunID is an optional fixed run ID. Default: "test-run-default".
	RunID string `yaml:"run_id,omitempty"`
}

// CliffSpec describes the initial cliffline. Exactly one of Synthetic and
// Points is set.
type CliffSpec struct {
	// Boundary is "periodic", "fixed" or "prescribed".
	Boundary  string         `yaml:"boundary"`
	Synthetic *SyntheticSpec `yaml:"synthetic,omitempty"`
	// Points are [x, y] pairs.
	Points [][]float64 `yaml:"points,omitempty"`
	// DesiredSpacing overrides the spacing observed at initialisation.
	DesiredSpacing float64 `yaml:"desired_spacing,omitempty"`
}

// SyntheticSpec lays out a noisy straight cliff.
type SyntheticSpec struct {
	Spacing float64 `yaml:"spacing"`
	Length  float64 `yaml:"length"`
	Trend   float64 `yaml:"trend"`
	Seed    uint64  `yaml:"seed"`
}

// ShorelineSpec describes the shoreline. Exactly one of Offset and Points
// is set.
type ShorelineSpec struct {
	// Offset builds the shoreline this far seaward of the initial cliff.
	Offset *float64 `yaml:"offset,omitempty"`
	// Points are [x, y] pairs.
	Points [][]float64 `yaml:"points,omitempty"`
	// Shadows lists sheltered shoreline node indices.
	Shadows []int `yaml:"shadows,omitempty"`
}

// ParamSpec overrides individual retreat parameters.
type ParamSpec struct {
	MaxRetreatRate *float64 `yaml:"max_retreat_rate,omitempty"`
	CliffHeight    *float64 `yaml:"cliff_height,omitempty"`
	CriticalWidth  *float64 `yaml:"critical_width,omitempty"`
	WidthScale     *float64 `yaml:"width_scale,omitempty"`
	LostFraction   *float64 `yaml:"lost_fraction,omitempty"`
}

// resolve applies the overrides to the default parameters.
func (p ParamSpec) resolve() cliff.Params {
	out := cliff.DefaultParams()
	for _, o := range []struct {
		src *float64
		dst *float64
	}{
		{p.MaxRetreatRate, &out.MaxRetreatRate},
		{p.CliffHeight, &out.CliffHeight},
		{p.CriticalWidth, &out.CriticalWidth},
		{p.WidthScale, &out.WidthScale},
		{p.LostFraction, &out.LostFraction},
	} {
		if o.src != nil {
			*o.dst = *o.src
		}
	}
	return out
}

// Assertion checks one property of a finished scenario.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Min and Max bound the checked quantity (spacing_band, node_count,
	// node_displacement).
	Min *float64 `yaml:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty"`

	// Count is the exact final node count (node_count).
	Count *int `yaml:"count,omitempty"`

	// Node is the node index (node_displacement).
	Node *int `yaml:"node,omitempty"`

	// Expect is the expected value (node_displacement).
	Expect *float64 `yaml:"expect,omitempty"`

	// Tolerance is the allowed absolute error (node_displacement,
	// volume_conserved). Default: 1e-9.
	Tolerance float64 `yaml:"tolerance,omitempty"`
}

// Assertion type constants.
const (
	AssertSpacingBand      = "spacing_band"
	AssertNoIntersections  = "no_intersections"
	AssertNodeCount        = "node_count"
	AssertNodeDisplacement = "node_displacement"
	AssertVolumeConserved  = "volume_conserved"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if _, err := cliff.ParseBoundaryName(s.Cliff.Boundary); err != nil {
		return fmt.Errorf("cliff: %w", err)
	}
	switch {
	case s.Cliff.Synthetic == nil && len(s.Cliff.Points) == 0:
		return fmt.Errorf("cliff: one of synthetic or points is required")
	case s.Cliff.Synthetic != nil && len(s.Cliff.Points) > 0:
		return fmt.Errorf("cliff: synthetic and points are mutually exclusive")
	}
	if err := validatePoints("cliff.points", s.Cliff.Points); err != nil {
		return err
	}

	switch {
	case s.Shoreline.Offset == nil && len(s.Shoreline.Points) == 0:
		return fmt.Errorf("shoreline: one of offset or points is required")
	case s.Shoreline.Offset != nil && len(s.Shoreline.Points) > 0:
		return fmt.Errorf("shoreline: offset and points are mutually exclusive")
	}
	if err := validatePoints("shoreline.points", s.Shoreline.Points); err != nil {
		return err
	}

	if err := s.Params.resolve().Validate(); err != nil {
		return fmt.Errorf("params: %w", err)
	}
	if _, err := cliff.ParseRetreatLaw(s.lawName()); err != nil {
		return fmt.Errorf("law: %w", err)
	}
	if _, err := cliff.ParseIntersectionPolicy(s.IntersectionPolicy); err != nil {
		return fmt.Errorf("intersection_policy: %w", err)
	}

	if s.Steps <= 0 {
		return fmt.Errorf("steps must be positive")
	}
	if s.TimeStep <= 0 {
		return fmt.Errorf("time_step must be positive")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scenario) lawName() string {
	if s.Law == "" {
		return "humped"
	}
	return s.Law
}

func validatePoints(field string, pts [][]float64) error {
	for i, p := range pts {
		if len(p) != 2 {
			return fmt.Errorf("%s[%d]: want [x, y], got %d values", field, i, len(p))
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Tolerance < 0 {
		return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
	}

	switch a.Type {
	case AssertSpacingBand, AssertNoIntersections, AssertVolumeConserved:
	case AssertNodeCount:
		if a.Count == nil && a.Min == nil && a.Max == nil {
			return fmt.Errorf("assertions[%d]: count or min/max is required for node_count", index)
		}
	case AssertNodeDisplacement:
		if a.Node == nil || *a.Node < 0 {
			return fmt.Errorf("assertions[%d]: a non-negative node is required for node_displacement", index)
		}
		if a.Expect == nil && a.Min == nil && a.Max == nil {
			return fmt.Errorf("assertions[%d]: expect or min/max is required for node_displacement", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
