package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cove/internal/cliff"
)

const minimalScenario = `
name: minimal
description: "Minimal scenario"
cliff:
  boundary: prescribed
  points: [[0, 0], [10, 0], [20, 0], [30, 0]]
shoreline:
  offset: 2
steps: 1
time_step: 1
assertions:
  - type: no_intersections
`

func TestLoadScenario_TestdataFiles(t *testing.T) {
	for _, dir := range []string{"testdata/scenarios", "testdata/failing"} {
		paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
		require.NoError(t, err)
		require.NotEmpty(t, paths)
		for _, p := range paths {
			s, err := LoadScenario(p)
			require.NoError(t, err, p)
			assert.NotEmpty(t, s.Assertions, p)
		}
	}
}

func TestLoadScenario_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, "humped", s.lawName())
	assert.Len(t, s.Cliff.Points, 4)
	assert.Equal(t, cliff.DefaultParams(), s.Params.resolve())
}

func TestParamSpec_Overrides(t *testing.T) {
	rate, lost := 7.0, 0.0
	p := ParamSpec{MaxRetreatRate: &rate, LostFraction: &lost}.resolve()

	want := cliff.DefaultParams()
	want.MaxRetreatRate = 7
	want.LostFraction = 0
	assert.Equal(t, want, p)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    `description: d`,
			wantErr: "name is required",
		},
		{
			name:    "bad boundary",
			yaml:    "name: n\ndescription: d\ncliff: {boundary: closed}",
			wantErr: "cliff:",
		},
		{
			name:    "no cliff source",
			yaml:    "name: n\ndescription: d\ncliff: {boundary: fixed}",
			wantErr: "one of synthetic or points",
		},
		{
			name: "both cliff sources",
			yaml: `name: n
description: d
cliff:
  boundary: fixed
  points: [[0, 0], [1, 0]]
  synthetic: {spacing: 1, length: 10, trend: 0, seed: 1}`,
			wantErr: "mutually exclusive",
		},
		{
			name: "short point",
			yaml: `name: n
description: d
cliff: {boundary: fixed, points: [[0, 0], [1]]}`,
			wantErr: "cliff.points[1]",
		},
		{
			name: "no shoreline",
			yaml: `name: n
description: d
cliff: {boundary: fixed, points: [[0, 0], [1, 0]]}`,
			wantErr: "shoreline: one of offset or points",
		},
		{
			name: "bad params",
			yaml: `name: n
description: d
cliff: {boundary: fixed, points: [[0, 0], [1, 0]]}
shoreline: {offset: 1}
params: {lost_fraction: 2}`,
			wantErr: "params:",
		},
		{
			name: "bad law",
			yaml: `name: n
description: d
cliff: {boundary: fixed, points: [[0, 0], [1, 0]]}
shoreline: {offset: 1}
law: linear`,
			wantErr: "law:",
		},
		{
			name: "zero steps",
			yaml: `name: n
description: d
cliff: {boundary: fixed, points: [[0, 0], [1, 0]]}
shoreline: {offset: 1}
time_step: 1`,
			wantErr: "steps must be positive",
		},
		{
			name: "no assertions",
			yaml: `name: n
description: d
cliff: {boundary: fixed, points: [[0, 0], [1, 0]]}
shoreline: {offset: 1}
steps: 1
time_step: 1`,
			wantErr: "assertions list is required",
		},
		{
			name: "unknown assertion",
			yaml: `name: n
description: d
cliff: {boundary: fixed, points: [[0, 0], [1, 0]]}
shoreline: {offset: 1}
steps: 1
time_step: 1
assertions: [{type: smooth}]`,
			wantErr: `unknown assertion type "smooth"`,
		},
		{
			name: "displacement without node",
			yaml: `name: n
description: d
cliff: {boundary: fixed, points: [[0, 0], [1, 0]]}
shoreline: {offset: 1}
steps: 1
time_step: 1
assertions: [{type: node_displacement, expect: 1}]`,
			wantErr: "node is required",
		},
		{
			name: "count without bounds",
			yaml: `name: n
description: d
cliff: {boundary: fixed, points: [[0, 0], [1, 0]]}
shoreline: {offset: 1}
steps: 1
time_step: 1
assertions: [{type: node_count}]`,
			wantErr: "count or min/max",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
