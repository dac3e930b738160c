package harness

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/cove/internal/snapshot"
)

// FinalSnapshot encodes the result's last cliff snapshot in the snapshot
// file format, header included.
func FinalSnapshot(result *Result) ([]byte, error) {
	f := snapshot.Frame{
		StartBoundary: result.Boundary,
		EndBoundary:   result.Boundary,
		Time:          result.Final.Time,
		X:             make([]float64, len(result.Final.Points)),
		Y:             make([]float64, len(result.Final.Points)),
	}
	for i, p := range result.Final.Points {
		f.X[i], f.Y[i] = p.X, p.Y
	}

	var buf bytes.Buffer
	if err := snapshot.WriteTo(&buf, f, true); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its final snapshot
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can inspect the trace as well.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's final snapshot against the
// golden file for name.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := FinalSnapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
