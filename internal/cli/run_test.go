package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cove/internal/runlog"
	"github.com/roach88/cove/internal/sim"
	"github.com/roach88/cove/internal/snapshot"
	"github.com/roach88/cove/internal/testutil"
)

// runFixed runs the config at path with a fixed run ID and returns stdout.
func runFixed(t *testing.T, format, path string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetContext(context.Background())

	opts := &RunOptions{
		RootOptions:    &RootOptions{Format: format},
		RunIDGenerator: testutil.NewFixedRunIDGenerator("run-1"),
	}
	err := runSimulation(opts, path, cmd)
	return buf.String(), err
}

func TestRunWritesOutputs(t *testing.T) {
	path := writeConfig(t, shortConfig)
	dir := filepath.Dir(path)

	stdout, err := runFixed(t, "json", path)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   sim.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-1", resp.Data.RunID)
	assert.Equal(t, 5, resp.Data.Steps)
	assert.Equal(t, 3, resp.Data.Prints)
	assert.InDelta(t, 1.0, resp.Data.FinalTime, 1e-9)

	times, err := snapshot.Times(filepath.Join(dir, "cliff.xy"))
	require.NoError(t, err)
	assert.Len(t, times, 3)
	shoreTimes, err := snapshot.Times(filepath.Join(dir, "shore.xy"))
	require.NoError(t, err)
	assert.Len(t, shoreTimes, 3)

	log, err := runlog.Open(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	defer log.Close()

	steps, err := log.ReadSteps(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Len(t, steps, 5)
}

func TestRunTextOutput(t *testing.T) {
	path := writeConfig(t, shortConfig)

	stdout, err := runFixed(t, "text", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "Run run-1: 5 steps to t="), stdout)
	assert.Contains(t, stdout, "3 prints")
}

func TestRunInvalidConfig(t *testing.T) {
	path := writeConfig(t, strings.Replace(shortConfig, "retreat_law: humped", "retreat_law: linear", 1))

	stdout, err := runFixed(t, "text", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, ErrCodeInvalidConfig)
}

func TestRunMissingCliffFile(t *testing.T) {
	cfg := strings.Replace(shortConfig, `  synthetic:
    spacing: 10
    length: 200
    trend: 0
    boundary: fixed
`, "  file: missing.xy\n", 1)
	path := writeConfig(t, cfg)

	stdout, err := runFixed(t, "text", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, ErrCodeBuildFailed)
}

func TestRunCancelledIsGraceful(t *testing.T) {
	path := writeConfig(t, strings.Replace(shortConfig, "  database: runs.db\n", "", 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := NewRunCommand(&RootOptions{Format: "json"})
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{path})
	require.NoError(t, cmd.ExecuteContext(ctx))

	var resp struct {
		Data sim.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Less(t, resp.Data.Steps, 5)
}
