package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessTestdata = "../harness/testdata"

// copyScenario copies a harness scenario into dir.
func copyScenario(t *testing.T, dir, sub, name string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(harnessTestdata, sub, name+".yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), data, 0o644))
}

func TestTestCommandPasses(t *testing.T) {
	stdout, err := execute(NewTestCommand(&RootOptions{Format: "text"}), filepath.Join(harnessTestdata, "scenarios"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ sheltered_line")
	assert.Contains(t, stdout, "Test Summary: 3 passed, 0 failed, 3 total")
}

func TestTestCommandFilter(t *testing.T) {
	stdout, err := execute(NewTestCommand(&RootOptions{Format: "json"}),
		filepath.Join(harnessTestdata, "scenarios"), "--filter", "sheltered_*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "sheltered_line", resp.Data.Scenarios[0].Name)
	assert.Equal(t, 2, resp.Data.Scenarios[0].Steps)
}

func TestTestCommandFailingScenario(t *testing.T) {
	stdout, err := execute(NewTestCommand(&RootOptions{Format: "text"}), filepath.Join(harnessTestdata, "failing"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ ")
	assert.Contains(t, stdout, "1 failed")
}

func TestTestCommandUpdateWritesGolden(t *testing.T) {
	dir := t.TempDir()
	copyScenario(t, dir, "scenarios", "sheltered_line")

	_, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "golden", "sheltered_line.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join(harnessTestdata, "golden", "sheltered_line.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	stdout, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ sheltered_line (2 steps)")
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	copyScenario(t, dir, "scenarios", "sheltered_line")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "sheltered_line.golden"), []byte("3 3\n"), 0o644))

	stdout, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "does not match golden file")
}

func TestTestCommandEmptyDir(t *testing.T) {
	stdout, err := execute(NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", stdout)
}

func TestTestCommandMissingDir(t *testing.T) {
	_, err := execute(NewTestCommand(&RootOptions{Format: "text"}), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
