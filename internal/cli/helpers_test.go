package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const shortConfig = `run:
  name: short
  seed: 3
  start_time: 0
  end_time: 1
  time_step: 73
  print_interval: 0.5
cliff:
  synthetic:
    spacing: 10
    length: 200
    trend: 0
    boundary: fixed
  retreat_law: humped
  max_retreat_rate: 5
  cliff_height: 10
  critical_width: 5
  intersection_policy: report
shoreline:
  offset: 3
output:
  cliff_file: cliff.xy
  shoreline_file: shore.xy
  database: runs.db
`

// writeConfig writes content as config.yaml in a fresh temp dir and
// returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs cmd with args and returns stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
