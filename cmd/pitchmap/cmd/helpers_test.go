package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag of the command tree to its default. Cobra keeps flag state
// between Execute calls on the shared rootCmd.
func resetFlags(t *testing.T) {
	t.Helper()

	var reset func(c *cobra.Command)
	reset = func(c *cobra.Command) {
		restore := func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
		c.Flags().VisitAll(restore)
		c.PersistentFlags().VisitAll(restore)
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)
	cfgFile = ""
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(t)
	t.Cleanup(func() { resetFlags(t) })

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buf.String(), err
}

const scalePointsYAML = `video_points:
  - [0, 0]
  - [100, 0]
  - [100, 60]
  - [0, 60]
pitch_points:
  - [0, 0]
  - [10, 0]
  - [10, 6]
  - [0, 6]
`

const scaleMatrixJSON = `{"matrix": [[0.1, 0, 0], [0, 0.1, 0], [0, 0, 1]], "reprojection_error": 0}`
