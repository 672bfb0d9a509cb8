// Package cmdtest runs commands in tests, capturing their output.
package cmdtest

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
)

// Run executes the command with the given arguments and returns its
// combined output.
func Run(t *testing.T, cmd *cobra.Command, args ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("command failed: %v\noutput:\n%s", err, buf.String())
	}
	return buf.Bytes()
}
