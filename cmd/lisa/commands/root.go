// Package commands implements the lisa command line interface.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	runbookPath string
	verbose     bool
	jsonOutput  bool

	// runExitCode carries the failed-case count out of the run command
	// so the process can exit with it.
	runExitCode int
)

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context, version, commit, buildDate string) (int, error) {
	rootCmd := newRootCommand(version, commit, buildDate)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return 1, err
	}
	return runExitCode, nil
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lisa",
		Short: "LISA - Linux Integration Services Automation",
		Long: `LISA orchestrates integration test runs against real infrastructure.

It matches each test case's environment requirements against predefined
or on-demand environments, provisions them through a pluggable platform,
and drives suite execution with per-case retry budgets.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	rootCmd.PersistentFlags().StringVarP(&runbookPath, "runbook", "r", "runbook.yaml", "runbook file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newListCommand())

	return rootCmd
}
