package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arbal/LISAv2/pkg/schema"
	"github.com/arbal/LISAv2/pkg/suites"
	"github.com/arbal/LISAv2/pkg/telemetry"
	"github.com/arbal/LISAv2/pkg/testsuite"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the runbook without running anything",
		Long: `Load and validate the runbook, then check that every selection
entry matches at least one registered test case.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runbook, err := schema.Load(runbookPath)
			if err != nil {
				return fmt.Errorf("runbook invalid: %w", err)
			}

			log := telemetry.NewLogger(runbook.Logging)
			registry := testsuite.NewRegistry(log)
			if err := suites.RegisterAll(registry); err != nil {
				return fmt.Errorf("register suites: %w", err)
			}
			selected, err := testsuite.SelectCases(registry, runbook.TestCases, log)
			if err != nil {
				return fmt.Errorf("selection invalid: %w", err)
			}

			fmt.Printf("runbook %q is valid: %d environments, %d cases selected\n",
				runbook.Name, len(runbook.Environments), len(selected))
			return nil
		},
	}
	return cmd
}
