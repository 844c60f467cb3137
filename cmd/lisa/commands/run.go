package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arbal/LISAv2/pkg/notifier"
	"github.com/arbal/LISAv2/pkg/runner"
	"github.com/arbal/LISAv2/pkg/schema"
	"github.com/arbal/LISAv2/pkg/stores"
	"github.com/arbal/LISAv2/pkg/suites"
	"github.com/arbal/LISAv2/pkg/telemetry"
	"github.com/arbal/LISAv2/pkg/testsuite"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the test cases selected by the runbook",
		Long: `Load the runbook, select test cases from the built-in registry,
and run them against the configured environments.

The process exit code is the number of failed cases; zero means no
observed failures, including when everything was skipped.`,
		Example: `  # Run with the default runbook.yaml
  lisa run

  # Run a specific runbook with verbose output
  lisa run --runbook nightly.yaml --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runbook, err := schema.Load(runbookPath)
			if err != nil {
				return fmt.Errorf("load runbook: %w", err)
			}

			logCfg := runbook.Logging
			if verbose {
				logCfg.Level = "debug"
			}
			if jsonOutput {
				logCfg.Format = "json"
			}
			log := telemetry.NewLogger(logCfg)

			metrics := telemetry.NewMetrics(runbook.Metrics)
			metrics.Serve(log)

			hub := notifier.NewHub(log)
			hub.Register(notifier.NewLogNotifier(log))

			registry := testsuite.NewRegistry(log)
			if err := suites.RegisterAll(registry); err != nil {
				return fmt.Errorf("register suites: %w", err)
			}

			cfg := runner.Config{
				Runbook:  runbook,
				Registry: registry,
				Hub:      hub,
				Metrics:  metrics,
				Log:      log,
			}
			if runbook.Store.Enabled {
				store, err := stores.NewSQLiteStore(runbook.Store.Path)
				if err != nil {
					return fmt.Errorf("open store: %w", err)
				}
				if err := store.Init(cmd.Context()); err != nil {
					return fmt.Errorf("init store: %w", err)
				}
				defer func() { _ = store.Close() }()
				cfg.Store = store
			}

			r, err := runner.NewRunner(cfg)
			if err != nil {
				return err
			}
			exitCode, err := r.Start(cmd.Context())
			if err != nil {
				return err
			}
			runExitCode = exitCode
			return nil
		},
	}
	return cmd
}
