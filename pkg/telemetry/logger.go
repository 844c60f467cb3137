// Package telemetry wires log output and Prometheus metrics for a run.
package telemetry

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/arbal/LISAv2/pkg/schema"
)

// NewLogger builds the root logger from runbook configuration.
// Unknown levels fall back to info so a bad runbook still logs.
func NewLogger(cfg schema.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.Format == "json" {
		log = zerolog.New(os.Stderr)
	} else {
		log = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}
	return log.Level(level).With().Timestamp().Logger()
}
