// Package stores persists run history so results survive the process.
package stores

import "time"

// Run is one persisted test run.
type Run struct {
	ID         string
	Name       string
	StartedAt  time.Time
	FinishedAt time.Time
	ExitCode   int
}

// CaseRecord is one terminal test case result within a run.
type CaseRecord struct {
	RunID       string
	Name        string
	Status      string
	Message     string
	Environment string
	ElapsedMS   int64
}
