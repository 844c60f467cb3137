package testsuite

// TestStatus is the lifecycle state of one scheduled test case.
type TestStatus string

const (
	// StatusNotRun means the case is selected but not yet assigned.
	StatusNotRun TestStatus = "not_run"

	// StatusRunning means the execution engine picked the case up.
	StatusRunning TestStatus = "running"

	// StatusPassed is terminal success.
	StatusPassed TestStatus = "passed"

	// StatusFailed is terminal failure and counts toward the exit code.
	StatusFailed TestStatus = "failed"

	// StatusSkipped means the case never ran to completion, with the
	// reason recorded in the result message.
	StatusSkipped TestStatus = "skipped"

	// StatusAttempted means the case failed but carries the
	// ignore-failure flag, so it does not count as a run failure.
	StatusAttempted TestStatus = "attempted"
)

// AllStatuses lists every status in summary display order.
var AllStatuses = []TestStatus{
	StatusNotRun,
	StatusRunning,
	StatusPassed,
	StatusFailed,
	StatusSkipped,
	StatusAttempted,
}

// statusRank orders statuses so transitions only move forward. All
// terminal statuses share a rank; a result reaches exactly one of them.
var statusRank = map[TestStatus]int{
	StatusNotRun:    0,
	StatusRunning:   1,
	StatusPassed:    2,
	StatusFailed:    2,
	StatusSkipped:   2,
	StatusAttempted: 2,
}

// IsTerminal reports whether s is a final status.
func (s TestStatus) IsTerminal() bool {
	return statusRank[s] == 2
}
