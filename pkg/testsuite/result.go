package testsuite

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/arbal/LISAv2/pkg/environment"
	"github.com/arbal/LISAv2/pkg/notifier"
)

// TestResult tracks one scheduled case through a run. It is created
// once at run start and mutated only through its methods; SetStatus is
// the single writer path so status notifications fire exactly once per
// distinct transition.
type TestResult struct {
	Runtime *CaseRuntimeData

	mu          sync.Mutex
	status      TestStatus
	message     string
	elapsed     time.Duration
	environment string
	reasons     []string

	hub *notifier.Hub
	log zerolog.Logger
}

// NewTestResult creates a NotRun result for one scheduled case.
func NewTestResult(runtime *CaseRuntimeData, hub *notifier.Hub, log zerolog.Logger) *TestResult {
	return &TestResult{
		Runtime: runtime,
		status:  StatusNotRun,
		hub:     hub,
		log:     log.With().Str("case", runtime.FullName()).Logger(),
	}
}

// Status returns the current status.
func (r *TestResult) Status() TestStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Message returns the last status message.
func (r *TestResult) Message() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.message
}

// Elapsed returns the accumulated execution time.
func (r *TestResult) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsed
}

// EnvironmentName returns the name of the assigned environment.
func (r *TestResult) EnvironmentName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.environment
}

// CanRun reports whether the case is still waiting for an assignment.
func (r *TestResult) CanRun() bool {
	return r.Status() == StatusNotRun
}

// SetStatus moves the result forward and notifies on a distinct
// change. Transitions never move backward; a regression is logged and
// dropped. The message is kept for any transition, even a repeat, so
// a later caller can refine the recorded reason.
func (r *TestResult) SetStatus(status TestStatus, message string) {
	r.mu.Lock()
	if statusRank[status] < statusRank[r.status] {
		r.mu.Unlock()
		r.log.Warn().Str("from", string(r.status)).Str("to", string(status)).
			Msg("dropping backward status transition")
		return
	}
	changed := status != r.status
	r.status = status
	if message != "" {
		r.message = message
	}
	msg := notifier.Message{
		Type:        notifier.MessageTypeTestResult,
		Name:        r.Runtime.FullName(),
		Status:      string(status),
		Message:     r.message,
		Environment: r.environment,
		Elapsed:     r.elapsed,
	}
	r.mu.Unlock()

	if changed {
		r.hub.Notify(msg)
	}
}

// AssignTo records the environment the case runs on.
func (r *TestResult) AssignTo(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.environment = name
}

// AddElapsed accumulates wall time from one hook or body invocation.
func (r *TestResult) AddElapsed(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.elapsed += d
}

// CheckReasons returns the capability mismatch reasons accumulated
// while looking for an environment.
func (r *TestResult) CheckReasons() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reasons...)
}

// CheckEnvironment reports whether env can host this case. A pinned
// environment name must match exactly. When saveReason is set, failure
// reasons are accumulated for the end-of-run skip message.
func (r *TestResult) CheckEnvironment(env *environment.Environment, saveReason bool) bool {
	result := r.Runtime.Requirement().Check(env)
	if pinned := r.Runtime.EnvironmentName; pinned != "" && pinned != env.Name {
		result.Add(false, "requires environment "+pinned)
	}
	if !result.Result && saveReason {
		r.mu.Lock()
		for _, reason := range result.Reasons {
			r.reasons = append(r.reasons, env.Name+": "+reason)
		}
		r.mu.Unlock()
	}
	return result.Result
}
