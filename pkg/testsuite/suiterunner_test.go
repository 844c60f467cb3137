package testsuite

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/rs/zerolog"

	"github.com/arbal/LISAv2/pkg/action"
	"github.com/arbal/LISAv2/pkg/notifier"
	"github.com/arbal/LISAv2/pkg/retry"
)

type batch struct {
	suite   *SuiteMetadata
	results []*TestResult
}

// newBatch registers a suite with the given case bodies and returns a
// ready-to-run batch against a local single-node environment.
func newBatch(t *testing.T, hooks SuiteHooks, bodies map[string]CaseFunc) *batch {
	t.Helper()
	reg := NewRegistry(zerolog.Nop())
	suite := &SuiteMetadata{Name: "demo", Hooks: hooks}
	if err := reg.AddSuite(suite); err != nil {
		t.Fatalf("AddSuite: %v", err)
	}
	hub := notifier.NewHub(zerolog.Nop())
	b := &batch{suite: suite}
	for _, name := range sortedKeys(bodies) {
		meta := &CaseMetadata{Name: name, Func: bodies[name]}
		if err := reg.AddCase("demo", meta); err != nil {
			t.Fatalf("AddCase: %v", err)
		}
		b.results = append(b.results, NewTestResult(NewCaseRuntimeData(meta), hub, zerolog.Nop()))
	}
	return b
}

func sortedKeys(m map[string]CaseFunc) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func runBatch(t *testing.T, b *batch) *SuiteRunner {
	t.Helper()
	env := loadEnv(t, "primary", "")
	runner := NewSuiteRunner(b.suite, env, b.results, zerolog.Nop())
	if err := runner.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return runner
}

func TestRunBatchStatuses(t *testing.T) {
	boom := errors.New("disk full")
	b := newBatch(t, SuiteHooks{}, map[string]CaseFunc{
		"a_pass": func(ctx context.Context, rc *RunContext) error { return nil },
		"b_fail": func(ctx context.Context, rc *RunContext) error { return boom },
	})
	runner := runBatch(t, b)

	if runner.Status() != action.StatusSuccess {
		t.Fatalf("runner status = %s, want success", runner.Status())
	}
	if got := b.results[0].Status(); got != StatusPassed {
		t.Fatalf("a_pass = %s, want passed", got)
	}
	if got := b.results[1].Status(); got != StatusFailed {
		t.Fatalf("b_fail = %s, want failed", got)
	}
	if b.results[1].Message() == "" {
		t.Fatal("failed case must carry a message")
	}
	if b.results[0].EnvironmentName() != "primary" {
		t.Fatalf("environment = %q, want primary", b.results[0].EnvironmentName())
	}
}

func TestRetryBudgetIsRetryPlusOne(t *testing.T) {
	attempts := 0
	b := newBatch(t, SuiteHooks{}, map[string]CaseFunc{
		"flaky": func(ctx context.Context, rc *RunContext) error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		},
	})
	b.results[0].Runtime.Retry = 2
	runBatch(t, b)

	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
	if got := b.results[0].Status(); got != StatusPassed {
		t.Fatalf("status = %s, want passed", got)
	}
}

func TestIgnoreFailureEndsAttempted(t *testing.T) {
	b := newBatch(t, SuiteHooks{}, map[string]CaseFunc{
		"best_effort": func(ctx context.Context, rc *RunContext) error { return errors.New("known flaky") },
	})
	b.results[0].Runtime.IgnoreFailure = true
	runBatch(t, b)

	if got := b.results[0].Status(); got != StatusAttempted {
		t.Fatalf("status = %s, want attempted", got)
	}
}

func TestBeforeSuiteFailureSkipsBatchButCleansUp(t *testing.T) {
	afterRan := false
	bodyRan := false
	hooks := SuiteHooks{
		BeforeSuite: func(ctx context.Context, rc *RunContext) error { return errors.New("no quota") },
		AfterSuite:  func(ctx context.Context, rc *RunContext) error { afterRan = true; return nil },
	}
	b := newBatch(t, hooks, map[string]CaseFunc{
		"never": func(ctx context.Context, rc *RunContext) error { bodyRan = true; return nil },
	})
	runBatch(t, b)

	if bodyRan {
		t.Fatal("case body must not run after suite setup failure")
	}
	if !afterRan {
		t.Fatal("suite cleanup must run even after setup failure")
	}
	if got := b.results[0].Status(); got != StatusSkipped {
		t.Fatalf("status = %s, want skipped", got)
	}
	if b.results[0].Message() == "" {
		t.Fatal("skip must carry the setup failure message")
	}
}

func TestBeforeCaseFailureSkipsBodyRunsCleanup(t *testing.T) {
	cleanupRan := false
	bodyRan := false
	hooks := SuiteHooks{
		BeforeCase: func(ctx context.Context, rc *RunContext) error { return errors.New("mount failed") },
		AfterCase:  func(ctx context.Context, rc *RunContext) error { cleanupRan = true; return nil },
	}
	b := newBatch(t, hooks, map[string]CaseFunc{
		"never": func(ctx context.Context, rc *RunContext) error { bodyRan = true; return nil },
	})
	runBatch(t, b)

	if bodyRan {
		t.Fatal("case body must not run after setup failure")
	}
	if !cleanupRan {
		t.Fatal("case cleanup must run even after setup failure")
	}
	if got := b.results[0].Status(); got != StatusSkipped {
		t.Fatalf("status = %s, want skipped", got)
	}
}

func TestAfterCaseFailureKeepsStatus(t *testing.T) {
	hooks := SuiteHooks{
		AfterCase: func(ctx context.Context, rc *RunContext) error { return errors.New("cleanup glitch") },
	}
	b := newBatch(t, hooks, map[string]CaseFunc{
		"solid": func(ctx context.Context, rc *RunContext) error { return nil },
	})
	runBatch(t, b)

	if got := b.results[0].Status(); got != StatusPassed {
		t.Fatalf("status = %s, want passed despite cleanup failure", got)
	}
}

func TestStopLeavesRemainingNotRun(t *testing.T) {
	env := loadEnv(t, "primary", "")
	var runner *SuiteRunner
	b := newBatch(t, SuiteHooks{}, map[string]CaseFunc{
		"a_first": func(ctx context.Context, rc *RunContext) error {
			runner.Stop()
			return nil
		},
		"b_second": func(ctx context.Context, rc *RunContext) error { return nil },
	})
	runner = NewSuiteRunner(b.suite, env, b.results, zerolog.Nop())
	if err := runner.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if runner.Status() != action.StatusStopped {
		t.Fatalf("runner status = %s, want stopped", runner.Status())
	}
	if got := b.results[0].Status(); got != StatusPassed {
		t.Fatalf("first case = %s, want passed", got)
	}
	if got := b.results[1].Status(); got != StatusNotRun {
		t.Fatalf("second case = %s, want not_run", got)
	}
}

func TestFatalBodyErrorNotRetried(t *testing.T) {
	attempts := 0
	b := newBatch(t, SuiteHooks{}, map[string]CaseFunc{
		"fatal": func(ctx context.Context, rc *RunContext) error {
			attempts++
			return retry.Fatal(errors.New("bad configuration"))
		},
	})
	b.results[0].Runtime.Retry = 3
	runBatch(t, b)

	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
	if got := b.results[0].Status(); got != StatusFailed {
		t.Fatalf("status = %s, want failed", got)
	}
}
