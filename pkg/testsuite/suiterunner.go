package testsuite

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/arbal/LISAv2/pkg/action"
	"github.com/arbal/LISAv2/pkg/environment"
	"github.com/arbal/LISAv2/pkg/retry"
)

// SuiteRunner executes one batch of results from a single suite on an
// already-deployed environment. The stop flag is observed at case
// boundaries only, so an in-flight hook always runs to completion or
// to its own retry exhaustion.
type SuiteRunner struct {
	action.State

	suite   *SuiteMetadata
	env     *environment.Environment
	results []*TestResult
	log     zerolog.Logger
}

// NewSuiteRunner prepares a batch for execution.
func NewSuiteRunner(suite *SuiteMetadata, env *environment.Environment, results []*TestResult, log zerolog.Logger) *SuiteRunner {
	return &SuiteRunner{
		suite:   suite,
		env:     env,
		results: results,
		log: log.With().
			Str("suite", suite.Name).
			Str("environment", env.Name).
			Logger(),
	}
}

// Start runs the batch to completion. Case failures never surface as
// an error; they end up in the result statuses.
func (r *SuiteRunner) Start(ctx context.Context) error {
	r.SetStatus(action.StatusRunning)

	suiteCtx := &RunContext{Environment: r.env, Log: r.log}
	var suiteErr error
	if r.suite.Hooks.BeforeSuite != nil {
		suiteErr = r.suite.Hooks.BeforeSuite(ctx, suiteCtx)
		if suiteErr != nil {
			r.log.Error().Err(suiteErr).Msg("suite setup failed, skipping batch")
		}
	}

	for _, result := range r.results {
		if r.StopRequested() || ctx.Err() != nil {
			r.SetStatus(action.StatusStopped)
			break
		}
		if suiteErr != nil {
			result.SetStatus(StatusSkipped, "suite setup failed: "+suiteErr.Error())
			continue
		}
		r.runCase(ctx, result)
	}

	if r.suite.Hooks.AfterSuite != nil {
		if err := r.suite.Hooks.AfterSuite(ctx, suiteCtx); err != nil {
			r.log.Error().Err(err).Msg("suite cleanup failed")
		}
	}

	if r.Status() == action.StatusRunning {
		r.SetStatus(action.StatusSuccess)
	}
	return nil
}

// runCase drives before hook, body, and after hook for one case. Each
// stage gets the same retry budget. The after hook runs even when the
// before hook failed, so partial setup is still cleaned up.
func (r *SuiteRunner) runCase(ctx context.Context, result *TestResult) {
	meta := result.Runtime.Metadata()
	caseLog := r.log.With().Str("case", meta.FullName()).Logger()
	rc := &RunContext{Environment: r.env, Result: result, Log: caseLog}
	policy := retry.NewPolicy(result.Runtime.Retry)

	result.AssignTo(r.env.Name)
	result.SetStatus(StatusRunning, "")

	setupErr := r.runHook(ctx, policy, caseLog, "case setup", r.suite.Hooks.BeforeCase, rc, result)
	if setupErr != nil {
		result.SetStatus(StatusSkipped, "case setup failed: "+setupErr.Error())
	} else {
		r.runBody(ctx, policy, caseLog, rc, result)
	}

	if err := r.runHook(ctx, policy, caseLog, "case cleanup", r.suite.Hooks.AfterCase, rc, result); err != nil {
		caseLog.Error().Err(err).Msg("case cleanup failed")
	}
}

func (r *SuiteRunner) runBody(ctx context.Context, policy retry.Policy, log zerolog.Logger, rc *RunContext, result *TestResult) {
	start := time.Now()
	err := policy.Do(ctx, log, "case body", func() error {
		return result.Runtime.Metadata().Func(ctx, rc)
	})
	result.AddElapsed(time.Since(start))

	switch {
	case err == nil:
		result.SetStatus(StatusPassed, "")
	case result.Runtime.IgnoreFailure:
		result.SetStatus(StatusAttempted, err.Error())
	default:
		result.SetStatus(StatusFailed, err.Error())
	}
}

func (r *SuiteRunner) runHook(ctx context.Context, policy retry.Policy, log zerolog.Logger, op string, hook HookFunc, rc *RunContext, result *TestResult) error {
	if hook == nil {
		return nil
	}
	start := time.Now()
	err := policy.Do(ctx, log, op, func() error {
		return hook(ctx, rc)
	})
	result.AddElapsed(time.Since(start))
	return err
}
