// Package runner drives one test run end to end: it selects cases,
// merges their requirements into a working set of environments, walks
// the environments in platform order, and hands matching batches to
// the suite runner.
package runner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arbal/LISAv2/pkg/action"
	"github.com/arbal/LISAv2/pkg/environment"
	"github.com/arbal/LISAv2/pkg/notifier"
	"github.com/arbal/LISAv2/pkg/platform"
	"github.com/arbal/LISAv2/pkg/schema"
	"github.com/arbal/LISAv2/pkg/stores"
	"github.com/arbal/LISAv2/pkg/telemetry"
	"github.com/arbal/LISAv2/pkg/testsuite"
)

// ResultStore persists a finished run. *stores.SQLiteStore satisfies it.
type ResultStore interface {
	SaveRun(ctx context.Context, run *stores.Run, results []stores.CaseRecord) error
}

// Config wires a runner's collaborators. Hub, Metrics, and Store are
// optional.
type Config struct {
	Runbook  *schema.Runbook
	Registry *testsuite.Registry
	Hub      *notifier.Hub
	Metrics  *telemetry.Metrics
	Store    ResultStore
	Log      zerolog.Logger

	// Platform overrides factory lookup; when nil the platform named
	// in the runbook is created through the built-in factory.
	Platform platform.Platform
}

// Runner schedules one run. It is single-use: create, Start, inspect.
type Runner struct {
	action.State

	runbook  *schema.Runbook
	registry *testsuite.Registry
	hub      *notifier.Hub
	metrics  *telemetry.Metrics
	store    ResultStore
	platform platform.Platform
	log      zerolog.Logger

	mu      sync.Mutex
	current *testsuite.SuiteRunner
	results []*testsuite.TestResult
}

// NewRunner validates the configuration and builds a runner.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Runbook == nil {
		return nil, fmt.Errorf("runbook is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if cfg.Hub == nil {
		cfg.Hub = notifier.NewHub(cfg.Log)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NewMetrics(schema.MetricsConfig{})
	}
	return &Runner{
		runbook:  cfg.Runbook,
		registry: cfg.Registry,
		hub:      cfg.Hub,
		metrics:  cfg.Metrics,
		store:    cfg.Store,
		platform: cfg.Platform,
		log:      cfg.Log.With().Str("component", "runner").Logger(),
	}, nil
}

// Results returns the results created for this run.
func (r *Runner) Results() []*testsuite.TestResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*testsuite.TestResult(nil), r.results...)
}

// Stop requests a cooperative stop. The current batch finishes its
// in-flight case; untouched cases stay unassigned.
func (r *Runner) Stop() {
	r.State.Stop()
	r.mu.Lock()
	if r.current != nil {
		r.current.Stop()
	}
	r.mu.Unlock()
}

// Start runs the whole schedule and returns the exit code, which is
// the count of failed cases. A non-nil error means the run itself
// could not proceed, distinct from cases failing.
func (r *Runner) Start(ctx context.Context) (int, error) {
	r.SetStatus(action.StatusRunning)
	started := time.Now()
	r.metrics.RecordRunStarted()

	selected, err := testsuite.SelectCases(r.registry, r.runbook.TestCases, r.log)
	if err != nil {
		return 0, err
	}
	r.log.Info().Int("cases", len(selected)).Msg("cases selected")

	results := make([]*testsuite.TestResult, 0, len(selected))
	for _, rt := range selected {
		results = append(results, testsuite.NewTestResult(rt, r.hub, r.log))
	}
	r.mu.Lock()
	r.results = results
	r.mu.Unlock()

	envs, err := environment.Load(r.runbook.Environments, r.log)
	if err != nil {
		return 0, err
	}

	plat := r.platform
	if plat == nil {
		plat, err = platform.NewFactory(r.log).CreateByName(r.runbook.Platform.Type)
		if err != nil {
			return 0, err
		}
	}
	if err := plat.Configure(&r.runbook.Platform, r.log); err != nil {
		return 0, err
	}

	r.mergeRequirements(results, envs, plat.Type())

	prepared, err := plat.PrepareEnvironments(ctx, envs)
	if err != nil {
		return 0, err
	}
	r.log.Info().Int("environments", len(prepared)).Msg("environments prepared")

	for _, env := range prepared {
		if r.StopRequested() || ctx.Err() != nil {
			break
		}
		if !anyRunnable(results) {
			break
		}
		if !r.anyCandidate(results, env) {
			r.log.Debug().Str("environment", env.Name).Msg("no runnable case fits, skipping environment")
			continue
		}
		r.runOnEnvironment(ctx, plat, env, results)
	}

	r.skipLeftovers(results)
	exitCode := r.summarize(results, started)

	if err := r.persist(ctx, results, started, exitCode); err != nil {
		r.log.Error().Err(err).Msg("failed to persist run")
	}

	if r.StopRequested() {
		r.SetStatus(action.StatusStopped)
		r.metrics.RecordRunCompleted("stopped")
	} else {
		r.SetStatus(action.StatusSuccess)
		if exitCode == 0 {
			r.metrics.RecordRunCompleted("success")
		} else {
			r.metrics.RecordRunCompleted("failed")
		}
	}
	return exitCode, nil
}

// mergeRequirements folds every runnable case's requirement into the
// environment working set. Cases excluded by platform type are skipped
// before merging so they never force a synthesized environment.
func (r *Runner) mergeRequirements(results []*testsuite.TestResult, envs *environment.Environments, platformType string) {
	for _, result := range results {
		req := result.Runtime.Requirement()
		if check := req.CheckPlatform(platformType); !check.Result {
			result.SetStatus(testsuite.StatusSkipped, "platform type mismatch")
			continue
		}
		if result.Runtime.EnvironmentName != "" {
			// Pinned to a named environment; nothing to merge.
			continue
		}
		space := req.Environment
		if space == nil {
			space = environment.NewSpace(environment.DefaultNodeSpace())
		}
		if result.Runtime.UseNewEnvironment {
			envs.FromRequirement(space)
		} else {
			envs.GetOrCreate(space)
		}
	}
}

// runOnEnvironment deploys env, runs every batch that fits, and always
// tears the environment down before returning.
func (r *Runner) runOnEnvironment(ctx context.Context, plat platform.Platform, env *environment.Environment, results []*testsuite.TestResult) {
	defer func() {
		if err := plat.DeleteEnvironment(ctx, env); err != nil {
			r.log.Error().Err(err).Str("environment", env.Name).Msg("teardown failed")
		}
	}()

	deployStart := time.Now()
	err := plat.DeployEnvironment(ctx, env)
	r.metrics.RecordDeploy(time.Since(deployStart))
	if platform.IsWaitMoreResource(err) {
		r.log.Warn().Err(err).Str("environment", env.Name).
			Msg("platform out of capacity, moving on")
		return
	}
	if err != nil {
		r.log.Error().Err(err).Str("environment", env.Name).Msg("deployment failed")
		return
	}
	if !env.IsReady() {
		r.log.Error().Str("environment", env.Name).Str("status", string(env.Status())).
			Msg("environment never became ready")
		return
	}

	// At most one isolation case per environment, then shared batches.
	// Isolation cases only run on environments synthesized this run,
	// never on predefined ones other cases may share.
	if !env.IsPredefined {
		for _, result := range results {
			if !result.CanRun() || !result.Runtime.UseNewEnvironment {
				continue
			}
			if result.CheckEnvironment(env, false) {
				r.runBatch(ctx, env, []*testsuite.TestResult{result})
				break
			}
		}
		if r.StopRequested() {
			return
		}
	}

	var shared []*testsuite.TestResult
	for _, result := range results {
		if result.CanRun() && !result.Runtime.UseNewEnvironment && result.CheckEnvironment(env, false) {
			shared = append(shared, result)
		}
	}
	sort.SliceStable(shared, func(i, j int) bool {
		return suiteName(shared[i]) < suiteName(shared[j])
	})
	for start := 0; start < len(shared); {
		end := start
		for end < len(shared) && suiteName(shared[end]) == suiteName(shared[start]) {
			end++
		}
		r.runBatch(ctx, env, shared[start:end])
		if r.StopRequested() {
			return
		}
		start = end
	}
}

func (r *Runner) runBatch(ctx context.Context, env *environment.Environment, batch []*testsuite.TestResult) {
	suite := batch[0].Runtime.Metadata().Suite
	sr := testsuite.NewSuiteRunner(suite, env, batch, r.log)

	r.mu.Lock()
	r.current = sr
	if r.StopRequested() {
		sr.Stop()
	}
	r.mu.Unlock()

	_ = sr.Start(ctx)

	r.mu.Lock()
	r.current = nil
	r.mu.Unlock()
}

// skipLeftovers marks every still-unassigned case Skipped, carrying
// the capability mismatch reasons collected along the way.
func (r *Runner) skipLeftovers(results []*testsuite.TestResult) {
	for _, result := range results {
		if !result.CanRun() {
			continue
		}
		msg := "no available environment"
		if reasons := result.CheckReasons(); len(reasons) > 0 {
			msg += ": " + strings.Join(reasons, "; ")
		}
		result.SetStatus(testsuite.StatusSkipped, msg)
	}
}

// summarize logs one line per case plus a per-status count table and
// returns the failed count.
func (r *Runner) summarize(results []*testsuite.TestResult, started time.Time) int {
	counts := make(map[testsuite.TestStatus]int)
	for _, result := range results {
		status := result.Status()
		counts[status]++
		r.metrics.RecordCaseResult(string(status), result.Elapsed())
		r.log.Info().
			Str("case", result.Runtime.FullName()).
			Str("status", string(status)).
			Str("message", result.Message()).
			Dur("elapsed", result.Elapsed()).
			Msg("case finished")
	}
	event := r.log.Info()
	for _, status := range testsuite.AllStatuses {
		event = event.Int(string(status), counts[status])
	}
	event.Dur("elapsed", time.Since(started)).Msg("run finished")
	return counts[testsuite.StatusFailed]
}

func (r *Runner) persist(ctx context.Context, results []*testsuite.TestResult, started time.Time, exitCode int) error {
	if r.store == nil {
		return nil
	}
	run := &stores.Run{
		ID:         uuid.NewString(),
		Name:       r.runbook.Name,
		StartedAt:  started.UTC(),
		FinishedAt: time.Now().UTC(),
		ExitCode:   exitCode,
	}
	records := make([]stores.CaseRecord, 0, len(results))
	for _, result := range results {
		records = append(records, stores.CaseRecord{
			RunID:       run.ID,
			Name:        result.Runtime.FullName(),
			Status:      string(result.Status()),
			Message:     result.Message(),
			Environment: result.EnvironmentName(),
			ElapsedMS:   result.Elapsed().Milliseconds(),
		})
	}
	return r.store.SaveRun(ctx, run, records)
}

func (r *Runner) anyCandidate(results []*testsuite.TestResult, env *environment.Environment) bool {
	found := false
	for _, result := range results {
		if result.CanRun() && result.CheckEnvironment(env, true) {
			found = true
		}
	}
	return found
}

func anyRunnable(results []*testsuite.TestResult) bool {
	for _, result := range results {
		if result.CanRun() {
			return true
		}
	}
	return false
}

func suiteName(result *testsuite.TestResult) string {
	if suite := result.Runtime.Metadata().Suite; suite != nil {
		return suite.Name
	}
	return ""
}
