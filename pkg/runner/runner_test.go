package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/arbal/LISAv2/pkg/action"
	"github.com/arbal/LISAv2/pkg/environment"
	"github.com/arbal/LISAv2/pkg/platform"
	"github.com/arbal/LISAv2/pkg/schema"
	"github.com/arbal/LISAv2/pkg/search"
	"github.com/arbal/LISAv2/pkg/stores"
	"github.com/arbal/LISAv2/pkg/testsuite"
)

// mockPlatform marks environments ready without touching their nodes,
// so generated environments are deployable in tests.
type mockPlatform struct {
	mu        sync.Mutex
	deployErr map[string]error
	deploys   []string
	deletes   []string
}

func (p *mockPlatform) Type() string { return "mock" }

func (p *mockPlatform) Configure(cfg *schema.PlatformConfig, log zerolog.Logger) error {
	return nil
}

func (p *mockPlatform) PrepareEnvironments(ctx context.Context, envs *environment.Environments) ([]*environment.Environment, error) {
	var predefined, generated []*environment.Environment
	for _, env := range envs.List() {
		if env.IsPredefined {
			predefined = append(predefined, env)
		} else {
			generated = append(generated, env)
		}
	}
	return append(predefined, generated...), nil
}

func (p *mockPlatform) DeployEnvironment(ctx context.Context, env *environment.Environment) error {
	p.mu.Lock()
	p.deploys = append(p.deploys, env.Name)
	err := p.deployErr[env.Name]
	p.mu.Unlock()
	if err != nil {
		return err
	}
	env.SetStatus(environment.StatusReady)
	return nil
}

func (p *mockPlatform) DeleteEnvironment(ctx context.Context, env *environment.Environment) error {
	p.mu.Lock()
	p.deletes = append(p.deletes, env.Name)
	p.mu.Unlock()
	return env.Close()
}

func parseRunbook(t *testing.T, text string) *schema.Runbook {
	t.Helper()
	runbook, err := schema.Parse([]byte(text))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return runbook
}

func buildRegistry(t *testing.T, suite *testsuite.SuiteMetadata, cases ...*testsuite.CaseMetadata) *testsuite.Registry {
	t.Helper()
	reg := testsuite.NewRegistry(zerolog.Nop())
	if err := reg.AddSuite(suite); err != nil {
		t.Fatalf("AddSuite: %v", err)
	}
	for _, c := range cases {
		if err := reg.AddCase(suite.Name, c); err != nil {
			t.Fatalf("AddCase: %v", err)
		}
	}
	return reg
}

func startRunner(t *testing.T, runbook *schema.Runbook, reg *testsuite.Registry, plat platform.Platform) (*Runner, int) {
	t.Helper()
	r, err := NewRunner(Config{
		Runbook:  runbook,
		Registry: reg,
		Platform: plat,
		Log:      zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	exitCode, err := r.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return r, exitCode
}

func nop(ctx context.Context, rc *testsuite.RunContext) error { return nil }

const singleEnvRunbook = `
name: unit
platform:
  type: mock
environments:
  - name: primary
    nodes:
      - type: local
testcase:
  - criteria:
      area: core
`

func TestRunExitCodeCountsFailures(t *testing.T) {
	suite := &testsuite.SuiteMetadata{Name: "smoke", Area: "core"}
	reg := buildRegistry(t, suite,
		&testsuite.CaseMetadata{Name: "boot", Func: nop},
		&testsuite.CaseMetadata{Name: "reboot", Func: func(ctx context.Context, rc *testsuite.RunContext) error {
			return errors.New("hung on shutdown")
		}},
	)
	plat := &mockPlatform{}
	r, exitCode := startRunner(t, parseRunbook(t, singleEnvRunbook), reg, plat)

	if exitCode != 1 {
		t.Fatalf("exit code = %d, want 1", exitCode)
	}
	if r.Status() != action.StatusSuccess {
		t.Fatalf("runner status = %s, want success", r.Status())
	}
	statuses := map[string]testsuite.TestStatus{}
	for _, result := range r.Results() {
		statuses[result.Runtime.FullName()] = result.Status()
		if result.Status() == testsuite.StatusNotRun {
			t.Fatalf("%s left not_run", result.Runtime.FullName())
		}
	}
	if statuses["smoke.boot"] != testsuite.StatusPassed {
		t.Fatalf("boot = %s, want passed", statuses["smoke.boot"])
	}
	if statuses["smoke.reboot"] != testsuite.StatusFailed {
		t.Fatalf("reboot = %s, want failed", statuses["smoke.reboot"])
	}
	if len(plat.deletes) != len(plat.deploys) {
		t.Fatalf("deploys %v vs deletes %v, teardown must be unconditional", plat.deploys, plat.deletes)
	}
}

func TestPlatformTypeMismatchSkipsBeforeMerge(t *testing.T) {
	suite := &testsuite.SuiteMetadata{Name: "smoke", Area: "core"}
	azureOnly := testsuite.DefaultRequirement()
	azureOnly.PlatformType = search.NewSetSpace(true, "azure")
	reg := buildRegistry(t, suite,
		&testsuite.CaseMetadata{Name: "cloud_only", Requirement: azureOnly, Func: nop},
		&testsuite.CaseMetadata{Name: "boot", Func: nop},
	)
	plat := &mockPlatform{}
	r, exitCode := startRunner(t, parseRunbook(t, singleEnvRunbook), reg, plat)

	if exitCode != 0 {
		t.Fatalf("exit code = %d, want 0", exitCode)
	}
	for _, result := range r.Results() {
		switch result.Runtime.FullName() {
		case "smoke.cloud_only":
			if result.Status() != testsuite.StatusSkipped {
				t.Fatalf("cloud_only = %s, want skipped", result.Status())
			}
			if !strings.Contains(result.Message(), "platform type") {
				t.Fatalf("message = %q, want platform type reason", result.Message())
			}
		case "smoke.boot":
			if result.Status() != testsuite.StatusPassed {
				t.Fatalf("boot = %s, want passed", result.Status())
			}
		}
	}
	if len(plat.deploys) != 1 {
		t.Fatalf("deploys = %v, the skipped case must not force extra environments", plat.deploys)
	}
}

func TestWaitMoreResourceMovesToNextEnvironment(t *testing.T) {
	runbook := parseRunbook(t, `
name: unit
platform:
  type: mock
environments:
  - name: crowded
    nodes:
      - type: local
  - name: spare
    nodes:
      - type: local
testcase:
  - criteria:
      area: core
`)
	suite := &testsuite.SuiteMetadata{Name: "smoke", Area: "core"}
	reg := buildRegistry(t, suite, &testsuite.CaseMetadata{Name: "boot", Func: nop})
	plat := &mockPlatform{deployErr: map[string]error{
		"crowded": &platform.WaitMoreResourceError{Reason: "pool exhausted"},
	}}
	r, exitCode := startRunner(t, runbook, reg, plat)

	if exitCode != 0 {
		t.Fatalf("exit code = %d, want 0", exitCode)
	}
	result := r.Results()[0]
	if result.Status() != testsuite.StatusPassed {
		t.Fatalf("status = %s, want passed on the second environment", result.Status())
	}
	if result.EnvironmentName() != "spare" {
		t.Fatalf("environment = %q, want spare", result.EnvironmentName())
	}
}

func TestNoAvailableEnvironmentSkipWithReasons(t *testing.T) {
	suite := &testsuite.SuiteMetadata{Name: "smoke", Area: "core"}
	fourNodes := &testsuite.Requirement{
		Environment: environment.NewSpace(environment.NodeSpace{
			NodeCount: search.NewIntRange(4, 4),
			NicCount:  search.NewIntRange(1, 0),
		}),
	}
	reg := buildRegistry(t, suite,
		&testsuite.CaseMetadata{Name: "cluster", Requirement: fourNodes, Func: nop},
	)
	// The synthesized four-node environment fails to deploy, so the
	// case has nowhere left to run. Generated names are random, so the
	// platform fails everything except the predefined environment.
	plat := &failingPlatform{mockPlatform: &mockPlatform{}, allow: "primary"}
	r, err := NewRunner(Config{
		Runbook:  parseRunbook(t, singleEnvRunbook),
		Registry: reg,
		Platform: plat,
		Log:      zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	exitCode, err := r.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if exitCode != 0 {
		t.Fatalf("exit code = %d, want 0 (skips are not failures)", exitCode)
	}
	result := r.Results()[0]
	if result.Status() != testsuite.StatusSkipped {
		t.Fatalf("status = %s, want skipped", result.Status())
	}
	if !strings.Contains(result.Message(), "no available environment") {
		t.Fatalf("message = %q, want no available environment", result.Message())
	}
	if !strings.Contains(result.Message(), "node_count") {
		t.Fatalf("message = %q, want accumulated check reasons", result.Message())
	}
}

// failingPlatform fails every deployment except the named environment.
type failingPlatform struct {
	*mockPlatform
	allow string
}

func (p *failingPlatform) DeployEnvironment(ctx context.Context, env *environment.Environment) error {
	if env.Name != p.allow {
		return errors.New("image not found")
	}
	return p.mockPlatform.DeployEnvironment(ctx, env)
}

func TestIsolationRunsOnFreshEnvironment(t *testing.T) {
	runbook := parseRunbook(t, `
name: unit
platform:
  type: mock
environments:
  - name: primary
    nodes:
      - type: local
testcase:
  - criteria:
      name: boot
  - criteria:
      name: exclusive
    use_new_environment: true
`)
	suite := &testsuite.SuiteMetadata{Name: "smoke", Area: "core"}
	reg := buildRegistry(t, suite,
		&testsuite.CaseMetadata{Name: "boot", Func: nop},
		&testsuite.CaseMetadata{Name: "exclusive", Func: nop},
	)
	plat := &mockPlatform{}
	r, exitCode := startRunner(t, runbook, reg, plat)

	if exitCode != 0 {
		t.Fatalf("exit code = %d, want 0", exitCode)
	}
	var sharedEnv, isolatedEnv string
	for _, result := range r.Results() {
		if result.Status() != testsuite.StatusPassed {
			t.Fatalf("%s = %s, want passed", result.Runtime.FullName(), result.Status())
		}
		switch result.Runtime.FullName() {
		case "smoke.boot":
			sharedEnv = result.EnvironmentName()
		case "smoke.exclusive":
			isolatedEnv = result.EnvironmentName()
		}
	}
	if sharedEnv != "primary" {
		t.Fatalf("shared case ran on %q, want primary", sharedEnv)
	}
	if isolatedEnv == "primary" || isolatedEnv == "" {
		t.Fatalf("isolated case ran on %q, want a synthesized environment", isolatedEnv)
	}
}

func TestRunPersistsToStore(t *testing.T) {
	suite := &testsuite.SuiteMetadata{Name: "smoke", Area: "core"}
	reg := buildRegistry(t, suite, &testsuite.CaseMetadata{Name: "boot", Func: nop})
	sink := &captureStore{}
	r, err := NewRunner(Config{
		Runbook:  parseRunbook(t, singleEnvRunbook),
		Registry: reg,
		Platform: &mockPlatform{},
		Store:    sink,
		Log:      zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	if _, err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if sink.run == nil {
		t.Fatal("run not persisted")
	}
	if sink.run.Name != "unit" {
		t.Fatalf("run name = %q, want unit", sink.run.Name)
	}
	if len(sink.records) != 1 || sink.records[0].Name != "smoke.boot" {
		t.Fatalf("records = %+v", sink.records)
	}
}

type captureStore struct {
	run     *stores.Run
	records []stores.CaseRecord
}

func (c *captureStore) SaveRun(ctx context.Context, run *stores.Run, results []stores.CaseRecord) error {
	c.run = run
	c.records = results
	return nil
}
