package suites

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/arbal/LISAv2/pkg/environment"
	"github.com/arbal/LISAv2/pkg/notifier"
	"github.com/arbal/LISAv2/pkg/schema"
	"github.com/arbal/LISAv2/pkg/testsuite"
)

func TestRegisterAll(t *testing.T) {
	reg := testsuite.NewRegistry(zerolog.Nop())
	if err := RegisterAll(reg); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	if _, ok := reg.FindCase("smoke.echo"); !ok {
		t.Fatal("smoke.echo not registered")
	}
	if _, ok := reg.FindCase("smoke.work_dir"); !ok {
		t.Fatal("smoke.work_dir not registered")
	}
	if err := RegisterAll(reg); err == nil {
		t.Fatal("second registration must fail on duplicates")
	}
}

func TestSmokeSuiteAgainstLocalNode(t *testing.T) {
	reg := testsuite.NewRegistry(zerolog.Nop())
	if err := RegisterAll(reg); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	suite, ok := reg.Suite("smoke")
	if !ok {
		t.Fatal("smoke suite missing")
	}

	envs, err := environment.Load([]schema.EnvironmentConfig{
		{Name: "local", Nodes: []schema.NodeConfig{{Name: "node-0", Type: "local", NicCount: 1}}},
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	env := envs.Get("local")
	defer func() { _ = env.Close() }()

	hub := notifier.NewHub(zerolog.Nop())
	var results []*testsuite.TestResult
	for _, c := range suite.Cases() {
		results = append(results, testsuite.NewTestResult(testsuite.NewCaseRuntimeData(c), hub, zerolog.Nop()))
	}

	runner := testsuite.NewSuiteRunner(suite, env, results, zerolog.Nop())
	if err := runner.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for _, result := range results {
		if result.Status() != testsuite.StatusPassed {
			t.Fatalf("%s = %s (%s), want passed", result.Runtime.FullName(), result.Status(), result.Message())
		}
	}
}
