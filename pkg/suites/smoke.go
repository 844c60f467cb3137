// Package suites holds the built-in test suites compiled into the lisa
// binary. RegisterAll is called once at startup; the registry rejects
// duplicate names with a fatal error.
package suites

import (
	"context"
	"fmt"
	"strings"

	"github.com/arbal/LISAv2/pkg/testsuite"
)

// RegisterAll adds every built-in suite to the registry.
func RegisterAll(reg *testsuite.Registry) error {
	registrations := []func(*testsuite.Registry) error{
		registerSmoke,
	}
	for _, register := range registrations {
		if err := register(reg); err != nil {
			return err
		}
	}
	return nil
}

func registerSmoke(reg *testsuite.Registry) error {
	suite := &testsuite.SuiteMetadata{
		Name:        "smoke",
		Area:        "core",
		Category:    "functional",
		Tags:        []string{"smoke"},
		Description: "Basic node health checks over the command transport.",
	}
	if err := reg.AddSuite(suite); err != nil {
		return err
	}
	cases := []*testsuite.CaseMetadata{
		{
			Name:        "echo",
			Priority:    0,
			Description: "Verifies the node shell runs a trivial command.",
			Func:        runEcho,
		},
		{
			Name:        "work_dir",
			Priority:    1,
			Description: "Verifies directory create, stat, and remove on the node.",
			Func:        runWorkDir,
		},
	}
	for _, c := range cases {
		if err := reg.AddCase(suite.Name, c); err != nil {
			return err
		}
	}
	return nil
}

func envName(rc *testsuite.RunContext) string {
	if rc.Environment == nil {
		return "<none>"
	}
	return rc.Environment.Name
}

func runEcho(ctx context.Context, rc *testsuite.RunContext) error {
	if rc.Environment == nil || len(rc.Environment.Nodes) == 0 {
		return fmt.Errorf("environment %s has no nodes", envName(rc))
	}
	node := rc.Environment.Nodes[0]

	res, err := node.Shell.Spawn(ctx, "echo lisa-smoke")
	if err != nil {
		return fmt.Errorf("spawn on %s: %w", node.Name, err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("echo exited %d: %s", res.ExitCode, res.Stderr)
	}
	if !strings.Contains(res.Stdout, "lisa-smoke") {
		return fmt.Errorf("unexpected stdout %q", res.Stdout)
	}
	rc.Log.Debug().Str("node", node.Name).Dur("elapsed", res.Elapsed).Msg("echo ok")
	return nil
}

func runWorkDir(ctx context.Context, rc *testsuite.RunContext) error {
	if rc.Environment == nil || len(rc.Environment.Nodes) == 0 {
		return fmt.Errorf("environment %s has no nodes", envName(rc))
	}
	node := rc.Environment.Nodes[0]
	dir := "/tmp/lisa-smoke-" + rc.Environment.Name

	if err := node.Shell.Mkdir(ctx, dir); err != nil {
		return fmt.Errorf("mkdir on %s: %w", node.Name, err)
	}
	defer func() {
		_ = node.Shell.Remove(context.WithoutCancel(ctx), dir)
	}()

	exists, err := node.Shell.Exists(ctx, dir)
	if err != nil {
		return fmt.Errorf("exists on %s: %w", node.Name, err)
	}
	if !exists {
		return fmt.Errorf("%s missing after mkdir", dir)
	}
	info, err := node.Shell.Stat(ctx, dir)
	if err != nil {
		return fmt.Errorf("stat on %s: %w", node.Name, err)
	}
	if !info.IsDir {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
