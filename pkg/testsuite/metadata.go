// Package testsuite models test declarations and their execution: suite
// and case metadata, per-run runtime settings, the result status
// machine, and the suite runner that drives batches on a deployed
// environment.
package testsuite

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/arbal/LISAv2/pkg/environment"
)

// RunContext carries everything a hook or test body may need at run
// time. Fields are set by the suite runner before each invocation.
type RunContext struct {
	// Environment is the deployed environment the batch runs on.
	Environment *environment.Environment

	// Result is the case being executed; nil for suite-level hooks.
	Result *TestResult

	// Log is scoped to the suite or case.
	Log zerolog.Logger
}

// CaseFunc is the body of one test case.
type CaseFunc func(ctx context.Context, rc *RunContext) error

// HookFunc is a suite or case lifecycle hook.
type HookFunc func(ctx context.Context, rc *RunContext) error

// SuiteHooks are the optional lifecycle hooks of a suite. Nil hooks
// are skipped.
type SuiteHooks struct {
	// BeforeSuite runs once per batch. Its failure skips every case
	// in the batch.
	BeforeSuite HookFunc

	// AfterSuite runs once per batch regardless of outcomes. Its
	// failure is logged only.
	AfterSuite HookFunc

	// BeforeCase runs before each case with the case's retry budget.
	// Exhausting the budget skips the case body.
	BeforeCase HookFunc

	// AfterCase runs after each case even when BeforeCase failed.
	// Its failure never changes the case status.
	AfterCase HookFunc
}

// SuiteMetadata is the immutable declaration of a test suite.
type SuiteMetadata struct {
	Name        string
	Area        string
	Category    string
	Description string
	Tags        []string

	// Requirement is the suite-level default, used by cases that do
	// not declare their own.
	Requirement *Requirement

	Hooks SuiteHooks

	cases []*CaseMetadata
}

// Cases returns the suite's case declarations in registration order.
func (s *SuiteMetadata) Cases() []*CaseMetadata {
	return s.cases
}

// HasTag reports whether the suite carries the tag.
func (s *SuiteMetadata) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// CaseMetadata is the immutable declaration of one test case.
type CaseMetadata struct {
	Name        string
	Description string
	Priority    int

	// Requirement overrides the suite default when non-nil.
	Requirement *Requirement

	// Suite is set by the registry when the case is added.
	Suite *SuiteMetadata

	// Func is the case body.
	Func CaseFunc
}

// FullName is the globally unique case identifier.
func (c *CaseMetadata) FullName() string {
	if c.Suite == nil {
		return c.Name
	}
	return c.Suite.Name + "." + c.Name
}

// EffectiveRequirement resolves the case requirement, falling back to
// the suite default and then to the global default.
func (c *CaseMetadata) EffectiveRequirement() *Requirement {
	if c.Requirement != nil {
		return c.Requirement
	}
	if c.Suite != nil && c.Suite.Requirement != nil {
		return c.Suite.Requirement
	}
	return DefaultRequirement()
}
