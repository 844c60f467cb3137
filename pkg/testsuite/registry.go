package testsuite

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arbal/LISAv2/pkg/retry"
)

// Registry holds every known suite and case declaration for one
// process. It is populated during startup; duplicate names are fatal
// configuration errors, never retried or papered over.
type Registry struct {
	mu     sync.RWMutex
	log    zerolog.Logger
	suites map[string]*SuiteMetadata
	cases  map[string]*CaseMetadata
	order  []*CaseMetadata
}

// NewRegistry returns an empty registry.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		log:    log.With().Str("component", "registry").Logger(),
		suites: make(map[string]*SuiteMetadata),
		cases:  make(map[string]*CaseMetadata),
	}
}

// AddSuite registers a suite declaration.
func (r *Registry) AddSuite(suite *SuiteMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.suites[suite.Name]; ok {
		return retry.Fatal(fmt.Errorf("duplicate suite name %q", suite.Name))
	}
	r.suites[suite.Name] = suite
	r.log.Debug().Str("suite", suite.Name).Msg("suite registered")
	return nil
}

// AddCase registers a case under an already-registered suite. The
// case's full name must be unique across all suites.
func (r *Registry) AddCase(suiteName string, c *CaseMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	suite, ok := r.suites[suiteName]
	if !ok {
		return retry.Fatal(fmt.Errorf("unknown suite %q for case %q", suiteName, c.Name))
	}
	c.Suite = suite
	full := c.FullName()
	if _, ok := r.cases[full]; ok {
		return retry.Fatal(fmt.Errorf("duplicate case name %q", full))
	}
	r.cases[full] = c
	suite.cases = append(suite.cases, c)
	r.order = append(r.order, c)
	return nil
}

// Cases returns all case declarations in registration order.
func (r *Registry) Cases() []*CaseMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*CaseMetadata(nil), r.order...)
}

// Suite looks up a suite by name.
func (r *Registry) Suite(name string) (*SuiteMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.suites[name]
	return s, ok
}

// FindCase looks up a case by full name.
func (r *Registry) FindCase(fullName string) (*CaseMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cases[fullName]
	return c, ok
}
