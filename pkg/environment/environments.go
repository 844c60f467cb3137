package environment

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arbal/LISAv2/pkg/schema"
)

// Environments is the working set of candidate environments for one run:
// predefined environments from the runbook plus environments synthesized on
// demand from workload requirements. Iteration order is load/creation order,
// which makes reuse first-fit and deterministic.
type Environments struct {
	log  zerolog.Logger
	list []*Environment
}

// Load materializes the predefined environments from the runbook.
func Load(configs []schema.EnvironmentConfig, log zerolog.Logger) (*Environments, error) {
	envs := &Environments{log: log.With().Str("component", "environments").Logger()}
	for _, cfg := range configs {
		env := &Environment{
			Name:         cfg.Name,
			IsPredefined: true,
		}
		for _, nodeCfg := range cfg.Nodes {
			node, err := NewNodeFromConfig(nodeCfg, log)
			if err != nil {
				return nil, fmt.Errorf("environment %q: %w", cfg.Name, err)
			}
			env.Nodes = append(env.Nodes, node)
		}
		envs.list = append(envs.list, env)
		envs.log.Debug().Str("environment", cfg.Name).Int("nodes", len(env.Nodes)).
			Msg("loaded predefined environment")
	}
	return envs, nil
}

// List returns the working set in iteration order. The slice must not be
// mutated by callers.
func (e *Environments) List() []*Environment {
	return e.list
}

// Get returns the environment with the given name, or nil.
func (e *Environments) Get(name string) *Environment {
	for _, env := range e.list {
		if env.Name == name {
			return env
		}
	}
	return nil
}

// GetOrCreate returns the first environment whose current capability already
// satisfies the requirement, or synthesizes a new on-demand environment at
// the requirement's lower bound. Synthesized environments join the working
// set so later calls may reuse them.
func (e *Environments) GetOrCreate(space *Space) *Environment {
	for _, env := range e.list {
		if space.Check(env.Capability()).Result {
			e.log.Debug().Str("environment", env.Name).Msg("requirement satisfied by existing environment")
			return env
		}
	}
	return e.FromRequirement(space)
}

// FromRequirement always synthesizes a fresh on-demand environment from the
// requirement, used when a workload demands isolation.
func (e *Environments) FromRequirement(space *Space) *Environment {
	env := &Environment{
		Name:           fmt.Sprintf("generated-%s", strings.Split(uuid.NewString(), "-")[0]),
		RequestedSpace: space.LowerBound(),
	}
	e.list = append(e.list, env)
	e.log.Debug().Str("environment", env.Name).Msg("synthesized on-demand environment")
	return env
}
