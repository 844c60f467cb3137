package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/arbal/LISAv2/pkg/environment"
	"github.com/arbal/LISAv2/pkg/schema"
)

// TypeReady is the platform type for pre-existing infrastructure.
const TypeReady = "ready"

// readySettings holds the optional knobs of the ready platform.
type readySettings struct {
	// DeployDelayMS simulates a provisioning delay, mostly useful in
	// tests and demos.
	DeployDelayMS int `yaml:"deploy_delay_ms"`
}

// ReadyPlatform serves environments whose nodes already exist. It
// performs no provisioning of its own, so it can only deploy
// environments that carry concrete nodes from the runbook. Requested
// environments without nodes are declined during preparation.
type ReadyPlatform struct {
	log      zerolog.Logger
	settings readySettings
}

// NewReadyPlatform returns an unconfigured ready platform.
func NewReadyPlatform() *ReadyPlatform {
	return &ReadyPlatform{}
}

func (p *ReadyPlatform) Type() string {
	return TypeReady
}

func (p *ReadyPlatform) Configure(cfg *schema.PlatformConfig, log zerolog.Logger) error {
	p.log = log.With().Str("platform", TypeReady).Logger()
	if cfg == nil {
		return nil
	}
	if err := cfg.DecodeSettings(&p.settings); err != nil {
		return fmt.Errorf("decode ready platform settings: %w", err)
	}
	return nil
}

// PrepareEnvironments keeps environments that carry concrete nodes.
// Predefined environments come first so cheap reuse is attempted
// before anything synthesized from requirements.
func (p *ReadyPlatform) PrepareEnvironments(ctx context.Context, envs *environment.Environments) ([]*environment.Environment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var predefined, generated []*environment.Environment
	for _, env := range envs.List() {
		if len(env.Nodes) == 0 {
			p.log.Debug().Str("environment", env.Name).
				Msg("declining nodeless environment, ready platform cannot provision nodes")
			continue
		}
		if env.IsPredefined {
			predefined = append(predefined, env)
		} else {
			generated = append(generated, env)
		}
	}
	return append(predefined, generated...), nil
}

func (p *ReadyPlatform) DeployEnvironment(ctx context.Context, env *environment.Environment) error {
	env.SetStatus(environment.StatusProvisioning)
	if p.settings.DeployDelayMS > 0 {
		select {
		case <-time.After(time.Duration(p.settings.DeployDelayMS) * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if len(env.Nodes) == 0 {
		return &WaitMoreResourceError{Reason: "no nodes available for " + env.Name}
	}
	env.SetStatus(environment.StatusReady)
	p.log.Info().Str("environment", env.Name).Int("nodes", len(env.Nodes)).
		Msg("environment deployed")
	return nil
}

func (p *ReadyPlatform) DeleteEnvironment(ctx context.Context, env *environment.Environment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := env.Close(); err != nil {
		return fmt.Errorf("delete environment %s: %w", env.Name, err)
	}
	p.log.Info().Str("environment", env.Name).Msg("environment deleted")
	return nil
}
