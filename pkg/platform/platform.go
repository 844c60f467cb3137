// Package platform abstracts the infrastructure layer that provisions
// environments. A platform receives requested environments, decides
// which ones it can serve, and deploys or deletes them on demand.
package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/arbal/LISAv2/pkg/environment"
	"github.com/arbal/LISAv2/pkg/schema"
)

// Platform provisions and tears down test environments.
type Platform interface {
	// Type returns the platform type name used in runbooks.
	Type() string

	// Configure applies platform settings from the runbook. It is
	// called exactly once before any other method.
	Configure(cfg *schema.PlatformConfig, log zerolog.Logger) error

	// PrepareEnvironments inspects the candidate environments and
	// returns the subset this platform can serve, in deployment
	// order. Environments left out are never deployed.
	PrepareEnvironments(ctx context.Context, envs *environment.Environments) ([]*environment.Environment, error)

	// DeployEnvironment provisions the environment's nodes and marks
	// it ready. Returning a WaitMoreResourceError signals a capacity
	// shortfall rather than a hard failure.
	DeployEnvironment(ctx context.Context, env *environment.Environment) error

	// DeleteEnvironment tears the environment down and releases its
	// resources.
	DeleteEnvironment(ctx context.Context, env *environment.Environment) error
}

// WaitMoreResourceError reports that the platform is out of capacity
// for the requested environment. The caller should move on and retry
// the workload elsewhere instead of failing it.
type WaitMoreResourceError struct {
	Reason string
}

func (e *WaitMoreResourceError) Error() string {
	return fmt.Sprintf("insufficient platform capacity: %s", e.Reason)
}

// IsWaitMoreResource reports whether err is a capacity shortfall.
func IsWaitMoreResource(err error) bool {
	var wait *WaitMoreResourceError
	return errors.As(err, &wait)
}
