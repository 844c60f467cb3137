package environment

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/arbal/LISAv2/pkg/search"
)

// Status is the lifecycle state of an environment.
type Status string

const (
	// StatusCreated is the initial state of a referenced or synthesized
	// environment.
	StatusCreated Status = "created"

	// StatusProvisioning is set while the platform deploys the environment.
	StatusProvisioning Status = "provisioning"

	// StatusReady means the environment can accept workloads.
	StatusReady Status = "ready"

	// StatusDeleted is terminal; the environment's resources are released.
	StatusDeleted Status = "deleted"
)

// Environment is one candidate set of compute nodes with a capability
// profile.
type Environment struct {
	// Name identifies the environment for the whole run.
	Name string

	// Nodes are the concrete machines, populated for predefined
	// environments at load time and for on-demand ones at deploy time.
	Nodes []*Node

	// IsPredefined marks environments loaded from the runbook; they are
	// used directly and never treated as on-demand templates.
	IsPredefined bool

	// RequestedSpace is the requirement an on-demand environment was
	// synthesized from; nil for predefined environments.
	RequestedSpace *Space

	mu     sync.RWMutex
	status Status
}

// Status returns the current lifecycle state.
func (e *Environment) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.status == "" {
		return StatusCreated
	}
	return e.status
}

// SetStatus moves the environment to the given state.
func (e *Environment) SetStatus(status Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = status
}

// IsReady reports whether the environment can accept workloads.
func (e *Environment) IsReady() bool {
	return e.Status() == StatusReady
}

// Capability describes what the environment currently offers, mirroring the
// requirement shape. Live nodes are grouped into homogeneous runs; an
// undeployed on-demand environment reports the lower bound of the
// requirement it was synthesized from.
func (e *Environment) Capability() *Space {
	if len(e.Nodes) == 0 {
		if e.RequestedSpace != nil {
			return e.RequestedSpace.LowerBound()
		}
		return &Space{}
	}

	var groups []NodeSpace
	for _, node := range e.Nodes {
		concrete := NodeSpace{
			NodeCount: search.NewIntRange(1, 1),
			NicCount:  search.NewIntRange(node.NicCount, node.NicCount),
			Features:  search.NewSetSpace(true, node.Features...),
		}
		if n := len(groups); n > 0 && sameProfile(groups[n-1], concrete) {
			count := groups[n-1].NodeCount.Min + 1
			groups[n-1].NodeCount = search.NewIntRange(count, count)
			continue
		}
		groups = append(groups, concrete)
	}
	return &Space{Nodes: groups}
}

// sameProfile reports whether two concrete groups can be merged: equal NIC
// count and equal feature sets.
func sameProfile(a, b NodeSpace) bool {
	if a.NicCount != b.NicCount {
		return false
	}
	return featureKey(a.Features) == featureKey(b.Features)
}

func featureKey(features *search.SetSpace[string]) string {
	items := append([]string(nil), features.Items()...)
	sort.Strings(items)
	return strings.Join(items, ",")
}

// Close releases every node's transport and marks the environment deleted.
func (e *Environment) Close() error {
	var errs []error
	for _, node := range e.Nodes {
		errs = append(errs, node.Close())
	}
	e.SetStatus(StatusDeleted)
	return errors.Join(errs...)
}
