package testsuite

import (
	"fmt"

	"github.com/arbal/LISAv2/pkg/environment"
	"github.com/arbal/LISAv2/pkg/osinfo"
	"github.com/arbal/LISAv2/pkg/search"
)

// Requirement is what a test case demands from the infrastructure: a
// topology of node groups, plus optional constraints on the platform
// type and the node operating systems.
type Requirement struct {
	// Environment describes the node groups the case needs.
	Environment *environment.Space

	// PlatformType restricts which platform implementations may host
	// the case. Nil means any platform.
	PlatformType *search.SetSpace[string]

	// OSType restricts the operating system of the environment's
	// nodes, matched against the OS classifier hierarchy. Nil means
	// any OS.
	OSType *search.SetSpace[string]
}

// DefaultRequirement asks for one node group of at least one node with
// at least one NIC, on any platform and OS.
func DefaultRequirement() *Requirement {
	return &Requirement{
		Environment: environment.NewSpace(environment.DefaultNodeSpace()),
	}
}

// CheckPlatform reports whether the active platform type satisfies
// this requirement.
func (r *Requirement) CheckPlatform(platformType string) *search.ResultReason {
	if r.PlatformType == nil || r.PlatformType.Len() == 0 {
		return search.NewResultReason()
	}
	return r.PlatformType.Check(search.NewSetSpace(true, platformType))
}

// Check reports whether the environment satisfies this requirement,
// combining the topology check with the OS constraint. OS matching
// walks the classifier hierarchy, so a requirement on "Linux" accepts
// an Ubuntu node.
func (r *Requirement) Check(env *environment.Environment) *search.ResultReason {
	result := search.NewResultReason()

	space := r.Environment
	if space == nil {
		space = environment.NewSpace(environment.DefaultNodeSpace())
	}
	result.Merge(space.Check(env.Capability()), "environment")

	if r.OSType != nil && r.OSType.Len() > 0 {
		for _, node := range env.Nodes {
			if node.OS == nil {
				continue
			}
			result.Merge(checkOS(node.OS, r.OSType), "node "+node.Name)
		}
	}
	return result
}

// checkOS matches one concrete OS against a classifier set. An allow
// set is satisfied when the OS or any of its ancestors is listed; a
// deny set fails on the same condition.
func checkOS(os *osinfo.OS, set *search.SetSpace[string]) *search.ResultReason {
	listed := false
	for _, name := range set.Items() {
		if os.Satisfies(name) {
			listed = true
			break
		}
	}
	result := search.NewResultReason()
	if set.IsAllow {
		result.Add(listed, fmt.Sprintf("os %s not in allowed set %v", os, set.Items()))
	} else {
		result.Add(!listed, fmt.Sprintf("os %s is in denied set %v", os, set.Items()))
	}
	return result
}
