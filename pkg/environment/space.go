// Package environment models candidate execution environments: the nodes
// they offer, their capability profile, and the working set the scheduler
// draws from. Environments are either predefined in the runbook with
// explicit capability, or synthesized on demand from a workload's
// requirement.
package environment

import (
	"fmt"

	"github.com/arbal/LISAv2/pkg/search"
)

// NodeSpace describes one homogeneous group of nodes, either as a
// requirement (ranges and feature constraints) or as a concrete capability
// (point ranges and offered features).
type NodeSpace struct {
	// NodeCount is the acceptable number of nodes in the group.
	NodeCount search.IntRange `yaml:"node_count"`

	// NicCount is the acceptable number of network interfaces per node.
	NicCount search.IntRange `yaml:"nic_count"`

	// Features are the feature names every node in the group must offer.
	Features *search.SetSpace[string] `yaml:"-"`

	// ExcludedFeatures are feature names no node in the group may offer.
	ExcludedFeatures *search.SetSpace[string] `yaml:"-"`
}

// DefaultNodeSpace returns the weakest requirement: at least one node with
// at least one NIC.
func DefaultNodeSpace() NodeSpace {
	return NodeSpace{
		NodeCount: search.NewIntRange(1, 0),
		NicCount:  search.NewIntRange(1, 0),
	}
}

// Check verifies a concrete node group capability against this requirement.
// All sub-checks run so the reasons are complete.
func (s NodeSpace) Check(capability NodeSpace) *search.ResultReason {
	result := search.NewResultReason()
	result.Merge(s.NodeCount.Check(capability.NodeCount), "node_count")
	result.Merge(s.NicCount.Check(capability.NicCount), "nic_count")

	// required features: the capability's offered set must contain each one
	if s.Features.Len() > 0 {
		if capability.Features.Len() == 0 {
			result.Add(false, fmt.Sprintf("features: %v are required, none offered", s.Features.Items()))
		} else {
			offered := search.NewSetSpace(true, capability.Features.Items()...)
			result.Merge(offered.Check(s.Features), "features")
		}
	}
	// excluded features: none of the offered values may be excluded
	if s.ExcludedFeatures.Len() > 0 {
		result.Merge(s.ExcludedFeatures.Check(capability.Features), "excluded_features")
	}
	return result
}

// LowerBound returns the cheapest concrete group satisfying the requirement:
// minimum counts, exactly the required features.
func (s NodeSpace) LowerBound() NodeSpace {
	return NodeSpace{
		NodeCount: search.NewIntRange(s.NodeCount.Min, s.NodeCount.Min),
		NicCount:  search.NewIntRange(s.NicCount.Min, s.NicCount.Min),
		Features:  s.Features,
	}
}

// Space is an environment requirement or capability: an ordered list of node
// groups, supporting heterogeneous multi-role topologies.
type Space struct {
	Nodes []NodeSpace
}

// NewSpace builds a space from node groups. An empty argument list yields
// the default single-group requirement.
func NewSpace(nodes ...NodeSpace) *Space {
	if len(nodes) == 0 {
		nodes = []NodeSpace{DefaultNodeSpace()}
	}
	return &Space{Nodes: nodes}
}

// Check verifies a concrete capability against this requirement. Groups
// match pairwise by position; extra capability groups beyond the required
// ones are acceptable.
func (s *Space) Check(capability *Space) *search.ResultReason {
	result := search.NewResultReason()
	if capability == nil || len(capability.Nodes) < len(s.Nodes) {
		have := 0
		if capability != nil {
			have = len(capability.Nodes)
		}
		result.Add(false, fmt.Sprintf("needs %d node groups, capability has %d", len(s.Nodes), have))
		return result
	}
	for i, group := range s.Nodes {
		result.Merge(group.Check(capability.Nodes[i]), fmt.Sprintf("node[%d]", i))
	}
	return result
}

// LowerBound returns the cheapest concrete space satisfying the requirement.
func (s *Space) LowerBound() *Space {
	nodes := make([]NodeSpace, len(s.Nodes))
	for i, group := range s.Nodes {
		nodes[i] = group.LowerBound()
	}
	return &Space{Nodes: nodes}
}
