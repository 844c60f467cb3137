package environment

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/arbal/LISAv2/pkg/schema"
	"github.com/arbal/LISAv2/pkg/search"
)

func twoNodeConfig(name string) schema.EnvironmentConfig {
	return schema.EnvironmentConfig{
		Name: name,
		Nodes: []schema.NodeConfig{
			{Name: name + "-0", Type: "local", NicCount: 2, OS: "ubuntu", Features: []string{"gpu"}},
			{Name: name + "-1", Type: "local", NicCount: 2, OS: "ubuntu", Features: []string{"gpu"}},
		},
	}
}

func TestCapabilityGroupsHomogeneousNodes(t *testing.T) {
	envs, err := Load([]schema.EnvironmentConfig{twoNodeConfig("pair")}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	capGroups := envs.List()[0].Capability()
	if len(capGroups.Nodes) != 1 {
		t.Fatalf("groups = %d, want 1", len(capGroups.Nodes))
	}
	group := capGroups.Nodes[0]
	if group.NodeCount.Min != 2 || group.NodeCount.Max != 2 {
		t.Errorf("node count = %s, want 2..2", group.NodeCount)
	}
	if group.NicCount.Min != 2 {
		t.Errorf("nic count = %s", group.NicCount)
	}
	if !group.Features.Has("gpu") {
		t.Error("features lost in grouping")
	}
}

func TestSpaceCheck(t *testing.T) {
	capability := &Space{Nodes: []NodeSpace{{
		NodeCount: search.NewIntRange(2, 2),
		NicCount:  search.NewIntRange(2, 2),
		Features:  search.NewSetSpace(true, "gpu"),
	}}}

	satisfied := NewSpace(NodeSpace{
		NodeCount: search.NewIntRange(1, 0),
		NicCount:  search.NewIntRange(1, 0),
		Features:  search.NewSetSpace(true, "gpu"),
	})
	if got := satisfied.Check(capability); !got.Result {
		t.Errorf("check failed: %v", got.Reasons)
	}

	tooMany := NewSpace(NodeSpace{
		NodeCount: search.NewIntRange(3, 0),
		NicCount:  search.NewIntRange(1, 0),
	})
	got := tooMany.Check(capability)
	if got.Result {
		t.Error("3-node requirement satisfied by 2-node capability")
	}
	if len(got.Reasons) == 0 || !strings.Contains(got.Reasons[0], "node_count") {
		t.Errorf("reasons not labeled: %v", got.Reasons)
	}

	missingFeature := NewSpace(NodeSpace{
		NodeCount: search.NewIntRange(1, 0),
		NicCount:  search.NewIntRange(1, 0),
		Features:  search.NewSetSpace(true, "sriov"),
	})
	if missingFeature.Check(capability).Result {
		t.Error("requirement for missing feature must fail")
	}

	excluded := NewSpace(NodeSpace{
		NodeCount:        search.NewIntRange(1, 0),
		NicCount:         search.NewIntRange(1, 0),
		ExcludedFeatures: search.NewSetSpace(false, "gpu"),
	})
	if excluded.Check(capability).Result {
		t.Error("excluded feature present, check must fail")
	}
}

func TestGetOrCreateFirstFit(t *testing.T) {
	envs, err := Load([]schema.EnvironmentConfig{
		twoNodeConfig("first"),
		twoNodeConfig("second"),
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	req := NewSpace(NodeSpace{
		NodeCount: search.NewIntRange(1, 0),
		NicCount:  search.NewIntRange(1, 0),
	})
	env := envs.GetOrCreate(req)
	if env.Name != "first" {
		t.Errorf("first-fit picked %q, want first", env.Name)
	}
	if len(envs.List()) != 2 {
		t.Error("reuse must not grow the working set")
	}
}

func TestGetOrCreateSynthesizes(t *testing.T) {
	envs, err := Load([]schema.EnvironmentConfig{twoNodeConfig("small")}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	req := NewSpace(NodeSpace{
		NodeCount: search.NewIntRange(4, 0),
		NicCount:  search.NewIntRange(1, 0),
	})
	env := envs.GetOrCreate(req)
	if env.IsPredefined {
		t.Fatal("synthesized environment marked predefined")
	}
	if env.RequestedSpace.Nodes[0].NodeCount.Min != 4 || env.RequestedSpace.Nodes[0].NodeCount.Max != 4 {
		t.Errorf("lower bound = %s, want 4..4", env.RequestedSpace.Nodes[0].NodeCount)
	}
	if len(envs.List()) != 2 {
		t.Error("synthesized environment must join the working set")
	}

	// a later identical requirement reuses the synthesized environment
	again := envs.GetOrCreate(req)
	if again != env {
		t.Error("second call must reuse the synthesized environment")
	}
}

func TestFromRequirementAlwaysFresh(t *testing.T) {
	envs := &Environments{log: zerolog.Nop()}
	req := NewSpace()

	a := envs.FromRequirement(req)
	b := envs.FromRequirement(req)
	if a == b || a.Name == b.Name {
		t.Error("isolation must synthesize a fresh environment per call")
	}
	if len(envs.List()) != 2 {
		t.Errorf("working set = %d, want 2", len(envs.List()))
	}
}

func TestStatusLifecycle(t *testing.T) {
	env := &Environment{Name: "n"}
	if env.Status() != StatusCreated {
		t.Errorf("initial status = %s", env.Status())
	}
	env.SetStatus(StatusProvisioning)
	env.SetStatus(StatusReady)
	if !env.IsReady() {
		t.Error("not ready after StatusReady")
	}
	if err := env.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if env.Status() != StatusDeleted {
		t.Errorf("status after close = %s", env.Status())
	}
}

func TestFeatureRegistration(t *testing.T) {
	if !IsKnownFeature("sriov") || !IsKnownFeature("SRIOV") {
		t.Error("built-in feature lookup must be case-insensitive")
	}
	if IsKnownFeature("warp_drive") {
		t.Error("unregistered feature must be unknown")
	}
	name := RegisterFeature("Warp_Drive")
	if name != "warp_drive" {
		t.Errorf("canonical name = %q, want warp_drive", name)
	}
	if !IsKnownFeature("warp_drive") {
		t.Error("registered feature must be known")
	}
}

func TestNodeFeaturesCanonicalized(t *testing.T) {
	node, err := NewNodeFromConfig(schema.NodeConfig{
		Name:     "node-0",
		Type:     "local",
		NicCount: 1,
		Features: []string{"SRIOV", "gpu"},
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewNodeFromConfig: %v", err)
	}
	defer func() { _ = node.Close() }()
	if node.Features[0] != "sriov" || node.Features[1] != "gpu" {
		t.Errorf("features = %v, want lower-cased", node.Features)
	}
}
