package environment

import (
	"sort"
	"strings"
	"sync"
)

// Feature names are registered once at startup, like OS classifiers,
// so a misspelled feature in a runbook is caught when the node is
// materialized instead of silently never matching any requirement.
var (
	featureMu    sync.RWMutex
	featureNames = map[string]struct{}{}
)

// Built-in features every platform understands.
var (
	FeatureSRIOV      = RegisterFeature("sriov")
	FeatureGPU        = RegisterFeature("gpu")
	FeatureNVMe       = RegisterFeature("nvme")
	FeatureInfiniband = RegisterFeature("infiniband")
	FeatureNestedVirt = RegisterFeature("nested_virtualization")
)

// RegisterFeature adds a feature name to the known set and returns the
// canonical (lower-cased) name. Registering twice is harmless.
func RegisterFeature(name string) string {
	canonical := strings.ToLower(name)
	featureMu.Lock()
	featureNames[canonical] = struct{}{}
	featureMu.Unlock()
	return canonical
}

// IsKnownFeature reports whether the name was registered.
func IsKnownFeature(name string) bool {
	featureMu.RLock()
	defer featureMu.RUnlock()
	_, ok := featureNames[strings.ToLower(name)]
	return ok
}

// KnownFeatures returns the registered names, sorted.
func KnownFeatures() []string {
	featureMu.RLock()
	defer featureMu.RUnlock()
	out := make([]string, 0, len(featureNames))
	for name := range featureNames {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
