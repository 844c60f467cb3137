package testsuite

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/arbal/LISAv2/pkg/retry"
	"github.com/arbal/LISAv2/pkg/schema"
)

// SelectCases filters the registry through the runbook's selection
// entries and returns the scheduled runtime records. Each entry's
// overrides apply to every case it matches; a later entry matching the
// same case updates that case's settings rather than scheduling it
// again. Times controls how many clones of a case are scheduled. An
// entry that matches nothing is a configuration error.
func SelectCases(reg *Registry, selects []schema.CaseSelectConfig, log zerolog.Logger) ([]*CaseRuntimeData, error) {
	selected := make(map[string][]*CaseRuntimeData)
	var order []string

	for i, cfg := range selects {
		matched := matchCriteria(reg, cfg.Criteria)
		if len(matched) == 0 {
			return nil, retry.Fatal(fmt.Errorf("selection entry %d matches no registered case", i))
		}
		for _, meta := range matched {
			full := meta.FullName()
			clones, ok := selected[full]
			if !ok {
				clones = []*CaseRuntimeData{NewCaseRuntimeData(meta)}
				order = append(order, full)
			}
			times := cfg.Times
			if times < 1 {
				times = 1
			}
			for len(clones) < times {
				clones = append(clones, clones[0].Clone())
			}
			clones = clones[:times]
			for _, clone := range clones {
				applyOverrides(clone, cfg)
			}
			selected[full] = clones
		}
		log.Debug().Int("entry", i).Int("matched", len(matched)).Msg("selection entry applied")
	}

	var out []*CaseRuntimeData
	for _, full := range order {
		out = append(out, selected[full]...)
	}
	return out, nil
}

func applyOverrides(rt *CaseRuntimeData, cfg schema.CaseSelectConfig) {
	if cfg.Retry > 0 {
		rt.Retry = cfg.Retry
	}
	if cfg.UseNewEnvironment {
		rt.UseNewEnvironment = true
	}
	if cfg.IgnoreFailure {
		rt.IgnoreFailure = true
	}
	if cfg.EnvironmentName != "" {
		rt.EnvironmentName = cfg.EnvironmentName
	}
}

// matchCriteria returns the declarations matching every populated
// criteria field, in registration order.
func matchCriteria(reg *Registry, crit schema.CriteriaConfig) []*CaseMetadata {
	var out []*CaseMetadata
	for _, meta := range reg.Cases() {
		if crit.Name != "" && crit.Name != meta.Name && crit.Name != meta.FullName() {
			continue
		}
		if crit.Area != "" && (meta.Suite == nil || crit.Area != meta.Suite.Area) {
			continue
		}
		if crit.Category != "" && (meta.Suite == nil || crit.Category != meta.Suite.Category) {
			continue
		}
		if crit.Priority != nil && *crit.Priority != meta.Priority {
			continue
		}
		if !hasAllTags(meta.Suite, crit.Tags) {
			continue
		}
		out = append(out, meta)
	}
	return out
}

func hasAllTags(suite *SuiteMetadata, tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	if suite == nil {
		return false
	}
	for _, tag := range tags {
		if !suite.HasTag(tag) {
			return false
		}
	}
	return true
}
