package testsuite

// CaseRuntimeData is the mutable per-run configuration of one
// scheduled case. The declaration in CaseMetadata never changes;
// selection criteria adjust these fields instead, and Clone keeps
// repeated schedules of the same case from aliasing each other.
type CaseRuntimeData struct {
	metadata *CaseMetadata

	// Retry is the number of extra attempts per hook and body.
	Retry int

	// UseNewEnvironment forces a fresh environment for this case.
	UseNewEnvironment bool

	// IgnoreFailure turns a terminal failure into Attempted.
	IgnoreFailure bool

	// EnvironmentName pins the case to a named environment.
	EnvironmentName string
}

// NewCaseRuntimeData binds runtime defaults to a case declaration.
func NewCaseRuntimeData(metadata *CaseMetadata) *CaseRuntimeData {
	return &CaseRuntimeData{metadata: metadata}
}

// Metadata returns the underlying declaration.
func (r *CaseRuntimeData) Metadata() *CaseMetadata {
	return r.metadata
}

// FullName returns the declaration's full name.
func (r *CaseRuntimeData) FullName() string {
	return r.metadata.FullName()
}

// Requirement resolves the effective requirement of the declaration.
func (r *CaseRuntimeData) Requirement() *Requirement {
	return r.metadata.EffectiveRequirement()
}

// Clone returns an independent copy sharing the same declaration.
func (r *CaseRuntimeData) Clone() *CaseRuntimeData {
	clone := *r
	return &clone
}
