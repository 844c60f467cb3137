// Package search implements the requirement/capability value model used by
// the scheduler: numeric ranges and allow/deny sets that can be checked
// against a candidate and intersected with each other. Composite checks merge
// their sub-results so the full chain of mismatch reasons is preserved.
package search

import (
	"errors"
	"fmt"
)

// ErrUnsatisfiable is returned by Intersect when two spaces have no common
// value.
var ErrUnsatisfiable = errors.New("unsatisfiable requirement")

// ResultReason is the outcome of a capability check: a boolean result plus
// the ordered list of human-readable reasons collected from failing
// sub-checks.
type ResultReason struct {
	Result  bool
	Reasons []string
}

// NewResultReason returns a passing result with no reasons.
func NewResultReason() *ResultReason {
	return &ResultReason{Result: true}
}

// FailedResult returns a failing result carrying a single reason.
func FailedResult(reason string) *ResultReason {
	return &ResultReason{Result: false, Reasons: []string{reason}}
}

// Add records one sub-check outcome. A failing outcome flips the overall
// result and appends its reason.
func (r *ResultReason) Add(result bool, reason string) {
	if !result {
		r.Result = false
		r.Reasons = append(r.Reasons, reason)
	}
}

// Merge combines another check result into this one. The overall result is
// the logical AND; reasons from a failing merge are appended in call order,
// prefixed with the given context label so the failing sub-requirement can be
// traced.
func (r *ResultReason) Merge(other *ResultReason, label string) {
	if other == nil {
		return
	}
	r.Result = r.Result && other.Result
	for _, reason := range other.Reasons {
		if label != "" {
			reason = fmt.Sprintf("%s: %s", label, reason)
		}
		r.Reasons = append(r.Reasons, reason)
	}
}

// String renders the reasons as a single message, suitable for a skip reason.
func (r *ResultReason) String() string {
	if len(r.Reasons) == 0 {
		if r.Result {
			return "ok"
		}
		return "failed"
	}
	out := r.Reasons[0]
	for _, reason := range r.Reasons[1:] {
		out += "; " + reason
	}
	return out
}
