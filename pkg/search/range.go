package search

import "fmt"

// IntRange is an inclusive numeric interval. A Max of zero means the range
// has no upper bound; counts in this system are always at least one, so zero
// is never a legal concrete maximum.
type IntRange struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max,omitempty" json:"max,omitempty"`
}

// NewIntRange builds a bounded range. Use max of zero for an unbounded one.
func NewIntRange(min, max int) IntRange {
	return IntRange{Min: min, Max: max}
}

// Unbounded reports whether the range has no upper bound.
func (r IntRange) Unbounded() bool {
	return r.Max == 0
}

// Validate checks the min<=max invariant when both bounds are present.
func (r IntRange) Validate() error {
	if r.Min < 0 {
		return fmt.Errorf("range min must not be negative, got %d", r.Min)
	}
	if !r.Unbounded() && r.Min > r.Max {
		return fmt.Errorf("range min %d is greater than max %d", r.Min, r.Max)
	}
	return nil
}

// Check reports whether the candidate range is fully contained in this one.
func (r IntRange) Check(candidate IntRange) *ResultReason {
	result := NewResultReason()
	if candidate.Min < r.Min {
		result.Add(false, fmt.Sprintf("min %d is less than required %d", candidate.Min, r.Min))
	}
	if !r.Unbounded() {
		if candidate.Unbounded() {
			result.Add(false, fmt.Sprintf("unbounded max exceeds required max %d", r.Max))
		} else if candidate.Max > r.Max {
			result.Add(false, fmt.Sprintf("max %d is greater than required %d", candidate.Max, r.Max))
		}
	}
	return result
}

// Intersect returns the tightest interval common to both ranges, or
// ErrUnsatisfiable when they do not overlap. Two unbounded maxima stay
// unbounded.
func (r IntRange) Intersect(other IntRange) (IntRange, error) {
	merged := IntRange{Min: r.Min}
	if other.Min > merged.Min {
		merged.Min = other.Min
	}
	switch {
	case r.Unbounded():
		merged.Max = other.Max
	case other.Unbounded():
		merged.Max = r.Max
	case r.Max < other.Max:
		merged.Max = r.Max
	default:
		merged.Max = other.Max
	}
	if !merged.Unbounded() && merged.Min > merged.Max {
		return IntRange{}, fmt.Errorf("%w: [%s] and [%s] do not overlap", ErrUnsatisfiable, r, other)
	}
	return merged, nil
}

func (r IntRange) String() string {
	if r.Unbounded() {
		return fmt.Sprintf("%d..", r.Min)
	}
	return fmt.Sprintf("%d..%d", r.Min, r.Max)
}
