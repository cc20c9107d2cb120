package autocrop

import (
	"fmt"
	"strings"
)

// PolicyKind selects how a sampled value is judged.
type PolicyKind int

const (
	// PolicyPositiveCoverage treats a pixel as valid when its minimum
	// combined value is above zero, i.e. every frame contributed to it.
	PolicyPositiveCoverage PolicyKind = iota

	// PolicyRejectionLimit treats a pixel as valid when its rejection count
	// is at most the threshold.
	PolicyRejectionLimit
)

func (k PolicyKind) String() string {
	switch k {
	case PolicyPositiveCoverage:
		return "coverage"
	case PolicyRejectionLimit:
		return "rejection"
	default:
		return fmt.Sprintf("PolicyKind(%d)", int(k))
	}
}

// Policy decides pixel validity. It is fixed for the duration of a solve.
type Policy struct {
	Kind      PolicyKind
	Threshold float64
}

// RejectionLimit returns a policy under which values <= threshold are valid.
func RejectionLimit(threshold float64) Policy {
	return Policy{Kind: PolicyRejectionLimit, Threshold: threshold}
}

// PositiveCoverage returns a policy under which values > 0 are valid.
func PositiveCoverage() Policy {
	return Policy{Kind: PolicyPositiveCoverage}
}

// ParsePolicy builds a policy from its configuration name.
func ParsePolicy(name string, threshold float64) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "coverage":
		return PositiveCoverage(), nil
	case "rejection":
		if threshold < 0 {
			return Policy{}, fmt.Errorf("rejection threshold must be >= 0, got %g", threshold)
		}
		return RejectionLimit(threshold), nil
	default:
		return Policy{}, fmt.Errorf("unknown validity policy: %s", name)
	}
}

func (p Policy) String() string {
	if p.Kind == PolicyRejectionLimit {
		return fmt.Sprintf("rejection<=%g", p.Threshold)
	}
	return "coverage>0"
}

// Accepts reports whether a sampled value is valid under the policy.
func (p Policy) Accepts(v float64) bool {
	if p.Kind == PolicyRejectionLimit {
		return v <= p.Threshold
	}
	return v > 0
}

// IsValid is the only place pixel validity is decided. Coordinates outside
// the grid are never valid.
func IsValid(g Sampler, p Policy, col, row int) bool {
	if col < 0 || row < 0 || col >= g.Width() || row >= g.Height() {
		return false
	}
	return p.Accepts(g.Sample(col, row))
}
