package autocrop

import "fmt"

// Kind classifies a solve outcome.
type Kind int

const (
	KindNone Kind = iota

	// CenterInvalid: the center and both nudged probes are invalid, or the
	// box collapsed away from the center while relaxing.
	CenterInvalid

	// WiggleLimitExceeded: border trimming did not settle within
	// MaxTrimCycles.
	WiggleLimitExceeded

	// OverAggressiveCrop is a soft warning; the solve still succeeds.
	OverAggressiveCrop

	// Canceled: the caller's context ended between stages.
	Canceled
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case CenterInvalid:
		return "center-invalid"
	case WiggleLimitExceeded:
		return "wiggle-limit-exceeded"
	case OverAggressiveCrop:
		return "over-aggressive-crop"
	case Canceled:
		return "canceled"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error lets a Kind be used as an errors.Is target.
func (k Kind) Error() string { return k.String() }

// SolveError is a terminal failure of one stage. Box is the last box the
// failing stage held.
type SolveError struct {
	Kind       Kind
	Stage      string
	Diagnostic string
	Box        Box
	Cause      error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, e.Diagnostic)
}

// Is matches against a bare Kind, so errors.Is(err, CenterInvalid) works.
func (e *SolveError) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func (e *SolveError) Unwrap() error { return e.Cause }
