package autocrop

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultWarnPercent is the coverage loss above which a solve attaches a
// warning.
const DefaultWarnPercent = 50.0

// Options configure one solve.
type Options struct {
	Policy Policy

	// Tolerance is the number of consecutive invalid samples the seed scan
	// steps over before declaring a boundary.
	Tolerance int

	// WarnPercent is the coverage loss (0-100) above which the result
	// carries an OverAggressiveCrop warning.
	WarnPercent float64
}

// DefaultOptions returns positive-coverage validity, zero tolerance and a
// 50% warning threshold.
func DefaultOptions() Options {
	return Options{
		Policy:      PositiveCoverage(),
		WarnPercent: DefaultWarnPercent,
	}
}

// Stages keeps the box after each stage, for diagnostics.
type Stages struct {
	Probe   Point `json:"probe"`
	Seed    Box   `json:"seed"`
	Relaxed Box   `json:"relaxed"`
	Trimmed Box   `json:"trimmed"`
}

// Result is the outcome of a solve. On failure Err is set and Success is
// false; on success with a warning, Warning and Diagnostics are non-empty.
type Result struct {
	Success     bool         `json:"success"`
	Box         Box          `json:"box"`
	Margins     Margins      `json:"margins"`
	Loss        CoverageLoss `json:"loss"`
	Trim        TrimReport   `json:"trim"`
	Stages      Stages       `json:"stages"`
	Warning     Kind         `json:"-"`
	Diagnostics string       `json:"diagnostics,omitempty"`
	Err         error        `json:"-"`
}

// Kind returns the failure kind, the warning kind, or KindNone.
func (r Result) Kind() Kind {
	var se *SolveError
	if errors.As(r.Err, &se) {
		return se.Kind
	}
	if r.Err != nil {
		return Canceled
	}
	return r.Warning
}

// Solve runs the full crop pipeline on g. The context is only consulted
// between stages.
func Solve(ctx context.Context, g Sampler, opts Options) Result {
	var res Result
	var notes []string

	fail := func(err error) Result {
		res.Err = err
		notes = append(notes, err.Error())
		res.Diagnostics = strings.Join(notes, "; ")
		return res
	}
	checkpoint := func(stage string) error {
		if err := ctx.Err(); err != nil {
			return &SolveError{Kind: Canceled, Stage: stage, Diagnostic: "canceled before " + stage, Cause: err}
		}
		return nil
	}

	if err := checkpoint("seed"); err != nil {
		return fail(err)
	}
	seed, probe, err := SeedFromCenter(g, opts.Policy, opts.Tolerance)
	if err != nil {
		return fail(err)
	}
	res.Stages.Probe = probe
	res.Stages.Seed = seed
	if c := Center(g.Width(), g.Height()); probe != c {
		notes = append(notes, fmt.Sprintf("center %s invalid, seeded from %s", c, probe))
	}

	if err := checkpoint("corners"); err != nil {
		return fail(err)
	}
	relaxed, err := RelaxCorners(g, opts.Policy, seed, probe)
	if err != nil {
		return fail(err)
	}
	res.Stages.Relaxed = relaxed

	if err := checkpoint("borders"); err != nil {
		return fail(err)
	}
	trimmed, report, err := TrimBorders(g, opts.Policy, relaxed)
	res.Trim = report
	if err != nil {
		return fail(err)
	}
	res.Stages.Trimmed = trimmed
	if report.Moved() {
		notes = append(notes, report.String())
	}

	if c := Center(g.Width(), g.Height()); !trimmed.Contains(c) {
		return fail(&SolveError{
			Kind:       CenterInvalid,
			Stage:      "borders",
			Diagnostic: fmt.Sprintf("crop %s excludes image center %s", trimmed, c),
			Box:        trimmed,
		})
	}

	margins, loss, warning := ComputeMargins(trimmed, g.Width(), g.Height(), opts.WarnPercent)
	res.Success = true
	res.Box = trimmed
	res.Margins = margins
	res.Loss = loss
	if warning != "" {
		res.Warning = OverAggressiveCrop
		notes = append(notes, warning)
	}
	res.Diagnostics = strings.Join(notes, "; ")
	return res
}
