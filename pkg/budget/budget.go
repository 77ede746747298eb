package budget

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/watchmakers/cleanwatch/pkg/component"
	"github.com/watchmakers/cleanwatch/pkg/types"
)

// Engine evaluates background budgets for a set of updated components.
// It never mutates the components it is given.
type Engine struct {
	p *Params
}

// New creates an engine with the given params.
// Fields > 0 in p override defaults.
// Notes:
//   - Radionuclides, FastNeutrons and WRRatio: zero is an intentional "no
//     such background" and respected; negative values are defaulted.
//   - Signal, Days, Sigma, Ronoff, TimeCut and SpaceCut must be > 0 to
//     override defaults.
func New(p *Params) *Engine {
	base := _defaultParams()

	if p == nil {
		return &Engine{p: base}
	}

	merged := *base

	// Positive-only overrides
	if p.Signal > 0 {
		merged.Signal = p.Signal
	}
	if p.Days > 0 {
		merged.Days = p.Days
	}
	if p.Sigma > 0 {
		merged.Sigma = p.Sigma
	}
	if p.Ronoff > 0 {
		merged.Ronoff = p.Ronoff
	}
	if p.TimeCut > 0 {
		merged.TimeCut = p.TimeCut
	}
	if p.SpaceCut > 0 {
		merged.SpaceCut = p.SpaceCut
	}

	// Floors: allow zero, default only if negative.
	if p.Radionuclides >= 0 {
		merged.Radionuclides = p.Radionuclides
	}
	if p.FastNeutrons >= 0 {
		merged.FastNeutrons = p.FastNeutrons
	}
	if p.WRRatio >= 0 {
		merged.WRRatio = p.WRRatio
	}

	return &Engine{p: &merged}
}

// Params returns the merged parameters.
func (e *Engine) Params() Params { return *e.p }

// TotalSinglesRate sums the prompt singles (Hz) of all components.
func TotalSinglesRate(comps []*component.Component) float64 {
	var total float64
	for _, c := range comps {
		total += c.TotalPromptSingles()
	}
	return total
}

// TotalAccidentals is the detector accidental rate per day, built from the
// aggregate prompt and delayed singles rather than contributor by
// contributor:
//
//	sum(prompt) * sum(delayed) * TimeCut * SpaceCut * 86400
func (e *Engine) TotalAccidentals(comps []*component.Component) float64 {
	var prompt, delayed float64
	for _, c := range comps {
		prompt += c.TotalPromptSingles()
		delayed += c.TotalDelayedSingles()
	}
	return types.Rate(prompt * delayed * e.p.SpaceCut * e.p.TimeCut).PerDay()
}

// TotalBackground is the background rate per day: accidentals plus the
// wrong-reactor term and the fast-neutron and radionuclide floors.
func (e *Engine) TotalBackground(comps []*component.Component, signal float64) float64 {
	acc := e.TotalAccidentals(comps)
	return acc + e.p.WRRatio*signal + e.p.FastNeutrons + e.p.Radionuclides
}

// T3Sigma estimates the reactor-off time in days needed to reach Sigma for
// a background bg (per day) and signal (per day):
//
//	S = 0.9 * signal
//	B = bg + RN + FN + WRRatio * S
//	t = Sigma^2 * (B + (B + S) / Ronoff) / S^2
func (e *Engine) T3Sigma(signal, bg float64) float64 {
	s := signal * detectionEfficiency
	b := bg + e.p.Radionuclides + e.p.FastNeutrons + e.p.WRRatio*s
	return e.p.Sigma * e.p.Sigma * (b + (b+s)/e.p.Ronoff) / (s * s)
}

// MaxBackground inverts T3Sigma for the largest background budget (per
// day) that still reaches Sigma within days. A negative budget is reported
// as an *InfeasibleError.
func (e *Engine) MaxBackground(signal, days float64) (float64, error) {
	s := signal * detectionEfficiency
	wr := e.p.WRRatio * s
	b := (days*s*s/(e.p.Sigma*e.p.Sigma) - s/e.p.Ronoff) / (1 + 1/e.p.Ronoff)
	maxB := b - e.p.FastNeutrons - e.p.Radionuclides - wr
	if maxB < 0 || math.IsNaN(maxB) {
		return 0, &InfeasibleError{Signal: signal, Days: days}
	}
	return maxB, nil
}

// BgRatio is the current total background over the maximum allowed one.
// 1 is the budget boundary; above 1 the budget is exceeded.
func (e *Engine) BgRatio(comps []*component.Component, signal, days float64) (float64, error) {
	mb, err := e.MaxBackground(signal, days)
	if err != nil {
		return 0, err
	}
	return e.TotalBackground(comps, signal) / mb, nil
}

// Method selects how the allowed background is apportioned.
type Method byte

const (
	// Even scales every isotope by the same factor.
	Even Method = 'e'
	// Contribution weights each isotope by its normalised inverse gradient.
	Contribution Method = 'c'
)

func (m Method) String() string {
	switch m {
	case Even:
		return "even"
	case Contribution:
		return "contribution"
	default:
		return fmt.Sprintf("Method(%q)", byte(m))
	}
}

// ParseMethod accepts "e"/"even" and "c"/"contribution".
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "e", "even":
		return Even, nil
	case "c", "contribution":
		return Contribution, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// Options supplies precomputed totals to Budget. Zero fields are computed.
type Options struct {
	TotalAccidentals float64 // per day
	MaxBackground    float64 // per day
}

// Budget re-apportions the maximum allowed background across all
// components and isotopes and returns freshly built, updated components
// carrying the revised raw rates. The input components are not modified.
//
// An unreachable target is logged and yields an empty slice with a nil
// error; no partial apportionment is produced.
func (e *Engine) Budget(comps []*component.Component, signal, days float64, method Method, opts Options) ([]*component.Component, error) {
	if method != Even && method != Contribution {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}

	revised := []*component.Component{}

	totacc := opts.TotalAccidentals
	if totacc == 0 {
		totacc = e.TotalAccidentals(comps)
	}
	mbg := opts.MaxBackground
	if mbg == 0 {
		var err error
		mbg, err = e.MaxBackground(signal, days)
		if err != nil {
			return revised, reportInfeasible(err, signal, days)
		}
	}
	if totacc == 0 {
		return nil, ErrNoAccidentals
	}

	var scales component.Scales
	if method == Contribution {
		grads, norm, err := e.InvGradients(comps, signal, days)
		if err != nil {
			return revised, reportInfeasible(err, signal, days)
		}
		if scales, err = Scales(grads, norm); err != nil {
			return nil, err
		}
	}

	ratio := mbg / totacc
	for _, c := range comps {
		shares := c.Share(mbg, totacc, scales)
		rates, err := c.ReviseActivity(shares, ratio)
		if err != nil {
			return nil, fmt.Errorf("revise %s: %w", c.Name(), err)
		}
		rc, err := component.New(c.Name(), c.Mass(), c.Format(), c.Env())
		if err != nil {
			return nil, err
		}
		for _, iso := range c.Isotopes() {
			if err := rc.AddIsotope(iso, rates[iso]); err != nil {
				return nil, err
			}
		}
		if err := rc.Update(); err != nil {
			return nil, err
		}
		revised = append(revised, rc)
	}

	slog.Debug("budget apportioned", "method", method.String(), "max_bg", mbg, "tot_acc", totacc, "components", len(revised))
	return revised, nil
}

// reportInfeasible logs an unreachable target and swallows it; any other
// error is returned unchanged.
func reportInfeasible(err error, signal, days float64) error {
	if errors.Is(err, ErrInfeasible) {
		slog.Warn(err.Error(), "signal", signal, "days", days)
		return nil
	}
	return err
}

// Scales normalises gradients into per component, per isotope weights that
// sum to 1 across the detector.
func Scales(grads Gradients, norm float64) (component.Scales, error) {
	if norm == 0 {
		return nil, ErrDegenerateGradients
	}
	scales := make(component.Scales, len(grads))
	for name, isos := range grads {
		m := make(map[string]float64, len(isos))
		for iso, g := range isos {
			m[iso] = g / norm
		}
		scales[name] = m
	}
	return scales, nil
}

// cloneAll deep-copies a component list so what-if work never reaches the
// caller's components.
func cloneAll(comps []*component.Component) []*component.Component {
	out := make([]*component.Component, len(comps))
	for i, c := range comps {
		out[i] = c.Clone()
	}
	return out
}
