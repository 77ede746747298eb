package budget

import (
	"fmt"
	"log/slog"

	"github.com/watchmakers/cleanwatch/pkg/component"
	"github.com/watchmakers/cleanwatch/pkg/util"
)

// Activity multipliers for the finite-difference gradient.
const (
	perturbLow  = 0.5
	perturbHigh = 1.5
)

// Gradients holds per component, per isotope inverse gradients of the
// background ratio.
type Gradients map[string]map[string]float64

// InvGradients estimates how strongly each isotope drives the background
// ratio. For every (component, isotope) the activity is set to 0.5x and
// 1.5x on a private copy of the detector, the ratio is re-evaluated (y1,
// y2), and the weight is 1/(y2-y1), or 0 when y2 == y1. It also returns
// the sum of all weights.
//
// The caller's components are never touched.
func (e *Engine) InvGradients(comps []*component.Component, signal, days float64) (Gradients, float64, error) {
	mb, err := e.MaxBackground(signal, days)
	if err != nil {
		return nil, 0, err
	}
	ratio := func(snapshot []*component.Component) float64 {
		return e.TotalBackground(snapshot, signal) / mb
	}

	grads := make(Gradients, len(comps))
	var norm float64
	for idx, c := range comps {
		snapshot := cloneAll(comps)
		target := snapshot[idx]
		g := make(map[string]float64)
		for _, iso := range c.Isotopes() {
			act := c.Activity(iso)

			if err := setActivity(target, iso, act*perturbLow); err != nil {
				return nil, 0, err
			}
			y1 := ratio(snapshot)
			if err := setActivity(target, iso, act*perturbHigh); err != nil {
				return nil, 0, err
			}
			y2 := ratio(snapshot)

			var w float64
			if d := y2 - y1; d != 0 {
				w = 1 / d
			}
			g[iso] = w
			norm += w

			if err := setActivity(target, iso, act); err != nil {
				return nil, 0, err
			}
		}
		grads[c.Name()] = g
	}
	slog.Debug("inverse gradients", "components", len(grads), "norm", norm)
	return grads, norm, nil
}

func setActivity(c *component.Component, iso string, act float64) error {
	if err := c.SetActivity(iso, act); err != nil {
		return err
	}
	c.Recompute()
	return nil
}

// Weight is one isotope's share of the detector accidentals and its
// power-weighted rescaling.
type Weight struct {
	Fraction float64 `json:"fraction"`
	Scaled   float64 `json:"scaled"`
}

// FairShares computes, for every (component, isotope), the fraction a of
// detector accidentals it is responsible for (accidentals with the
// isotope present minus with its activity zeroed, over the total) and the
// power-weighted rescale
//
//	a' = a * (1-a)^0.5 * k / sum(a_n * (1-a_n)^0.5)
//
// which damps dominant contributors and so tends to equalise relative
// contributions. A complex intermediate aborts with util.ErrComplex. When
// the denominator is zero (a single contributor owning everything) every
// scaled value is zero.
func (e *Engine) FairShares(comps []*component.Component, k float64) (map[string]map[string]Weight, error) {
	total := e.TotalAccidentals(comps)
	if total == 0 {
		return nil, ErrNoAccidentals
	}

	fractions := make(map[string]map[string]float64, len(comps))
	var order [][2]string
	for idx, c := range comps {
		snapshot := cloneAll(comps)
		target := snapshot[idx]
		f := make(map[string]float64)
		for _, iso := range c.Isotopes() {
			act := c.Activity(iso)
			if err := setActivity(target, iso, 0); err != nil {
				return nil, err
			}
			y1 := e.TotalAccidentals(snapshot)
			if err := setActivity(target, iso, act); err != nil {
				return nil, err
			}
			y2 := e.TotalAccidentals(snapshot)
			f[iso] = (y2 - y1) / total
			order = append(order, [2]string{c.Name(), iso})
		}
		fractions[c.Name()] = f
	}

	damped := make(map[[2]string]float64, len(order))
	var denom float64
	for _, key := range order {
		a := fractions[key[0]][key[1]]
		root, err := util.RealPow(1-a, 0.5)
		if err != nil {
			return nil, fmt.Errorf("fair share %s/%s (a=%g): %w", key[0], key[1], a, err)
		}
		damped[key] = a * root
		denom += a * root
	}

	out := make(map[string]map[string]Weight, len(fractions))
	for _, key := range order {
		if out[key[0]] == nil {
			out[key[0]] = make(map[string]Weight)
		}
		out[key[0]][key[1]] = Weight{
			Fraction: fractions[key[0]][key[1]],
			Scaled:   util.SafeDiv(damped[key]*k, denom),
		}
	}
	return out, nil
}
