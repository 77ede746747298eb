package component

import (
	"fmt"
	"log/slog"

	"github.com/watchmakers/cleanwatch/pkg/efficiency"
	"github.com/watchmakers/cleanwatch/pkg/isotope"
	"github.com/watchmakers/cleanwatch/pkg/util"
)

// Tl210Correction multiplies both efficiencies of the 210Tl contributor.
// The factor has no documented derivation; it is retained so results match
// the historical budget tables.
const Tl210Correction = 0.002

const tl210 = "210Tl"

// DeratingExponent is applied to the background ratio (max/current) when a
// revised singles target is turned back into a raw rate. Accidentals grow
// with the square of the singles rate, hence the square root.
const DeratingExponent = 0.5

// Env carries the read-only collaborators shared by every component of a
// detector.
//
// Units:
//   - TimeCut: seconds (IBD coincidence window)
//   - SpaceCut: metres (IBD coincidence distance)
type Env struct {
	Registry *isotope.Registry
	Provider efficiency.Provider
	Cuts     efficiency.Cuts
	TimeCut  float64
	SpaceCut float64
}

// Singles is a prompt/delayed singles rate pair in Hz.
type Singles struct {
	Prompt  float64
	Delayed float64
}

// Scales holds per component, per isotope weights for Share. A nil Scales
// means weight 1 everywhere.
type Scales map[string]map[string]float64

// Shares holds updated prompt singles targets per isotope and contributor.
type Shares map[string]map[string]float64

// Component is one physical detector assembly. Raw rates are the
// authoritative input; everything else is derived by Update and must not
// be read before it has run.
type Component struct {
	name   string
	mass   float64 // kg
	format RateFormat
	env    *Env

	order    []string // isotope names in registration order
	isotopes map[string]*isotope.Isotope
	rates    map[string]float64

	activities   map[string]float64                    // Bq
	efficiencies map[string]map[string]efficiency.Pair // isotope -> contributor
	singles      map[string]map[string]Singles         // Hz
	accidentals  map[string]map[string]float64         // Hz

	totalPrompt      float64
	totalDelayed     float64
	totalAccidentals float64
}

// New creates a component with no isotopes. The name must match the name
// the efficiency provider is keyed by.
func New(name string, mass float64, format RateFormat, env *Env) (*Component, error) {
	if env == nil || env.Registry == nil || env.Provider == nil {
		return nil, ErrNoEnv
	}
	if !format.Valid() {
		return nil, fmt.Errorf("%w: %s in %s", ErrUnknownRateFormat, format, name)
	}
	if mass < 0 {
		return nil, fmt.Errorf("component %s: negative mass %g", name, mass)
	}
	return &Component{
		name:         name,
		mass:         mass,
		format:       format,
		env:          env,
		isotopes:     map[string]*isotope.Isotope{},
		rates:        map[string]float64{},
		activities:   map[string]float64{},
		efficiencies: map[string]map[string]efficiency.Pair{},
		singles:      map[string]map[string]Singles{},
		accidentals:  map[string]map[string]float64{},
	}, nil
}

func (c *Component) Name() string {
	return c.name
}

// Mass is in kg.
func (c *Component) Mass() float64 {
	return c.mass
}

func (c *Component) Format() RateFormat {
	return c.format
}

func (c *Component) Env() *Env {
	return c.env
}

func (c *Component) String() string {
	return c.name + " Component"
}

// Isotopes returns the registered isotope names in insertion order.
func (c *Component) Isotopes() []string {
	return append([]string(nil), c.order...)
}

// TotalPromptSingles is the sum of prompt singles over every contributor, in Hz.
func (c *Component) TotalPromptSingles() float64 {
	return c.totalPrompt
}

// TotalDelayedSingles is the delayed counterpart of TotalPromptSingles.
func (c *Component) TotalDelayedSingles() float64 {
	return c.totalDelayed
}

// TotalAccidentals is the contributor-by-contributor accidental rate in Hz.
func (c *Component) TotalAccidentals() float64 { return c.totalAccidentals }

// AddIsotope registers an isotope with its raw rate. Re-adding an isotope
// replaces its rate.
func (c *Component) AddIsotope(name string, rate float64) error {
	iso, err := c.env.Registry.Lookup(name)
	if err != nil {
		return fmt.Errorf("component %s: %w", c.name, err)
	}
	if _, ok := c.isotopes[iso.Name]; !ok {
		c.order = append(c.order, iso.Name)
	}
	c.isotopes[iso.Name] = iso
	c.rates[iso.Name] = rate
	return nil
}

// SetRate replaces the raw rate of a registered isotope.
func (c *Component) SetRate(name string, rate float64) error {
	k, err := c.resolve(name)
	if err != nil {
		return err
	}
	c.rates[k] = rate
	return nil
}

// RemoveIsotope drops an isotope and everything derived from it.
func (c *Component) RemoveIsotope(name string) error {
	k, err := c.resolve(name)
	if err != nil {
		return err
	}
	delete(c.isotopes, k)
	delete(c.rates, k)
	delete(c.activities, k)
	delete(c.efficiencies, k)
	delete(c.singles, k)
	delete(c.accidentals, k)
	for i, n := range c.order {
		if n == k {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// SetActivity overrides the activity (Bq) of a registered isotope without
// touching its raw rate. Follow with Recompute, not Update, or the value
// is overwritten.
func (c *Component) SetActivity(name string, activity float64) error {
	k, err := c.resolve(name)
	if err != nil {
		return err
	}
	c.activities[k] = activity
	return nil
}

func (c *Component) resolve(name string) (string, error) {
	if _, ok := c.isotopes[name]; ok {
		return name, nil
	}
	if k := isotope.Canonical(name); k != "" {
		if _, ok := c.isotopes[k]; ok {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q in %s", ErrNotRegistered, name, c.name)
}

// Update runs the full derivation: activity, efficiency, singles and
// accidentals.
func (c *Component) Update() error {
	if err := c.CalculateActivity(); err != nil {
		return err
	}
	c.Recompute()
	return nil
}

// Recompute re-derives efficiencies, singles and accidentals from the
// activities already held, leaving them untouched.
func (c *Component) Recompute() {
	c.GetEfficiencies(c.env.Cuts)
	c.CalculateSingles()
	c.CalculateAccidentals(c.env.TimeCut, c.env.SpaceCut)
}

// CalculateActivity converts every raw rate into an absolute activity in
// Bq, assuming secular equilibrium for chains.
func (c *Component) CalculateActivity() error {
	if !c.format.Valid() {
		return fmt.Errorf("%w: %s in %s", ErrUnknownRateFormat, c.format, c.name)
	}
	activities := make(map[string]float64, len(c.order))
	for _, k := range c.order {
		conv, err := c.format.conversion(c.mass, c.isotopes[k])
		if err != nil {
			return fmt.Errorf("%s in %s: %w", k, c.name, err)
		}
		activities[k] = c.rates[k] * conv
	}
	c.activities = activities
	return nil
}

// GetEfficiencies queries the provider for every contributor of every
// isotope. Missing records count as zero efficiency.
func (c *Component) GetEfficiencies(cuts efficiency.Cuts) {
	effs := make(map[string]map[string]efficiency.Pair, len(c.order))
	for _, k := range c.order {
		iso := c.isotopes[k]
		var parent string
		if iso.HasChain() {
			parent = iso.Name
		}
		ceffs := make(map[string]efficiency.Pair)
		for _, ciso := range iso.Contributors() {
			key := efficiency.Key{Component: c.name, Contributor: ciso, Parent: parent, Cuts: cuts}
			eff, ok := c.env.Provider.Efficiency(key)
			if !ok {
				slog.Debug("no efficiency record", "key", key.String())
				eff = efficiency.Pair{}
			}
			if ciso == tl210 {
				eff = eff.Scale(Tl210Correction)
			}
			ceffs[ciso] = eff
		}
		effs[k] = ceffs
	}
	c.efficiencies = effs
}

// CalculateSingles folds efficiencies with the parent activity and sums
// the component totals.
func (c *Component) CalculateSingles() {
	singles := make(map[string]map[string]Singles, len(c.order))
	var totPrompt, totDelayed float64
	for _, k := range c.order {
		act := c.activities[k]
		cs := make(map[string]Singles)
		for _, ciso := range c.isotopes[k].Contributors() {
			eff := c.efficiencies[k][ciso]
			s := Singles{Prompt: eff.Prompt * act, Delayed: eff.Delayed * act}
			totPrompt += s.Prompt
			totDelayed += s.Delayed
			cs[ciso] = s
		}
		singles[k] = cs
	}
	c.singles = singles
	c.totalPrompt = totPrompt
	c.totalDelayed = totDelayed
}

// CalculateAccidentals applies the independent coincidence model
// prompt * delayed * timeCut * spaceCut to each contributor.
func (c *Component) CalculateAccidentals(timeCut, spaceCut float64) {
	accs := make(map[string]map[string]float64, len(c.order))
	var tot float64
	for _, k := range c.order {
		ca := make(map[string]float64)
		for _, ciso := range c.isotopes[k].Contributors() {
			s := c.singles[k][ciso]
			acc := s.Prompt * s.Delayed * timeCut * spaceCut
			tot += acc
			ca[ciso] = acc
		}
		accs[k] = ca
	}
	c.accidentals = accs
	c.totalAccidentals = tot
}

// Share rescales every contributor's prompt singles linearly toward the
// new background ceiling:
//
//	new = old + (maxBg - totAcc) / totAcc * old * scale
//	    = old * (1 - scale) + old * scale * (maxBg / totAcc)
//
// The second form is the one evaluated; it keeps full precision when
// maxBg is many orders of magnitude below totAcc. scale is 1 when scales
// is nil, otherwise scales[name][isotope] (0 when absent).
func (c *Component) Share(maxBg, totAcc float64, scales Scales) Shares {
	f := maxBg / totAcc
	out := make(Shares, len(c.order))
	for _, k := range c.order {
		scale := 1.0
		if scales != nil {
			scale = scales[c.name][k]
		}
		cs := make(map[string]float64, len(c.singles[k]))
		for ciso, s := range c.singles[k] {
			cs[ciso] = s.Prompt*(1-scale) + s.Prompt*scale*f
		}
		out[k] = cs
	}
	return out
}

// ReviseActivity turns updated prompt singles targets back into raw rates
// in the component's own format. The dominant contributor (largest
// current prompt singles) provides the reference efficiency, and the
// result is de-rated by ratio**DeratingExponent. A zero denominator yields
// a rate of zero.
func (c *Component) ReviseActivity(updated Shares, ratio float64) (map[string]float64, error) {
	derate, err := util.RealPow(ratio, DeratingExponent)
	if err != nil {
		return nil, fmt.Errorf("%s: derate ratio %g: %w", c.name, ratio, err)
	}
	out := make(map[string]float64, len(c.order))
	for _, k := range c.order {
		iso := c.isotopes[k]
		dom := c.dominant(k)
		conv, err := c.format.conversion(c.mass, iso)
		if err != nil {
			return nil, fmt.Errorf("%s in %s: %w", k, c.name, err)
		}
		eff := c.efficiencies[k][dom].Prompt
		out[k] = util.SafeDiv(updated[k][dom], eff*conv*derate)
	}
	return out, nil
}

// dominant returns the contributor with the largest prompt singles rate;
// ties go to the earliest in chain order.
func (c *Component) dominant(k string) string {
	contributors := c.isotopes[k].Contributors()
	best := contributors[0]
	bestRate := c.singles[k][best].Prompt
	for _, ciso := range contributors[1:] {
		if r := c.singles[k][ciso].Prompt; r > bestRate {
			best, bestRate = ciso, r
		}
	}
	return best
}

// SinglesShare is this component's fraction of a detector-wide prompt
// singles total.
func (c *Component) SinglesShare(total float64) float64 {
	return util.SafeDiv(c.totalPrompt, total)
}

// Isotope returns the registry entry for a registered isotope.
func (c *Component) Isotope(name string) (*isotope.Isotope, bool) {
	k, err := c.resolve(name)
	if err != nil {
		return nil, false
	}
	return c.isotopes[k], true
}

// Rate returns the raw rate of an isotope in the component's format.
func (c *Component) Rate(name string) float64 { return c.rates[c.key(name)] }

// Activity returns the derived activity in Bq.
func (c *Component) Activity(name string) float64 { return c.activities[c.key(name)] }

// Efficiency returns the efficiency pair of one contributor.
func (c *Component) Efficiency(name, contributor string) efficiency.Pair {
	return c.efficiencies[c.key(name)][contributor]
}

// Singles returns the singles rates of one contributor in Hz.
func (c *Component) Singles(name, contributor string) Singles {
	return c.singles[c.key(name)][contributor]
}

// Accidental returns the accidental rate of one contributor in Hz.
func (c *Component) Accidental(name, contributor string) float64 {
	return c.accidentals[c.key(name)][contributor]
}

// Rates returns a copy of the raw rates.
func (c *Component) Rates() map[string]float64 {
	out := make(map[string]float64, len(c.rates))
	for k, v := range c.rates {
		out[k] = v
	}
	return out
}

func (c *Component) key(name string) string {
	if k, err := c.resolve(name); err == nil {
		return k
	}
	return name
}

// Clone returns an independent deep copy. The registry, provider and
// isotope entries are read-only and stay shared.
func (c *Component) Clone() *Component {
	cp := *c
	cp.order = append([]string(nil), c.order...)
	cp.isotopes = make(map[string]*isotope.Isotope, len(c.isotopes))
	for k, v := range c.isotopes {
		cp.isotopes[k] = v
	}
	cp.rates = c.Rates()
	cp.activities = make(map[string]float64, len(c.activities))
	for k, v := range c.activities {
		cp.activities[k] = v
	}
	cp.efficiencies = make(map[string]map[string]efficiency.Pair, len(c.efficiencies))
	for k, m := range c.efficiencies {
		cp.efficiencies[k] = copyMap(m)
	}
	cp.singles = make(map[string]map[string]Singles, len(c.singles))
	for k, m := range c.singles {
		cp.singles[k] = copyMap(m)
	}
	cp.accidentals = make(map[string]map[string]float64, len(c.accidentals))
	for k, m := range c.accidentals {
		cp.accidentals[k] = copyMap(m)
	}
	return &cp
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
