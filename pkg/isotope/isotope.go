package isotope

import (
	"fmt"
	"math"
	"sort"
)

const (
	// Avogadro is atoms per mole.
	Avogadro = 6.022e23
	// SecondsPerYear uses the Julian year.
	SecondsPerYear = 365.25 * 24 * 60 * 60
)

// Isotope is an immutable radioisotope entry. A chained isotope contributes
// through its daughters (secular equilibrium); a chainless one is its own
// sole contributor.
//
// Units:
//   - HalfLife, Lifetime: seconds
//   - Lambda: 1/s
//   - MolarActivity: Bq per (mass-number-scaled) kg
type Isotope struct {
	Name          string
	MassNumber    float64
	Abundance     float64 // natural abundance, catalog data only
	HalfLife      float64
	Lifetime      float64
	Lambda        float64
	MolarActivity float64

	contributors []string
	branches     map[string]float64
}

// New builds an isotope from a half-life given in years. chain lists the
// contributor isotopes in decay order; branches their branching ratios.
// Both may be nil for a chainless isotope.
func New(name string, massNumber, halfLifeYears, abundance float64, chain []string, branches map[string]float64) (*Isotope, error) {
	if name == "" {
		return nil, fmt.Errorf("isotope: empty name")
	}
	if massNumber <= 0 || halfLifeYears <= 0 || abundance <= 0 {
		return nil, fmt.Errorf("isotope %s: mass number, half-life and abundance must be > 0", name)
	}
	for _, c := range chain {
		br, ok := branches[c]
		if !ok {
			return nil, fmt.Errorf("isotope %s: no branching ratio for %s", name, c)
		}
		if br < 0 || br > 1 {
			return nil, fmt.Errorf("isotope %s: branching ratio %g for %s outside [0,1]", name, br, c)
		}
	}

	hl := halfLifeYears * SecondsPerYear
	lam := math.Ln2 / hl
	iso := &Isotope{
		Name:          name,
		MassNumber:    massNumber,
		Abundance:     abundance,
		HalfLife:      hl,
		Lifetime:      hl / math.Ln2,
		Lambda:        lam,
		MolarActivity: Avogadro * lam / (massNumber / 1000),
	}
	if len(chain) == 0 {
		iso.contributors = []string{name}
		return iso, nil
	}
	iso.contributors = append([]string(nil), chain...)
	iso.branches = make(map[string]float64, len(branches))
	for k, v := range branches {
		iso.branches[k] = v
	}
	return iso, nil
}

// HasChain reports whether the isotope contributes through a decay chain.
func (i *Isotope) HasChain() bool { return i.branches != nil }

// Contributors returns the contributor names in chain order.
func (i *Isotope) Contributors() []string {
	return append([]string(nil), i.contributors...)
}

// Branch returns the branching ratio of a chain member. A chainless
// isotope has ratio 1 for itself.
func (i *Isotope) Branch(contributor string) (float64, bool) {
	if !i.HasChain() {
		return 1, contributor == i.Name
	}
	br, ok := i.branches[contributor]
	return br, ok
}

func (i *Isotope) String() string { return fmt.Sprintf("Iso (%s)", i.Name) }

// Registry is a read-only isotope catalog. It is passed explicitly to
// every component-construction path.
type Registry struct {
	byName map[string]*Isotope
}

// NewRegistry indexes the given isotopes by name.
func NewRegistry(isos ...*Isotope) *Registry {
	r := &Registry{byName: make(map[string]*Isotope, len(isos))}
	for _, iso := range isos {
		r.byName[iso.Name] = iso
	}
	return r
}

// Lookup returns the isotope registered under name. Mass-first spellings
// such as "238U" are accepted.
func (r *Registry) Lookup(name string) (*Isotope, error) {
	if iso, ok := r.byName[name]; ok {
		return iso, nil
	}
	if iso, ok := r.byName[Canonical(name)]; ok {
		return iso, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownIsotope, name)
}

// Names returns the registered names sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for n := range r.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
