package isotope

import (
	"strings"
	"unicode"
)

// Decay chains without alpha emitters, under secular equilibrium.
var chains = map[string][]string{
	"U238":  {"234Pa", "214Pb", "214Bi", "210Bi", "210Tl"},
	"Th232": {"228Ac", "212Pb", "212Bi", "208Tl"},
	"U235":  {"231Th", "223Fr", "211Pb", "211Bi", "207Tl"},
	"Rn222": {"214Pb", "214Bi", "210Bi", "210Tl"},
}

// Branching ratios, periodictable.com.
var branches = map[string]map[string]float64{
	"U238":  {"234Pa": 1.0, "214Pb": 1.0, "214Bi": 1.0, "210Bi": 1.0, "210Tl": 0.0021},
	"Th232": {"228Ac": 1.0, "212Pb": 1.0, "212Bi": 0.6405, "208Tl": 0.3594},
	"U235":  {"231Th": 1.0, "223Fr": 0.0138, "211Pb": 1.0, "211Bi": 0.00276, "207Tl": 1.34e-9},
	"Rn222": {"214Pb": 1.0, "214Bi": 1.0, "210Bi": 1.0, "210Tl": 0.0021},
}

type entry struct {
	name      string
	mass      float64
	halfLife  float64 // years
	abundance float64
}

var catalog = []entry{
	{"U238", 238, 4.47e9, 0.9928},
	{"U235", 235, 7.04e8, 0.0072},
	{"Th232", 232, 1.41e10, 0.9998},
	{"Rn222", 222, 3.82 / 365.25, 1},
	{"K40", 40, 1.28e9, 0.000117},
	{"Gd152", 152, 1.08e14, 0.002},
	{"Co60", 60, 5.27, 1},
	{"Cs137", 137, 30.17, 1},
}

// Default builds the standard catalog: the U238, U235, Th232 and Rn222
// chains plus standalone K40, Gd152, Co60 and Cs137.
func Default() *Registry {
	isos := make([]*Isotope, 0, len(catalog))
	for _, e := range catalog {
		iso, err := New(e.name, e.mass, e.halfLife, e.abundance, chains[e.name], branches[e.name])
		if err != nil {
			// the table above is constant
			panic(err)
		}
		isos = append(isos, iso)
	}
	return NewRegistry(isos...)
}

// Canonical rewrites an isotope spelling into element-then-mass form,
// e.g. "238U" -> "U238". Other characters are dropped.
func Canonical(name string) string {
	var alpha, digits strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r):
			alpha.WriteRune(r)
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		}
	}
	return alpha.String() + digits.String()
}
