package component

import (
	"fmt"
	"strings"

	"github.com/watchmakers/cleanwatch/pkg/types"
	"github.com/watchmakers/cleanwatch/pkg/util"
)

// Contribution is one isotope's part of a component's own accidental rate.
type Contribution struct {
	Isotope  string  `json:"isotope"`
	PerDay   float64 `json:"per_day"`
	Fraction float64 `json:"fraction"`
}

// Label renders the pie-chart label, e.g. "U238, 1.20e-02 per day, 35.0%".
func (ct Contribution) Label() string {
	return fmt.Sprintf("%s, %.2e per day, %.1f%%", ct.Isotope, ct.PerDay, ct.Fraction*100)
}

// Breakdown splits the component's accidental rate by isotope, summing
// each isotope's contributors. Fractions are of the component total.
func (c *Component) Breakdown() []Contribution {
	total := types.Rate(c.totalAccidentals).PerDay()
	out := make([]Contribution, 0, len(c.order))
	for _, k := range c.order {
		var acc float64
		for _, ciso := range c.isotopes[k].Contributors() {
			acc += c.accidentals[k][ciso]
		}
		v := types.Rate(acc).PerDay()
		out = append(out, Contribution{
			Isotope:  k,
			PerDay:   v,
			Fraction: util.Clamp01(util.SafeDiv(v, total)),
		})
	}
	return out
}

// Output is the full text summary: registered isotopes, total prompt
// singles and the per-contributor breakdown.
func (c *Component) Output() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n********************\nDetails for %s:\n", c.name)
	b.WriteString("********************\n")
	fmt.Fprintf(&b, "\nRegistered isotopes: %v\n", c.order)
	fmt.Fprintf(&b, "Total prompt singles rate: %s\n", types.Rate(c.totalPrompt).Humanized())
	b.WriteString("\nBreakdown of isotopes: \n")
	for _, k := range c.order {
		iso := c.isotopes[k]
		label, details := k, "Details:"
		if iso.HasChain() {
			label, details = k+" chain", "Chain details:"
		}
		fmt.Fprintf(&b, "\n-----------%s----------\n", label)
		fmt.Fprintf(&b, "\nActivity of %s: %.4e Bq\n", label, c.activities[k])
		fmt.Fprintf(&b, "\n    %s\n    ---------\n", details)
		for _, ciso := range iso.Contributors() {
			fmt.Fprintf(&b, "    %s prompt efficiency: %.4e\n", ciso, c.efficiencies[k][ciso].Prompt)
		}
		b.WriteString("\n")
		for _, ciso := range iso.Contributors() {
			fmt.Fprintf(&b, "    %s prompt singles rate: %s\n", ciso, types.Rate(c.singles[k][ciso].Prompt).Humanized())
		}
	}
	b.WriteString("\n--------------------\n")
	return b.String()
}

// RevisedSummary lists the raw rates in the component's format, the form
// used after a budget apportionment.
func (c *Component) RevisedSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s:", c.name)
	for _, k := range c.order {
		fmt.Fprintf(&b, "\n%s: %.4e %s", k, c.rates[k], c.format)
	}
	return b.String()
}
