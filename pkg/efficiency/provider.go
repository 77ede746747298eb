package efficiency

import "fmt"

// Cuts are the selection cuts an efficiency is evaluated at.
//   - Prompt, Delayed: energy cuts (histogram y axis)
//   - Fiducial: fiducial cut (histogram x axis), metres
type Cuts struct {
	Prompt   float64 `json:"prompt" yaml:"prompt"`
	Delayed  float64 `json:"delayed" yaml:"delayed"`
	Fiducial float64 `json:"fiducial" yaml:"fiducial"`
}

// Key identifies one efficiency record. Parent is empty for a chainless
// isotope; for chain members it keeps e.g. 214Pb from U238 apart from
// 214Pb from Rn222.
type Key struct {
	Component   string
	Contributor string
	Parent      string
	Cuts        Cuts
}

func (k Key) String() string {
	if k.Parent == "" {
		return fmt.Sprintf("%s/%s", k.Component, k.Contributor)
	}
	return fmt.Sprintf("%s/%s(%s)", k.Component, k.Contributor, k.Parent)
}

// Pair is a prompt/delayed detection efficiency.
type Pair struct {
	Prompt  float64 `json:"prompt" yaml:"prompt"`
	Delayed float64 `json:"delayed" yaml:"delayed"`
}

// Scale multiplies both efficiencies by f.
func (p Pair) Scale(f float64) Pair {
	return Pair{Prompt: p.Prompt * f, Delayed: p.Delayed * f}
}

// Provider looks up efficiencies. It must be read-only and idempotent.
// A missing record is reported with ok=false and a zero Pair, never as a
// failure.
type Provider interface {
	Efficiency(key Key) (pair Pair, ok bool)
}

// Func adapts a plain function to Provider.
type Func func(key Key) (Pair, bool)

func (f Func) Efficiency(key Key) (Pair, bool) { return f(key) }

// Constant returns the same pair for every key.
func Constant(prompt, delayed float64) Provider {
	return Func(func(Key) (Pair, bool) {
		return Pair{Prompt: prompt, Delayed: delayed}, true
	})
}

// None has no records at all.
var None Provider = Func(func(Key) (Pair, bool) { return Pair{}, false })
