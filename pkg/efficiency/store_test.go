package efficiency

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storeYAML = `
histograms:
  - component: PMT
    isotope: 214Bi
    parent: U238
    fiducial_edges: [0, 1, 2, 3]
    energy_edges: [0, 5, 10, 20]
    values:
      - [0.10, 0.20, 0.30]
      - [0.40, 0.50, 0.60]
      - [0.70, 0.80, 0.90]
  - component: PMT
    isotope: 214Bi
    parent: Rn222
    fiducial_edges: [0, 3]
    energy_edges: [0, 20]
    values:
      - [0.05]
  - component: PMT
    isotope: K40
    fiducial_edges: [0, 3]
    energy_edges: [0, 20]
    values:
      - [0.01]
`

func TestStore_Decode_Lookup(t *testing.T) {
	s, err := Decode(strings.NewReader(storeYAML))
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())

	cuts := Cuts{Prompt: 8, Delayed: 19, Fiducial: 1.9}

	// fiducial 1.9 -> row 1; prompt 8 -> col 1; delayed 19 -> col 2
	p, ok := s.Efficiency(Key{Component: "PMT", Contributor: "214Bi", Parent: "U238", Cuts: cuts})
	require.True(t, ok)
	assert.InDelta(t, 0.50, p.Prompt, 1e-12)
	assert.InDelta(t, 0.60, p.Delayed, 1e-12)

	// same daughter, other chain
	p, ok = s.Efficiency(Key{Component: "PMT", Contributor: "214Bi", Parent: "Rn222", Cuts: cuts})
	require.True(t, ok)
	assert.InDelta(t, 0.05, p.Prompt, 1e-12)

	p, ok = s.Efficiency(Key{Component: "PMT", Contributor: "K40", Cuts: cuts})
	require.True(t, ok)
	assert.InDelta(t, 0.01, p.Delayed, 1e-12)

	// no record
	p, ok = s.Efficiency(Key{Component: "TANK", Contributor: "K40", Cuts: cuts})
	assert.False(t, ok)
	assert.Equal(t, Pair{}, p)

	// idempotent
	a, _ := s.Efficiency(Key{Component: "PMT", Contributor: "214Bi", Parent: "U238", Cuts: cuts})
	b, _ := s.Efficiency(Key{Component: "PMT", Contributor: "214Bi", Parent: "U238", Cuts: cuts})
	assert.Equal(t, a, b)
}

func TestStore_OutOfRangeReadsZero(t *testing.T) {
	s, err := Decode(strings.NewReader(storeYAML))
	require.NoError(t, err)

	p, ok := s.Efficiency(Key{Component: "PMT", Contributor: "214Bi", Parent: "U238",
		Cuts: Cuts{Prompt: 25, Delayed: -1, Fiducial: 1}})
	require.True(t, ok, "record exists even when the cut falls outside the axes")
	assert.Equal(t, 0.0, p.Prompt)
	assert.Equal(t, 0.0, p.Delayed)
}

func TestHistogram_FindBin(t *testing.T) {
	h := &Histogram{XEdges: []float64{0, 1, 2}, YEdges: []float64{0, 10}}
	cases := []struct {
		x, y   float64
		i, j   int
		inside bool
	}{
		{0, 0, 0, 0, true},
		{0.99, 5, 0, 0, true},
		{1, 5, 1, 0, true},
		{2, 5, 0, 0, false},
		{-0.1, 5, 0, 0, false},
		{1.5, 10, 0, 0, false},
	}
	for _, tc := range cases {
		i, j, ok := h.FindBin(tc.x, tc.y)
		require.Equal(t, tc.inside, ok, "x=%v y=%v", tc.x, tc.y)
		if ok {
			assert.Equal(t, tc.i, i)
			assert.Equal(t, tc.j, j)
		}
	}
}

func TestNewStore_Rejects(t *testing.T) {
	good := func() *Histogram {
		return &Histogram{Component: "A", Contributor: "K40",
			XEdges: []float64{0, 1}, YEdges: []float64{0, 1}, Values: [][]float64{{1}}}
	}

	_, err := NewStore(good(), good())
	require.ErrorIs(t, err, ErrDuplicateHistogram)

	h := good()
	h.XEdges = []float64{1, 0}
	_, err = NewStore(h)
	assert.Error(t, err)

	h = good()
	h.Values = [][]float64{{1, 2}}
	_, err = NewStore(h)
	assert.Error(t, err)

	h = good()
	h.YEdges = []float64{0}
	_, err = NewStore(h)
	assert.Error(t, err)
}

func TestDecode_Empty(t *testing.T) {
	s, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestDecode_UnknownField(t *testing.T) {
	_, err := Decode(strings.NewReader("histograms:\n  - component: A\n    colour: red\n"))
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eff.yaml")
	require.NoError(t, os.WriteFile(path, []byte(storeYAML), 0o644))

	s, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())

	_, err = Open(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConstantAndNone(t *testing.T) {
	p, ok := Constant(0.5, 0.25).Efficiency(Key{Component: "X"})
	assert.True(t, ok)
	assert.Equal(t, Pair{Prompt: 0.5, Delayed: 0.25}, p)

	p, ok = None.Efficiency(Key{Component: "X"})
	assert.False(t, ok)
	assert.Equal(t, Pair{}, p)

	assert.Equal(t, Pair{Prompt: 0.001, Delayed: 0.002}, Pair{Prompt: 0.5, Delayed: 1}.Scale(0.002))
	assert.Equal(t, "PMT/214Pb(U238)", Key{Component: "PMT", Contributor: "214Pb", Parent: "U238"}.String())
	assert.Equal(t, "PMT/K40", Key{Component: "PMT", Contributor: "K40"}.String())
}
