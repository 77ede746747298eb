package efficiency

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Histogram is a 2-D efficiency map for one component/contributor/parent:
// fiducial cut bins along X, energy cut bins along Y. Values[i][j] is the
// content of fiducial bin i and energy bin j.
type Histogram struct {
	Component   string      `yaml:"component"`
	Contributor string      `yaml:"isotope"`
	Parent      string      `yaml:"parent,omitempty"`
	XEdges      []float64   `yaml:"fiducial_edges"`
	YEdges      []float64   `yaml:"energy_edges"`
	Values      [][]float64 `yaml:"values"`
}

// FindBin returns the bin indices for (x, y), or ok=false when either
// coordinate is outside the axes.
func (h *Histogram) FindBin(x, y float64) (i, j int, ok bool) {
	i, okx := findBin(h.XEdges, x)
	j, oky := findBin(h.YEdges, y)
	return i, j, okx && oky
}

// BinContent returns the content at (x, y); out-of-range lookups read 0.
func (h *Histogram) BinContent(x, y float64) float64 {
	i, j, ok := h.FindBin(x, y)
	if !ok {
		return 0
	}
	return h.Values[i][j]
}

func (h *Histogram) validate() error {
	if len(h.XEdges) < 2 || len(h.YEdges) < 2 {
		return fmt.Errorf("histogram %s/%s: need at least two edges per axis", h.Component, h.Contributor)
	}
	if !sort.Float64sAreSorted(h.XEdges) || !sort.Float64sAreSorted(h.YEdges) {
		return fmt.Errorf("histogram %s/%s: edges must be ascending", h.Component, h.Contributor)
	}
	if len(h.Values) != len(h.XEdges)-1 {
		return fmt.Errorf("histogram %s/%s: %d rows for %d fiducial bins",
			h.Component, h.Contributor, len(h.Values), len(h.XEdges)-1)
	}
	for i, row := range h.Values {
		if len(row) != len(h.YEdges)-1 {
			return fmt.Errorf("histogram %s/%s: row %d has %d values for %d energy bins",
				h.Component, h.Contributor, i, len(row), len(h.YEdges)-1)
		}
	}
	return nil
}

// findBin uses half-open bins [lo, hi); the last edge is exclusive.
func findBin(edges []float64, v float64) (int, bool) {
	if len(edges) < 2 || v < edges[0] || v >= edges[len(edges)-1] {
		return 0, false
	}
	// first edge strictly greater than v
	k := sort.Search(len(edges), func(n int) bool { return edges[n] > v })
	return k - 1, true
}

type storeKey struct {
	component, contributor, parent string
}

// Store is a Provider backed by a set of histograms, the file-based
// adapter for simulated detector efficiencies.
type Store struct {
	hists map[storeKey]*Histogram
}

type storeFile struct {
	Histograms []*Histogram `yaml:"histograms"`
}

// NewStore indexes histograms by component, contributor and parent.
func NewStore(hists ...*Histogram) (*Store, error) {
	s := &Store{hists: make(map[storeKey]*Histogram, len(hists))}
	for _, h := range hists {
		if err := h.validate(); err != nil {
			return nil, err
		}
		k := storeKey{h.Component, h.Contributor, h.Parent}
		if _, dup := s.hists[k]; dup {
			return nil, fmt.Errorf("%w: %s/%s(%s)", ErrDuplicateHistogram, h.Component, h.Contributor, h.Parent)
		}
		s.hists[k] = h
	}
	return s, nil
}

// Decode reads a YAML document with a top-level "histograms" list.
func Decode(r io.Reader) (*Store, error) {
	var f storeFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return NewStore()
		}
		return nil, fmt.Errorf("decode efficiency store: %w", err)
	}
	return NewStore(f.Histograms...)
}

// Open loads a store from a YAML file.
func Open(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read efficiency store: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// Len returns the number of histograms.
func (s *Store) Len() int { return len(s.hists) }

// Efficiency reads the prompt efficiency at (fiducial, prompt cut) and the
// delayed efficiency at (fiducial, delayed cut).
func (s *Store) Efficiency(key Key) (Pair, bool) {
	h, ok := s.hists[storeKey{key.Component, key.Contributor, key.Parent}]
	if !ok {
		return Pair{}, false
	}
	return Pair{
		Prompt:  h.BinContent(key.Cuts.Fiducial, key.Cuts.Prompt),
		Delayed: h.BinContent(key.Cuts.Fiducial, key.Cuts.Delayed),
	}, true
}
