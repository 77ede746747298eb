package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/watchmakers/cleanwatch/pkg/budget"
	"github.com/watchmakers/cleanwatch/pkg/component"
	"github.com/watchmakers/cleanwatch/pkg/isotope"
)

// Detector is a configured, updated set of components together with the
// engine that evaluates them.
type Detector struct {
	Engine     *budget.Engine
	Env        *component.Env
	Components []*component.Component
}

// Build resolves the layout, opens the efficiency source and runs a full
// update on every component. reg may be nil for the default catalog.
func (c *Config) Build(reg *isotope.Registry) (*Detector, error) {
	if reg == nil {
		reg = isotope.Default()
	}
	prov, err := c.Provider()
	if err != nil {
		return nil, err
	}
	specs, err := c.Layout()
	if err != nil {
		return nil, err
	}

	env := &component.Env{
		Registry: reg,
		Provider: prov,
		Cuts:     c.Cuts(),
		TimeCut:  c.IBDTimeCut,
		SpaceCut: c.IBDSpaceCut,
	}
	params := c.Params()
	d := &Detector{Engine: budget.New(&params), Env: env}

	for _, s := range specs {
		comp, err := s.build(env)
		if err != nil {
			return nil, err
		}
		d.Components = append(d.Components, comp)
	}
	slog.Debug("detector built", "components", len(d.Components), "preset", c.Preset)
	return d, nil
}

func (s ComponentSpec) build(env *component.Env) (*component.Component, error) {
	format, err := component.ParseRateFormat(s.Format)
	if err != nil {
		return nil, fmt.Errorf("component %s: %w", s.Name, err)
	}
	comp, err := component.New(s.Name, s.Mass, format, env)
	if err != nil {
		return nil, err
	}
	for _, ir := range s.Isotopes {
		if err := comp.AddIsotope(ir.Name, ir.Rate); err != nil {
			return nil, err
		}
	}
	if err := comp.Update(); err != nil {
		return nil, err
	}
	return comp, nil
}

// Component finds a component by name, case-insensitively.
func (d *Detector) Component(name string) (*component.Component, bool) {
	for _, c := range d.Components {
		if strings.EqualFold(c.Name(), name) {
			return c, true
		}
	}
	return nil, false
}
