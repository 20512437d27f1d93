package generator

import (
	"errors"
	"fmt"

	"github.com/MrWong99/elephantmem/internal/graph"
)

// DatasetOptions sizes a generated dataset.
type DatasetOptions struct {
	Families            int `json:"families"`
	Generations         int `json:"generations"`
	ChildrenPerElephant int `json:"children_per_elephant"`
	Herds               int `json:"herds"`
	Events              int `json:"events"`
}

// Upper bounds accepted by [DatasetOptions.Validate]. A family tree holds up
// to (ChildrenPerElephant+1)^Generations elephants, so the limits keep a
// single request within memory.
const (
	MaxFamilies            = 20
	MaxGenerations         = 10
	MaxChildrenPerElephant = 5
	MaxHerds               = 50
	MaxEvents              = 10000
)

// Validate reports every out-of-range option.
func (o DatasetOptions) Validate() error {
	var errs []error
	for _, f := range []struct {
		name     string
		v        int
		min, max int
	}{
		{"families", o.Families, 1, MaxFamilies},
		{"generations", o.Generations, 1, MaxGenerations},
		{"children_per_elephant", o.ChildrenPerElephant, 0, MaxChildrenPerElephant},
		{"herds", o.Herds, 0, MaxHerds},
		{"events", o.Events, 0, MaxEvents},
	} {
		if f.v < f.min || f.v > f.max {
			errs = append(errs, fmt.Errorf("%s %d is out of range [%d, %d]", f.name, f.v, f.min, f.max))
		}
	}
	return errors.Join(errs...)
}

// Dataset runs the full pipeline: families, herds, herd assignment, water
// sources and events, all allocated in a.
func (g *Generator) Dataset(a *graph.Arena, o DatasetOptions) (*graph.Dataset, error) {
	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("generator: invalid options: %w", err)
	}
	elephants, err := g.MultipleFamilies(a, o.Families, o.Generations, o.ChildrenPerElephant)
	if err != nil {
		return nil, err
	}
	herds := g.Herds(a, o.Herds)
	if err := g.AssignToHerds(a, elephants, herds); err != nil {
		return nil, err
	}
	sources, err := g.WaterSources(a)
	if err != nil {
		return nil, err
	}
	events, err := g.Events(a, elephants, herds, o.Events)
	if err != nil {
		return nil, err
	}
	return &graph.Dataset{
		Elephants:    elephants,
		Herds:        herds,
		Events:       events,
		WaterSources: sources,
	}, nil
}
