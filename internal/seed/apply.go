package seed

import (
	"fmt"

	"github.com/MrWong99/elephantmem/internal/graph"
)

// Apply validates f and allocates its entities in a, linking parents,
// herd members, water-source visits and event participants. The returned
// dataset lists entities in file order.
func Apply(a *graph.Arena, f *File) (*graph.Dataset, error) {
	if err := Validate(f); err != nil {
		return nil, fmt.Errorf("seed: invalid file: %w", err)
	}
	d := &graph.Dataset{}

	elephants := make(map[string]*graph.Elephant, len(f.Elephants))
	for _, e := range f.Elephants {
		el := a.NewElephant(e.Name, e.BirthYear, graph.Gender(e.Gender))
		elephants[e.Name] = el
		d.Elephants = append(d.Elephants, el)
	}
	for _, e := range f.Elephants {
		if e.Parent == "" {
			continue
		}
		if err := a.AddChild(elephants[e.Parent], elephants[e.Name]); err != nil {
			return nil, fmt.Errorf("seed: link %q to parent %q: %w", e.Name, e.Parent, err)
		}
	}

	herds := make(map[string]*graph.Herd, len(f.Herds))
	for _, h := range f.Herds {
		herd := a.NewHerd(h.Name, h.Territory, h.Established)
		herds[h.Name] = herd
		d.Herds = append(d.Herds, herd)
		for _, m := range h.Members {
			if err := a.AddMember(herd, elephants[m]); err != nil {
				return nil, fmt.Errorf("seed: add %q to herd %q: %w", m, h.Name, err)
			}
		}
	}

	for _, ws := range f.WaterSources {
		src, err := a.NewWaterSource(ws.Name, ws.Latitude, ws.Longitude, graph.Capacity(ws.Capacity))
		if err != nil {
			return nil, fmt.Errorf("seed: water source %q: %w", ws.Name, err)
		}
		for _, y := range ws.DryYears {
			src.RecordAvailability(y, false)
		}
		for year, visitors := range ws.Visits {
			for _, v := range visitors {
				src.RecordVisit(elephants[v], year)
			}
		}
		d.WaterSources = append(d.WaterSources, src)
	}

	for i, ev := range f.Events {
		who := make([]*graph.Elephant, 0, len(ev.Elephants))
		for _, name := range ev.Elephants {
			who = append(who, elephants[name])
		}
		which := make([]*graph.Herd, 0, len(ev.Herds))
		for _, name := range ev.Herds {
			which = append(which, herds[name])
		}
		event, err := a.NewEvent(graph.EventType(ev.Type), ev.Year, ev.Location, ev.Description, who, which)
		if err != nil {
			return nil, fmt.Errorf("seed: events[%d]: %w", i, err)
		}
		d.Events = append(d.Events, event)
	}
	return d, nil
}
