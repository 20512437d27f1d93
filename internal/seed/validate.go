package seed

import (
	"errors"
	"fmt"

	"github.com/MrWong99/elephantmem/internal/graph"
)

// Validate checks a seed file and reports every problem found.
//
// Rules:
//   - Elephant and herd names are non-empty and unique.
//   - Genders, capacities and event types are known values.
//   - Parents, members, visitors and participants name declared entities.
//   - No elephant is its own ancestor.
func Validate(f *File) error {
	if f == nil {
		return errors.New("seed: file must not be nil")
	}
	var errs []error

	elephants := make(map[string]*Elephant, len(f.Elephants))
	for i := range f.Elephants {
		e := &f.Elephants[i]
		prefix := fmt.Sprintf("elephants[%d]", i)
		if e.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		if _, dup := elephants[e.Name]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate elephant name %q", prefix, e.Name))
		}
		elephants[e.Name] = e
		if !graph.Gender(e.Gender).IsValid() {
			errs = append(errs, fmt.Errorf("%s.gender %q is invalid; valid values: M, F", prefix, e.Gender))
		}
	}
	for i, e := range f.Elephants {
		if e.Parent == "" {
			continue
		}
		if _, ok := elephants[e.Parent]; !ok {
			errs = append(errs, fmt.Errorf("elephants[%d].parent %q is not a declared elephant", i, e.Parent))
		}
	}
	errs = append(errs, ancestryLoops(f.Elephants, elephants)...)

	herds := make(map[string]bool, len(f.Herds))
	for i, h := range f.Herds {
		prefix := fmt.Sprintf("herds[%d]", i)
		if h.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		if herds[h.Name] {
			errs = append(errs, fmt.Errorf("%s: duplicate herd name %q", prefix, h.Name))
		}
		herds[h.Name] = true
		for _, m := range h.Members {
			if _, ok := elephants[m]; !ok {
				errs = append(errs, fmt.Errorf("%s.members: %q is not a declared elephant", prefix, m))
			}
		}
	}

	for i, ws := range f.WaterSources {
		prefix := fmt.Sprintf("water_sources[%d]", i)
		if ws.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if !graph.Capacity(ws.Capacity).IsValid() {
			errs = append(errs, fmt.Errorf("%s.capacity %q is invalid; valid values: small, medium, large", prefix, ws.Capacity))
		}
		for year, visitors := range ws.Visits {
			for _, v := range visitors {
				if _, ok := elephants[v]; !ok {
					errs = append(errs, fmt.Errorf("%s.visits[%d]: %q is not a declared elephant", prefix, year, v))
				}
			}
		}
	}

	for i, ev := range f.Events {
		prefix := fmt.Sprintf("events[%d]", i)
		if !graph.EventType(ev.Type).IsValid() {
			errs = append(errs, fmt.Errorf("%s.type %q is not a recognised event type", prefix, ev.Type))
		}
		for _, name := range ev.Elephants {
			if _, ok := elephants[name]; !ok {
				errs = append(errs, fmt.Errorf("%s.elephants: %q is not a declared elephant", prefix, name))
			}
		}
		for _, name := range ev.Herds {
			if !herds[name] {
				errs = append(errs, fmt.Errorf("%s.herds: %q is not a declared herd", prefix, name))
			}
		}
	}

	return errors.Join(errs...)
}

// ancestryLoops reports every elephant that is reachable from itself by
// following parent names.
func ancestryLoops(list []Elephant, byName map[string]*Elephant) []error {
	var errs []error
	for _, e := range list {
		seen := map[string]bool{e.Name: true}
		for cur := byName[e.Parent]; cur != nil; cur = byName[cur.Parent] {
			if cur.Name == e.Name {
				errs = append(errs, fmt.Errorf("elephant %q is its own ancestor", e.Name))
				break
			}
			if seen[cur.Name] {
				break
			}
			seen[cur.Name] = true
		}
	}
	return errs
}
