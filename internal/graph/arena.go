package graph

import (
	"fmt"
	"maps"
	"slices"
)

// Arena allocates entities and owns the bookkeeping needed to reclaim them.
//
// Entities stay resolvable by ID until they are freed by [Arena.Reclaim] or
// [Arena.CollectCycles]. A pointer retained after that still holds its
// fields, but its ID no longer resolves and it cannot be linked again.
type Arena struct {
	nextID ID

	elephants map[ID]*Elephant
	herds     map[ID]*Herd
	events    map[ID]*Event
	sources   map[ID]*WaterSource

	// pinned holds the entries rooted by an owner such as the store.
	pinned map[ID]struct{}

	// Registries of every event and water source allocated since the last
	// ResetRegistries. Membership counts as a reference.
	eventRegistry  []ID
	sourceRegistry []ID

	allocated LiveCounts
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{
		elephants: make(map[ID]*Elephant),
		herds:     make(map[ID]*Herd),
		events:    make(map[ID]*Event),
		sources:   make(map[ID]*WaterSource),
		pinned:    make(map[ID]struct{}),
	}
}

func (a *Arena) next(k Kind) ID {
	a.nextID++
	a.allocated.add(k, 1)
	return a.nextID
}

// NewElephant allocates an elephant with no parent, children or herd.
func (a *Arena) NewElephant(name string, birthYear int, gender Gender) *Elephant {
	e := &Elephant{
		ID:        a.next(KindElephant),
		Name:      name,
		BirthYear: birthYear,
		Gender:    gender,
	}
	a.elephants[e.ID] = e
	return e
}

// NewHerd allocates an empty herd.
func (a *Arena) NewHerd(name, territory string, establishedYear int) *Herd {
	h := &Herd{
		ID:              a.next(KindHerd),
		Name:            name,
		Territory:       territory,
		EstablishedYear: establishedYear,
	}
	a.herds[h.ID] = h
	return h
}

// NewEvent allocates an immutable event and adds it to the event registry.
// Nil participants are skipped; participants from another arena are rejected.
func (a *Arena) NewEvent(typ EventType, year int, location, description string, elephants []*Elephant, herds []*Herd) (*Event, error) {
	if !typ.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEventType, typ)
	}
	ev := &Event{
		typ:         typ,
		year:        year,
		location:    location,
		description: description,
	}
	for _, e := range elephants {
		if e == nil {
			continue
		}
		if !a.ownsElephant(e) {
			return nil, fmt.Errorf("graph: event participant %q: %w", e.Name, ErrForeignEntity)
		}
		ev.elephants = append(ev.elephants, e.ID)
	}
	for _, h := range herds {
		if h == nil {
			continue
		}
		if !a.ownsHerd(h) {
			return nil, fmt.Errorf("graph: event herd %q: %w", h.Name, ErrForeignEntity)
		}
		ev.herds = append(ev.herds, h.ID)
	}
	ev.id = a.next(KindEvent)
	a.events[ev.id] = ev
	a.eventRegistry = append(a.eventRegistry, ev.id)
	return ev, nil
}

// NewWaterSource allocates a water source and adds it to the registry.
func (a *Arena) NewWaterSource(name string, lat, lon float64, capacity Capacity) (*WaterSource, error) {
	if !capacity.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCapacity, capacity)
	}
	ws := &WaterSource{
		ID:           a.next(KindWaterSource),
		Name:         name,
		Latitude:     lat,
		Longitude:    lon,
		Capacity:     capacity,
		availability: make(map[int]bool),
		visits:       make(map[int][]ID),
	}
	a.sources[ws.ID] = ws
	a.sourceRegistry = append(a.sourceRegistry, ws.ID)
	return ws, nil
}

// Elephant resolves an elephant by ID.
func (a *Arena) Elephant(id ID) (*Elephant, bool) {
	e, ok := a.elephants[id]
	return e, ok
}

// Herd resolves a herd by ID.
func (a *Arena) Herd(id ID) (*Herd, bool) {
	h, ok := a.herds[id]
	return h, ok
}

// Event resolves an event by ID.
func (a *Arena) Event(id ID) (*Event, bool) {
	ev, ok := a.events[id]
	return ev, ok
}

// WaterSource resolves a water source by ID.
func (a *Arena) WaterSource(id ID) (*WaterSource, bool) {
	ws, ok := a.sources[id]
	return ws, ok
}

// Kind returns the kind of a live entry, or 0 if id does not resolve.
func (a *Arena) Kind(id ID) Kind {
	switch {
	case a.elephants[id] != nil:
		return KindElephant
	case a.herds[id] != nil:
		return KindHerd
	case a.events[id] != nil:
		return KindEvent
	case a.sources[id] != nil:
		return KindWaterSource
	default:
		return 0
	}
}

func (a *Arena) ownsElephant(e *Elephant) bool { return e != nil && a.elephants[e.ID] == e }
func (a *Arena) ownsHerd(h *Herd) bool         { return h != nil && a.herds[h.ID] == h }

// Pin roots a live entry so neither reclamation strategy frees it.
// Pinning an unknown ID is a no-op.
func (a *Arena) Pin(id ID) {
	if a.Kind(id) == 0 {
		return
	}
	a.pinned[id] = struct{}{}
}

// Unpin removes the root added by [Arena.Pin].
func (a *Arena) Unpin(id ID) {
	delete(a.pinned, id)
}

// IsPinned reports whether id is currently rooted.
func (a *Arena) IsPinned(id ID) bool {
	_, ok := a.pinned[id]
	return ok
}

// Events returns every registered event that is still live, in allocation order.
func (a *Arena) Events() []*Event {
	out := make([]*Event, 0, len(a.eventRegistry))
	for _, id := range a.eventRegistry {
		if ev, ok := a.events[id]; ok {
			out = append(out, ev)
		}
	}
	return out
}

// WaterSources returns every registered water source that is still live,
// in allocation order.
func (a *Arena) WaterSources() []*WaterSource {
	out := make([]*WaterSource, 0, len(a.sourceRegistry))
	for _, id := range a.sourceRegistry {
		if ws, ok := a.sources[id]; ok {
			out = append(out, ws)
		}
	}
	return out
}

// ResetRegistries empties the event and water-source registries. The
// entries themselves stay allocated until reclaimed.
func (a *Arena) ResetRegistries() {
	a.eventRegistry = nil
	a.sourceRegistry = nil
}

// Mark is a point in an arena's allocation history, taken with
// [Arena.Mark]. Entries allocated later have larger IDs.
type Mark struct {
	last ID
}

// Mark returns the current allocation point.
func (a *Arena) Mark() Mark { return Mark{last: a.nextID} }

func (m Mark) after(id ID) bool { return id > m.last }
func (m Mark) upTo(id ID) bool  { return id <= m.last }

// Discard frees every entry allocated after m and removes it from the
// registries. Edges that older entries hold to discarded ones are dropped,
// so the remaining graph stays symmetric.
func (a *Arena) Discard(m Mark) LiveCounts {
	for id, e := range a.elephants {
		if m.after(id) {
			continue
		}
		if m.after(e.parent) {
			e.parent = None
		}
		if m.after(e.herd) {
			e.herd = None
		}
		e.children = slices.DeleteFunc(e.children, m.after)
	}
	for id, h := range a.herds {
		if m.upTo(id) {
			h.members = slices.DeleteFunc(h.members, m.after)
		}
	}
	for id, ws := range a.sources {
		if m.upTo(id) {
			for year, visitors := range ws.visits {
				ws.visits[year] = slices.DeleteFunc(visitors, m.after)
			}
		}
	}
	a.eventRegistry = slices.DeleteFunc(a.eventRegistry, m.after)
	a.sourceRegistry = slices.DeleteFunc(a.sourceRegistry, m.after)

	var freed LiveCounts
	for _, id := range a.ids() {
		if m.after(id) {
			freed.add(a.free(id), 1)
		}
	}
	return freed
}

// ResetRegistriesTo removes registry entries allocated up to m. Entries
// allocated after m stay listed.
func (a *Arena) ResetRegistriesTo(m Mark) {
	a.eventRegistry = slices.DeleteFunc(a.eventRegistry, m.upTo)
	a.sourceRegistry = slices.DeleteFunc(a.sourceRegistry, m.upTo)
}

// Live returns the per-kind number of entries not yet reclaimed.
func (a *Arena) Live() LiveCounts {
	return LiveCounts{
		Elephants:    len(a.elephants),
		Herds:        len(a.herds),
		Events:       len(a.events),
		WaterSources: len(a.sources),
	}
}

// Allocated returns the per-kind number of entries allocated since the
// arena was created or [Arena.ResetTracking] was last called.
func (a *Arena) Allocated() LiveCounts { return a.allocated }

// ResetTracking zeroes the allocation counters.
func (a *Arena) ResetTracking() { a.allocated = LiveCounts{} }

// ids returns the IDs of every live entry in ascending order.
func (a *Arena) ids() []ID {
	out := make([]ID, 0, a.Live().Total())
	out = slices.AppendSeq(out, maps.Keys(a.elephants))
	out = slices.AppendSeq(out, maps.Keys(a.herds))
	out = slices.AppendSeq(out, maps.Keys(a.events))
	out = slices.AppendSeq(out, maps.Keys(a.sources))
	slices.Sort(out)
	return out
}
