// Package store keeps the registry of live elephants, herds, events and
// water sources on top of a [graph.Arena].
//
// Every entity added to a [Store] is pinned in the arena. [Store.Clear]
// drops the store's references without touching the edges between entities,
// which leaves parent/child and herd/member cycles for the arena to deal
// with; [Store.ClearAndCleanup] severs those edges first.
//
// A Store is not safe for concurrent use.
package store

import (
	"github.com/MrWong99/elephantmem/internal/graph"
)

// Store is the registry of entities ingested from a dataset.
type Store struct {
	arena *graph.Arena

	elephants []*graph.Elephant
	herds     []*graph.Herd
	events    []*graph.Event
	sources   []*graph.WaterSource

	// byName resolves the most recently added elephant with a given name.
	byName   map[string]*graph.Elephant
	shadowed int
}

// New returns an empty store backed by arena.
func New(arena *graph.Arena) *Store {
	return &Store{
		arena:  arena,
		byName: make(map[string]*graph.Elephant),
	}
}

// Arena returns the arena the store pins its entities in.
func (s *Store) Arena() *graph.Arena { return s.arena }

// AddElephant registers e and pins it. When another elephant with the same
// name is already registered the name lookup switches to e and the shadowed
// counter is incremented.
func (s *Store) AddElephant(e *graph.Elephant) {
	if e == nil {
		return
	}
	s.elephants = append(s.elephants, e)
	if prev, ok := s.byName[e.Name]; ok && prev != e {
		s.shadowed++
	}
	s.byName[e.Name] = e
	s.arena.Pin(e.ID)
}

// AddElephants registers each elephant in order.
func (s *Store) AddElephants(es []*graph.Elephant) {
	for _, e := range es {
		s.AddElephant(e)
	}
}

// AddHerd registers h and pins it.
func (s *Store) AddHerd(h *graph.Herd) {
	if h == nil {
		return
	}
	s.herds = append(s.herds, h)
	s.arena.Pin(h.ID)
}

// AddHerds registers each herd in order.
func (s *Store) AddHerds(hs []*graph.Herd) {
	for _, h := range hs {
		s.AddHerd(h)
	}
}

// AddEvent registers ev and pins it.
func (s *Store) AddEvent(ev *graph.Event) {
	if ev == nil {
		return
	}
	s.events = append(s.events, ev)
	s.arena.Pin(ev.ID())
}

// AddEvents registers each event in order.
func (s *Store) AddEvents(evs []*graph.Event) {
	for _, ev := range evs {
		s.AddEvent(ev)
	}
}

// AddWaterSource registers ws and pins it.
func (s *Store) AddWaterSource(ws *graph.WaterSource) {
	if ws == nil {
		return
	}
	s.sources = append(s.sources, ws)
	s.arena.Pin(ws.ID)
}

// AddWaterSources registers each water source in order.
func (s *Store) AddWaterSources(wss []*graph.WaterSource) {
	for _, ws := range wss {
		s.AddWaterSource(ws)
	}
}

// Ingest registers every entity of d.
func (s *Store) Ingest(d *graph.Dataset) {
	if d == nil {
		return
	}
	s.AddElephants(d.Elephants)
	s.AddHerds(d.Herds)
	s.AddEvents(d.Events)
	s.AddWaterSources(d.WaterSources)
}

// ElephantByName returns the most recently added elephant named name.
func (s *Store) ElephantByName(name string) (*graph.Elephant, bool) {
	e, ok := s.byName[name]
	return e, ok
}

// Shadowed returns how many times a name lookup was redirected to a newer
// elephant with the same name.
func (s *Store) Shadowed() int { return s.shadowed }

// Elephants returns the registered elephants in insertion order.
func (s *Store) Elephants() []*graph.Elephant { return append([]*graph.Elephant(nil), s.elephants...) }

// Herds returns the registered herds in insertion order.
func (s *Store) Herds() []*graph.Herd { return append([]*graph.Herd(nil), s.herds...) }

// Events returns the registered events in insertion order.
func (s *Store) Events() []*graph.Event { return append([]*graph.Event(nil), s.events...) }

// WaterSources returns the registered water sources in insertion order.
func (s *Store) WaterSources() []*graph.WaterSource {
	return append([]*graph.WaterSource(nil), s.sources...)
}

// Len returns the total number of registered entities.
func (s *Store) Len() int {
	return len(s.elephants) + len(s.herds) + len(s.events) + len(s.sources)
}

// Clear forgets every registered entity, unpins it and empties the arena
// registries. Edges between entities are left as they are, so entities that
// reference each other stay alive until the arena collects cycles.
func (s *Store) Clear() {
	s.detach()
	s.arena.ResetRegistries()
}

// Replace swaps the registered entities for those of d, which must have been
// allocated after m. Like [Store.Clear] it leaves the old entities' edges
// intact and drops their registry entries; d's entries stay registered.
func (s *Store) Replace(d *graph.Dataset, m graph.Mark) {
	s.detach()
	s.arena.ResetRegistriesTo(m)
	s.Ingest(d)
}

// detach unpins and forgets every registered entity.
func (s *Store) detach() {
	for _, e := range s.elephants {
		s.arena.Unpin(e.ID)
	}
	for _, h := range s.herds {
		s.arena.Unpin(h.ID)
	}
	for _, ev := range s.events {
		s.arena.Unpin(ev.ID())
	}
	for _, ws := range s.sources {
		s.arena.Unpin(ws.ID)
	}
	s.elephants = nil
	s.herds = nil
	s.events = nil
	s.sources = nil
	s.byName = make(map[string]*graph.Elephant)
	s.shadowed = 0
}

// ClearAndCleanup severs every parent, child and herd edge of the registered
// entities, then clears the store and resets the arena's allocation counters.
// Afterwards plain reference counting is enough to reclaim everything.
func (s *Store) ClearAndCleanup() {
	for _, e := range s.elephants {
		s.arena.Sever(e)
	}
	for _, h := range s.herds {
		s.arena.Disband(h)
	}
	s.Clear()
	s.arena.ResetTracking()
}
