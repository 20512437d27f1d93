package store

import "github.com/MrWong99/elephantmem/internal/graph"

// Stats summarises the registered entities.
type Stats struct {
	TotalElephants     int     `json:"total_elephants"`
	TotalHerds         int     `json:"total_herds"`
	TotalEvents        int     `json:"total_events"`
	TotalWaterSources  int     `json:"total_water_sources"`
	CircularReferences int     `json:"circular_references"`
	AvgChildren        float64 `json:"avg_children"`
}

// Stats computes the current summary. CircularReferences counts every
// children edge plus every elephant with a parent set; AvgChildren is the
// mean children-list length (0 for an empty store).
func (s *Store) Stats() Stats {
	st := Stats{
		TotalElephants:    len(s.elephants),
		TotalHerds:        len(s.herds),
		TotalEvents:       len(s.events),
		TotalWaterSources: len(s.sources),
	}
	children := 0
	for _, e := range s.elephants {
		children += e.NumChildren()
		st.CircularReferences += e.NumChildren()
		if e.HasParent() {
			st.CircularReferences++
		}
	}
	st.AvgChildren = float64(children) / float64(max(len(s.elephants), 1))
	return st
}

// CircularReferenceCount counts the edges that form cycles with another
// entity: every children edge plus every elephant that points at a herd.
// Herd member lists are not scanned. This is not the same number as
// Stats.CircularReferences.
func (s *Store) CircularReferenceCount() int {
	n := 0
	for _, e := range s.elephants {
		n += e.NumChildren()
		if e.Herd() != graph.None {
			n++
		}
	}
	return n
}
