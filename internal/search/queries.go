package search

import (
	"context"
	"slices"

	"github.com/MrWong99/elephantmem/internal/graph"
)

// SearchByYear returns the events of year in indexing order.
func (e *Engine) SearchByYear(ctx context.Context, year int) []*graph.Event {
	idx := e.current(ctx, "year")
	return clone(idx.byYear[year])
}

// SearchByYearRange returns the events from start to end inclusive, ordered
// by year and then indexing order. It is empty when start > end.
func (e *Engine) SearchByYearRange(ctx context.Context, start, end int) []*graph.Event {
	idx := e.current(ctx, "year_range")
	out := []*graph.Event{}
	if start > end {
		return out
	}
	from, _ := slices.BinarySearch(idx.years, start)
	for _, y := range idx.years[from:] {
		if y > end {
			break
		}
		out = append(out, idx.byYear[y]...)
	}
	return out
}

// SearchByElephant returns the events in which an elephant named name took
// part.
func (e *Engine) SearchByElephant(ctx context.Context, name string) []*graph.Event {
	idx := e.current(ctx, "elephant")
	return clone(idx.byElephant[name])
}

// SearchByType returns the events of type t.
func (e *Engine) SearchByType(ctx context.Context, t graph.EventType) []*graph.Event {
	idx := e.current(ctx, "type")
	return clone(idx.byType[t])
}

// MaxRadius is the largest grid-cell radius [Engine.SearchByLocation]
// scans. Cells are one degree wide, so it covers every longitude.
const MaxRadius = 180

// SearchByLocation returns the events in the square of grid cells within
// radius cells of the cell containing (lat, lon). A negative radius is
// treated as zero and radii above [MaxRadius] are clamped; cells outside the
// valid coordinate range are skipped. Invalid coordinates match nothing, nor
// do events with an unknown location.
func (e *Engine) SearchByLocation(ctx context.Context, lat, lon float64, radius int) []*graph.Event {
	idx := e.current(ctx, "location")
	out := []*graph.Event{}
	if !ValidCoordinates(lat, lon) {
		return out
	}
	radius = min(max(radius, 0), MaxRadius)
	cLat, cLon := int(lat), int(lon)
	for cellLat := max(cLat-radius, -90); cellLat <= min(cLat+radius, 90); cellLat++ {
		for cellLon := max(cLon-radius, -180); cellLon <= min(cLon+radius, 180); cellLon++ {
			out = append(out, idx.byLocation[cellKey(cellLat, cellLon)]...)
		}
	}
	return out
}

// ElephantsBornIn returns the indexed elephants born in year.
func (e *Engine) ElephantsBornIn(ctx context.Context, year int) []*graph.Elephant {
	idx := e.current(ctx, "birth_year")
	out := idx.elephantsByYear[year]
	if out == nil {
		return []*graph.Elephant{}
	}
	return slices.Clone(out)
}

// ElephantByName returns the last indexed elephant named name.
func (e *Engine) ElephantByName(ctx context.Context, name string) (*graph.Elephant, bool) {
	idx := e.current(ctx, "elephant_by_name")
	el, ok := idx.elephantByName[name]
	return el, ok
}

// HerdByName returns the last indexed herd named name.
func (e *Engine) HerdByName(ctx context.Context, name string) (*graph.Herd, bool) {
	idx := e.current(ctx, "herd_by_name")
	h, ok := idx.herdByName[name]
	return h, ok
}

// FindNearestWater returns the registered water source closest to
// (lat, lon). It reads the arena directly and does not need indexes.
func (e *Engine) FindNearestWater(ctx context.Context, lat, lon float64, opts ...graph.NearestOption) (*graph.WaterSource, bool) {
	e.metrics.RecordSearch(ctx, "nearest_water")
	if e.arena == nil {
		return nil, false
	}
	return e.arena.NearestWater(lat, lon, opts...)
}

// SearchDroughts maps each registered water source name to its dry years
// between start and end inclusive. Sources without dry years in the range
// are omitted.
func (e *Engine) SearchDroughts(ctx context.Context, start, end int) map[string][]int {
	e.metrics.RecordSearch(ctx, "droughts")
	out := make(map[string][]int)
	if e.arena == nil {
		return out
	}
	for _, ws := range e.arena.WaterSources() {
		var dry []int
		for _, y := range ws.DroughtYears() {
			if y >= start && y <= end {
				dry = append(dry, y)
			}
		}
		if len(dry) > 0 {
			out[ws.Name] = dry
		}
	}
	return out
}

func clone(evs []*graph.Event) []*graph.Event {
	if evs == nil {
		return []*graph.Event{}
	}
	return slices.Clone(evs)
}
