package app

import (
	"context"
	"slices"
	"time"

	"github.com/MrWong99/elephantmem/internal/graph"
	"github.com/MrWong99/elephantmem/internal/monitor"
	"github.com/MrWong99/elephantmem/internal/search"
	"github.com/MrWong99/elephantmem/internal/store"
)

// suggestionLimit caps the names offered for an unknown elephant.
const suggestionLimit = 5

// Stats summarises the stored entities.
func (a *App) Stats() store.Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.store.Stats()
}

// SearchStats summarises the active indexes.
func (a *App) SearchStats() search.Statistics {
	return a.engine.Statistics()
}

// MemoryReport is the memory view served to the dashboard.
type MemoryReport struct {
	Current   monitor.Snapshot   `json:"current"`
	Snapshots []monitor.Snapshot `json:"snapshots"`
	Live      graph.LiveCounts   `json:"live"`
	Allocated graph.LiveCounts   `json:"allocated"`

	// CircularReferences counts children edges plus herd pointers of the
	// stored elephants.
	CircularReferences int `json:"circular_references"`

	// SinceBaseline compares the newest snapshot with the oldest retained.
	SinceBaseline *monitor.Diff `json:"since_baseline,omitempty"`
}

// Memory samples process memory and reports arena liveness.
func (a *App) Memory() MemoryReport {
	a.mu.RLock()
	rep := MemoryReport{
		Live:               a.arena.Live(),
		Allocated:          a.arena.Allocated(),
		CircularReferences: a.store.CircularReferenceCount(),
	}
	a.mu.RUnlock()

	rep.Current = a.monitor.Current("current")
	rep.Snapshots = a.monitor.Snapshots()
	if d, ok := a.monitor.Compare(0, -1); ok {
		rep.SinceBaseline = &d
	}
	return rep
}

// StatsFrame is one message on the stats WebSocket.
type StatsFrame struct {
	Time     time.Time        `json:"time"`
	Stats    store.Stats      `json:"stats"`
	Live     graph.LiveCounts `json:"live"`
	RSSBytes uint64           `json:"rss_bytes"`
	Indexed  bool             `json:"indexed"`
	Stale    bool             `json:"stale"`
}

// Frame captures the current stats frame.
func (a *App) Frame() StatsFrame {
	st := a.IndexStatus()
	a.mu.RLock()
	f := StatsFrame{
		Time:    a.now(),
		Stats:   a.store.Stats(),
		Live:    a.arena.Live(),
		Indexed: st.Indexed,
		Stale:   st.Stale,
	}
	a.mu.RUnlock()
	f.RSSBytes = monitor.ProcessRSS()
	return f
}

// Verify checks every edge invariant of the arena.
func (a *App) Verify() []graph.Violation {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.arena.Verify()
}

// EventsInYear returns the indexed events of year.
func (a *App) EventsInYear(ctx context.Context, year int) []*graph.Event {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.engine.SearchByYear(ctx, year)
}

// EventsInRange returns the indexed events from start to end inclusive.
func (a *App) EventsInRange(ctx context.Context, start, end int) []*graph.Event {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.engine.SearchByYearRange(ctx, start, end)
}

// EventsOfType returns the indexed events of type t.
func (a *App) EventsOfType(ctx context.Context, t graph.EventType) []*graph.Event {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.engine.SearchByType(ctx, t)
}

// EventsNear returns the events within radius grid cells of lat, lon. A
// negative radius selects search.default_radius.
func (a *App) EventsNear(ctx context.Context, lat, lon float64, radius int) []*graph.Event {
	if radius < 0 {
		radius = a.Config().Search.DefaultRadius
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.engine.SearchByLocation(ctx, lat, lon, radius)
}

// EventsWith returns the events the named elephant took part in.
func (a *App) EventsWith(ctx context.Context, name string) []*graph.Event {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.engine.SearchByElephant(ctx, name)
}

// Timeline returns the named elephant's timeline. For an unknown name it
// returns close matches instead.
func (a *App) Timeline(ctx context.Context, name string) (search.Timeline, []search.Suggestion, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if tl, ok := a.engine.ElephantTimeline(ctx, name); ok {
		return tl, nil, true
	}
	return search.Timeline{}, a.engine.SuggestNames(ctx, name, suggestionLimit), false
}

// Descendants returns the named elephant's descendants up to depth
// generations, in pre-order. Depth <= 0 selects the default.
func (a *App) Descendants(ctx context.Context, name string, depth int) ([]*graph.Elephant, bool) {
	if depth <= 0 {
		depth = graph.DefaultMaxDepth
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	e, ok := a.engine.ElephantByName(ctx, name)
	if !ok {
		return nil, false
	}
	return slices.Collect(a.arena.Descendants(e, depth)), true
}

// NearestWater returns the closest water source to lat, lon. When year is
// non-nil only sources available that year qualify.
func (a *App) NearestWater(ctx context.Context, lat, lon float64, year *int) (*graph.WaterSource, bool) {
	var opts []graph.NearestOption
	if year != nil {
		opts = append(opts, graph.AvailableIn(*year))
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.engine.FindNearestWater(ctx, lat, lon, opts...)
}

// Droughts maps water-source names to their dry years within [start, end].
func (a *App) Droughts(ctx context.Context, start, end int) map[string][]int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.engine.SearchDroughts(ctx, start, end)
}

// MigrationAlerts returns migration anniversaries as of year. Zero selects
// search.current_year, falling back to the clock.
func (a *App) MigrationAlerts(ctx context.Context, year int) []search.Alert {
	if year == 0 {
		year = a.Config().Search.Year(a.now())
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.engine.MigrationAlerts(ctx, year)
}

// Herd returns the indexed herd named name with its matriarch, if any.
func (a *App) Herd(ctx context.Context, name string) (*graph.Herd, *graph.Elephant, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	h, ok := a.engine.HerdByName(ctx, name)
	if !ok {
		return nil, nil, false
	}
	m, _ := a.arena.Matriarch(h)
	return h, m, true
}

// Read runs fn with the arena under the read lock. Entities returned by
// queries must only be inspected inside Read, since writers such as
// [App.Cleanup] mutate their edges.
func (a *App) Read(fn func(*graph.Arena)) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	fn(a.arena)
}
