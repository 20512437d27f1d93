// Package search builds secondary indexes over the elephant graph and answers
// queries against them.
//
// Indexes are built from a full snapshot by [Engine.IndexAll] and swapped in
// atomically; they are not updated when the graph changes afterwards. All
// Engine methods are safe for concurrent use, but queries that read the
// arena (nearest water, droughts) must not race with arena writers.
package search

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MrWong99/elephantmem/internal/graph"
	"github.com/MrWong99/elephantmem/internal/observe"
)

// UnknownLocation is the location key of events whose location does not parse.
const UnknownLocation = "unknown"

// Option configures an [Engine].
type Option func(*Engine)

// WithMetrics records query counts and rebuild durations on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithSuggester replaces the default name [Suggester].
func WithSuggester(s *Suggester) Option {
	return func(e *Engine) { e.suggester = s }
}

// Engine answers event, elephant and herd queries from prebuilt indexes.
type Engine struct {
	arena     *graph.Arena
	metrics   *observe.Metrics
	suggester *Suggester

	mu  sync.RWMutex
	idx *indexSet
}

// indexSet is one immutable generation of indexes.
type indexSet struct {
	byYear     map[int][]*graph.Event
	years      []int
	byLocation map[string][]*graph.Event
	byType     map[graph.EventType][]*graph.Event
	byElephant map[string][]*graph.Event

	elephantByName  map[string]*graph.Elephant
	elephantsByYear map[int][]*graph.Elephant
	herdByName      map[string]*graph.Herd
	parentName      map[graph.ID]string
	names           []string

	totalEvents int
}

func newIndexSet() *indexSet {
	return &indexSet{
		byYear:          make(map[int][]*graph.Event),
		byLocation:      make(map[string][]*graph.Event),
		byType:          make(map[graph.EventType][]*graph.Event),
		byElephant:      make(map[string][]*graph.Event),
		elephantByName:  make(map[string]*graph.Elephant),
		elephantsByYear: make(map[int][]*graph.Elephant),
		herdByName:      make(map[string]*graph.Herd),
		parentName:      make(map[graph.ID]string),
	}
}

// New returns an engine with no indexes. Queries return empty results until
// [Engine.IndexAll] succeeds.
func New(arena *graph.Arena, opts ...Option) *Engine {
	e := &Engine{arena: arena}
	for _, o := range opts {
		o(e)
	}
	if e.suggester == nil {
		e.suggester = NewSuggester()
	}
	return e
}

// IndexAll rebuilds every index from the given snapshot and swaps the result
// in. Later elephants and herds win on duplicate names. Participants of an
// event are indexed by name; participants outside the snapshot are resolved
// through the arena and skipped when they no longer exist.
//
// The caller must hold off arena writers for the duration of the call.
func (e *Engine) IndexAll(ctx context.Context, elephants []*graph.Elephant, events []*graph.Event, herds []*graph.Herd) {
	ctx, span := observe.StartSpan(ctx, "search.IndexAll")
	defer span.End()
	start := time.Now()

	idx := newIndexSet()
	byID := make(map[graph.ID]*graph.Elephant, len(elephants))

	for _, el := range elephants {
		if el == nil {
			continue
		}
		byID[el.ID] = el
		idx.elephantByName[el.Name] = el
		idx.elephantsByYear[el.BirthYear] = append(idx.elephantsByYear[el.BirthYear], el)
	}
	for _, el := range byID {
		if p, ok := e.resolve(byID, el.Parent()); ok {
			idx.parentName[el.ID] = p.Name
		}
	}
	for name := range idx.elephantByName {
		idx.names = append(idx.names, name)
	}
	slices.Sort(idx.names)

	for _, h := range herds {
		if h != nil {
			idx.herdByName[h.Name] = h
		}
	}

	for _, ev := range events {
		if ev == nil {
			continue
		}
		idx.totalEvents++
		idx.byYear[ev.Year()] = append(idx.byYear[ev.Year()], ev)
		loc := LocationKey(ev.Location())
		idx.byLocation[loc] = append(idx.byLocation[loc], ev)
		idx.byType[ev.Type()] = append(idx.byType[ev.Type()], ev)
		for _, id := range ev.Elephants() {
			if p, ok := e.resolve(byID, id); ok {
				idx.byElephant[p.Name] = append(idx.byElephant[p.Name], ev)
			}
		}
	}
	for y := range idx.byYear {
		idx.years = append(idx.years, y)
	}
	slices.Sort(idx.years)

	e.mu.Lock()
	e.idx = idx
	e.mu.Unlock()

	e.metrics.RecordIndexRebuild(ctx, time.Since(start).Seconds())
	observe.Logger(ctx).Debug("search indexes rebuilt",
		"elephants", len(idx.elephantByName),
		"events", idx.totalEvents,
		"herds", len(idx.herdByName),
		"duration", time.Since(start),
	)
}

func (e *Engine) resolve(byID map[graph.ID]*graph.Elephant, id graph.ID) (*graph.Elephant, bool) {
	if id == graph.None {
		return nil, false
	}
	if el, ok := byID[id]; ok {
		return el, true
	}
	if e.arena == nil {
		return nil, false
	}
	return e.arena.Elephant(id)
}

// Indexed reports whether a successful IndexAll has happened.
func (e *Engine) Indexed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx != nil
}

// current returns the active index set, or an empty one before the first
// IndexAll, and records a query of kind.
func (e *Engine) current(ctx context.Context, kind string) *indexSet {
	e.metrics.RecordSearch(ctx, kind)
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.idx == nil {
		return emptyIndex
	}
	return e.idx
}

var emptyIndex = newIndexSet()

// LocationKey maps a "lat, lon" location to its one-degree grid cell key
// "<lat>,<lon>", truncating each coordinate toward zero. Anything that does
// not parse as two numbers accepted by [ValidCoordinates] maps to
// [UnknownLocation].
func LocationKey(location string) string {
	parts := strings.Split(location, ",")
	if len(parts) != 2 {
		return UnknownLocation
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return UnknownLocation
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || !ValidCoordinates(lat, lon) {
		return UnknownLocation
	}
	return cellKey(int(lat), int(lon))
}

// ValidCoordinates reports whether lat lies in [-90, 90] and lon in
// [-180, 180]. NaN and infinities are rejected.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func cellKey(lat, lon int) string {
	return fmt.Sprintf("%d,%d", lat, lon)
}
