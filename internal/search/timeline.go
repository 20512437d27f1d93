package search

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/MrWong99/elephantmem/internal/graph"
)

// Timeline is an elephant's life summary with its events in year order.
type Timeline struct {
	Elephant    *graph.Elephant
	BirthYear   int
	NumChildren int

	// Parent is the parent's name, or "" when there is none.
	Parent string

	Events     []*graph.Event
	EventCount int
}

// ElephantTimeline returns the timeline of the last indexed elephant named
// name. Events are sorted by year; events of the same year keep indexing order.
func (e *Engine) ElephantTimeline(ctx context.Context, name string) (Timeline, bool) {
	idx := e.current(ctx, "timeline")
	el, ok := idx.elephantByName[name]
	if !ok {
		return Timeline{}, false
	}
	events := clone(idx.byElephant[name])
	slices.SortStableFunc(events, func(a, b *graph.Event) int { return cmp.Compare(a.Year(), b.Year()) })
	return Timeline{
		Elephant:    el,
		BirthYear:   el.BirthYear,
		NumChildren: el.NumChildren(),
		Parent:      idx.parentName[el.ID],
		Events:      events,
		EventCount:  len(events),
	}, true
}

// anniversaries are the milestone ages that raise a migration alert.
var anniversaries = []int{5, 10, 15, 20, 25}

// Alert is a migration anniversary notice.
type Alert struct {
	Message  string       `json:"message"`
	YearsAgo int          `json:"years_ago"`
	Event    *graph.Event `json:"-"`
}

// MigrationAlerts returns an alert for every indexed migration event whose
// age in currentYear is a milestone anniversary, youngest first.
func (e *Engine) MigrationAlerts(ctx context.Context, currentYear int) []Alert {
	idx := e.current(ctx, "migration_alerts")
	out := []Alert{}
	for _, ev := range idx.byType[graph.EventMigration] {
		age := currentYear - ev.Year()
		if !slices.Contains(anniversaries, age) {
			continue
		}
		out = append(out, Alert{
			Message:  fmt.Sprintf("%d-year anniversary of %s", age, ev.Description()),
			YearsAgo: age,
			Event:    ev,
		})
	}
	slices.SortStableFunc(out, func(a, b Alert) int { return cmp.Compare(a.YearsAgo, b.YearsAgo) })
	return out
}

// Statistics describes the active index generation.
type Statistics struct {
	Indexed          bool `json:"indexed"`
	TotalEvents      int  `json:"total_events"`
	YearsCovered     int  `json:"years_covered"`
	ElephantsIndexed int  `json:"elephants_indexed"`
	HerdsIndexed     int  `json:"herds_indexed"`
	EventTypes       int  `json:"event_types"`
}

// Statistics reports the size of the active indexes. Elephants and herds are
// counted by distinct name.
func (e *Engine) Statistics() Statistics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.idx == nil {
		return Statistics{}
	}
	return Statistics{
		Indexed:          true,
		TotalEvents:      e.idx.totalEvents,
		YearsCovered:     len(e.idx.byYear),
		ElephantsIndexed: len(e.idx.elephantByName),
		HerdsIndexed:     len(e.idx.herdByName),
		EventTypes:       len(e.idx.byType),
	}
}
