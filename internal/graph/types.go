// Package graph holds the elephant family-tree object model.
//
// Every entity is allocated by an [Arena], which assigns it a stable [ID].
// Relationships between entities (parent/child, herd/member, event
// participants, water-source visits) are stored as IDs and mutated only
// through Arena methods, which keep both directions of each edge in sync.
//
// The arena tracks which entities are still referenced and can reclaim
// the rest in two ways: [Arena.Reclaim] frees entries whose reference count
// dropped to zero (mutually referencing entries survive), while
// [Arena.CollectCycles] frees everything unreachable from the entries the
// store has pinned.
//
// Arena and the entities it owns are not safe for concurrent use. Callers
// that share an arena between goroutines must serialise access.
package graph

import (
	"fmt"
	"slices"
)

// ID identifies an entity within a single [Arena]. The zero ID means "none".
type ID uint64

// None is the zero ID, used for unset edges.
const None ID = 0

// Kind classifies an arena entry.
type Kind uint8

const (
	KindElephant Kind = iota + 1
	KindHerd
	KindEvent
	KindWaterSource
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindElephant:
		return "elephant"
	case KindHerd:
		return "herd"
	case KindEvent:
		return "event"
	case KindWaterSource:
		return "water_source"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Gender of an elephant.
type Gender string

const (
	Male   Gender = "M"
	Female Gender = "F"
)

// IsValid reports whether g is one of the known genders.
func (g Gender) IsValid() bool {
	return g == Male || g == Female
}

// Elephant is a single animal in a family tree.
//
// Name, BirthYear and Gender are plain data. The parent, children and herd
// edges are unexported and change only through [Arena.AddChild],
// [Arena.AddMember], [Arena.RemoveMember] and [Arena.Sever].
type Elephant struct {
	ID        ID
	Name      string
	BirthYear int
	Gender    Gender

	parent   ID
	children []ID
	herd     ID
}

// Parent returns the parent's ID, or [None].
func (e *Elephant) Parent() ID { return e.parent }

// HasParent reports whether the parent edge is set.
func (e *Elephant) HasParent() bool { return e.parent != None }

// Children returns a copy of the child IDs in insertion order.
func (e *Elephant) Children() []ID { return slices.Clone(e.children) }

// NumChildren returns the length of the children list.
func (e *Elephant) NumChildren() int { return len(e.children) }

// Herd returns the ID of the herd e belongs to, or [None].
func (e *Elephant) Herd() ID { return e.herd }

// AgeIn returns the elephant's age in the given year.
func (e *Elephant) AgeIn(year int) int { return year - e.BirthYear }

func (e *Elephant) String() string {
	return fmt.Sprintf("Elephant(%s, born %d)", e.Name, e.BirthYear)
}

// Herd is a named group of elephants living in a territory.
type Herd struct {
	ID              ID
	Name            string
	Territory       string
	EstablishedYear int

	members []ID
}

// Members returns a copy of the member IDs in join order.
func (h *Herd) Members() []ID { return slices.Clone(h.members) }

// Size returns the number of members.
func (h *Herd) Size() int { return len(h.members) }

// Has reports whether id is listed as a member.
func (h *Herd) Has(id ID) bool { return slices.Contains(h.members, id) }

func (h *Herd) String() string {
	return fmt.Sprintf("Herd(%s, %d members)", h.Name, len(h.members))
}

// EventType is the closed set of historical event kinds.
type EventType string

const (
	EventBirth          EventType = "birth"
	EventMigration      EventType = "migration"
	EventWaterDiscovery EventType = "water_discovery"
	EventDrought        EventType = "drought"
	EventGathering      EventType = "gathering"
	EventDanger         EventType = "danger"
)

// EventTypes returns all known event types in a stable order.
func EventTypes() []EventType {
	return []EventType{
		EventBirth,
		EventMigration,
		EventWaterDiscovery,
		EventDrought,
		EventGathering,
		EventDanger,
	}
}

// IsValid reports whether t is one of the known event types.
func (t EventType) IsValid() bool {
	return slices.Contains(EventTypes(), t)
}

// Event is an immutable historical record. It references its participants
// by ID and never owns them.
type Event struct {
	id          ID
	typ         EventType
	year        int
	location    string
	description string
	elephants   []ID
	herds       []ID
}

func (ev *Event) ID() ID              { return ev.id }
func (ev *Event) Type() EventType     { return ev.typ }
func (ev *Event) Year() int           { return ev.year }
func (ev *Event) Location() string    { return ev.location }
func (ev *Event) Description() string { return ev.description }

// Elephants returns a copy of the participating elephant IDs.
func (ev *Event) Elephants() []ID { return slices.Clone(ev.elephants) }

// Herds returns a copy of the participating herd IDs.
func (ev *Event) Herds() []ID { return slices.Clone(ev.herds) }

func (ev *Event) String() string {
	return fmt.Sprintf("Event(%s, %d)", ev.typ, ev.year)
}

// Dataset groups the entities produced by one generation or seed run.
type Dataset struct {
	Elephants    []*Elephant
	Herds        []*Herd
	Events       []*Event
	WaterSources []*WaterSource
}

// LiveCounts holds per-kind entry counts.
type LiveCounts struct {
	Elephants    int `json:"elephants"`
	Herds        int `json:"herds"`
	Events       int `json:"events"`
	WaterSources int `json:"water_sources"`
}

// Total returns the sum over all kinds.
func (c LiveCounts) Total() int {
	return c.Elephants + c.Herds + c.Events + c.WaterSources
}

func (c *LiveCounts) add(k Kind, n int) {
	switch k {
	case KindElephant:
		c.Elephants += n
	case KindHerd:
		c.Herds += n
	case KindEvent:
		c.Events += n
	case KindWaterSource:
		c.WaterSources += n
	}
}
