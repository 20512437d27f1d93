package graph

import (
	"fmt"
	"math"
	"slices"
)

// Capacity of a water source.
type Capacity string

const (
	CapacitySmall  Capacity = "small"
	CapacityMedium Capacity = "medium"
	CapacityLarge  Capacity = "large"
)

// IsValid reports whether c is one of the known capacities.
func (c Capacity) IsValid() bool {
	switch c {
	case CapacitySmall, CapacityMedium, CapacityLarge:
		return true
	}
	return false
}

// WaterSource is a fixed location with a yearly availability history and a
// record of which elephants visited it.
type WaterSource struct {
	ID        ID
	Name      string
	Latitude  float64
	Longitude float64
	Capacity  Capacity

	// availability is sparse; a year without an entry counts as available.
	availability map[int]bool
	visits       map[int][]ID
}

// RecordAvailability sets whether the source held water in year.
func (ws *WaterSource) RecordAvailability(year int, available bool) {
	ws.availability[year] = available
}

// WasAvailable reports whether the source held water in year. Years without
// a record count as available.
func (ws *WaterSource) WasAvailable(year int) bool {
	available, ok := ws.availability[year]
	return !ok || available
}

// DroughtYears returns the recorded dry years in ascending order.
func (ws *WaterSource) DroughtYears() []int {
	var years []int
	for y, available := range ws.availability {
		if !available {
			years = append(years, y)
		}
	}
	slices.Sort(years)
	return years
}

// RecordVisit notes that e visited the source in year. Repeated visits in
// the same year are recorded once.
func (ws *WaterSource) RecordVisit(e *Elephant, year int) {
	if e == nil || slices.Contains(ws.visits[year], e.ID) {
		return
	}
	ws.visits[year] = append(ws.visits[year], e.ID)
}

// Visitors returns the IDs of elephants that visited in year.
func (ws *WaterSource) Visitors(year int) []ID {
	return slices.Clone(ws.visits[year])
}

// DistanceTo returns the Euclidean distance in degrees to (lat, lon).
func (ws *WaterSource) DistanceTo(lat, lon float64) float64 {
	return math.Hypot(ws.Latitude-lat, ws.Longitude-lon)
}

func (ws *WaterSource) String() string {
	return fmt.Sprintf("WaterSource(%s, %s)", ws.Name, ws.Capacity)
}

// ─────────────────────────────────────────────────────────────────────────────
// Nearest-source lookup
// ─────────────────────────────────────────────────────────────────────────────

// NearestOption configures [Arena.NearestWater].
type NearestOption func(*nearestOptions)

type nearestOptions struct {
	year       int
	filterYear bool
}

// AvailableIn restricts the lookup to sources that held water in year.
func AvailableIn(year int) NearestOption {
	return func(o *nearestOptions) {
		o.year = year
		o.filterYear = true
	}
}

// NearestWater returns the registered water source closest to (lat, lon).
// Ties go to the source registered first. It returns (nil, false) when no
// source qualifies.
func (a *Arena) NearestWater(lat, lon float64, opts ...NearestOption) (*WaterSource, bool) {
	o := &nearestOptions{}
	for _, opt := range opts {
		opt(o)
	}
	var (
		best     *WaterSource
		bestDist = math.Inf(1)
	)
	for _, ws := range a.WaterSources() {
		if o.filterYear && !ws.WasAvailable(o.year) {
			continue
		}
		if d := ws.DistanceTo(lat, lon); d < bestDist {
			best, bestDist = ws, d
		}
	}
	return best, best != nil
}
