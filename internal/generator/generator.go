// Package generator produces synthetic elephant datasets: multi-generation
// family trees, herds, the southern-African water sources and historical
// events linking them together.
//
// A [Generator] is deterministic for a given seed. It is not safe for
// concurrent use.
package generator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/MrWong99/elephantmem/internal/graph"
)

// Names used for generated elephants.
var Names = []string{
	"Ella", "Emma", "Eric", "Elsa", "Emily", "Ethan", "Eva", "Eddie", "Elena", "Eli",
	"Ember", "Enzo", "Eden", "Ezra", "Eleanor", "Emmett", "Evelyn", "Elliot", "Esther", "Everett",
}

// Territories assigned to generated herds.
var Territories = []string{
	"Northern Savanna", "Central Plains", "Southern Grasslands", "Eastern Woodlands",
	"Western Wetlands", "Delta Region", "Mountain Foothills", "Coastal Lowlands",
}

// SourceSpec describes one of the fixed water sources.
type SourceSpec struct {
	Name      string
	Latitude  float64
	Longitude float64
	Capacity  graph.Capacity
}

// Sources are the water sources created by [Generator.WaterSources].
var Sources = []SourceSpec{
	{"Okavango River", -19.0, 22.5, graph.CapacityLarge},
	{"Chobe Waterhole", -18.5, 24.0, graph.CapacityMedium},
	{"Savuti Marsh", -18.5, 24.1, graph.CapacityMedium},
	{"Linyanti Springs", -18.3, 23.8, graph.CapacitySmall},
	{"Moremi Delta", -19.3, 23.0, graph.CapacityLarge},
	{"Khwai Pools", -19.1, 23.8, graph.CapacityMedium},
	{"Makgadikgadi Pans", -20.5, 25.0, graph.CapacitySmall},
	{"Nxai Pan", -20.1, 24.7, graph.CapacitySmall},
	{"Boteti River", -20.3, 24.5, graph.CapacityLarge},
	{"Zambezi Waters", -17.8, 25.3, graph.CapacityLarge},
}

const (
	generationGap = 15

	historyStart = 2000
	historyEnd   = 2025

	droughtProbability       = 0.2
	severeDroughtProbability = 0.6
)

// severeDroughtYears have a higher chance of a dry water source.
var severeDroughtYears = map[int]bool{2005: true, 2012: true, 2019: true}

// Option configures a [Generator].
type Option func(*Generator)

// WithSeed makes the generator deterministic. A zero seed picks one from the
// current time.
func WithSeed(seed uint64) Option {
	return func(g *Generator) { g.seed = seed }
}

// Generator creates synthetic entities in an arena.
type Generator struct {
	seed uint64
	rng  *rand.Rand
}

// New returns a generator. Without [WithSeed] the seed is time based.
func New(opts ...Option) *Generator {
	g := &Generator{}
	for _, o := range opts {
		o(g)
	}
	if g.seed == 0 {
		g.seed = uint64(time.Now().UnixNano())
	}
	g.rng = rand.New(rand.NewPCG(g.seed, g.seed^0x9e3779b97f4a7c15))
	return g
}

// Seed returns the seed in use.
func (g *Generator) Seed() uint64 { return g.seed }

// between returns a uniform integer in [lo, hi].
func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}

func (g *Generator) pick(s []string) string {
	return s[g.rng.IntN(len(s))]
}

// FamilyTree creates a female matriarch born in startYear and, below her,
// generations 1 to generations-1. Every elephant above the last generation
// gets between 1 and childrenPerElephant+1 children, born
// startYear + generation*15. The matriarch is the first returned elephant.
func (g *Generator) FamilyTree(a *graph.Arena, rootName string, generations, childrenPerElephant, startYear int) (*graph.Elephant, []*graph.Elephant, error) {
	matriarch := a.NewElephant(rootName, startYear, graph.Female)
	all := []*graph.Elephant{matriarch}

	var grow func(parent *graph.Elephant, gen int) error
	grow = func(parent *graph.Elephant, gen int) error {
		if gen >= generations {
			return nil
		}
		n := g.between(1, max(childrenPerElephant, 0)+1)
		born := startYear + gen*generationGap
		for range n {
			name := fmt.Sprintf("%s_G%d_%d", g.pick(Names), gen, g.between(100, 999))
			gender := graph.Male
			if g.rng.IntN(2) == 1 {
				gender = graph.Female
			}
			child := a.NewElephant(name, born, gender)
			if err := a.AddChild(parent, child); err != nil {
				return fmt.Errorf("generator: link %s to %s: %w", child.Name, parent.Name, err)
			}
			all = append(all, child)
			if err := grow(child, gen+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := grow(matriarch, 1); err != nil {
		return nil, nil, err
	}
	return matriarch, all, nil
}

// MultipleFamilies creates n family trees with start years between 1940 and
// 1980 and matriarchs named Matriarch_<Name>_<i+1>. The elephants of all
// trees are returned in creation order.
func (g *Generator) MultipleFamilies(a *graph.Arena, n, generations, childrenPerElephant int) ([]*graph.Elephant, error) {
	var all []*graph.Elephant
	for i := range n {
		start := g.between(1940, 1980)
		root := fmt.Sprintf("Matriarch_%s_%d", g.pick(Names), i+1)
		_, family, err := g.FamilyTree(a, root, generations, childrenPerElephant, start)
		if err != nil {
			return nil, err
		}
		all = append(all, family...)
	}
	return all, nil
}

// EstimateFamilySize returns the bounds on the size of one family tree: at
// least one elephant per generation, at most a full (cpe+1)-ary tree.
func EstimateFamilySize(generations, childrenPerElephant int) (low, high int) {
	if generations <= 0 {
		return 1, 1
	}
	branch := max(childrenPerElephant, 0) + 1
	level := 1
	for range generations {
		high += level
		if level > math.MaxInt/branch {
			return generations, math.MaxInt
		}
		level *= branch
	}
	return generations, high
}

// Herds creates count herds named Herd_<letter>_<i+1> in random territories.
func (g *Generator) Herds(a *graph.Arena, count int) []*graph.Herd {
	herds := make([]*graph.Herd, 0, max(count, 0))
	for i := range count {
		name := fmt.Sprintf("Herd_%c_%d", rune('A'+i), i+1)
		herds = append(herds, a.NewHerd(name, g.pick(Territories), g.between(1950, 2000)))
	}
	return herds
}

// AssignToHerds puts every elephant into a random herd. It does nothing when
// either list is empty.
func (g *Generator) AssignToHerds(a *graph.Arena, elephants []*graph.Elephant, herds []*graph.Herd) error {
	if len(elephants) == 0 || len(herds) == 0 {
		return nil
	}
	for _, e := range elephants {
		h := herds[g.rng.IntN(len(herds))]
		if err := a.AddMember(h, e); err != nil {
			return fmt.Errorf("generator: assign %s to %s: %w", e.Name, h.Name, err)
		}
	}
	return nil
}

// WaterSources creates the fixed [Sources] with availability recorded for
// 2000 through 2025. Each year is dry with probability 0.2, or 0.6 in the
// historical drought years.
func (g *Generator) WaterSources(a *graph.Arena) ([]*graph.WaterSource, error) {
	out := make([]*graph.WaterSource, 0, len(Sources))
	for _, src := range Sources {
		ws, err := a.NewWaterSource(src.Name, src.Latitude, src.Longitude, src.Capacity)
		if err != nil {
			return nil, fmt.Errorf("generator: water source %s: %w", src.Name, err)
		}
		for year := historyStart; year <= historyEnd; year++ {
			p := droughtProbability
			if severeDroughtYears[year] {
				p = severeDroughtProbability
			}
			ws.RecordAvailability(year, g.rng.Float64() > p)
		}
		out = append(out, ws)
	}
	return out, nil
}

// Events creates count events of random type between 2000 and 2025 at
// random coordinates in the Okavango-Chobe region, each involving 1 to 8
// distinct elephants and 1 to 3 distinct herds. It returns no events when
// either list is empty.
func (g *Generator) Events(a *graph.Arena, elephants []*graph.Elephant, herds []*graph.Herd, count int) ([]*graph.Event, error) {
	if len(elephants) == 0 || len(herds) == 0 {
		return nil, nil
	}
	types := graph.EventTypes()
	out := make([]*graph.Event, 0, max(count, 0))
	for range count {
		typ := types[g.rng.IntN(len(types))]
		year := g.between(historyStart, historyEnd)
		lat := round2(-20.5 + g.rng.Float64()*3.0)
		lon := round2(22.0 + g.rng.Float64()*3.5)
		location := fmt.Sprintf("%.2f, %.2f", lat, lon)

		who := sample(g.rng, elephants, min(g.between(1, 8), len(elephants)))
		which := sample(g.rng, herds, min(g.between(1, 3), len(herds)))

		desc := fmt.Sprintf("%s at %s in %d", typ, location, year)
		ev, err := a.NewEvent(typ, year, location, desc, who, which)
		if err != nil {
			return nil, fmt.Errorf("generator: event %d: %w", len(out), err)
		}
		out = append(out, ev)
	}
	return out, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// sample returns k distinct elements of s in random order.
func sample[T any](rng *rand.Rand, s []T, k int) []T {
	out := make([]T, 0, k)
	for _, i := range rng.Perm(len(s))[:k] {
		out = append(out, s[i])
	}
	return out
}
