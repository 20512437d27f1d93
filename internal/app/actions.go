package app

import (
	"context"
	"fmt"
	"time"

	"github.com/MrWong99/elephantmem/internal/generator"
	"github.com/MrWong99/elephantmem/internal/graph"
	"github.com/MrWong99/elephantmem/internal/monitor"
	"github.com/MrWong99/elephantmem/internal/observe"
	"github.com/MrWong99/elephantmem/internal/seed"
	"github.com/MrWong99/elephantmem/internal/store"
)

// LoadReport describes a dataset that replaced the store's contents.
type LoadReport struct {
	Source   string        `json:"source"`
	Seed     uint64        `json:"seed,omitempty"`
	Stats    store.Stats   `json:"stats"`
	Shadowed int           `json:"shadowed_names"`
	Duration time.Duration `json:"duration"`
	Memory   monitor.Diff  `json:"memory"`
}

// ReclaimReport describes one reclamation pass.
type ReclaimReport struct {
	Strategy  string           `json:"strategy"`
	Reclaimed graph.LiveCounts `json:"reclaimed"`
	Live      graph.LiveCounts `json:"live"`
}

// DatasetOptions returns the configured dataset sizing.
func (a *App) DatasetOptions() generator.DatasetOptions {
	return a.Config().Dataset.Options()
}

// LoadStartup fills the store from the configured seed file, or generates a
// dataset with the configured sizing when there is none.
func (a *App) LoadStartup(ctx context.Context) (LoadReport, error) {
	if path := a.Config().Dataset.SeedFile; path != "" {
		return a.LoadSeed(ctx, path)
	}
	return a.GenerateDataset(ctx, a.DatasetOptions())
}

// GenerateDataset clears the store, generates a dataset sized by o, ingests
// it and rebuilds the indexes. The configured dataset.seed makes the result
// reproducible.
func (a *App) GenerateDataset(ctx context.Context, o generator.DatasetOptions) (LoadReport, error) {
	if err := o.Validate(); err != nil {
		return LoadReport{}, fmt.Errorf("app: %w", err)
	}
	var gopts []generator.Option
	if s := a.Config().Dataset.Seed; s != 0 {
		gopts = append(gopts, generator.WithSeed(s))
	}
	gen := generator.New(gopts...)

	rep, err := a.replaceDataset(ctx, "generator", func(arena *graph.Arena) (*graph.Dataset, error) {
		return gen.Dataset(arena, o)
	})
	rep.Seed = gen.Seed()
	return rep, err
}

// LoadSeed clears the store and loads the dataset described by the YAML
// seed file at path.
func (a *App) LoadSeed(ctx context.Context, path string) (LoadReport, error) {
	f, err := seed.Load(path)
	if err != nil {
		return LoadReport{}, fmt.Errorf("app: %w", err)
	}
	return a.replaceDataset(ctx, "seed", func(arena *graph.Arena) (*graph.Dataset, error) {
		return seed.Apply(arena, f)
	})
}

// replaceDataset builds a dataset with build and swaps it in. A failed build
// leaves the current dataset and indexes untouched.
func (a *App) replaceDataset(ctx context.Context, source string, build func(*graph.Arena) (*graph.Dataset, error)) (LoadReport, error) {
	ctx, span := observe.StartSpan(ctx, "app.LoadDataset")
	defer span.End()
	log := observe.Logger(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	before := a.monitor.Snapshot("before " + source)

	// Build beside the current dataset; it is only replaced on success.
	mark := a.arena.Mark()
	d, err := build(a.arena)
	if err != nil {
		discarded := a.arena.Discard(mark)
		log.Warn("dataset build failed; keeping the current dataset",
			"source", source, "discarded", discarded.Total(), "err", err)
		return LoadReport{Source: source}, fmt.Errorf("app: build %s dataset: %w", source, err)
	}
	a.store.Replace(d, mark)
	a.dataVersion++
	a.reindexLocked(ctx)

	after := a.monitor.Snapshot("after " + source)
	rep := LoadReport{
		Source:   source,
		Stats:    a.store.Stats(),
		Shadowed: a.store.Shadowed(),
		Duration: time.Since(start),
		Memory:   monitor.Between(before, after),
	}
	a.metrics.RecordDataset(ctx, source)
	if rep.Shadowed > 0 {
		log.Warn("duplicate elephant names; lookups return the last one", "shadowed", rep.Shadowed)
	}
	log.Info("dataset loaded",
		"source", source,
		"elephants", rep.Stats.TotalElephants,
		"herds", rep.Stats.TotalHerds,
		"events", rep.Stats.TotalEvents,
		"water_sources", rep.Stats.TotalWaterSources,
		"duration", rep.Duration,
	)
	return rep, nil
}

// Clear forgets every stored entity but leaves their edges intact, so
// families and herds stay alive in the arena as reference cycles.
func (a *App) Clear(ctx context.Context) graph.LiveCounts {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.store.Clear()
	a.dataVersion++
	a.monitor.Snapshot("after clear")
	live := a.arena.Live()
	observe.Logger(ctx).Info("store cleared", "live", live.Total())
	return live
}

// Cleanup severs every edge of the stored entities, clears the store and
// runs reference-count reclamation, which then frees everything.
func (a *App) Cleanup(ctx context.Context) ReclaimReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.store.ClearAndCleanup()
	a.dataVersion++
	rep := a.reclaimLocked(ctx, "refcount", a.arena.Reclaim)
	a.monitor.Snapshot("after cleanup")
	return rep
}

// Reclaim frees arena entries nothing refers to. Reference cycles survive.
func (a *App) Reclaim(ctx context.Context) ReclaimReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reclaimLocked(ctx, "refcount", a.arena.Reclaim)
}

// CollectCycles frees every arena entry unreachable from the store,
// including reference cycles.
func (a *App) CollectCycles(ctx context.Context) ReclaimReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	rep := a.reclaimLocked(ctx, "cycle", a.arena.CollectCycles)
	a.monitor.Snapshot("after cycle collection")
	return rep
}

func (a *App) reclaimLocked(ctx context.Context, strategy string, run func() graph.LiveCounts) ReclaimReport {
	freed := run()
	for kind, n := range kindMap(freed) {
		a.metrics.RecordReclaimed(ctx, strategy, kind, n)
	}
	rep := ReclaimReport{Strategy: strategy, Reclaimed: freed, Live: a.arena.Live()}
	observe.Logger(ctx).Info("arena reclaimed", "strategy", strategy, "freed", freed.Total(), "live", rep.Live.Total())
	return rep
}

// Reindex rebuilds the search indexes from the stored entities.
func (a *App) Reindex(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reindexLocked(ctx)
}

func (a *App) reindexLocked(ctx context.Context) {
	a.engine.IndexAll(ctx, a.store.Elephants(), a.store.Events(), a.store.Herds())
	a.indexVersion = a.dataVersion
}

// Export writes the stored entities as JSON to path, or to export.path when
// path is empty. It returns the path written.
func (a *App) Export(ctx context.Context, path string) (string, error) {
	if path == "" {
		path = a.Config().Export.Path
	}
	ctx, span := observe.StartSpan(ctx, "app.Export")
	defer span.End()

	a.mu.RLock()
	start := time.Now()
	err := a.store.ExportJSON(path)
	elapsed := time.Since(start)
	a.mu.RUnlock()

	a.metrics.RecordExport(ctx, elapsed.Seconds(), err != nil)
	if err != nil {
		return "", fmt.Errorf("app: %w", err)
	}
	observe.Logger(ctx).Info("dataset exported", "path", path, "duration", elapsed)
	return path, nil
}

// ForceGC runs a full Go garbage collection and records a snapshot.
func (a *App) ForceGC(ctx context.Context) monitor.GCReport {
	r := monitor.ForceGC()
	a.monitor.Snapshot("after gc")
	observe.Logger(ctx).Debug("forced garbage collection", "report", r.String())
	return r
}
