// Package app wires the elephantmem subsystems into a running application.
//
// The App owns the arena, the store, the search engine and the memory
// monitor. It is the single logical actor over the graph: every action that
// mutates the graph takes the write lock, every query takes the read lock.
// New builds the subsystems, Run serves HTTP until the context ends and
// Shutdown releases what New acquired.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrWong99/elephantmem/internal/config"
	"github.com/MrWong99/elephantmem/internal/graph"
	"github.com/MrWong99/elephantmem/internal/health"
	"github.com/MrWong99/elephantmem/internal/monitor"
	"github.com/MrWong99/elephantmem/internal/observe"
	"github.com/MrWong99/elephantmem/internal/search"
	"github.com/MrWong99/elephantmem/internal/store"
)

// App owns all subsystem lifetimes and serialises actions on the graph.
type App struct {
	cfg atomic.Pointer[config.Config]

	// mu guards arena, store and the version counters. The search engine
	// has its own lock but reads the arena, so queries take mu as well.
	mu      sync.RWMutex
	arena   *graph.Arena
	store   *store.Store
	engine  *search.Engine
	monitor *monitor.Monitor

	// dataVersion increments on every store mutation; indexVersion records
	// the dataVersion the current indexes were built from.
	dataVersion  uint64
	indexVersion uint64

	metrics  *observe.Metrics
	logLevel *slog.LevelVar
	watcher  *config.Watcher
	now      func() time.Time

	configPath string
	watchOpts  []config.WatcherOption

	// closers are called in order during Shutdown.
	closers  []func() error
	stopOnce sync.Once
}

// Option is a functional option for New.
type Option func(*App)

// WithMetrics records instruments on m instead of [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithLogLevel lets configuration reloads adjust the level of the process
// logger.
func WithLogLevel(lv *slog.LevelVar) Option {
	return func(a *App) { a.logLevel = lv }
}

// WithConfigFile watches path and applies hot-reloadable changes.
func WithConfigFile(path string, opts ...config.WatcherOption) Option {
	return func(a *App) {
		a.configPath = path
		a.watchOpts = opts
	}
}

// WithMonitor injects a memory monitor.
func WithMonitor(m *monitor.Monitor) Option {
	return func(a *App) { a.monitor = m }
}

// WithClock overrides the wall clock used for migration alerts.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App from a copy of cfg with defaults applied. A nil cfg
// means [config.Defaults]. The store starts empty; call [App.LoadStartup]
// to fill it.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}
	c := *cfg
	config.ApplyDefaults(&c)
	cfg = &c
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("app: invalid config: %w", err)
	}

	a := &App{now: time.Now}
	a.cfg.Store(cfg)
	for _, o := range opts {
		o(a)
	}

	// ── 1. Metrics ───────────────────────────────────────────────────────
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// ── 2. Graph, store and search ───────────────────────────────────────
	a.arena = graph.NewArena()
	a.store = store.New(a.arena)
	a.engine = search.New(a.arena, search.WithMetrics(a.metrics))

	// ── 3. Memory monitor ────────────────────────────────────────────────
	if a.monitor == nil {
		a.monitor = monitor.New()
	}
	a.monitor.Snapshot("baseline")

	// ── 4. Graph gauges ──────────────────────────────────────────────────
	unregister, err := a.metrics.ObserveGraph(a.graphSample)
	if err != nil {
		return nil, fmt.Errorf("app: register graph gauges: %w", err)
	}
	a.closers = append(a.closers, unregister)

	// ── 5. Config watcher ────────────────────────────────────────────────
	if a.configPath != "" {
		w, err := config.NewWatcher(a.configPath, a.applyConfig, a.watchOpts...)
		if err != nil {
			return nil, fmt.Errorf("app: watch config: %w", err)
		}
		a.watcher = w
		a.closers = append(a.closers, func() error { w.Stop(); return nil })
	}

	return a, nil
}

// Config returns the active configuration.
func (a *App) Config() *config.Config { return a.cfg.Load() }

// StatsInterval returns the stats streaming and sampling period.
func (a *App) StatsInterval() time.Duration {
	if d := a.Config().Server.StatsInterval; d > 0 {
		return d
	}
	return config.DefaultStatsInterval
}

// applyConfig is the watcher callback. d describes how updated differs from
// the active config.
func (a *App) applyConfig(d config.ConfigDiff, updated *config.Config) {
	a.cfg.Store(updated)

	if d.LogLevelChanged && a.logLevel != nil {
		a.logLevel.Set(slogLevel(d.NewLogLevel))
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.DatasetChanged {
		slog.Info("dataset settings changed; applies to the next generated dataset")
	}
	if d.SearchChanged {
		slog.Info("search settings changed", "current_year", updated.Search.CurrentYear, "default_radius", updated.Search.DefaultRadius)
	}
	for _, key := range d.RestartRequired {
		slog.Warn("config change requires a restart", "key", key)
	}
}

func slogLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SlogLevel maps a configured log level onto slog.
func SlogLevel(l config.LogLevel) slog.Level { return slogLevel(l) }

// graphSample feeds the observable gauges.
func (a *App) graphSample(context.Context) observe.GraphSample {
	a.mu.RLock()
	live := a.arena.Live()
	st := a.store.Stats()
	circular := a.store.CircularReferenceCount()
	a.mu.RUnlock()

	return observe.GraphSample{
		Live:   kindMap(live),
		Stored: kindMap(graph.LiveCounts{Elephants: st.TotalElephants, Herds: st.TotalHerds, Events: st.TotalEvents, WaterSources: st.TotalWaterSources}),

		CircularReferences: circular,
		RSSBytes:           monitor.ProcessRSS(),
	}
}

func kindMap(c graph.LiveCounts) map[string]int {
	return map[string]int{
		graph.KindElephant.String():    c.Elephants,
		graph.KindHerd.String():        c.Herds,
		graph.KindEvent.String():       c.Events,
		graph.KindWaterSource.String(): c.WaterSources,
	}
}

// Checkers returns the readiness checks served on /readyz.
func (a *App) Checkers() []health.Checker {
	checks := []health.Checker{
		health.IndexChecker(a.IndexStatus),
		health.GraphChecker(func() int { return len(a.Verify()) }),
	}
	if limit, _ := a.Config().Server.MemoryLimitBytes(); limit > 0 {
		checks = append(checks, health.MemoryChecker(limit, monitor.ProcessRSS))
	}
	return checks
}

// IndexStatus reports whether indexes exist and match the stored dataset.
func (a *App) IndexStatus() health.IndexStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return health.IndexStatus{
		Indexed: a.engine.Indexed(),
		Stale:   a.engine.Indexed() && a.indexVersion != a.dataVersion,
	}
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown releases everything New acquired. It respects the context
// deadline: if ctx expires before all closers finish, the remaining closers
// are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))
		for i, closer := range a.closers {
			if err := ctx.Err(); err != nil {
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				errs = append(errs, err)
				return
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
				errs = append(errs, err)
			}
		}
		slog.Info("shutdown complete")
	})
	return errors.Join(errs...)
}
