// Command elephantmem is the entry point for the elephant family-tree
// memory server. Besides serving the HTTP API it can run a scripted
// reclamation demo or write a generated dataset to disk.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/MrWong99/elephantmem/internal/app"
	"github.com/MrWong99/elephantmem/internal/config"
	"github.com/MrWong99/elephantmem/internal/graph"
	"github.com/MrWong99/elephantmem/internal/observe"
	"github.com/MrWong99/elephantmem/internal/server"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "elephantmem.yaml", "path to the YAML configuration file (see configs/example.yaml)")
	mode := flag.String("mode", "serve", "one of serve, demo or export")
	out := flag.String("out", "", "export destination (export mode); defaults to export.path")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, watch, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "elephantmem: %v\n", err)
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	level := new(slog.LevelVar)
	level.Set(app.SlogLevel(cfg.Server.LogLevel))
	slog.SetDefault(newLogger(level))

	slog.Info("elephantmem starting",
		"mode", *mode,
		"config", *configPath,
		"config_found", watch,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	provider, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: cfg.Telemetry.ServiceName})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics, err := observe.NewMetrics(provider.MeterProvider)
	if err != nil {
		slog.Error("failed to create metrics", "err", err)
		return 1
	}

	// ── Application ───────────────────────────────────────────────────────────
	opts := []app.Option{app.WithMetrics(metrics), app.WithLogLevel(level)}
	if watch {
		opts = append(opts, app.WithConfigFile(*configPath))
	}
	application, err := app.New(cfg, opts...)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := application.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "err", err)
		}
	}()

	switch *mode {
	case "serve":
		err = serve(ctx, application, metrics, provider)
	case "demo":
		err = demo(ctx, application)
	case "export":
		err = export(ctx, application, *out)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("elephantmem failed", "mode", *mode, "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// loadConfig reads path when it exists and falls back to the defaults
// otherwise. The boolean reports whether the file was found.
func loadConfig(path string) (*config.Config, bool, error) {
	cfg, err := config.Load(path)
	switch {
	case err == nil:
		return cfg, true, nil
	case errors.Is(err, os.ErrNotExist):
		return config.Defaults(), false, nil
	default:
		return nil, false, err
	}
}

// ── Modes ─────────────────────────────────────────────────────────────────────

func serve(ctx context.Context, a *app.App, metrics *observe.Metrics, provider *observe.Provider) error {
	rep, err := a.LoadStartup(ctx)
	if err != nil {
		return fmt.Errorf("load startup dataset: %w", err)
	}
	printStartupSummary(a.Config(), rep)

	h := server.New(a,
		server.WithMetrics(metrics),
		server.WithMetricsHandler(provider.Handler()),
	).Handler()

	slog.Info("server ready, press Ctrl+C to shut down", "addr", a.Config().Server.ListenAddr)
	return a.Run(ctx, h)
}

// demo walks through the reclamation story: a generated dataset survives a
// plain clear and reference counting because families and herds form
// cycles, and only the cycle collector frees it.
func demo(ctx context.Context, a *app.App) error {
	rep, err := a.GenerateDataset(ctx, a.DatasetOptions())
	if err != nil {
		return err
	}
	fmt.Printf("generated %s elephants, %s herds and %s events (seed %d) in %s\n",
		humanize.Comma(int64(rep.Stats.TotalElephants)),
		humanize.Comma(int64(rep.Stats.TotalHerds)),
		humanize.Comma(int64(rep.Stats.TotalEvents)),
		rep.Seed, rep.Duration.Round(time.Millisecond))
	fmt.Printf("  circular references: %s\n", humanize.Comma(int64(rep.Stats.CircularReferences)))
	fmt.Printf("  memory: %s\n", rep.Memory)

	live := a.Clear(ctx)
	printLive("after clear", live)

	rc := a.Reclaim(ctx)
	printLive("after reference counting", rc.Live)
	if rc.Live.Elephants > 0 {
		fmt.Printf("  %s elephants are still alive in parent/child cycles\n", humanize.Comma(int64(rc.Live.Elephants)))
	}

	cc := a.CollectCycles(ctx)
	printLive("after cycle collection", cc.Live)

	fmt.Printf("gc: %s\n", a.ForceGC(ctx))
	if d := a.Memory().SinceBaseline; d != nil {
		fmt.Printf("since baseline: %s\n", d)
	}
	return nil
}

func export(ctx context.Context, a *app.App, out string) error {
	if _, err := a.LoadStartup(ctx); err != nil {
		return err
	}
	path, err := a.Export(ctx, out)
	if err != nil {
		return err
	}
	var size uint64
	if fi, err := os.Stat(path); err == nil {
		size = uint64(fi.Size())
	}
	fmt.Printf("exported %s to %s\n", humanize.IBytes(size), path)
	return nil
}

func printLive(label string, c graph.LiveCounts) {
	fmt.Printf("%-26s elephants=%d herds=%d events=%d water_sources=%d\n",
		label+":", c.Elephants, c.Herds, c.Events, c.WaterSources)
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, rep app.LoadReport) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║      elephantmem: startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	fmt.Printf("║  Source          : %-19s ║\n", rep.Source)
	fmt.Printf("║  Elephants       : %-19s ║\n", humanize.Comma(int64(rep.Stats.TotalElephants)))
	fmt.Printf("║  Herds           : %-19s ║\n", humanize.Comma(int64(rep.Stats.TotalHerds)))
	fmt.Printf("║  Events          : %-19s ║\n", humanize.Comma(int64(rep.Stats.TotalEvents)))
	fmt.Printf("║  Water sources   : %-19s ║\n", humanize.Comma(int64(rep.Stats.TotalWaterSources)))
	limit := cfg.Server.MemoryLimit
	if limit == "" {
		limit = "(none)"
	}
	fmt.Printf("║  Memory limit    : %-19s ║\n", limit)
	fmt.Printf("║  Listen addr     : %-19s ║\n", cfg.Server.ListenAddr)
	fmt.Println("╚═══════════════════════════════════════╝")
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level *slog.LevelVar) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
