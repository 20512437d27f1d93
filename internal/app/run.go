package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/elephantmem/internal/monitor"
)

// shutdownGrace bounds the HTTP server's graceful shutdown.
const shutdownGrace = 10 * time.Second

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run listens on server.listen_addr and serves h until ctx is cancelled. It
// returns ctx's error after a clean shutdown.
func (a *App) Run(ctx context.Context, h http.Handler) error {
	addr := a.Config().Server.ListenAddr
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("app: listen %q: %w", addr, err)
	}
	return a.Serve(ctx, ln, h)
}

// Serve serves h on ln alongside the memory sampler until ctx is cancelled.
// ln is closed on return.
func (a *App) Serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	g.Go(func() error {
		a.sample(gctx)
		return nil
	})

	slog.Info("app running", "addr", ln.Addr().String())
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// sample logs process memory every server.stats_interval and warns while it
// exceeds server.memory_limit.
func (a *App) sample(ctx context.Context) {
	interval := a.StatsInterval()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		cfg := a.Config()
		if d := a.StatsInterval(); d != interval {
			interval = d
			t.Reset(interval)
		}
		rss := monitor.ProcessRSS()
		slog.Debug("memory sample", "rss", humanize.IBytes(rss), "live", a.Frame().Live.Total())
		if limit, _ := cfg.Server.MemoryLimitBytes(); limit > 0 && rss > limit {
			slog.Warn("resident memory above limit", "rss", humanize.IBytes(rss), "limit", humanize.IBytes(limit))
		}
	}
}
