// Package server exposes the elephantmem application over HTTP: a JSON API
// for the dashboard, a WebSocket that streams stats frames, Prometheus
// metrics and the health probes.
//
// Validation failures answer 400 with {"error": "..."}. Queries that find
// nothing answer 200 with an empty array, except for an unknown elephant's
// timeline which answers 404 with name suggestions.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/MrWong99/elephantmem/internal/app"
	"github.com/MrWong99/elephantmem/internal/generator"
	"github.com/MrWong99/elephantmem/internal/graph"
	"github.com/MrWong99/elephantmem/internal/health"
	"github.com/MrWong99/elephantmem/internal/monitor"
	"github.com/MrWong99/elephantmem/internal/observe"
	"github.com/MrWong99/elephantmem/internal/search"
	"github.com/MrWong99/elephantmem/internal/store"
)

// Backend is the application surface the server drives. [*app.App]
// implements it.
type Backend interface {
	Stats() store.Stats
	SearchStats() search.Statistics
	Memory() app.MemoryReport
	Frame() app.StatsFrame
	Verify() []graph.Violation
	Checkers() []health.Checker
	StatsInterval() time.Duration
	DatasetOptions() generator.DatasetOptions
	Read(fn func(*graph.Arena))

	GenerateDataset(ctx context.Context, o generator.DatasetOptions) (app.LoadReport, error)
	Clear(ctx context.Context) graph.LiveCounts
	Cleanup(ctx context.Context) app.ReclaimReport
	Reclaim(ctx context.Context) app.ReclaimReport
	CollectCycles(ctx context.Context) app.ReclaimReport
	ForceGC(ctx context.Context) monitor.GCReport
	Reindex(ctx context.Context)
	Export(ctx context.Context, path string) (string, error)

	EventsInYear(ctx context.Context, year int) []*graph.Event
	EventsInRange(ctx context.Context, start, end int) []*graph.Event
	EventsOfType(ctx context.Context, t graph.EventType) []*graph.Event
	EventsNear(ctx context.Context, lat, lon float64, radius int) []*graph.Event
	EventsWith(ctx context.Context, name string) []*graph.Event
	Timeline(ctx context.Context, name string) (search.Timeline, []search.Suggestion, bool)
	Descendants(ctx context.Context, name string, depth int) ([]*graph.Elephant, bool)
	Herd(ctx context.Context, name string) (*graph.Herd, *graph.Elephant, bool)
	NearestWater(ctx context.Context, lat, lon float64, year *int) (*graph.WaterSource, bool)
	Droughts(ctx context.Context, start, end int) map[string][]int
	MigrationAlerts(ctx context.Context, year int) []search.Alert
}

var _ Backend = (*app.App)(nil)

// Option configures a [Server].
type Option func(*Server)

// WithMetrics records HTTP request metrics on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithMetricsHandler serves h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// Server routes HTTP requests to a [Backend].
type Server struct {
	backend        Backend
	metrics        *observe.Metrics
	metricsHandler http.Handler
	mux            *http.ServeMux
}

// New builds the routes for b.
func New(b Backend, opts ...Option) *Server {
	s := &Server{backend: b, mux: http.NewServeMux()}
	for _, o := range opts {
		o(s)
	}
	s.routes()
	return s
}

// Handler returns the root handler wrapped in tracing and metrics
// middleware.
func (s *Server) Handler() http.Handler {
	return observe.Middleware(s.metrics)(s.mux)
}

func (s *Server) routes() {
	m := s.mux

	m.HandleFunc("GET /api/stats", s.handleStats)
	m.HandleFunc("GET /api/search/stats", s.handleSearchStats)
	m.HandleFunc("GET /api/memory", s.handleMemory)
	m.HandleFunc("GET /api/verify", s.handleVerify)

	m.HandleFunc("POST /api/dataset", s.handleDataset)
	m.HandleFunc("POST /api/clear", s.handleClear)
	m.HandleFunc("POST /api/cleanup", s.handleReclaim(s.backend.Cleanup))
	m.HandleFunc("POST /api/reclaim", s.handleReclaim(s.backend.Reclaim))
	m.HandleFunc("POST /api/collect", s.handleReclaim(s.backend.CollectCycles))
	m.HandleFunc("POST /api/gc", s.handleGC)
	m.HandleFunc("POST /api/index", s.handleIndex)
	m.HandleFunc("POST /api/export", s.handleExport)

	m.HandleFunc("GET /api/events", s.handleEvents)
	m.HandleFunc("GET /api/events/type/{type}", s.handleEventsByType)
	m.HandleFunc("GET /api/events/near", s.handleEventsNear)
	m.HandleFunc("GET /api/elephants/{name}/timeline", s.handleTimeline)
	m.HandleFunc("GET /api/elephants/{name}/descendants", s.handleDescendants)
	m.HandleFunc("GET /api/herds/{name}", s.handleHerd)
	m.HandleFunc("GET /api/water/nearest", s.handleNearestWater)
	m.HandleFunc("GET /api/water/droughts", s.handleDroughts)
	m.HandleFunc("GET /api/alerts/migration", s.handleMigrationAlerts)

	m.HandleFunc("GET /ws/stats", s.handleStatsStream)

	if s.metricsHandler != nil {
		m.Handle("GET /metrics", s.metricsHandler)
	}
	health.New(s.backend.Checkers()...).Register(m)
}
