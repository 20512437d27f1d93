package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/MrWong99/elephantmem/internal/app"
	"github.com/MrWong99/elephantmem/internal/graph"
	"github.com/MrWong99/elephantmem/internal/search"
	"github.com/MrWong99/elephantmem/internal/store"
)

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Stats())
}

func (s *Server) handleSearchStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.SearchStats())
}

func (s *Server) handleMemory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Memory())
}

func (s *Server) handleVerify(w http.ResponseWriter, _ *http.Request) {
	v := s.backend.Verify()
	if v == nil {
		v = []graph.Violation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"violations": v, "count": len(v)})
}

// ─────────────────────────────────────────────────────────────────────────────
// Actions
// ─────────────────────────────────────────────────────────────────────────────

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	o := s.backend.DatasetOptions()
	if err := decodeBody(w, r, &o); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := o.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rep, err := s.backend.GenerateDataset(r.Context(), o)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"live": s.backend.Clear(r.Context())})
}

func (s *Server) handleReclaim(run func(context.Context) app.ReclaimReport) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, run(r.Context()))
	}
}

func (s *Server) handleGC(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.ForceGC(r.Context()))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.backend.Reindex(r.Context())
	writeJSON(w, http.StatusOK, s.backend.SearchStats())
}

type exportRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	path, err := s.backend.Export(r.Context(), req.Path)
	switch {
	case errors.Is(err, store.ErrEmptyPath):
		writeError(w, http.StatusBadRequest, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, exportRequest{Path: path})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────────────────────

// handleEvents answers ?year=, ?from=&to= or ?elephant=.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var evs []*graph.Event

	year, hasYear, err := queryInt(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	from, hasFrom, err := queryInt(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	to, hasTo, err := queryInt(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	name := r.URL.Query().Get("elephant")

	switch {
	case hasYear:
		evs = s.backend.EventsInYear(ctx, year)
	case hasFrom && hasTo:
		evs = s.backend.EventsInRange(ctx, from, to)
	case hasFrom || hasTo:
		writeError(w, http.StatusBadRequest, errors.New("from and to must be given together"))
		return
	case name != "":
		evs = s.backend.EventsWith(ctx, name)
	default:
		writeError(w, http.StatusBadRequest, errors.New("one of year, from/to or elephant is required"))
		return
	}
	s.writeEvents(w, evs)
}

func (s *Server) writeEvents(w http.ResponseWriter, evs []*graph.Event) {
	var out []eventJSON
	s.backend.Read(func(a *graph.Arena) { out = toEvents(a, evs) })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleEventsByType(w http.ResponseWriter, r *http.Request) {
	t := graph.EventType(r.PathValue("type"))
	if !t.IsValid() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown event type %q; valid types: %v", t, graph.EventTypes()))
		return
	}
	s.writeEvents(w, s.backend.EventsOfType(r.Context(), t))
}

func (s *Server) handleEventsNear(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := requireCoordinates(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	radius, ok, err := queryInt(r, "radius")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !ok {
		radius = -1
	}
	if radius > search.MaxRadius {
		writeError(w, http.StatusBadRequest, fmt.Errorf("radius %d exceeds the maximum of %d", radius, search.MaxRadius))
		return
	}
	s.writeEvents(w, s.backend.EventsNear(r.Context(), lat, lon, radius))
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	tl, suggestions, ok := s.backend.Timeline(r.Context(), name)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{
			Error:       fmt.Sprintf("no elephant named %q", name),
			Suggestions: suggestions,
		})
		return
	}
	var out timelineJSON
	s.backend.Read(func(a *graph.Arena) {
		out = timelineJSON{
			Elephant:    toElephant(a, tl.Elephant),
			BirthYear:   tl.BirthYear,
			NumChildren: tl.NumChildren,
			Parent:      tl.Parent,
			Events:      toEvents(a, tl.Events),
			EventCount:  tl.EventCount,
		}
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDescendants(w http.ResponseWriter, r *http.Request) {
	depth, _, err := queryInt(r, "depth")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	es, _ := s.backend.Descendants(r.Context(), r.PathValue("name"), depth)
	out := make([]elephantJSON, 0, len(es))
	s.backend.Read(func(a *graph.Arena) {
		for _, e := range es {
			out = append(out, toElephant(a, e))
		}
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHerd(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	h, matriarch, ok := s.backend.Herd(r.Context(), name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("no herd named %q", name))
		return
	}
	var out herdJSON
	s.backend.Read(func(a *graph.Arena) { out = toHerd(a, h, matriarch) })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleNearestWater(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := requireCoordinates(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var yearPtr *int
	year, ok, err := queryInt(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if ok {
		yearPtr = &year
	}
	ws, found := s.backend.NearestWater(r.Context(), lat, lon, yearPtr)
	if !found {
		writeJSON(w, http.StatusOK, []waterJSON{})
		return
	}
	var out waterJSON
	s.backend.Read(func(*graph.Arena) { out = toWater(ws, lat, lon) })
	writeJSON(w, http.StatusOK, []waterJSON{out})
}

func (s *Server) handleDroughts(w http.ResponseWriter, r *http.Request) {
	from, err := requireInt(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	to, err := requireInt(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.backend.Droughts(r.Context(), from, to))
}

func (s *Server) handleMigrationAlerts(w http.ResponseWriter, r *http.Request) {
	year, _, err := queryInt(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	alerts := s.backend.MigrationAlerts(r.Context(), year)
	out := make([]alertJSON, 0, len(alerts))
	s.backend.Read(func(a *graph.Arena) {
		for _, al := range alerts {
			out = append(out, alertJSON{Message: al.Message, YearsAgo: al.YearsAgo, Event: toEvent(a, al.Event)})
		}
	})
	writeJSON(w, http.StatusOK, out)
}
