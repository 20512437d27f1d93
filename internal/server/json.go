package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/MrWong99/elephantmem/internal/graph"
	"github.com/MrWong99/elephantmem/internal/search"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

var errMissingParam = errors.New("missing query parameter")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error       string              `json:"error"`
	Suggestions []search.Suggestion `json:"suggestions,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// decodeBody decodes an optional JSON body into v. An empty body leaves v
// untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// queryInt parses the integer query parameter key. ok is false when the
// parameter is absent.
func queryInt(r *http.Request, key string) (n int, ok bool, err error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, false, nil
	}
	n, err = strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s %q is not an integer", key, raw)
	}
	return n, true, nil
}

func requireInt(r *http.Request, key string) (int, error) {
	n, ok, err := queryInt(r, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s", errMissingParam, key)
	}
	return n, nil
}

func requireFloat(r *http.Request, key string) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", errMissingParam, key)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number", key, raw)
	}
	return f, nil
}

// requireCoordinates reads the lat and lon query parameters and checks they
// name a point on the globe.
func requireCoordinates(r *http.Request) (lat, lon float64, err error) {
	if lat, err = requireFloat(r, "lat"); err != nil {
		return 0, 0, err
	}
	if lon, err = requireFloat(r, "lon"); err != nil {
		return 0, 0, err
	}
	if !search.ValidCoordinates(lat, lon) {
		return 0, 0, fmt.Errorf("coordinates (%v, %v) are out of range; lat must be in [-90, 90], lon in [-180, 180]", lat, lon)
	}
	return lat, lon, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Response bodies
// ─────────────────────────────────────────────────────────────────────────────

type eventJSON struct {
	ID          graph.ID        `json:"id"`
	Type        graph.EventType `json:"type"`
	Year        int             `json:"year"`
	Location    string          `json:"location"`
	Description string          `json:"description"`
	Elephants   []string        `json:"elephants"`
	Herds       []string        `json:"herds"`
}

type elephantJSON struct {
	ID          graph.ID     `json:"id"`
	Name        string       `json:"name"`
	BirthYear   int          `json:"birth_year"`
	Gender      graph.Gender `json:"gender"`
	NumChildren int          `json:"num_children"`
	Parent      string       `json:"parent,omitempty"`
	Herd        string       `json:"herd,omitempty"`
}

type herdJSON struct {
	ID              graph.ID `json:"id"`
	Name            string   `json:"name"`
	Territory       string   `json:"territory"`
	EstablishedYear int      `json:"established_year"`
	Members         []string `json:"members"`
	Matriarch       string   `json:"matriarch,omitempty"`
	FamilyCount     int      `json:"family_count"`
}

type waterJSON struct {
	ID           graph.ID       `json:"id"`
	Name         string         `json:"name"`
	Latitude     float64        `json:"latitude"`
	Longitude    float64        `json:"longitude"`
	Capacity     graph.Capacity `json:"capacity"`
	DroughtYears []int          `json:"drought_years"`
	Distance     float64        `json:"distance"`
}

type timelineJSON struct {
	Elephant    elephantJSON `json:"elephant"`
	BirthYear   int          `json:"birth_year"`
	NumChildren int          `json:"num_children"`
	Parent      string       `json:"parent"`
	Events      []eventJSON  `json:"events"`
	EventCount  int          `json:"event_count"`
}

type alertJSON struct {
	Message  string    `json:"message"`
	YearsAgo int       `json:"years_ago"`
	Event    eventJSON `json:"event"`
}

// The converters below read entity edges and must run inside Backend.Read.

func elephantNames(a *graph.Arena, ids []graph.ID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if e, ok := a.Elephant(id); ok {
			out = append(out, e.Name)
		}
	}
	return out
}

func herdNames(a *graph.Arena, ids []graph.ID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if h, ok := a.Herd(id); ok {
			out = append(out, h.Name)
		}
	}
	return out
}

func toEvent(a *graph.Arena, ev *graph.Event) eventJSON {
	return eventJSON{
		ID:          ev.ID(),
		Type:        ev.Type(),
		Year:        ev.Year(),
		Location:    ev.Location(),
		Description: ev.Description(),
		Elephants:   elephantNames(a, ev.Elephants()),
		Herds:       herdNames(a, ev.Herds()),
	}
}

func toEvents(a *graph.Arena, evs []*graph.Event) []eventJSON {
	out := make([]eventJSON, 0, len(evs))
	for _, ev := range evs {
		out = append(out, toEvent(a, ev))
	}
	return out
}

func toElephant(a *graph.Arena, e *graph.Elephant) elephantJSON {
	j := elephantJSON{
		ID:          e.ID,
		Name:        e.Name,
		BirthYear:   e.BirthYear,
		Gender:      e.Gender,
		NumChildren: e.NumChildren(),
	}
	if p, ok := a.Elephant(e.Parent()); ok {
		j.Parent = p.Name
	}
	if h, ok := a.Herd(e.Herd()); ok {
		j.Herd = h.Name
	}
	return j
}

func toHerd(a *graph.Arena, h *graph.Herd, matriarch *graph.Elephant) herdJSON {
	j := herdJSON{
		ID:              h.ID,
		Name:            h.Name,
		Territory:       h.Territory,
		EstablishedYear: h.EstablishedYear,
		Members:         elephantNames(a, h.Members()),
		FamilyCount:     a.FamilyCount(h),
	}
	if matriarch != nil {
		j.Matriarch = matriarch.Name
	}
	return j
}

func toWater(ws *graph.WaterSource, lat, lon float64) waterJSON {
	years := ws.DroughtYears()
	if years == nil {
		years = []int{}
	}
	return waterJSON{
		ID:           ws.ID,
		Name:         ws.Name,
		Latitude:     ws.Latitude,
		Longitude:    ws.Longitude,
		Capacity:     ws.Capacity,
		DroughtYears: years,
		Distance:     ws.DistanceTo(lat, lon),
	}
}
