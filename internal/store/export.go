package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/MrWong99/elephantmem/internal/graph"
)

var (
	// ErrEmptyPath is returned by [Store.ExportJSON] when no path is given.
	ErrEmptyPath = errors.New("store: export path is empty")

	// ErrExportIO wraps every file-system failure during export.
	ErrExportIO = errors.New("store: export failed")
)

// Export is the document written by [Store.ExportJSON]. It is a lossy
// projection meant for inspection; it cannot be imported back.
type Export struct {
	Elephants []ExportedElephant `json:"elephants"`
	Herds     []ExportedHerd     `json:"herds"`
	Events    []ExportedEvent    `json:"events"`
}

// ExportedElephant lists an elephant with the names of its children.
type ExportedElephant struct {
	Name      string   `json:"name"`
	BirthYear int      `json:"birth_year"`
	Gender    string   `json:"gender"`
	Children  []string `json:"children"`
}

// ExportedHerd lists a herd with the names of its members.
type ExportedHerd struct {
	Name      string   `json:"name"`
	Territory string   `json:"territory"`
	Members   []string `json:"members"`
}

// ExportedEvent is an event without its participants.
type ExportedEvent struct {
	Type        string `json:"type"`
	Year        int    `json:"year"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// Snapshot builds the export document for the registered entities. Child and
// member IDs that no longer resolve are skipped.
func (s *Store) Snapshot() Export {
	doc := Export{
		Elephants: make([]ExportedElephant, 0, len(s.elephants)),
		Herds:     make([]ExportedHerd, 0, len(s.herds)),
		Events:    make([]ExportedEvent, 0, len(s.events)),
	}
	for _, e := range s.elephants {
		doc.Elephants = append(doc.Elephants, ExportedElephant{
			Name:      e.Name,
			BirthYear: e.BirthYear,
			Gender:    string(e.Gender),
			Children:  s.elephantNames(e.Children()),
		})
	}
	for _, h := range s.herds {
		doc.Herds = append(doc.Herds, ExportedHerd{
			Name:      h.Name,
			Territory: h.Territory,
			Members:   s.elephantNames(h.Members()),
		})
	}
	for _, ev := range s.events {
		doc.Events = append(doc.Events, ExportedEvent{
			Type:        string(ev.Type()),
			Year:        ev.Year(),
			Location:    ev.Location(),
			Description: ev.Description(),
		})
	}
	return doc
}

func (s *Store) elephantNames(ids []graph.ID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.arena.Elephant(id); ok {
			out = append(out, e.Name)
		}
	}
	return out
}

// WriteJSON writes the export document to w, indented by two spaces.
func (s *Store) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.Snapshot()); err != nil {
		return fmt.Errorf("store: encode export: %w", err)
	}
	return nil
}

// ExportJSON writes the export document to path, creating parent
// directories as needed. The file is written to a temporary sibling and
// renamed into place, so a failed export never leaves a partial file at
// path. File-system failures wrap [ErrExportIO].
func (s *Store) ExportJSON(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if err := s.writeFileAtomic(path); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrExportIO, path, err)
	}
	return nil
}

func (s *Store) writeFileAtomic(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".export-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := s.WriteJSON(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// DecodeExport parses an export document.
func DecodeExport(r io.Reader) (Export, error) {
	var doc Export
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Export{}, fmt.Errorf("store: decode export: %w", err)
	}
	return doc, nil
}
