// Package seed loads hand-written datasets from YAML files into an arena.
//
// Example:
//
//	name: "Chobe founders"
//	elephants:
//	  - name: Ella
//	    birth_year: 1960
//	    gender: F
//	  - name: Eli
//	    birth_year: 1975
//	    gender: M
//	    parent: Ella
//	herds:
//	  - name: Herd_A_1
//	    territory: Delta Region
//	    members: [Ella, Eli]
//	water_sources:
//	  - name: Chobe Waterhole
//	    latitude: -18.5
//	    longitude: 24.0
//	    capacity: medium
//	    dry_years: [2005]
//	events:
//	  - type: migration
//	    year: 2001
//	    location: "-18.50, 24.00"
//	    description: "first crossing"
//	    elephants: [Ella]
//	    herds: [Herd_A_1]
//
// Elephants and herds are referenced by name, so names must be unique within
// a file.
package seed

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the top-level structure of a seed file.
type File struct {
	Name         string        `yaml:"name"`
	Elephants    []Elephant    `yaml:"elephants"`
	Herds        []Herd        `yaml:"herds"`
	WaterSources []WaterSource `yaml:"water_sources"`
	Events       []Event       `yaml:"events"`
}

// Elephant declares one elephant. Parent names another elephant in the file.
type Elephant struct {
	Name      string `yaml:"name"`
	BirthYear int    `yaml:"birth_year"`
	Gender    string `yaml:"gender"`
	Parent    string `yaml:"parent,omitempty"`
}

// Herd declares a herd and its members by elephant name.
type Herd struct {
	Name        string   `yaml:"name"`
	Territory   string   `yaml:"territory"`
	Established int      `yaml:"established,omitempty"`
	Members     []string `yaml:"members,omitempty"`
}

// WaterSource declares a water source, the years it was dry and the
// elephants that visited it per year.
type WaterSource struct {
	Name      string           `yaml:"name"`
	Latitude  float64          `yaml:"latitude"`
	Longitude float64          `yaml:"longitude"`
	Capacity  string           `yaml:"capacity"`
	DryYears  []int            `yaml:"dry_years,omitempty"`
	Visits    map[int][]string `yaml:"visits,omitempty"`
}

// Event declares a historical event and its participants by name.
type Event struct {
	Type        string   `yaml:"type"`
	Year        int      `yaml:"year"`
	Location    string   `yaml:"location"`
	Description string   `yaml:"description"`
	Elephants   []string `yaml:"elephants,omitempty"`
	Herds       []string `yaml:"herds,omitempty"`
}

// Load reads and parses a seed file from disk.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("seed: open %q: %w", path, err)
	}
	defer f.Close()

	sf, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("seed: parse %q: %w", path, err)
	}
	return sf, nil
}

// LoadFromReader parses seed YAML from r. Unknown keys are rejected.
func LoadFromReader(r io.Reader) (*File, error) {
	var sf File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil {
		return nil, fmt.Errorf("seed: decode yaml: %w", err)
	}
	return &sf, nil
}
