// Package config provides the configuration schema, loader, and file watcher
// for the elephantmem server.
package config

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/MrWong99/elephantmem/internal/generator"
)

// LogLevel controls log verbosity for the elephantmem server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for elephantmem.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Search    SearchConfig    `yaml:"search"`
	Export    ExportConfig    `yaml:"export"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// StatsInterval is the period between frames on the stats WebSocket and
	// between memory samples.
	StatsInterval time.Duration `yaml:"stats_interval"`

	// MemoryLimit fails the readiness check when resident memory exceeds it.
	// Human-readable sizes such as "512 MiB" or "2GB" are accepted. Empty
	// disables the check.
	MemoryLimit string `yaml:"memory_limit"`
}

// MemoryLimitBytes parses MemoryLimit. An empty limit yields 0.
func (s ServerConfig) MemoryLimitBytes() (uint64, error) {
	if s.MemoryLimit == "" {
		return 0, nil
	}
	return humanize.ParseBytes(s.MemoryLimit)
}

// DatasetConfig sizes the dataset generated at startup and by the demo.
type DatasetConfig struct {
	Families            int `yaml:"families"`
	Generations         int `yaml:"generations"`
	ChildrenPerElephant int `yaml:"children_per_elephant"`
	Herds               int `yaml:"herds"`
	Events              int `yaml:"events"`

	// Seed fixes the generator's random source. Zero picks a random seed.
	Seed uint64 `yaml:"seed"`

	// SeedFile, when set, loads a hand-written dataset instead of generating one.
	SeedFile string `yaml:"seed_file"`
}

// Options returns the generator sizing described by d.
func (d DatasetConfig) Options() generator.DatasetOptions {
	return generator.DatasetOptions{
		Families:            d.Families,
		Generations:         d.Generations,
		ChildrenPerElephant: d.ChildrenPerElephant,
		Herds:               d.Herds,
		Events:              d.Events,
	}
}

// SearchConfig holds query defaults.
type SearchConfig struct {
	// CurrentYear anchors migration alerts. Zero uses the wall clock.
	CurrentYear int `yaml:"current_year"`

	// DefaultRadius is the location search radius in grid cells when a
	// request does not name one.
	DefaultRadius int `yaml:"default_radius"`
}

// ExportConfig controls the JSON export.
type ExportConfig struct {
	Path string `yaml:"path"`
}

// TelemetryConfig names the service in exported metrics and traces.
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name"`
}

// Default values applied by [ApplyDefaults].
const (
	DefaultListenAddr          = ":8080"
	DefaultStatsInterval       = 2 * time.Second
	DefaultFamilies            = 5
	DefaultGenerations         = 5
	DefaultChildrenPerElephant = 3
	DefaultHerds               = 10
	DefaultEvents              = 1000
	DefaultRadius              = 1
	DefaultExportPath          = "data/exported_data.json"
	DefaultServiceName         = "elephantmem"
)

// Defaults returns a config with every default applied.
func Defaults() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every zero-valued field of cfg that has a default.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Server.StatsInterval == 0 {
		cfg.Server.StatsInterval = DefaultStatsInterval
	}

	d := &cfg.Dataset
	if d.Families == 0 {
		d.Families = DefaultFamilies
	}
	if d.Generations == 0 {
		d.Generations = DefaultGenerations
	}
	if d.ChildrenPerElephant == 0 {
		d.ChildrenPerElephant = DefaultChildrenPerElephant
	}
	if d.Herds == 0 {
		d.Herds = DefaultHerds
	}
	if d.Events == 0 {
		d.Events = DefaultEvents
	}

	if cfg.Search.DefaultRadius == 0 {
		cfg.Search.DefaultRadius = DefaultRadius
	}
	if cfg.Export.Path == "" {
		cfg.Export.Path = DefaultExportPath
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = DefaultServiceName
	}
}

// Year returns the configured current year, or now's year when unset.
func (s SearchConfig) Year(now time.Time) int {
	if s.CurrentYear != 0 {
		return s.CurrentYear
	}
	return now.Year()
}
