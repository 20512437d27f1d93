package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/elephantmem/internal/search"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied. It is a convenience wrapper around
// [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and validates
// the result. Unknown keys are rejected. An empty document yields [Defaults].
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
// Dataset sizes use the generator's bounds, so cfg is expected to have
// defaults applied: a zero family count is out of range.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.StatsInterval < 0 {
		errs = append(errs, fmt.Errorf("server.stats_interval %s must not be negative", cfg.Server.StatsInterval))
	}
	if _, err := cfg.Server.MemoryLimitBytes(); err != nil {
		errs = append(errs, fmt.Errorf("server.memory_limit %q is invalid: %w", cfg.Server.MemoryLimit, err))
	}

	// Dataset
	d := cfg.Dataset
	if err := d.Options().Validate(); err != nil {
		for _, e := range unjoin(err) {
			errs = append(errs, fmt.Errorf("dataset.%w", e))
		}
	}
	if d.SeedFile != "" {
		if _, err := os.Stat(d.SeedFile); err != nil {
			slog.Warn("dataset.seed_file is not readable; startup dataset will fail to load", "path", d.SeedFile, "err", err)
		}
	}

	// Search
	if r := cfg.Search.DefaultRadius; r < 0 || r > search.MaxRadius {
		errs = append(errs, fmt.Errorf("search.default_radius %d is out of range [0, %d]", r, search.MaxRadius))
	}
	if cfg.Search.CurrentYear < 0 {
		errs = append(errs, fmt.Errorf("search.current_year %d must not be negative", cfg.Search.CurrentYear))
	}

	return errors.Join(errs...)
}

// unjoin splits an [errors.Join] result into its parts.
func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
