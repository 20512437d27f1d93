package config_test

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/elephantmem/internal/config"
)

func TestLoadFromReader_EmptyYieldsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader: unexpected error: %v", err)
	}
	want := config.Defaults()
	if *cfg != *want {
		t.Errorf("got %+v, want %+v", *cfg, *want)
	}
	if cfg.Dataset.Families != config.DefaultFamilies || cfg.Server.StatsInterval != config.DefaultStatsInterval {
		t.Errorf("defaults not applied: %+v", *cfg)
	}
}

func TestLoadFromReader_FullConfig(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_addr: "127.0.0.1:9090"
  log_level: debug
  stats_interval: 500ms
  memory_limit: 512 MiB
dataset:
  families: 2
  generations: 3
  children_per_elephant: 2
  herds: 4
  events: 50
  seed: 42
search:
  current_year: 2025
  default_radius: 2
export:
  path: /tmp/out.json
telemetry:
  service_name: herd-lab
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: unexpected error: %v", err)
	}
	if cfg.Server.ListenAddr != "127.0.0.1:9090" {
		t.Errorf("listen_addr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("log_level = %q, want debug", cfg.Server.LogLevel)
	}
	if limit, err := cfg.Server.MemoryLimitBytes(); err != nil || limit != 512<<20 {
		t.Errorf("MemoryLimitBytes = %d, %v; want %d", limit, err, 512<<20)
	}
	if cfg.Server.StatsInterval != 500*time.Millisecond {
		t.Errorf("stats_interval = %s, want 500ms", cfg.Server.StatsInterval)
	}
	wantDataset := config.DatasetConfig{Families: 2, Generations: 3, ChildrenPerElephant: 2, Herds: 4, Events: 50, Seed: 42}
	if cfg.Dataset != wantDataset {
		t.Errorf("dataset = %+v, want %+v", cfg.Dataset, wantDataset)
	}
	if cfg.Search.Year(time.Now()) != 2025 || cfg.Search.DefaultRadius != 2 {
		t.Errorf("search = %+v", cfg.Search)
	}
	if cfg.Export.Path != "/tmp/out.json" || cfg.Telemetry.ServiceName != "herd-lab" {
		t.Errorf("export/telemetry = %+v / %+v", cfg.Export, cfg.Telemetry)
	}
}

func TestLoadFromReader_UnknownKey(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("server:\n  listen_adr: \":1\"\n"))
	if err == nil {
		t.Fatal("expected error for unknown key, got nil")
	}
	if !strings.Contains(err.Error(), "listen_adr") {
		t.Errorf("error should name the unknown key, got: %v", err)
	}
}

func TestValidate_ReportsEveryFailure(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
  memory_limit: lots
dataset:
  families: -1
  generations: 40
search:
  default_radius: -3
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	for _, want := range []string{"server.log_level", "server.memory_limit", "dataset.families", "dataset.generations", "search.default_radius"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}

func TestSearchYear_FallsBackToClock(t *testing.T) {
	t.Parallel()
	now := time.Date(2031, 6, 1, 0, 0, 0, 0, time.UTC)
	if got := (config.SearchConfig{}).Year(now); got != 2031 {
		t.Errorf("Year = %d, want 2031", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error should wrap a not-exist error, got: %v", err)
	}
}

func TestValidate_DatasetAndRadiusBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "at the limits",
			yaml: `
dataset:
  families: 20
  generations: 10
  children_per_elephant: 5
  herds: 50
  events: 10000
search:
  default_radius: 180
`,
		},
		{name: "too many generations", yaml: "dataset:\n  generations: 11\n", wantErr: "dataset.generations 11"},
		{name: "too many children", yaml: "dataset:\n  children_per_elephant: 6\n", wantErr: "dataset.children_per_elephant 6"},
		{name: "too many families", yaml: "dataset:\n  families: 21\n", wantErr: "dataset.families 21"},
		{name: "too many events", yaml: "dataset:\n  events: 10001\n", wantErr: "dataset.events 10001"},
		{name: "radius too large", yaml: "search:\n  default_radius: 181\n", wantErr: "search.default_radius 181"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := config.LoadFromReader(strings.NewReader(tc.yaml))
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("LoadFromReader: unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error mentioning %q, got nil", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error should mention %q, got: %v", tc.wantErr, err)
			}
		})
	}
}
