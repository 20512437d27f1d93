package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MrWong99/elephantmem/internal/config"
)

const watcherValidYAML = `
server:
  log_level: info
dataset:
  families: 2
`

const watcherUpdatedYAML = `
server:
  log_level: debug
dataset:
  families: 3
`

// Same settings as watcherValidYAML, different bytes.
const watcherReformattedYAML = `# families tuned for demos
dataset:
  families: 2
server:
  log_level: info
`

const watcherInvalidYAML = `
server:
  log_level: bananas
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %q: %v", path, err)
	}
}

// rewrite replaces the file and moves its mtime forward by step so
// coarse filesystem timestamps still register a change.
func rewrite(t *testing.T, path, content string, step time.Duration) {
	t.Helper()
	writeFile(t, path, content)
	at := time.Now().Add(step)
	if err := os.Chtimes(path, at, at); err != nil {
		t.Fatalf("failed to touch file: %v", err)
	}
}

type recorder struct {
	mu    sync.Mutex
	diffs []config.ConfigDiff
	last  *config.Config
}

func (r *recorder) record(d config.ConfigDiff, updated *config.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diffs = append(r.diffs, d)
	r.last = updated
}

func (r *recorder) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.diffs)
}

// newManualWatcher returns a watcher whose background poll never fires
// during the test; tests drive it through Reload.
func newManualWatcher(t *testing.T, content string, onChange config.ChangeFunc) (*config.Watcher, string) {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, content)
	w, err := config.NewWatcher(cfgPath, onChange, config.WithInterval(time.Hour))
	if err != nil {
		t.Fatalf("NewWatcher: unexpected error: %v", err)
	}
	t.Cleanup(w.Stop)
	return w, cfgPath
}

func TestWatcher_InitialLoad(t *testing.T) {
	t.Parallel()
	w, cfgPath := newManualWatcher(t, watcherValidYAML, nil)

	cfg := w.Current()
	if cfg == nil {
		t.Fatal("Current() returned nil after initial load")
	}
	if cfg.Dataset.Families != 2 {
		t.Errorf("families: got %d, want 2", cfg.Dataset.Families)
	}
	if w.Path() != cfgPath {
		t.Errorf("Path() = %q, want %q", w.Path(), cfgPath)
	}
}

func TestWatcher_ReloadPassesDiff(t *testing.T) {
	t.Parallel()
	var rec recorder
	w, cfgPath := newManualWatcher(t, watcherValidYAML, rec.record)

	rewrite(t, cfgPath, watcherUpdatedYAML, 2*time.Second)
	d, err := w.Reload()
	if err != nil {
		t.Fatalf("Reload: unexpected error: %v", err)
	}
	if !d.LogLevelChanged || d.NewLogLevel != config.LogDebug {
		t.Errorf("log level diff = %v/%q, want true/debug", d.LogLevelChanged, d.NewLogLevel)
	}
	if !d.DatasetChanged {
		t.Error("DatasetChanged = false, want true")
	}

	if n := rec.calls(); n != 1 {
		t.Fatalf("callback calls = %d, want 1", n)
	}
	rec.mu.Lock()
	got, last := rec.diffs[0], rec.last
	rec.mu.Unlock()
	if !got.LogLevelChanged || !got.DatasetChanged {
		t.Errorf("callback diff = %+v, want log level and dataset changes", got)
	}
	if last.Dataset.Families != 3 || w.Current() != last {
		t.Errorf("callback config families = %d, Current() same = %v", last.Dataset.Families, w.Current() == last)
	}
}

func TestWatcher_ReformatWithoutEffectiveChange(t *testing.T) {
	t.Parallel()
	var rec recorder
	w, cfgPath := newManualWatcher(t, watcherValidYAML, rec.record)

	rewrite(t, cfgPath, watcherReformattedYAML, 2*time.Second)
	d, err := w.Reload()
	if err != nil {
		t.Fatalf("Reload: unexpected error: %v", err)
	}
	if d.Changed() {
		t.Errorf("diff = %+v, want no changes", d)
	}
	if n := rec.calls(); n != 0 {
		t.Errorf("callback should not fire for a reformat, got %d calls", n)
	}

	// A later real edit is still compared against the settings in effect.
	rewrite(t, cfgPath, watcherUpdatedYAML, 4*time.Second)
	if d, err := w.Reload(); err != nil || !d.DatasetChanged {
		t.Errorf("Reload after reformat = %+v, %v; want dataset change", d, err)
	}
	if n := rec.calls(); n != 1 {
		t.Errorf("callback calls = %d, want 1", n)
	}
}

func TestWatcher_InvalidFileKeepsOldConfig(t *testing.T) {
	t.Parallel()
	var rec recorder
	w, cfgPath := newManualWatcher(t, watcherValidYAML, rec.record)

	rewrite(t, cfgPath, watcherInvalidYAML, 2*time.Second)
	if _, err := w.Reload(); err == nil {
		t.Error("Reload: expected error for invalid config, got nil")
	}
	if n := rec.calls(); n != 0 {
		t.Errorf("callback should not be called for invalid config, got %d calls", n)
	}
	if cur := w.Current(); cur.Server.LogLevel != config.LogInfo {
		t.Errorf("Current() should still have old config, got log_level=%q", cur.Server.LogLevel)
	}
}

func TestWatcher_TouchWithoutContentChange(t *testing.T) {
	t.Parallel()
	var rec recorder
	w, cfgPath := newManualWatcher(t, watcherValidYAML, rec.record)

	now := time.Now().Add(time.Second)
	if err := os.Chtimes(cfgPath, now, now); err != nil {
		t.Fatalf("failed to touch file: %v", err)
	}
	if d, err := w.Reload(); err != nil || d.Changed() {
		t.Errorf("Reload after touch = %+v, %v; want no changes", d, err)
	}
	if n := rec.calls(); n != 0 {
		t.Errorf("callback should not fire for touch-only, got %d calls", n)
	}
}

func TestWatcher_PollsInBackground(t *testing.T) {
	t.Parallel()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, watcherValidYAML)

	called := make(chan config.ConfigDiff, 1)
	w, err := config.NewWatcher(cfgPath, func(d config.ConfigDiff, _ *config.Config) {
		select {
		case called <- d:
		default:
		}
	}, config.WithInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: unexpected error: %v", err)
	}
	defer w.Stop()

	rewrite(t, cfgPath, watcherUpdatedYAML, 2*time.Second)
	select {
	case d := <-called:
		if !d.LogLevelChanged {
			t.Errorf("diff = %+v, want log level change", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not invoked within timeout")
	}
}

func TestWatcher_InitialLoadFails(t *testing.T) {
	t.Parallel()
	if _, err := config.NewWatcher("/nonexistent/path.yaml", nil); err == nil {
		t.Fatal("expected error for non-existent file, got nil")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	t.Parallel()
	w, _ := newManualWatcher(t, watcherValidYAML, nil)
	w.Stop()
	w.Stop()
}
