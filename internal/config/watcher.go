package config

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// ChangeFunc receives the difference between the previous and the newly
// loaded config along with the new config itself.
type ChangeFunc func(d ConfigDiff, updated *Config)

// Watcher polls a config file and reports effective changes to a
// [ChangeFunc]. Invalid edits are logged and ignored; edits that leave
// every setting as it was update the watcher silently.
type Watcher struct {
	path     string
	interval time.Duration
	onChange ChangeFunc

	mu      sync.Mutex
	current *Config
	seen    fileState

	done     chan struct{}
	stopOnce sync.Once
}

// fileState identifies one version of the watched file.
type fileState struct {
	mtime time.Time
	sum   [sha256.Size]byte
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. The default is 5 seconds.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWatcher loads path once and then polls it in the background.
// onChange may be nil.
func NewWatcher(path string, onChange ChangeFunc, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: 5 * time.Second,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	cfg, st, err := w.read()
	if err != nil {
		return nil, fmt.Errorf("config: watcher initial load: %w", err)
	}
	w.current, w.seen = cfg, st

	go w.run()
	return w, nil
}

// Current returns the most recently loaded valid config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Path returns the watched file path.
func (w *Watcher) Path() string { return w.path }

// Stop ends polling. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

func (w *Watcher) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			if _, err := w.Reload(); err != nil {
				slog.Warn("config watcher: reload failed; keeping the current config", "path", w.path, "err", err)
			}
		}
	}
}

// Reload checks the file immediately. It returns the diff that was applied,
// which is empty when the file is unchanged or only its formatting changed.
// On error the current config stays in place.
func (w *Watcher) Reload() (ConfigDiff, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return ConfigDiff{}, err
	}
	w.mu.Lock()
	unchanged := info.ModTime().Equal(w.seen.mtime)
	w.mu.Unlock()
	if unchanged {
		return ConfigDiff{}, nil
	}

	cfg, st, err := w.read()
	if err != nil {
		return ConfigDiff{}, err
	}

	w.mu.Lock()
	if st.sum == w.seen.sum {
		w.seen.mtime = st.mtime
		w.mu.Unlock()
		return ConfigDiff{}, nil
	}
	d := Diff(w.current, cfg)
	w.current, w.seen = cfg, st
	w.mu.Unlock()

	if !d.Changed() {
		slog.Debug("config watcher: file rewritten without effective changes", "path", w.path)
		return d, nil
	}
	slog.Info("config watcher: configuration reloaded", "path", w.path,
		"log_level", d.LogLevelChanged, "dataset", d.DatasetChanged, "search", d.SearchChanged,
		"restart_required", d.RestartRequired)
	// Called without the lock held so the callback may use Current.
	if w.onChange != nil {
		w.onChange(d, cfg)
	}
	return d, nil
}

// read parses and validates the file and fingerprints its content.
func (w *Watcher) read() (*Config, fileState, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil, fileState{}, err
	}
	info, err := os.Stat(w.path)
	if err != nil {
		return nil, fileState{}, err
	}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fileState{}, err
	}
	return cfg, fileState{mtime: info.ModTime(), sum: sha256.Sum256(data)}, nil
}
