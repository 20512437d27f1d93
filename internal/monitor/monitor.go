// Package monitor samples process memory and keeps labelled snapshots so the
// effect of generating, clearing and reclaiming a dataset can be compared.
//
// All Monitor methods are safe for concurrent use.
package monitor

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/procfs"
)

// ProcessRSS returns the resident set size of the current process in bytes.
// Where procfs is unavailable it falls back to the memory the Go runtime has
// obtained from the OS.
func ProcessRSS() uint64 {
	if p, err := procfs.Self(); err == nil {
		if st, err := p.Stat(); err == nil {
			return uint64(st.ResidentMemory())
		}
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.Sys
}

// ProcessRSSMB returns [ProcessRSS] in mebibytes.
func ProcessRSSMB() float64 {
	return float64(ProcessRSS()) / (1 << 20)
}

// Snapshot is a labelled memory sample.
type Snapshot struct {
	Label       string    `json:"label"`
	Taken       time.Time `json:"taken"`
	RSSBytes    uint64    `json:"rss_bytes"`
	HeapAlloc   uint64    `json:"heap_alloc_bytes"`
	HeapObjects uint64    `json:"heap_objects"`
	NumGC       uint32    `json:"gc_cycles"`
	Goroutines  int       `json:"goroutines"`
}

// RSSMB returns the resident set size in mebibytes.
func (s Snapshot) RSSMB() float64 { return float64(s.RSSBytes) / (1 << 20) }

func (s Snapshot) String() string {
	return fmt.Sprintf("%s: rss %s, heap %s in %s objects, %d GC cycles",
		s.Label,
		humanize.IBytes(s.RSSBytes),
		humanize.IBytes(s.HeapAlloc),
		humanize.Comma(int64(s.HeapObjects)),
		s.NumGC,
	)
}

// Diff compares two snapshots.
type Diff struct {
	Before Snapshot `json:"before"`
	After  Snapshot `json:"after"`

	RSSBytes    int64 `json:"rss_diff_bytes"`
	HeapObjects int64 `json:"heap_objects_diff"`
	GCCycles    int64 `json:"gc_cycles_diff"`
}

// RSSMB returns the resident set size change in mebibytes.
func (d Diff) RSSMB() float64 { return float64(d.RSSBytes) / (1 << 20) }

func (d Diff) String() string {
	return fmt.Sprintf("%s -> %s: rss %s%s, objects %s, %d GC cycles",
		d.Before.Label, d.After.Label,
		sign(d.RSSBytes), humanize.IBytes(abs(d.RSSBytes)),
		humanize.Comma(d.HeapObjects),
		d.GCCycles,
	)
}

func sign(n int64) string {
	if n < 0 {
		return "-"
	}
	return "+"
}

func abs(n int64) uint64 {
	if n < 0 {
		return uint64(-n)
	}
	return uint64(n)
}

const defaultCapacity = 64

// Option configures a [Monitor].
type Option func(*Monitor)

// WithCapacity bounds the number of retained snapshots. The oldest snapshot
// is dropped when a new one would exceed it. Default: 64.
func WithCapacity(n int) Option {
	return func(m *Monitor) {
		if n > 1 {
			m.capacity = n
		}
	}
}

// WithRSSFunc replaces the RSS source, mainly for tests.
func WithRSSFunc(fn func() uint64) Option {
	return func(m *Monitor) { m.rss = fn }
}

// Monitor records memory snapshots.
type Monitor struct {
	capacity int
	rss      func() uint64
	now      func() time.Time

	mu        sync.Mutex
	snapshots []Snapshot
}

// New returns a monitor with no snapshots.
func New(opts ...Option) *Monitor {
	m := &Monitor{
		capacity: defaultCapacity,
		rss:      ProcessRSS,
		now:      time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Current samples memory without recording the result.
func (m *Monitor) Current(label string) Snapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return Snapshot{
		Label:       label,
		Taken:       m.now(),
		RSSBytes:    m.rss(),
		HeapAlloc:   ms.HeapAlloc,
		HeapObjects: ms.HeapObjects,
		NumGC:       ms.NumGC,
		Goroutines:  runtime.NumGoroutine(),
	}
}

// Snapshot samples memory and records the result under label.
func (m *Monitor) Snapshot(label string) Snapshot {
	s := m.Current(label)
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.snapshots) == m.capacity {
		m.snapshots = append(m.snapshots[:0], m.snapshots[1:]...)
	}
	m.snapshots = append(m.snapshots, s)
	return s
}

// Snapshots returns a copy of the recorded snapshots, oldest first.
func (m *Monitor) Snapshots() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Snapshot(nil), m.snapshots...)
}

// Reset drops every recorded snapshot.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = nil
}

// Compare diffs snapshot j against snapshot i. Negative indexes count from
// the end, so Compare(0, -1) compares the oldest and newest snapshots. It
// returns false when fewer than two snapshots exist or an index is out of
// range.
func (m *Monitor) Compare(i, j int) (Diff, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.snapshots)
	if n < 2 {
		return Diff{}, false
	}
	if i < 0 {
		i += n
	}
	if j < 0 {
		j += n
	}
	if i < 0 || i >= n || j < 0 || j >= n {
		return Diff{}, false
	}
	return Between(m.snapshots[i], m.snapshots[j]), true
}

// Between diffs after against before.
func Between(before, after Snapshot) Diff {
	return Diff{
		Before:      before,
		After:       after,
		RSSBytes:    int64(after.RSSBytes) - int64(before.RSSBytes),
		HeapObjects: int64(after.HeapObjects) - int64(before.HeapObjects),
		GCCycles:    int64(after.NumGC) - int64(before.NumGC),
	}
}

// GCReport describes a forced collection.
type GCReport struct {
	Cycles         uint32        `json:"cycles"`
	HeapFreedBytes int64         `json:"heap_freed_bytes"`
	Duration       time.Duration `json:"duration"`
}

func (r GCReport) String() string {
	return fmt.Sprintf("%d GC cycles freed %s in %s", r.Cycles, humanize.IBytes(abs(r.HeapFreedBytes)), r.Duration)
}

// ForceGC runs a full garbage collection and reports what it did.
func ForceGC() GCReport {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	start := time.Now()
	runtime.GC()
	d := time.Since(start)
	runtime.ReadMemStats(&after)
	return GCReport{
		Cycles:         after.NumGC - before.NumGC,
		HeapFreedBytes: int64(before.HeapAlloc) - int64(after.HeapAlloc),
		Duration:       d,
	}
}
