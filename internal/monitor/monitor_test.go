package monitor_test

import (
	"strings"
	"testing"

	"github.com/MrWong99/elephantmem/internal/monitor"
)

func fixedRSS(values ...uint64) func() uint64 {
	i := 0
	return func() uint64 {
		v := values[min(i, len(values)-1)]
		i++
		return v
	}
}

func TestCompare_NeedsTwoSnapshots(t *testing.T) {
	t.Parallel()

	m := monitor.New(monitor.WithRSSFunc(fixedRSS(1 << 20)))
	if _, ok := m.Compare(0, -1); ok {
		t.Fatal("Compare on empty monitor: want ok=false")
	}
	m.Snapshot("only")
	if _, ok := m.Compare(0, -1); ok {
		t.Fatal("Compare with one snapshot: want ok=false")
	}
}

func TestCompare_NegativeIndexes(t *testing.T) {
	t.Parallel()

	m := monitor.New(monitor.WithRSSFunc(fixedRSS(10<<20, 30<<20, 25<<20)))
	m.Snapshot("baseline")
	m.Snapshot("generated")
	m.Snapshot("cleared")

	tests := []struct {
		name       string
		i, j       int
		wantBefore string
		wantAfter  string
		wantRSS    int64
	}{
		{"first to last", 0, -1, "baseline", "cleared", 15 << 20},
		{"first to second", 0, 1, "baseline", "generated", 20 << 20},
		{"second to last", -2, -1, "generated", "cleared", -5 << 20},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			d, ok := m.Compare(tc.i, tc.j)
			if !ok {
				t.Fatalf("Compare(%d, %d): want ok=true", tc.i, tc.j)
			}
			if d.Before.Label != tc.wantBefore || d.After.Label != tc.wantAfter {
				t.Errorf("labels = %q -> %q, want %q -> %q", d.Before.Label, d.After.Label, tc.wantBefore, tc.wantAfter)
			}
			if d.RSSBytes != tc.wantRSS {
				t.Errorf("RSSBytes = %d, want %d", d.RSSBytes, tc.wantRSS)
			}
		})
	}
}

func TestCompare_OutOfRange(t *testing.T) {
	t.Parallel()

	m := monitor.New(monitor.WithRSSFunc(fixedRSS(1)))
	m.Snapshot("a")
	m.Snapshot("b")
	for _, idx := range [][2]int{{0, 2}, {-3, 1}, {5, -1}} {
		if _, ok := m.Compare(idx[0], idx[1]); ok {
			t.Errorf("Compare(%d, %d): want ok=false", idx[0], idx[1])
		}
	}
}

func TestSnapshot_CapacityDropsOldest(t *testing.T) {
	t.Parallel()

	m := monitor.New(monitor.WithCapacity(2), monitor.WithRSSFunc(fixedRSS(1)))
	m.Snapshot("a")
	m.Snapshot("b")
	m.Snapshot("c")

	got := m.Snapshots()
	if len(got) != 2 {
		t.Fatalf("len(Snapshots) = %d, want 2", len(got))
	}
	if got[0].Label != "b" || got[1].Label != "c" {
		t.Errorf("labels = [%s %s], want [b c]", got[0].Label, got[1].Label)
	}

	m.Reset()
	if n := len(m.Snapshots()); n != 0 {
		t.Errorf("after Reset: %d snapshots, want 0", n)
	}
}

func TestCurrent_DoesNotRecord(t *testing.T) {
	t.Parallel()

	m := monitor.New(monitor.WithRSSFunc(fixedRSS(42)))
	s := m.Current("current")
	if s.RSSBytes != 42 {
		t.Errorf("RSSBytes = %d, want 42", s.RSSBytes)
	}
	if s.Goroutines < 1 {
		t.Errorf("Goroutines = %d, want >= 1", s.Goroutines)
	}
	if n := len(m.Snapshots()); n != 0 {
		t.Errorf("Current recorded %d snapshots, want 0", n)
	}
}

func TestStrings(t *testing.T) {
	t.Parallel()

	before := monitor.Snapshot{Label: "before", RSSBytes: 2 << 20, HeapObjects: 1500}
	after := monitor.Snapshot{Label: "after", RSSBytes: 1 << 20, HeapObjects: 500, NumGC: 3}

	if s := before.String(); !strings.Contains(s, "2.0 MiB") || !strings.Contains(s, "1,500") {
		t.Errorf("Snapshot.String() = %q", s)
	}
	d := monitor.Between(before, after)
	if d.RSSMB() != -1 {
		t.Errorf("RSSMB = %v, want -1", d.RSSMB())
	}
	if s := d.String(); !strings.Contains(s, "-1.0 MiB") || !strings.Contains(s, "before -> after") {
		t.Errorf("Diff.String() = %q", s)
	}
}

func TestProcessRSS(t *testing.T) {
	t.Parallel()

	if monitor.ProcessRSS() == 0 {
		t.Error("ProcessRSS returned 0")
	}
	if monitor.ProcessRSSMB() <= 0 {
		t.Error("ProcessRSSMB returned a non-positive value")
	}
}

func TestForceGC(t *testing.T) {
	r := monitor.ForceGC()
	if r.Cycles < 1 {
		t.Errorf("Cycles = %d, want >= 1", r.Cycles)
	}
}
