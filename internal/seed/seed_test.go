package seed_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrWong99/elephantmem/internal/graph"
	"github.com/MrWong99/elephantmem/internal/seed"
)

const validSeed = `
name: Chobe founders
elephants:
  - name: Ella
    birth_year: 1960
    gender: F
  - name: Eli
    birth_year: 1975
    gender: M
    parent: Ella
  - name: Eva
    birth_year: 1977
    gender: F
    parent: Ella
herds:
  - name: Herd_A_1
    territory: Delta Region
    established: 1970
    members: [Ella, Eli, Eva]
water_sources:
  - name: Chobe Waterhole
    latitude: -18.5
    longitude: 24.0
    capacity: medium
    dry_years: [2005, 2012]
    visits:
      2010: [Ella, Eva]
events:
  - type: migration
    year: 2001
    location: "-18.50, 24.00"
    description: first crossing
    elephants: [Ella, Eli]
    herds: [Herd_A_1]
`

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(validSeed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	f, err := seed.Load(path)
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if f.Name != "Chobe founders" || len(f.Elephants) != 3 || len(f.Events) != 1 {
		t.Errorf("Load: got %+v", f)
	}
	if got := f.WaterSources[0].Visits[2010]; len(got) != 2 {
		t.Errorf("visits[2010]: got %v", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	if _, err := seed.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load(missing): expected error")
	}
	_, err := seed.LoadFromReader(strings.NewReader("elephants:\n  - name: Ella\n    tusks: 2\n"))
	if err == nil {
		t.Error("LoadFromReader with unknown field: expected error")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown parent",
			yaml:    "elephants:\n  - {name: A, birth_year: 1, gender: F, parent: Z}\n",
			wantErr: `parent "Z" is not a declared elephant`,
		},
		{
			name:    "duplicate name",
			yaml:    "elephants:\n  - {name: A, birth_year: 1, gender: F}\n  - {name: A, birth_year: 2, gender: M}\n",
			wantErr: `duplicate elephant name "A"`,
		},
		{
			name:    "bad gender",
			yaml:    "elephants:\n  - {name: A, birth_year: 1, gender: X}\n",
			wantErr: `gender "X" is invalid`,
		},
		{
			name:    "ancestry loop",
			yaml:    "elephants:\n  - {name: A, birth_year: 1, gender: F, parent: B}\n  - {name: B, birth_year: 2, gender: F, parent: A}\n",
			wantErr: `"A" is its own ancestor`,
		},
		{
			name:    "self parent",
			yaml:    "elephants:\n  - {name: A, birth_year: 1, gender: F, parent: A}\n",
			wantErr: `"A" is its own ancestor`,
		},
		{
			name:    "unknown member",
			yaml:    "herds:\n  - {name: H, territory: T, members: [Nobody]}\n",
			wantErr: `"Nobody" is not a declared elephant`,
		},
		{
			name:    "bad capacity",
			yaml:    "water_sources:\n  - {name: W, latitude: 0, longitude: 0, capacity: huge}\n",
			wantErr: `capacity "huge" is invalid`,
		},
		{
			name:    "bad event type",
			yaml:    "events:\n  - {type: stampede, year: 2000, location: x, description: y}\n",
			wantErr: `"stampede" is not a recognised event type`,
		},
		{
			name:    "unknown event herd",
			yaml:    "events:\n  - {type: drought, year: 2000, location: x, description: y, herds: [H]}\n",
			wantErr: `"H" is not a declared herd`,
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f, err := seed.LoadFromReader(strings.NewReader(tc.yaml))
			if err != nil {
				t.Fatalf("LoadFromReader: unexpected error: %v", err)
			}
			err = seed.Validate(f)
			if err == nil {
				t.Fatal("Validate: expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Validate: error %q does not contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestValidate_JoinsAllProblems(t *testing.T) {
	t.Parallel()

	f := &seed.File{Elephants: []seed.Elephant{
		{Name: "", Gender: "F"},
		{Name: "B", Gender: "Q", Parent: "Z"},
	}}
	err := seed.Validate(f)
	if err == nil {
		t.Fatal("Validate: expected error")
	}
	if n := strings.Count(err.Error(), "\n") + 1; n != 3 {
		t.Errorf("Validate: got %d problems, want 3:\n%v", n, err)
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	f, err := seed.LoadFromReader(strings.NewReader(validSeed))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	a := graph.NewArena()
	d, err := seed.Apply(a, f)
	if err != nil {
		t.Fatalf("Apply: unexpected error: %v", err)
	}

	if len(d.Elephants) != 3 || len(d.Herds) != 1 || len(d.WaterSources) != 1 || len(d.Events) != 1 {
		t.Fatalf("Apply: got %d/%d/%d/%d entities", len(d.Elephants), len(d.Herds), len(d.WaterSources), len(d.Events))
	}
	ella := d.Elephants[0]
	if ella.NumChildren() != 2 {
		t.Errorf("Ella children: got %d, want 2", ella.NumChildren())
	}
	if d.Herds[0].Size() != 3 {
		t.Errorf("herd size: got %d, want 3", d.Herds[0].Size())
	}
	ws := d.WaterSources[0]
	if ws.WasAvailable(2005) || !ws.WasAvailable(2006) {
		t.Error("availability not applied")
	}
	if len(ws.Visitors(2010)) != 2 {
		t.Errorf("visitors 2010: got %v", ws.Visitors(2010))
	}
	if got := d.Events[0].Elephants(); len(got) != 2 || got[0] != ella.ID {
		t.Errorf("event participants: got %v", got)
	}
	if v := a.Verify(); len(v) != 0 {
		t.Errorf("Verify: %v", v)
	}
}

func TestApply_InvalidFile(t *testing.T) {
	t.Parallel()

	a := graph.NewArena()
	_, err := seed.Apply(a, &seed.File{Elephants: []seed.Elephant{{Name: "A", Gender: "?"}}})
	if err == nil {
		t.Fatal("Apply: expected validation error")
	}
	if a.Live().Total() != 0 {
		t.Errorf("Apply allocated %d entries before failing validation", a.Live().Total())
	}
}
