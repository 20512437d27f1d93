package search_test

import (
	"context"
	"testing"

	"github.com/MrWong99/elephantmem/internal/graph"
	"github.com/MrWong99/elephantmem/internal/search"
)

func TestSuggester_Suggest(t *testing.T) {
	t.Parallel()

	s := search.NewSuggester()
	names := []string{"Eleanor_G1_512", "Everett", "Matriarch_Emma_1", "Zambezi"}

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{name: "misspelt token", query: "Elenor", want: "Eleanor_G1_512"},
		{name: "phonetic", query: "Everet", want: "Everett"},
		{name: "token of compound name", query: "Ema", want: "Matriarch_Emma_1"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := s.Suggest(tc.query, names, 1)
			if len(got) != 1 || got[0].Name != tc.want {
				t.Errorf("Suggest(%q): got %v, want %q first", tc.query, got, tc.want)
			}
		})
	}
}

func TestSuggester_NoMatchAndExact(t *testing.T) {
	t.Parallel()

	s := search.NewSuggester()
	if got := s.Suggest("Qwxyz", []string{"Ella", "Emma"}, 5); len(got) != 0 {
		t.Errorf("Suggest(unrelated): got %v, want none", got)
	}
	if got := s.Suggest("Ella", []string{"Ella"}, 5); len(got) != 0 {
		t.Errorf("Suggest(exact): got %v, want none", got)
	}
	if got := s.Suggest("   ", []string{"Ella"}, 5); len(got) != 0 {
		t.Errorf("Suggest(blank): got %v, want none", got)
	}
}

func TestSuggester_RankingAndLimit(t *testing.T) {
	t.Parallel()

	s := search.NewSuggester(search.WithFuzzyThreshold(0.5), search.WithPhoneticThreshold(0.5))
	got := s.Suggest("Emma", []string{"Emmett", "Emmy", "Emma_G1_100"}, 0)
	if len(got) < 2 {
		t.Fatalf("Suggest: got %v, want at least 2", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("not sorted by score: %v", got)
		}
	}
	if got := s.Suggest("Emma", []string{"Emmett", "Emmy", "Emma_G1_100"}, 1); len(got) != 1 {
		t.Errorf("limit 1: got %d suggestions", len(got))
	}
}

func TestEngine_SuggestNames(t *testing.T) {
	t.Parallel()

	a := graph.NewArena()
	e := search.New(a)
	e.IndexAll(context.Background(), []*graph.Elephant{
		a.NewElephant("Evelyn_G2_301", 1995, graph.Female),
		a.NewElephant("Ezra_G2_777", 1995, graph.Male),
	}, nil, nil)

	got := e.SuggestNames(context.Background(), "Evelin", 3)
	if len(got) == 0 || got[0].Name != "Evelyn_G2_301" {
		t.Errorf("SuggestNames(Evelin): got %v", got)
	}
}
