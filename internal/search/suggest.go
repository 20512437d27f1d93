package search

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// SuggesterOption configures a [Suggester].
type SuggesterOption func(*Suggester)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score for a name whose
// Double Metaphone codes overlap with the query. Default: 0.70.
func WithPhoneticThreshold(threshold float64) SuggesterOption {
	return func(s *Suggester) { s.phoneticThreshold = threshold }
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score for a name without
// phonetic overlap. Default: 0.85.
func WithFuzzyThreshold(threshold float64) SuggesterOption {
	return func(s *Suggester) { s.fuzzyThreshold = threshold }
}

// Suggester proposes known elephant names close to a misspelt query. Names
// such as "Ella_G2_417" are split into tokens on underscores, hyphens and
// spaces; a name is a phonetic candidate when any Double Metaphone code of
// its tokens matches one of the query's.
//
// A Suggester is read-only after construction and safe for concurrent use.
type Suggester struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// NewSuggester returns a [Suggester] with the default thresholds.
func NewSuggester(opts ...SuggesterOption) *Suggester {
	s := &Suggester{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Suggestion is one candidate name.
type Suggestion struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Phonetic bool    `json:"phonetic"`
}

// Suggest ranks names against query by score, highest first, with ties
// broken by name. At most limit suggestions are returned; limit <= 0 means
// no limit. An exact match is never suggested.
func (s *Suggester) Suggest(query string, names []string, limit int) []Suggestion {
	queryLower := strings.ToLower(strings.TrimSpace(query))
	queryTokens := tokenize(queryLower)
	out := []Suggestion{}
	if len(queryTokens) == 0 {
		return out
	}
	queryCodes := codesForTokens(queryTokens)

	for _, name := range names {
		nameLower := strings.ToLower(strings.TrimSpace(name))
		if nameLower == "" || nameLower == queryLower {
			continue
		}
		nameTokens := tokenize(nameLower)
		score := bestJWScore(queryTokens, nameTokens, queryLower, nameLower)
		phonetic := codesOverlap(queryCodes, codesForTokens(nameTokens))

		threshold := s.fuzzyThreshold
		if phonetic {
			threshold = s.phoneticThreshold
		}
		if score >= threshold {
			out = append(out, Suggestion{Name: name, Score: score, Phonetic: phonetic})
		}
	}

	slices.SortFunc(out, func(a, b Suggestion) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SuggestNames proposes indexed elephant names close to query.
func (e *Engine) SuggestNames(ctx context.Context, query string, limit int) []Suggestion {
	idx := e.current(ctx, "suggest")
	return e.suggester.Suggest(query, idx.names, limit)
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
}

// codesForTokens returns the union of the non-empty Double Metaphone codes of
// tokens.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestJWScore is the highest Jaro-Winkler similarity over the full strings,
// the token-joined strings and every token pair.
func bestJWScore(queryTokens, nameTokens []string, queryFull, nameFull string) float64 {
	score := matchr.JaroWinkler(queryFull, nameFull, false)

	if len(queryTokens) > 1 || len(nameTokens) > 1 {
		if s := matchr.JaroWinkler(strings.Join(queryTokens, ""), strings.Join(nameTokens, ""), false); s > score {
			score = s
		}
	}
	for _, qt := range queryTokens {
		for _, nt := range nameTokens {
			if s := matchr.JaroWinkler(qt, nt, false); s > score {
				score = s
			}
		}
	}
	return score
}
