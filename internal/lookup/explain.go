package lookup

import (
	"sort"

	"github.com/agnivade/levenshtein"

	"github.com/rsdtools/releaselink/internal/normalize"
)

// Candidate is a same-artist key considered by the cascade, ranked by the edit
// distance between its normalized title and the query's.
type Candidate struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Distance int    `json:"distance"`
	// Rule is the acceptance rule the candidate satisfies, empty when rejected.
	Rule Rule `json:"rule,omitempty"`
}

// Explain lists up to limit scan candidates for (artist, title) ordered by
// distance, then by insertion order. It does not change how Resolve picks a
// match. A limit <= 0 returns every candidate.
func Explain(t *Table, artist, title string, limit int) []Candidate {
	if t == nil {
		return nil
	}
	q := newQuery(artist, title)
	if q.artist == "" {
		return nil
	}

	var out []Candidate
	for _, key := range t.Keys() {
		if IsLowercase(key) {
			continue
		}
		candArtist, candTitle, ok := SplitKey(key)
		if !ok || normalize.Normalize(candArtist) != q.artist {
			continue
		}
		v, _ := t.Get(key)
		c := Candidate{
			Key:      key,
			Value:    v,
			Distance: levenshtein.ComputeDistance(q.title, normalize.Normalize(candTitle)),
		}
		if normalize.Length(q.core) >= MinCoreTitleLen {
			if rule, ok := q.accept(candTitle); ok {
				c.Rule = rule
			}
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
