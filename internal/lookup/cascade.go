package lookup

import (
	"strings"

	"github.com/rsdtools/releaselink/internal/normalize"
)

// Thresholds used by the fuzzy stages. They are empirical and kept tunable.
const (
	// MinCoreTitleLen is the shortest query core title that may be fuzzy matched.
	MinCoreTitleLen = 3
	// SharedWordMinLen is the shortest word whose presence in both titles counts as overlap.
	SharedWordMinLen = 4
	// OverlapMinLen is the length both titles need before prefix overlap is tried.
	OverlapMinLen = 10
	// OverlapPrefixLen is the length of the prefixes that must be identical.
	OverlapPrefixLen = 12
	// OverlapWindowLen is the length of the prefix windows checked for containment.
	OverlapWindowLen = 15
	// PrefixRuleMinCore is the minimum core title length for the prefix containment rules.
	PrefixRuleMinCore = 8
	// PrefixRuleLen is the number of core title characters searched for by the prefix containment rules.
	PrefixRuleLen = 18
)

// Rule names the stage or acceptance rule that produced a match.
type Rule string

const (
	RuleExact           Rule = "exact"
	RuleLowercase       Rule = "lowercase"
	RuleNormalizedTitle Rule = "normalized_title"
	RuleCoreTitle       Rule = "core_title"
	RuleTitleOverlap    Rule = "title_overlap"
	RuleQueryPrefix     Rule = "query_core_prefix"
	RuleCandidatePrefix Rule = "candidate_core_prefix"
)

// Fuzzy reports whether the rule came from the candidate scan.
func (r Rule) Fuzzy() bool {
	return r != RuleExact && r != RuleLowercase
}

// Match is a resolved lookup.
type Match struct {
	Key   string
	Value string
	Rule  Rule
}

// Lookup resolves (artist, title) against t and returns only the value.
func Lookup(t *Table, artist, title string) (string, bool) {
	m, ok := Resolve(t, artist, title)
	return m.Value, ok
}

// Resolve runs the match cascade: exact key, lowercased key, then a scan of the
// original (non-lowercase) keys in insertion order restricted to candidates
// whose normalized artist equals the query's. The first accepting candidate
// wins; candidates are never scored against each other.
func Resolve(t *Table, artist, title string) (Match, bool) {
	if t == nil || strings.TrimSpace(artist) == "" || strings.TrimSpace(title) == "" {
		return Match{}, false
	}

	k := BuildKey(artist, title)
	if v, ok := t.Get(k.Exact); ok {
		return Match{Key: k.Exact, Value: v, Rule: RuleExact}, true
	}
	if v, ok := t.Get(k.Lower); ok {
		return Match{Key: k.Lower, Value: v, Rule: RuleLowercase}, true
	}

	q := newQuery(artist, title)
	if q.artist == "" || normalize.Length(q.core) < MinCoreTitleLen {
		return Match{}, false
	}

	for _, key := range t.Keys() {
		if IsLowercase(key) {
			continue
		}
		candArtist, candTitle, ok := SplitKey(key)
		if !ok {
			continue
		}
		if normalize.Normalize(candArtist) != q.artist {
			continue
		}
		if rule, ok := q.accept(candTitle); ok {
			v, _ := t.Get(key)
			return Match{Key: key, Value: v, Rule: rule}, true
		}
	}
	return Match{}, false
}

type query struct {
	artist string
	title  string
	core   string
}

func newQuery(artist, title string) query {
	return query{
		artist: normalize.Normalize(artist),
		title:  normalize.Normalize(title),
		core:   normalize.CoreTitle(title),
	}
}

// accept applies the acceptance rules in order against a candidate title.
func (q query) accept(candTitle string) (Rule, bool) {
	candNorm := normalize.Normalize(candTitle)
	candCore := normalize.CoreTitle(candTitle)

	switch {
	case q.title == candNorm:
		return RuleNormalizedTitle, true
	case q.core == candCore:
		return RuleCoreTitle, true
	case TitleOverlap(q.core, candCore):
		return RuleTitleOverlap, true
	case normalize.Length(q.core) >= PrefixRuleMinCore &&
		strings.Contains(candNorm, normalize.Prefix(q.core, PrefixRuleLen)):
		return RuleQueryPrefix, true
	case normalize.Length(candCore) >= PrefixRuleMinCore &&
		strings.Contains(q.title, normalize.Prefix(candCore, PrefixRuleLen)):
		return RuleCandidatePrefix, true
	}
	return "", false
}

// TitleOverlap reports whether two core titles plausibly name the same release:
// one contains the other, they share a word of at least SharedWordMinLen
// characters, or (for titles of at least OverlapMinLen characters) their leading
// characters coincide.
func TitleOverlap(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b || strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	if sharesWord(a, b, SharedWordMinLen) {
		return true
	}

	if normalize.Length(a) < OverlapMinLen || normalize.Length(b) < OverlapMinLen {
		return false
	}
	if normalize.Prefix(a, OverlapPrefixLen) == normalize.Prefix(b, OverlapPrefixLen) {
		return true
	}
	wa := normalize.Prefix(a, OverlapWindowLen)
	wb := normalize.Prefix(b, OverlapWindowLen)
	return strings.Contains(wa, wb) || strings.Contains(wb, wa)
}

func sharesWord(a, b string, minLen int) bool {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(a) {
		if normalize.Length(w) >= minLen {
			words[w] = struct{}{}
		}
	}
	for _, w := range strings.Fields(b) {
		if _, ok := words[w]; ok {
			return true
		}
	}
	return false
}
