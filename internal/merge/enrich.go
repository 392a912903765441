package merge

import (
	"regexp"
	"strings"

	"github.com/rsdtools/releaselink/internal/lookup"
	"github.com/rsdtools/releaselink/internal/release"
)

// ReferenceTable maps the lowercased composite key of a release to the genre and
// styles an external catalog assigns it.
type ReferenceTable map[string]release.GenreFields

// ReferenceKey returns the key used to index a ReferenceTable.
func ReferenceKey(artist, title string) string {
	return lookup.BuildKey(artist, title).Lower
}

// Add stores fields for (artist, title). Later rows for the same key replace earlier ones.
func (t ReferenceTable) Add(artist, title string, fields release.GenreFields) {
	t[ReferenceKey(artist, title)] = fields
}

// BackfillGenres copies genre and styles from ref into records that have none
// of them. Rows with no values are ignored. It returns the number of records filled.
func BackfillGenres(records []release.Record, ref ReferenceTable) int {
	if len(ref) == 0 {
		return 0
	}
	filled := 0
	for i := range records {
		r := &records[i]
		if r.HasClassification() {
			continue
		}
		row, ok := ref[ReferenceKey(r.Artist, r.Title)]
		if !ok || row.Empty() {
			continue
		}
		r.Genre = row.Genre
		r.Style1 = row.Style1
		r.Style2 = row.Style2
		filled++
	}
	return filled
}

// GenreRule assigns Genre when Match accepts the lowercased description and label.
type GenreRule struct {
	Genre string
	Match func(description, label string) bool
}

func descOrLabel(desc, label string) func(string, string) bool {
	d := regexp.MustCompile(desc)
	var l *regexp.Regexp
	if label != "" {
		l = regexp.MustCompile(label)
	}
	return func(description, lbl string) bool {
		return d.MatchString(description) || (l != nil && l.MatchString(lbl))
	}
}

// DefaultGenreRules is evaluated top to bottom; the first matching rule wins.
var DefaultGenreRules = []GenreRule{
	{"Reggae", descOrLabel(`reggae|dub\b`, `real rock|trojan|vp records`)},
	{"Jazz", descOrLabel(`jazz`, `blue note|impulse!|verve`)},
	{"Metal", descOrLabel(`metal`, `metal blade|nuclear blast`)},
	{"Punk", descOrLabel(`punk`, "")},
	{"Hip Hop", descOrLabel(`hip[- ]?hop|\brap\b`, "")},
	{"Soul/Funk", descOrLabel(`soul|r&b|rnb|funk`, "")},
	{"Electronic", descOrLabel(`electronic|house|techno|synth`, "")},
	{"Soundtrack", descOrLabel(`soundtrack|original score`, "")},
	{"Country", descOrLabel(`country`, "")},
	{"Pop", descOrLabel(`pop\b`, "")},
	{"Rock", descOrLabel(`rock`, "")},
}

// InferGenre returns the genre of the first rule that matches r, or "" when the
// record has neither description nor label or no rule matches.
func InferGenre(r release.Record, rules []GenreRule) string {
	desc := strings.ToLower(r.Description)
	label := strings.ToLower(r.Label)
	if desc == "" && label == "" {
		return ""
	}
	for _, rule := range rules {
		if rule.Match(desc, label) {
			return rule.Genre
		}
	}
	return ""
}

// InferGenres sets the genre of every record still lacking one. It returns the
// number of records assigned a genre.
func InferGenres(records []release.Record, rules []GenreRule) int {
	inferred := 0
	for i := range records {
		if records[i].Genre != "" {
			continue
		}
		if g := InferGenre(records[i], rules); g != "" {
			records[i].Genre = g
			inferred++
		}
	}
	return inferred
}
