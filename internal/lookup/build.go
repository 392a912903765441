package lookup

import (
	"strings"

	"github.com/rsdtools/releaselink/internal/normalize"
	"github.com/rsdtools/releaselink/internal/release"
)

// Tables holds the two lookup tables derived from a merged catalog.
type Tables struct {
	Images *Table
	IDs    *Table
}

// BuildTables derives the image URL and external ID tables from records, in
// catalog order.
func BuildTables(records []release.Record) Tables {
	tables := Tables{Images: NewTable(), IDs: NewTable()}
	for _, r := range records {
		if !r.Valid() {
			continue
		}
		if r.ImageURL != "" {
			tables.Images.Insert(r.Artist, r.Title, r.ImageURL)
		}
		if r.ExternalID != "" {
			tables.IDs.Insert(r.Artist, r.Title, r.ExternalID)
		}
	}
	return tables
}

// AddAliases gives catalog records that have no entry in t a lowercase key
// pointing at the value of an existing entry by the same artist whose core title
// is equal, contained, or shares a long word. Candidates come from a snapshot of
// the original keys taken before any alias is added. Aliases are lowercase so
// the candidate scan never considers them. It returns the number of aliases
// added.
func AddAliases(t *Table, records []release.Record) int {
	candidates := make([]aliasCandidate, 0, t.Len())
	for _, key := range t.Keys() {
		if IsLowercase(key) {
			continue
		}
		artist, title, ok := SplitKey(key)
		if !ok {
			continue
		}
		candidates = append(candidates, aliasCandidate{
			key:    key,
			artist: normalize.Normalize(artist),
			core:   normalize.CoreTitle(title),
		})
	}

	added := 0
	for _, r := range records {
		if !r.Valid() {
			continue
		}
		k := BuildKey(r.Artist, r.Title)
		if _, ok := t.Get(k.Exact); ok {
			continue
		}
		if _, ok := t.Get(k.Lower); ok {
			continue
		}

		artist := normalize.Normalize(r.Artist)
		core := normalize.CoreTitle(r.Title)
		if artist == "" || core == "" {
			continue
		}

		for _, c := range candidates {
			if c.artist != artist || c.core == "" {
				continue
			}
			if core == c.core || strings.Contains(core, c.core) || strings.Contains(c.core, core) ||
				sharesWord(core, c.core, SharedWordMinLen) {
				v, _ := t.Get(c.key)
				if t.Set(k.Lower, v) {
					added++
				}
				break
			}
		}
	}
	return added
}

type aliasCandidate struct {
	key    string
	artist string
	core   string
}
