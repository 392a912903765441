package merge

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/rsdtools/releaselink/internal/release"
)

// SortByArtist orders records by artist using the collation rules of tag.
// Records with equal artists keep their relative order.
func SortByArtist(records []release.Record, tag language.Tag) {
	c := collate.New(tag)
	sort.SliceStable(records, func(i, j int) bool {
		return c.CompareString(records[i].Artist, records[j].Artist) < 0
	})
}
