package merge

import (
	"log/slog"

	"golang.org/x/text/language"
)

// Options selects the enrichment passes run by Catalog.
type Options struct {
	// Reference backfills genre and styles when non-empty.
	Reference ReferenceTable
	// InferGenres runs the keyword heuristic over records still lacking a genre.
	InferGenres bool
	// Rules overrides DefaultGenreRules.
	Rules []GenreRule
	// Locale controls artist collation. Defaults to English.
	Locale language.Tag
}

// Catalog is a merged, enriched and sorted release list.
type Catalog struct {
	Result
	Backfilled int
	Inferred   int
}

// Build merges batches in order, runs the enrichment passes and sorts the
// result by artist.
func Build(batches []Batch, opts Options) Catalog {
	m := NewMerger()
	for _, b := range batches {
		m.Add(b)
	}

	cat := Catalog{Result: m.Result()}

	if len(opts.Reference) > 0 {
		cat.Backfilled = BackfillGenres(cat.Records, opts.Reference)
		slog.Info("genre backfill", "filled", cat.Backfilled, "releases", len(cat.Records))
	}

	if opts.InferGenres {
		rules := opts.Rules
		if rules == nil {
			rules = DefaultGenreRules
		}
		cat.Inferred = InferGenres(cat.Records, rules)
		slog.Info("genre heuristic", "inferred", cat.Inferred)
	}

	locale := opts.Locale
	if locale == language.Und {
		locale = language.English
	}
	SortByArtist(cat.Records, locale)

	return cat
}
