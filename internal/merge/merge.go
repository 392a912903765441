// Package merge combines per-source record batches into one deduplicated
// catalog and applies the optional genre enrichment passes.
package merge

import (
	"log/slog"
	"unicode/utf8"

	"github.com/rsdtools/releaselink/internal/release"
)

// Batch is the output of one source parser.
type Batch struct {
	Source  string
	Records []release.Record
}

// Sighting is one appearance of a dedup key in a source batch.
type Sighting struct {
	Source     string `json:"source" yaml:"source"`
	ImageURL   string `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	ExternalID string `json:"external_id,omitempty" yaml:"external_id,omitempty"`
}

// Conflict reports two sightings of the same dedup key that disagree on the
// image URL or external ID. The merged record is not affected.
type Conflict struct {
	Key    string   `json:"key" yaml:"key"`
	First  Sighting `json:"first" yaml:"first"`
	Second Sighting `json:"second" yaml:"second"`
}

// SourceStats counts what happened to each source's records.
type SourceStats struct {
	Name    string `json:"name" yaml:"name"`
	Records int    `json:"records" yaml:"records"`
	New     int    `json:"new" yaml:"new"`
	Merged  int    `json:"merged" yaml:"merged"`
	Skipped int    `json:"skipped" yaml:"skipped"`
}

// Result is the merged catalog plus diagnostics.
type Result struct {
	Records   []release.Record
	Conflicts []Conflict
	Sources   []SourceStats
	Skipped   int
}

// Merger accumulates batches in priority order. It is not safe for concurrent use.
type Merger struct {
	records   []release.Record
	index     map[string]int
	sightings map[string][]Sighting
	sources   []SourceStats
	skipped   int
}

// NewMerger returns an empty merger.
func NewMerger() *Merger {
	return &Merger{
		index:     make(map[string]int),
		sightings: make(map[string][]Sighting),
	}
}

// Add merges a batch. Batches must be added in priority order: the first
// sighting of a dedup key creates the canonical record and later sightings only
// fill fields according to the merge policy.
func (m *Merger) Add(b Batch) {
	stats := SourceStats{Name: b.Source, Records: len(b.Records)}

	for _, r := range b.Records {
		if !r.Valid() {
			stats.Skipped++
			continue
		}

		key := r.Key()
		m.sightings[key] = append(m.sightings[key], Sighting{
			Source:     b.Source,
			ImageURL:   r.ImageURL,
			ExternalID: r.ExternalID,
		})

		if i, ok := m.index[key]; ok {
			mergeInto(&m.records[i], r)
			stats.Merged++
			continue
		}

		m.index[key] = len(m.records)
		m.records = append(m.records, r)
		stats.New++
	}

	m.skipped += stats.Skipped
	m.sources = append(m.sources, stats)

	slog.Debug("merged source batch",
		"source", b.Source,
		"records", stats.Records,
		"new", stats.New,
		"merged", stats.Merged,
		"skipped", stats.Skipped)
}

// mergeInto applies the field policy for a later sighting of dst's key.
// Description length is measured in characters.
// Format, release date, reissue status, genre and styles keep their first value.
func mergeInto(dst *release.Record, src release.Record) {
	if dst.ImageURL == "" {
		dst.ImageURL = src.ImageURL
	}
	if dst.ExternalID == "" {
		dst.ExternalID = src.ExternalID
	}
	if src.Description != "" && (dst.Description == "" || utf8.RuneCountInString(src.Description) > utf8.RuneCountInString(dst.Description)) {
		dst.Description = src.Description
	}
	if dst.MoreInfo == "" {
		dst.MoreInfo = src.MoreInfo
	}
	if dst.Tracklist == "" {
		dst.Tracklist = src.Tracklist
	}
	if dst.ReleaseType == "" {
		dst.ReleaseType = src.ReleaseType
	}
	if dst.PressingQuantity == "" {
		dst.PressingQuantity = src.PressingQuantity
	}
	if dst.Label == release.SentinelUnknown && src.Label != "" {
		dst.Label = src.Label
	}
}

// Result returns a copy of the merged records in first-sighting order along
// with the conflicts found across all sightings.
func (m *Merger) Result() Result {
	records := make([]release.Record, len(m.records))
	copy(records, m.records)

	sources := make([]SourceStats, len(m.sources))
	copy(sources, m.sources)

	return Result{
		Records:   records,
		Conflicts: m.conflicts(),
		Sources:   sources,
		Skipped:   m.skipped,
	}
}

// conflicts reports at most one conflict per dedup key, in catalog order.
func (m *Merger) conflicts() []Conflict {
	var out []Conflict
	for _, r := range m.records {
		key := r.Key()
		if c, ok := findConflict(key, m.sightings[key]); ok {
			out = append(out, c)
		}
	}
	return out
}

func findConflict(key string, sightings []Sighting) (Conflict, bool) {
	for i := 0; i < len(sightings); i++ {
		for j := i + 1; j < len(sightings); j++ {
			if disagree(sightings[i].ImageURL, sightings[j].ImageURL) ||
				disagree(sightings[i].ExternalID, sightings[j].ExternalID) {
				return Conflict{Key: key, First: sightings[i], Second: sightings[j]}, true
			}
		}
	}
	return Conflict{}, false
}

func disagree(a, b string) bool {
	return a != "" && b != "" && a != b
}
