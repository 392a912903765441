package release

import "strings"

// SentinelUnknown stands in for a label the source did not provide.
const SentinelUnknown = "Unknown"

// DefaultFormat is assumed when a source omits the physical format.
const DefaultFormat = "LP"

// ReissueStatus reports whether a release is a reissue of earlier material.
type ReissueStatus string

const (
	ReissueYes     ReissueStatus = "Yes"
	ReissueNo      ReissueStatus = "No"
	ReissueUnknown ReissueStatus = "Unknown"
)

// Record represents a single catalog entry for a music release as emitted by a source parser
type Record struct {
	// Identity (the exact-case pair is the dedup key)
	Artist string `json:"artist" yaml:"artist" parquet:"artist"`
	Title  string `json:"title" yaml:"title" parquet:"title"`

	// Descriptive metadata
	Label            string        `json:"label" yaml:"label" parquet:"label,optional"`
	Format           string        `json:"format" yaml:"format" parquet:"format,optional"`
	Description      string        `json:"description" yaml:"description,omitempty" parquet:"description,optional"`
	MoreInfo         string        `json:"more_info" yaml:"more_info,omitempty" parquet:"more_info,optional"`
	Tracklist        string        `json:"tracklist" yaml:"tracklist,omitempty" parquet:"tracklist,optional"`
	ReleaseType      string        `json:"release_type" yaml:"release_type,omitempty" parquet:"release_type,optional"`
	PressingQuantity string        `json:"pressing_quantity" yaml:"pressing_quantity,omitempty" parquet:"pressing_quantity,optional"`
	ReleaseDate      string        `json:"release_date" yaml:"release_date,omitempty" parquet:"release_date,optional"`
	Reissue          ReissueStatus `json:"is_reissue" yaml:"is_reissue,omitempty" parquet:"is_reissue,optional"`

	// Classification
	Genre  string `json:"genre" yaml:"genre,omitempty" parquet:"genre,optional"`
	Style1 string `json:"style1" yaml:"style1,omitempty" parquet:"style1,optional"`
	Style2 string `json:"style2" yaml:"style2,omitempty" parquet:"style2,optional"`

	// Linked identifiers
	ExternalID string `json:"external_id,omitempty" yaml:"external_id,omitempty" parquet:"external_id,optional"`
	ImageURL   string `json:"image_url,omitempty" yaml:"image_url,omitempty" parquet:"image_url,optional"`
}

// Key returns the exact-case dedup key "Artist|Title" with surrounding whitespace trimmed.
func (r Record) Key() string {
	return strings.TrimSpace(r.Artist) + "|" + strings.TrimSpace(r.Title)
}

// Valid reports whether the record carries both halves of its key.
func (r Record) Valid() bool {
	return strings.TrimSpace(r.Artist) != "" && strings.TrimSpace(r.Title) != ""
}

// HasClassification reports whether any of genre, style1 or style2 is set.
func (r Record) HasClassification() bool {
	return r.Genre != "" || r.Style1 != "" || r.Style2 != ""
}

// GenreFields holds the genre and style values supplied by a reference table.
type GenreFields struct {
	Genre  string `json:"genre" yaml:"genre"`
	Style1 string `json:"style1" yaml:"style1"`
	Style2 string `json:"style2" yaml:"style2"`
}

// Empty reports whether none of the fields are set.
func (g GenreFields) Empty() bool {
	return g.Genre == "" && g.Style1 == "" && g.Style2 == ""
}
