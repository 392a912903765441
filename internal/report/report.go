// Package report summarizes a catalog build: coverage, per-source yield and
// conflicts, with warnings when coverage or yield falls short.
package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rsdtools/releaselink/internal/merge"
	"github.com/rsdtools/releaselink/internal/release"
)

// DefaultCoverageWarning is the image/ID coverage percentage below which a warning is raised.
const DefaultCoverageWarning = 95

// Coverage counts how many releases carry a field.
type Coverage struct {
	Count   int     `yaml:"count" json:"count"`
	Total   int     `yaml:"total" json:"total"`
	Percent float64 `yaml:"percent" json:"percent"`
}

func newCoverage(count, total int) Coverage {
	c := Coverage{Count: count, Total: total}
	if total > 0 {
		c.Percent = float64(count) / float64(total) * 100
	}
	return c
}

// String formats coverage as "n/total (p%)".
func (c Coverage) String() string {
	return fmt.Sprintf("%d/%d (%.1f%%)", c.Count, c.Total, c.Percent)
}

// SourceYield describes how many records a source contributed.
type SourceYield struct {
	Name        string `yaml:"name" json:"name"`
	Records     int    `yaml:"records" json:"records"`
	New         int    `yaml:"new" json:"new"`
	Merged      int    `yaml:"merged" json:"merged"`
	Skipped     int    `yaml:"skipped" json:"skipped"`
	ExpectedMin int    `yaml:"expected_min,omitempty" json:"expected_min,omitempty"`
	LowYield    bool   `yaml:"low_yield" json:"low_yield"`
}

// Enrichment counts records changed by each enrichment pass.
type Enrichment struct {
	Backfilled    int `yaml:"backfilled" json:"backfilled"`
	Inferred      int `yaml:"inferred" json:"inferred"`
	LLMClassified int `yaml:"llm_classified" json:"llm_classified"`
}

// Tables counts entries in the lookup tables.
type Tables struct {
	ImageKeys int `yaml:"image_keys" json:"image_keys"`
	IDKeys    int `yaml:"id_keys" json:"id_keys"`
	Aliases   int `yaml:"aliases" json:"aliases"`
}

// Report is the validation summary of one build.
type Report struct {
	RunID       string           `yaml:"run_id" json:"run_id"`
	GeneratedAt time.Time        `yaml:"generated_at" json:"generated_at"`
	Releases    int              `yaml:"releases" json:"releases"`
	Skipped     int              `yaml:"skipped" json:"skipped"`
	Images      Coverage         `yaml:"images" json:"images"`
	IDs         Coverage         `yaml:"ids" json:"ids"`
	Genres      Coverage         `yaml:"genres" json:"genres"`
	Enrichment  Enrichment       `yaml:"enrichment" json:"enrichment"`
	Tables      Tables           `yaml:"tables" json:"tables"`
	Sources     []SourceYield    `yaml:"sources,omitempty" json:"sources,omitempty"`
	Conflicts   []merge.Conflict `yaml:"conflicts,omitempty" json:"conflicts,omitempty"`
	Warnings    []string         `yaml:"warnings,omitempty" json:"warnings,omitempty"`
}

// Input gathers everything a report is computed from.
type Input struct {
	RunID           string
	Records         []release.Record
	Sources         []merge.SourceStats
	ExpectedMin     map[string]int
	Conflicts       []merge.Conflict
	Skipped         int
	Enrichment      Enrichment
	Tables          Tables
	CoverageWarning int
	MinImageEntries int
}

// NewRunID returns a fresh build identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Generate computes the summary and its warnings.
func Generate(in Input) *Report {
	runID := in.RunID
	if runID == "" {
		runID = NewRunID()
	}

	total := len(in.Records)
	var withImages, withIDs, withGenre int
	for _, r := range in.Records {
		if r.ImageURL != "" {
			withImages++
		}
		if r.ExternalID != "" {
			withIDs++
		}
		if r.HasClassification() {
			withGenre++
		}
	}

	rep := &Report{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Releases:    total,
		Skipped:     in.Skipped,
		Images:      newCoverage(withImages, total),
		IDs:         newCoverage(withIDs, total),
		Genres:      newCoverage(withGenre, total),
		Enrichment:  in.Enrichment,
		Tables:      in.Tables,
		Conflicts:   in.Conflicts,
	}

	for _, s := range in.Sources {
		y := SourceYield{
			Name:        s.Name,
			Records:     s.Records,
			New:         s.New,
			Merged:      s.Merged,
			Skipped:     s.Skipped,
			ExpectedMin: in.ExpectedMin[s.Name],
		}
		if y.ExpectedMin > 0 && s.Records < y.ExpectedMin {
			y.LowYield = true
			rep.Warnings = append(rep.Warnings,
				fmt.Sprintf("source %s yielded %d records, expected at least %d", s.Name, s.Records, y.ExpectedMin))
		}
		rep.Sources = append(rep.Sources, y)
	}

	threshold := in.CoverageWarning
	if threshold <= 0 {
		threshold = DefaultCoverageWarning
	}
	if total > 0 {
		if rep.Images.Percent < float64(threshold) {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("less than %d%% of releases have images", threshold))
		}
		if rep.IDs.Percent < float64(threshold) {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("less than %d%% of releases have external IDs", threshold))
		}
	}
	if in.MinImageEntries > 0 && in.Tables.ImageKeys < in.MinImageEntries {
		rep.Warnings = append(rep.Warnings,
			fmt.Sprintf("only %d image entries, expected at least %d", in.Tables.ImageKeys, in.MinImageEntries))
	}
	if len(in.Conflicts) > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d releases have conflicting image URLs or IDs", len(in.Conflicts)))
	}

	return rep
}
