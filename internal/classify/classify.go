// Package classify asks an LLM for the genre of releases that still have none
// after the reference backfill and keyword heuristic.
package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rsdtools/releaselink/internal/providers"
	"github.com/rsdtools/releaselink/internal/release"
)

const promptTemplate = `Classify the music release below into exactly one genre.
Answer with one genre from this list and nothing else: %s.
If none fits, answer "Unknown".

Artist: %s
Title: %s
Label: %s
Description: %s`

// Classifier assigns genres using a provider, accepting only answers from Allowed.
type Classifier struct {
	Provider    providers.Provider
	Model       string
	Temperature float64
	Allowed     []string
	// Limit caps provider calls per run. Zero means unlimited.
	Limit int
}

// Stats counts the outcome of a classification pass.
type Stats struct {
	Requested  int
	Classified int
	Rejected   int
	Failed     int
}

// Prompt returns the text sent for r.
func (c *Classifier) Prompt(r release.Record) string {
	return fmt.Sprintf(promptTemplate,
		strings.Join(c.Allowed, ", "), r.Artist, r.Title, r.Label, r.Description)
}

// Accept maps a raw model answer onto the allowed list, ignoring case,
// surrounding quotes and trailing punctuation.
func (c *Classifier) Accept(answer string) (string, bool) {
	a := strings.TrimSpace(answer)
	if i := strings.IndexByte(a, '\n'); i >= 0 {
		a = strings.TrimSpace(a[:i])
	}
	a = strings.Trim(a, "\"'`*.")
	a = strings.TrimSpace(a)
	for _, g := range c.Allowed {
		if strings.EqualFold(a, g) {
			return g, true
		}
	}
	return "", false
}

// Run classifies records lacking genre and styles in place. Provider errors
// are logged and skipped; a cancelled context stops the pass and is returned.
func (c *Classifier) Run(ctx context.Context, records []release.Record) (Stats, error) {
	var stats Stats
	if c.Provider == nil {
		return stats, errors.New("classifier has no provider")
	}

	for i := range records {
		r := &records[i]
		if r.HasClassification() {
			continue
		}
		if c.Limit > 0 && stats.Requested >= c.Limit {
			slog.Info("llm classification limit reached", "limit", c.Limit)
			break
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		stats.Requested++
		answer, err := c.Provider.Complete(ctx, providers.Request{
			Model:       c.Model,
			Temperature: c.Temperature,
			Prompt:      c.Prompt(*r),
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return stats, ctxErr
			}
			stats.Failed++
			slog.Warn("llm classification failed", "provider", c.Provider.Name(), "key", r.Key(), "err", err)
			continue
		}

		genre, ok := c.Accept(answer)
		if !ok {
			stats.Rejected++
			slog.Debug("llm answer rejected", "key", r.Key(), "answer", answer)
			continue
		}
		r.Genre = genre
		stats.Classified++
	}

	slog.Info("llm classification",
		"provider", c.Provider.Name(),
		"requested", stats.Requested,
		"classified", stats.Classified,
		"rejected", stats.Rejected,
		"failed", stats.Failed)
	return stats, nil
}
