package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

// SaveYAML writes the report to path, creating parent directories.
func SaveYAML(r *Report, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// LoadYAML reads a report written by SaveYAML.
func LoadYAML(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &r, nil
}

// Render formats the report as tables followed by any warnings.
func Render(r *Report) string {
	var b strings.Builder

	b.WriteString(RenderTable(
		[]string{"Metric", "Value"},
		[][]string{
			{"Run", r.RunID},
			{"Releases", strconv.Itoa(r.Releases)},
			{"Skipped records", strconv.Itoa(r.Skipped)},
			{"With images", r.Images.String()},
			{"With external IDs", r.IDs.String()},
			{"With genre/style", r.Genres.String()},
			{"Genre backfill", strconv.Itoa(r.Enrichment.Backfilled)},
			{"Genre heuristic", strconv.Itoa(r.Enrichment.Inferred)},
			{"Genre LLM", strconv.Itoa(r.Enrichment.LLMClassified)},
			{"Image keys", strconv.Itoa(r.Tables.ImageKeys)},
			{"ID keys", strconv.Itoa(r.Tables.IDKeys)},
			{"Alias keys", strconv.Itoa(r.Tables.Aliases)},
			{"Conflicts", strconv.Itoa(len(r.Conflicts))},
		},
		[]text.Align{text.AlignLeft, text.AlignRight},
	))
	b.WriteString("\n")

	if len(r.Sources) > 0 {
		rows := make([][]string, 0, len(r.Sources))
		for _, s := range r.Sources {
			flag := ""
			if s.LowYield {
				flag = "LOW"
			}
			rows = append(rows, []string{
				s.Name,
				strconv.Itoa(s.Records),
				strconv.Itoa(s.New),
				strconv.Itoa(s.Merged),
				strconv.Itoa(s.Skipped),
				flag,
			})
		}
		b.WriteString(RenderTable(
			[]string{"Source", "Records", "New", "Merged", "Skipped", "Yield"},
			rows,
			[]text.Align{text.AlignLeft, text.AlignRight, text.AlignRight, text.AlignRight, text.AlignRight, text.AlignLeft},
		))
		b.WriteString("\n")
	}

	if len(r.Conflicts) > 0 {
		rows := make([][]string, 0, len(r.Conflicts))
		for _, c := range r.Conflicts {
			rows = append(rows, []string{
				c.Key,
				c.First.Source + ": " + describe(c.First.ImageURL, c.First.ExternalID),
				c.Second.Source + ": " + describe(c.Second.ImageURL, c.Second.ExternalID),
			})
		}
		b.WriteString(RenderTable([]string{"Conflict", "First", "Second"}, rows, nil))
		b.WriteString("\n")
	}

	for _, w := range r.Warnings {
		b.WriteString("WARNING: ")
		b.WriteString(w)
		b.WriteString("\n")
	}

	return b.String()
}

func describe(image, id string) string {
	return fmt.Sprintf("img=%s id=%s", orDash(image), orDash(id))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// RenderTable draws rows under headers with the rounded box style. Columns
// without an entry in aligns are left aligned.
func RenderTable(headers []string, rows [][]string, aligns []text.Align) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) {
			align = aligns[i]
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
