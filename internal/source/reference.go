package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rsdtools/releaselink/internal/merge"
	"github.com/rsdtools/releaselink/internal/release"
)

// Reference CSV column headers.
const (
	ColumnArtist = "Artist"
	ColumnTitle  = "Title"
	ColumnGenre  = "Genre 1"
	ColumnStyle1 = "Style 1"
	ColumnStyle2 = "Style 2"
)

// ErrMissingColumns is returned when the reference header lacks a required column.
var ErrMissingColumns = errors.New("reference csv is missing required columns")

// LoadReference reads a genre/style reference table from a CSV file with
// Artist, Title, Genre 1, Style 1 and Style 2 columns. Short rows and rows
// without artist or title are skipped.
func LoadReference(path string) (merge.ReferenceTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference file: %w", err)
	}
	defer file.Close()

	return ReadReference(file)
}

// ReadReference parses reference CSV data from r.
func ReadReference(r io.Reader) (merge.ReferenceTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return merge.ReferenceTable{}, nil
		}
		return nil, fmt.Errorf("failed to read reference header: %w", err)
	}

	idx := map[string]int{}
	for i, col := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))] = i
	}

	required := []string{ColumnArtist, ColumnTitle, ColumnGenre, ColumnStyle1, ColumnStyle2}
	maxCol := 0
	var missing []string
	for _, col := range required {
		i, ok := idx[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		maxCol = max(maxCol, i)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	table := merge.ReferenceTable{}
	skipped := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read reference row: %w", err)
		}
		if len(row) <= maxCol {
			skipped++
			continue
		}

		artist := strings.TrimSpace(row[idx[ColumnArtist]])
		title := strings.TrimSpace(row[idx[ColumnTitle]])
		if artist == "" || title == "" {
			skipped++
			continue
		}
		table.Add(artist, title, release.GenreFields{
			Genre:  strings.TrimSpace(row[idx[ColumnGenre]]),
			Style1: strings.TrimSpace(row[idx[ColumnStyle1]]),
			Style2: strings.TrimSpace(row[idx[ColumnStyle2]]),
		})
	}

	slog.Debug("loaded reference table", "rows", len(table), "skipped", skipped)
	return table, nil
}
