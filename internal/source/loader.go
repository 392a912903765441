// Package source loads already-parsed release batches from disk.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/rsdtools/releaselink/internal/release"
)

// Defaults fill fields a source parser left empty.
type Defaults struct {
	Label       string
	Format      string
	ReleaseDate string
}

// DefaultValues returns the defaults applied when none are configured.
func DefaultValues() Defaults {
	return Defaults{
		Label:  release.SentinelUnknown,
		Format: release.DefaultFormat,
	}
}

// Loader reads one source file of release records (JSONL, JSON array or Parquet)
type Loader struct {
	path     string
	defaults Defaults
}

// NewLoader creates a new loader for path
func NewLoader(path string, defaults Defaults) *Loader {
	return &Loader{
		path:     path,
		defaults: defaults,
	}
}

// Load reads every record in the file and applies the loader defaults
func (l *Loader) Load() ([]release.Record, error) {
	ext := strings.ToLower(filepath.Ext(l.path))

	var (
		records []release.Record
		err     error
	)
	switch ext {
	case ".parquet":
		records, err = l.loadParquet()
	case ".jsonl", ".ndjson", ".json":
		records, err = l.loadJSON()
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl, .json)", ext)
	}
	if err != nil {
		return nil, err
	}

	for i := range records {
		l.applyDefaults(&records[i])
	}
	return records, nil
}

func (l *Loader) applyDefaults(r *release.Record) {
	if r.Label == "" {
		r.Label = l.defaults.Label
	}
	if r.Format == "" {
		r.Format = l.defaults.Format
	}
	if r.ReleaseDate == "" {
		r.ReleaseDate = l.defaults.ReleaseDate
	}
	if status, ok := release.ParseReissueStatus(string(r.Reissue)); ok && status != release.ReissueUnknown {
		r.Reissue = status
	} else {
		r.Reissue = release.DetectReissue(r.Description, r.MoreInfo)
	}
}

// loadJSON reads either a JSON array or one JSON object per line. Lines that
// fail to parse are skipped.
func (l *Loader) loadJSON() ([]release.Record, error) {
	slog.Debug("opening JSON source", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	if first, err := peekNonSpace(reader); err == nil && first == '[' {
		var records []release.Record
		if err := json.NewDecoder(reader).Decode(&records); err != nil {
			return nil, fmt.Errorf("failed to parse JSON array: %w", err)
		}
		slog.Debug("finished reading JSON array", "path", l.path, "total_records", len(records))
		return records, nil
	}

	var records []release.Record
	scanner := bufio.NewScanner(reader)

	// Descriptions and tracklists can be long
	const maxCapacity = 10 * 1024 * 1024
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	malformed := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var record release.Record
		if err := json.Unmarshal(line, &record); err != nil {
			malformed++
			slog.Warn("skipping malformed line", "path", l.path, "line", lineNum, "err", err)
			continue
		}
		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading source: %w", err)
	}

	slog.Debug("finished reading JSONL source",
		"path", l.path,
		"total_records", len(records),
		"total_lines", lineNum,
		"malformed", malformed)

	return records, nil
}

func peekNonSpace(r *bufio.Reader) (byte, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if err := r.UnreadByte(); err != nil {
			return 0, err
		}
		return b, nil
	}
}

// loadParquet reads records in batches from a Parquet file
func (l *Loader) loadParquet() ([]release.Record, error) {
	slog.Debug("opening Parquet source", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("parquet file opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[release.Record](pf)
	defer reader.Close()

	var records []release.Record
	rows := make([]release.Record, 128)

	for {
		n, err := reader.Read(rows)
		if n > 0 {
			records = append(records, rows[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	slog.Debug("finished reading Parquet source", "path", l.path, "total_records", len(records))

	return records, nil
}
