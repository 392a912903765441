package source

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/rsdtools/releaselink/internal/merge"
)

// File names one source file and where it sits in merge priority.
type File struct {
	Name string
	Path string
	// ExpectedMin is the record count below which the source is reported as low-yield.
	ExpectedMin int
}

// LoadAll reads every source concurrently and returns the batches in the order
// of files, which is the merge priority order. At most limit files are read at
// once; limit <= 0 means no limit.
func LoadAll(ctx context.Context, files []File, defaults Defaults, limit int) ([]merge.Batch, error) {
	batches := make([]merge.Batch, len(files))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			records, err := NewLoader(f.Path, defaults).Load()
			if err != nil {
				return fmt.Errorf("load source %q: %w", f.Name, err)
			}
			slog.Info("loaded source", "source", f.Name, "path", f.Path, "records", len(records))
			batches[i] = merge.Batch{Source: f.Name, Records: records}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return batches, nil
}
