package buildcmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/rsdtools/releaselink/internal/classify"
	"github.com/rsdtools/releaselink/internal/config"
	"github.com/rsdtools/releaselink/internal/lookup"
	"github.com/rsdtools/releaselink/internal/merge"
	"github.com/rsdtools/releaselink/internal/providers"
	"github.com/rsdtools/releaselink/internal/release"
	"github.com/rsdtools/releaselink/internal/report"
	"github.com/rsdtools/releaselink/internal/source"
	"github.com/rsdtools/releaselink/internal/store"

	_ "github.com/rsdtools/releaselink/internal/gemini"
	_ "github.com/rsdtools/releaselink/internal/ollama"
	_ "github.com/rsdtools/releaselink/internal/openai"
)

// ErrEmptyImageTable is returned when a build would replace a catalog with one
// that has no image entries.
var ErrEmptyImageTable = errors.New("merged image table is empty")

type buildOptions struct {
	dryRun  bool
	noLLM   bool
	force   bool
	dbPath  string
	rptPath string
}

// NewBuildCmd creates the build command
func NewBuildCmd(env *Env) *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Merge source batches into the release catalog",
		Long: `Loads every configured source batch, merges them in priority order,
runs the genre enrichment passes and writes the catalog and its lookup
tables to SQLite together with a YAML validation report.`,
		Example: `  # Build with releaselink.toml in the current directory
  releaselink build

  # Preview the report without touching the database
  releaselink build --dry-run --no-llm`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.config()
			if err != nil {
				return err
			}
			_, err = executeBuild(cmd.Context(), cfg, opts, cmd.OutOrStdout())
			return err
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Build and report without writing the database or report file")
	cmd.Flags().BoolVar(&opts.noLLM, "no-llm", false, "Skip the LLM genre pass even when enabled in config")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Write the catalog even when the image table is empty")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "Database path (overrides output.database)")
	cmd.Flags().StringVar(&opts.rptPath, "report", "", "Report path (overrides output.report)")

	return cmd
}

func executeBuild(ctx context.Context, cfg *config.Config, opts buildOptions, out io.Writer) (*report.Report, error) {
	if err := cfg.RequireSources(); err != nil {
		return nil, err
	}

	files := make([]source.File, 0, len(cfg.Sources))
	expected := make(map[string]int, len(cfg.Sources))
	for _, s := range cfg.Sources {
		files = append(files, source.File{Name: s.Name, Path: s.Path, ExpectedMin: s.ExpectedMin})
		expected[s.Name] = s.ExpectedMin
	}

	defaults := source.Defaults{
		Label:       cfg.Defaults.Label,
		Format:      cfg.Defaults.Format,
		ReleaseDate: cfg.Defaults.ReleaseDate,
	}
	batches, err := source.LoadAll(ctx, files, defaults, cfg.Build.MaxParallel)
	if err != nil {
		return nil, err
	}

	var ref merge.ReferenceTable
	if cfg.Enrich.ReferenceCSV != "" {
		ref, err = source.LoadReference(cfg.Enrich.ReferenceCSV)
		if err != nil {
			return nil, err
		}
		slog.Info("loaded genre reference", "path", cfg.Enrich.ReferenceCSV, "rows", len(ref))
	}

	cat := merge.Build(batches, merge.Options{
		Reference:   ref,
		InferGenres: cfg.Enrich.InferGenres,
		Locale:      cfg.LocaleTag(),
	})
	slog.Info("merged sources", "releases", len(cat.Records), "skipped", cat.Skipped, "conflicts", len(cat.Conflicts))

	enrichment := report.Enrichment{Backfilled: cat.Backfilled, Inferred: cat.Inferred}
	if cfg.Enrich.LLM && !opts.noLLM {
		stats, err := classifyGenres(ctx, cfg, cat.Records)
		if err != nil {
			return nil, err
		}
		enrichment.LLMClassified = stats.Classified
	}

	tables := lookup.BuildTables(cat.Records)
	aliases := 0
	if cfg.Build.Aliases {
		aliases = lookup.AddAliases(tables.Images, cat.Records) + lookup.AddAliases(tables.IDs, cat.Records)
		slog.Info("added alias keys", "aliases", aliases)
	}

	rep := report.Generate(report.Input{
		Records:     cat.Records,
		Sources:     cat.Sources,
		ExpectedMin: expected,
		Conflicts:   cat.Conflicts,
		Skipped:     cat.Skipped,
		Enrichment:  enrichment,
		Tables: report.Tables{
			ImageKeys: tables.Images.Len(),
			IDKeys:    tables.IDs.Len(),
			Aliases:   aliases,
		},
		CoverageWarning: cfg.Build.CoverageWarning,
		MinImageEntries: cfg.Build.MinImageEntries,
	})
	for _, w := range rep.Warnings {
		slog.Warn(w)
	}

	if !opts.dryRun {
		dbPath := firstNonEmpty(opts.dbPath, cfg.Output.Database)
		if err := saveCatalog(ctx, dbPath, rep, cat.Records, tables, opts.force); err != nil {
			return rep, err
		}

		rptPath := firstNonEmpty(opts.rptPath, cfg.Output.Report)
		if rptPath != "" {
			if err := report.SaveYAML(rep, rptPath); err != nil {
				return rep, err
			}
			slog.Info("wrote report", "path", rptPath)
		}
	}

	if _, err := io.WriteString(out, report.Render(rep)); err != nil {
		return rep, fmt.Errorf("write summary: %w", err)
	}
	return rep, nil
}

func classifyGenres(ctx context.Context, cfg *config.Config, records []release.Record) (classify.Stats, error) {
	provider, err := providers.New(cfg.LLM.Provider, time.Duration(cfg.LLM.TimeoutSeconds)*time.Second)
	if err != nil {
		return classify.Stats{}, err
	}
	c := &classify.Classifier{
		Provider:    provider,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Allowed:     cfg.Enrich.AllowedGenres,
		Limit:       cfg.Enrich.LLMLimit,
	}
	return c.Run(ctx, records)
}

// saveCatalog writes the build. A build with no image entries never replaces
// an existing catalog unless force is set.
func saveCatalog(ctx context.Context, path string, rep *report.Report, records []release.Record, tables lookup.Tables, force bool) error {
	st, err := store.Open(ctx, path)
	if err != nil {
		return err
	}
	defer st.Close()

	if tables.Images.Len() == 0 && !force {
		prev, err := st.LatestBuild(ctx)
		switch {
		case err == nil:
			return fmt.Errorf("refusing to replace build %s in %s: %w", prev.ID, path, ErrEmptyImageTable)
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
	}

	b := store.Build{ID: rep.RunID, CreatedAt: rep.GeneratedAt, Conflicts: len(rep.Conflicts)}
	if err := st.Save(ctx, b, records, tables); err != nil {
		return err
	}
	slog.Info("saved catalog", "path", path, "build", rep.RunID, "releases", len(records))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
