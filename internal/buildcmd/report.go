package buildcmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rsdtools/releaselink/internal/config"
	"github.com/rsdtools/releaselink/internal/merge"
	"github.com/rsdtools/releaselink/internal/report"
	"github.com/rsdtools/releaselink/internal/store"
)

// NewReportCmd creates the report command
func NewReportCmd(env *Env) *cobra.Command {
	var dbPath string
	var format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the validation summary of the saved catalog",
		Long: `Recomputes coverage and table statistics from the saved catalog. Per-source
yields and conflict details come from the YAML report written by the last build
when it is present.`,
		Example: `  releaselink report
  releaselink report --format yaml --db ./catalog.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.config()
			if err != nil {
				return err
			}
			return executeReport(cmd.Context(), cfg, firstNonEmpty(dbPath, cfg.Output.Database), format, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Database path (overrides output.database)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format (table, yaml or json)")

	return cmd
}

func executeReport(ctx context.Context, cfg *config.Config, dbPath, format string, out io.Writer) error {
	st, err := store.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	build, err := st.LatestBuild(ctx)
	if err != nil {
		return err
	}
	records, err := st.LoadReleases(ctx)
	if err != nil {
		return err
	}

	in := report.Input{
		RunID:   build.ID,
		Records: records,
		Tables: report.Tables{
			ImageKeys: build.ImageKeys,
			IDKeys:    build.IDKeys,
		},
		CoverageWarning: cfg.Build.CoverageWarning,
		MinImageEntries: cfg.Build.MinImageEntries,
	}

	// The saved YAML report carries what the database does not.
	if cfg.Output.Report != "" {
		if prev, err := report.LoadYAML(cfg.Output.Report); err == nil && prev.RunID == build.ID {
			in.Conflicts = prev.Conflicts
			in.Skipped = prev.Skipped
			in.Enrichment = prev.Enrichment
			in.Tables.Aliases = prev.Tables.Aliases
			in.ExpectedMin = make(map[string]int, len(prev.Sources))
			for _, s := range prev.Sources {
				in.Sources = append(in.Sources, sourceStats(s))
				in.ExpectedMin[s.Name] = s.ExpectedMin
			}
		}
	}

	rep := report.Generate(in)
	rep.GeneratedAt = build.CreatedAt

	switch format {
	case "table":
		_, err = io.WriteString(out, report.Render(rep))
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		err = enc.Encode(rep)
		if err == nil {
			err = enc.Close()
		}
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(rep)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	return err
}

func sourceStats(y report.SourceYield) merge.SourceStats {
	return merge.SourceStats{Name: y.Name, Records: y.Records, New: y.New, Merged: y.Merged, Skipped: y.Skipped}
}
