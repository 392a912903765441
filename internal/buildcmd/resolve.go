package buildcmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rsdtools/releaselink/internal/lookup"
	"github.com/rsdtools/releaselink/internal/report"
	"github.com/rsdtools/releaselink/internal/store"
)

// ErrNoMatch is returned by resolve when no table yields a value.
var ErrNoMatch = errors.New("no match")

type resolveOptions struct {
	artist  string
	title   string
	table   string
	explain bool
	limit   int
	dbPath  string
}

// NewResolveCmd creates the resolve command
func NewResolveCmd(env *Env) *cobra.Command {
	var opts resolveOptions

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Look up the image URL and external ID for a release",
		Long: `Runs the match cascade (exact key, lowercased key, then same-artist
candidate scan) against the lookup tables of the saved catalog.`,
		Example: `  releaselink resolve --artist "Radiohead" --title "OK Computer (Deluxe Edition)"

  # Show the nearest candidates and the rule each one satisfies
  releaselink resolve --artist "Radiohead" --title "Kid B" --table image --explain`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.artist == "" || opts.title == "" {
				return fmt.Errorf("--artist and --title are required")
			}
			switch opts.table {
			case "image", "id", "both":
			default:
				return fmt.Errorf("--table must be image, id or both, got %q", opts.table)
			}
			cfg, err := env.config()
			if err != nil {
				return err
			}
			return executeResolve(cmd.Context(), firstNonEmpty(opts.dbPath, cfg.Output.Database), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.artist, "artist", "", "Artist name")
	cmd.Flags().StringVar(&opts.title, "title", "", "Release title")
	cmd.Flags().StringVar(&opts.table, "table", "both", "Table to query (image, id or both)")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "List the nearest same-artist candidates")
	cmd.Flags().IntVar(&opts.limit, "limit", 10, "Number of candidates shown with --explain")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "Database path (overrides output.database)")

	return cmd
}

func executeResolve(ctx context.Context, dbPath string, opts resolveOptions, out io.Writer) error {
	st, err := store.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	tables, err := st.LoadTables(ctx)
	if err != nil {
		return err
	}
	return resolveTables(tables, opts, out)
}

func resolveTables(tables lookup.Tables, opts resolveOptions, out io.Writer) error {
	type named struct {
		name  string
		table *lookup.Table
	}
	var selected []named
	if opts.table == "image" || opts.table == "both" {
		selected = append(selected, named{"image", tables.Images})
	}
	if opts.table == "id" || opts.table == "both" {
		selected = append(selected, named{"id", tables.IDs})
	}

	rows := make([][]string, 0, len(selected))
	found := false
	for _, s := range selected {
		m, ok := lookup.Resolve(s.table, opts.artist, opts.title)
		if !ok {
			rows = append(rows, []string{s.name, "-", "-", "no match", "-"})
			continue
		}
		found = true
		stage := "exact"
		if m.Rule.Fuzzy() {
			stage = "fuzzy"
		}
		rows = append(rows, []string{s.name, m.Value, m.Key, string(m.Rule), stage})
	}
	fmt.Fprint(out, report.RenderTable([]string{"Table", "Value", "Key", "Rule", "Stage"}, rows, nil))
	fmt.Fprintln(out)

	if opts.explain {
		for _, s := range selected {
			candidates := lookup.Explain(s.table, opts.artist, opts.title, opts.limit)
			crow := make([][]string, 0, len(candidates))
			for _, c := range candidates {
				rule := string(c.Rule)
				if rule == "" {
					rule = "-"
				}
				crow = append(crow, []string{c.Key, strconv.Itoa(c.Distance), rule, c.Value})
			}
			fmt.Fprintf(out, "Candidates (%s table):\n", s.name)
			fmt.Fprint(out, report.RenderTable([]string{"Key", "Distance", "Rule", "Value"}, crow, nil))
			fmt.Fprintln(out)
		}
	}

	if !found {
		return fmt.Errorf("%s by %s: %w", opts.title, opts.artist, ErrNoMatch)
	}
	return nil
}
