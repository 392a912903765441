package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rsdtools/releaselink/internal/buildcmd"
)

func NewRootCmd() *cobra.Command {
	env := &buildcmd.Env{}

	cmd := &cobra.Command{
		Use:   "releaselink",
		Short: "Record Store Day release catalog builder and lookup service",
		Long: `Releaselink merges release listings scraped from several sources into one
deduplicated catalog and resolves artist/title pairs to cover images and
external IDs, tolerating the formatting differences between sources.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return env.Load()
		},
	}

	cmd.PersistentFlags().StringVarP(&env.ConfigPath, "config", "c", "", "Config file (default releaselink.toml or $RELEASELINK_CONFIG)")
	cmd.PersistentFlags().BoolVarP(&env.Verbose, "verbose", "v", false, "Debug logging")
	cmd.PersistentFlags().StringVar(&env.LogFormat, "log-format", "", "Log format (text, json or auto)")

	cmd.AddCommand(buildcmd.NewBuildCmd(env))
	cmd.AddCommand(buildcmd.NewResolveCmd(env))
	cmd.AddCommand(buildcmd.NewReportCmd(env))
	cmd.AddCommand(buildcmd.NewServeCmd(env))
	cmd.AddCommand(buildcmd.NewConfigCmd(env))

	return cmd
}
