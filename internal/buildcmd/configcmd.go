package buildcmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/rsdtools/releaselink/internal/config"
)

// NewConfigCmd creates the config command and its subcommands
func NewConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	sample := &cobra.Command{
		Use:   "sample",
		Short: "Print the annotated sample configuration",
		// The sample must print even when the current config is broken.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), config.SampleConfig())
			return err
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:              "init [path]",
		Short:            "Write the sample configuration to a file",
		Args:             cobra.MaximumNArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "releaselink.toml"
			if len(args) == 1 {
				path = args[0]
			}
			return executeConfigInit(path, force, cmd.OutOrStdout())
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration after defaults and path resolution",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.config()
			if err != nil {
				return err
			}
			if env.ConfigFound {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", env.ConfigFile)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s not found, showing defaults\n", env.ConfigFile)
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	}

	cmd.AddCommand(sample, initCmd, show)
	return cmd
}

func executeConfigInit(path string, force bool, out io.Writer) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", path, err)
		}
	}
	if err := config.CreateSample(path); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s\n", path)
	return nil
}
