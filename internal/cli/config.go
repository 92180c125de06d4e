package cli

import (
	"os"

	"github.com/spf13/cobra"

	"meshplan/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize the meshplan config",
}

var configShowRaw bool

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		out := cmd.OutOrStdout()
		if configShowRaw {
			return writeStructured(out, "yaml", rt.cfg)
		}

		PrintSection(out, "Configuration")
		PrintLabelValue(out, "File", rt.cfgLoc.String())
		PrintInfo(out, rt.cfg.Summary())
		return nil
	},
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with default values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigPath()
		if len(args) > 0 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !configInitForce {
			PrintWarning(cmd.OutOrStdout(), path+" already exists, use --force to overwrite")
			return nil
		}

		cfg := config.DefaultConfig()
		if err := cfg.Save(path); err != nil {
			return err
		}
		PrintSuccess(cmd.OutOrStdout(), "Config written to "+path)
		return nil
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowRaw, "raw", false, "Print the effective config as YAML")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
