package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phillarmonic/praxis/internal/config"
)

// Domain: Configuration Management
// This file contains the init command writing a default configuration

func (a *App) createInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [PATH]",
		Short: "Create a configuration file with the defaults",
		Long: `Create a configuration file listing every setting with its default value.
The format follows the extension: .toml writes TOML, anything else YAML.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configFile
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				path = config.DefaultLocations[0]
			}
			if err := config.Initialize(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}
}
