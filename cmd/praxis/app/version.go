package app

import (
	"fmt"
	"io"

	"github.com/phillarmonic/figlet/figletlib"
	"github.com/spf13/cobra"
)

// Domain: Version Display
// This file contains logic for displaying version information

func (a *App) createVersionCommand() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !plain {
				if err := printBanner(); err != nil {
					return err
				}
			}
			ShowVersion(cmd.OutOrStdout(), a.version, a.commit, a.date)
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Omit the banner")
	return cmd
}

// printBanner prints the ASCII art title
func printBanner() error {
	loader := figletlib.NewEmbededLoader()
	font, err := loader.GetFontByName("standard")
	if err != nil {
		return err
	}

	startColor, _ := figletlib.ParseColor("#00FF95")
	endColor, _ := figletlib.ParseColor("#00C2FF")
	gradientConfig := figletlib.ColorConfig{
		Mode:       figletlib.ColorModeGradient,
		StartColor: startColor,
		EndColor:   endColor,
	}

	fmt.Println("")
	figletlib.PrintColoredMsg("praxis", font, 80, font.Settings(), "left", gradientConfig)
	return nil
}

// ShowVersion writes the version lines
func ShowVersion(out io.Writer, version, commit, date string) {
	fmt.Fprintln(out, "praxis chat-bot scripting engine")
	fmt.Fprintln(out, "By Phillarmonic Software <https://github.com/phillarmonic/praxis>")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Version %s\n", version)
	if commit != "unknown" {
		fmt.Fprintf(out, "commit: %s\n", commit)
	}
	if date != "unknown" {
		fmt.Fprintf(out, "built: %s\n", date)
	}
}
