package app

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// Domain: Command Introspection
// This file lists the script commands in the registry

func (a *App) createCommandsCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "commands [NAME]",
		Short:             "List script commands, or show help for one",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: CompleteCommandNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.newRuntime(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			registry := rt.engine.Registry()

			if len(args) == 1 {
				entry, err := registry.Get(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\n\n", entry.Usage())
				if entry.Description != "" {
					fmt.Fprintf(out, "%s\n\n", entry.Description)
				}
				fmt.Fprintf(out, "Requires: %s\n", entry.MinPermission)
				if entry.TakesBody {
					fmt.Fprintf(out, "Body: the following lines, up to %s\n", entry.BodyTerminator())
				}
				if entry.Grammar != nil {
					if help := entry.Grammar.Help(); len(help) > 0 {
						fmt.Fprintln(out, "\nOptions:")
						for _, line := range help {
							fmt.Fprintf(out, "  %s\n", line)
						}
					}
				}
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "COMMAND\tPERMISSION\tDESCRIPTION")
			for _, entry := range registry.List() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", entry.Name, entry.MinPermission, entry.Description)
			}
			return w.Flush()
		},
	}
}
