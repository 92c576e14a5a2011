package app

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Domain: Global Variables
// This file contains the vars command group operating on the store directly

var nameColor = color.New(color.FgCyan)

func (a *App) createVarsCommand() *cobra.Command {
	var serverID string

	cmd := &cobra.Command{
		Use:   "vars",
		Short: "Inspect and edit global variables",
	}
	cmd.PersistentFlags().StringVar(&serverID, "server", "", "Server id (default: the simulated server)")

	withStore := func(cmd *cobra.Command, fn func(rt *runtime, serverID string) error) error {
		rt, err := a.newRuntime(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer rt.Close()
		id := serverID
		if id == "" {
			id = rt.serverID()
		}
		return fn(rt, id)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List global variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(rt *runtime, id string) error {
				vars, err := rt.store.List(cmd.Context(), id)
				if err != nil {
					return err
				}
				printVariables(cmd.OutOrStdout(), vars)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get NAME",
		Short: "Print one global variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(rt *runtime, id string) error {
				value, ok, err := rt.store.Get(cmd.Context(), id, args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("variable '%s' is not set", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set NAME VALUE",
		Short: "Set a global variable without running a script",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(rt *runtime, id string) error {
				return rt.store.Upsert(cmd.Context(), id, args[0], args[1])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a global variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(rt *runtime, id string) error {
				return rt.store.Delete(cmd.Context(), id, args[0])
			})
		},
	})

	return cmd
}

// printVariables writes name = value lines sorted by name. Multi-line values
// are indented under their name.
func printVariables(out io.Writer, vars map[string]string) {
	if len(vars) == 0 {
		fmt.Fprintln(out, "(no variables)")
		return
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		value := vars[name]
		if strings.Contains(value, "\n") {
			nameColor.Fprintf(out, "%s", name)
			fmt.Fprintln(out, " =")
			for _, line := range strings.Split(value, "\n") {
				fmt.Fprintf(out, "    %s\n", line)
			}
			continue
		}
		nameColor.Fprintf(out, "%s", name)
		fmt.Fprintf(out, " = %s\n", value)
	}
}
