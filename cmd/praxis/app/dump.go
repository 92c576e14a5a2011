package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/phillarmonic/praxis/internal/backup"
)

// Domain: Backup
// This file contains the dump and restore commands for a server's globals

func (a *App) createDumpCommand() *cobra.Command {
	var (
		serverID  string
		output    string
		printOnly bool
	)

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Back up a server's global variables",
		Long: `Write a server's global variables as set_variable lines. By default the
lines are packed with a manifest into a tar.gz archive; --print writes them
to standard output instead, ready to paste into a script.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.newRuntime(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer rt.Close()

			if serverID == "" {
				serverID = rt.serverID()
			}

			ctx := cmd.Context()
			lines, err := backup.Dump(ctx, rt.store, serverID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if printOnly {
				for _, line := range lines {
					fmt.Fprintln(out, line)
				}
				return nil
			}

			vars, err := rt.store.List(ctx, serverID)
			if err != nil {
				return err
			}
			if output == "" {
				output = fmt.Sprintf("praxis-%s-%s.tar.gz", serverID, time.Now().Format("20060102-150405"))
			}
			manifest := backup.Manifest{
				ServerID:  serverID,
				Variables: len(vars),
				CreatedAt: time.Now().UTC(),
				Version:   a.version,
			}
			if err := backup.WriteArchive(ctx, output, manifest, lines); err != nil {
				return err
			}
			fmt.Fprintf(out, "Backed up %d variable(s) of server %s to %s\n", len(vars), serverID, output)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverID, "server", "", "Server id (default: the simulated server)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Archive path (default: praxis-<server>-<time>.tar.gz)")
	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the set_variable lines instead of writing an archive")
	return cmd
}

func (a *App) createRestoreCommand() *cobra.Command {
	var serverID string

	cmd := &cobra.Command{
		Use:   "restore ARCHIVE",
		Short: "Restore global variables from a dump archive",
		Long: `Restore the variables of a dump archive. They go to the server recorded in
the archive unless --server names another one. Existing variables with the
same names are overwritten; others are left alone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			bundle, err := backup.ReadArchive(ctx, args[0])
			if err != nil {
				return err
			}

			rt, err := a.newRuntime(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer rt.Close()

			target := serverID
			if target == "" {
				target = bundle.Manifest.ServerID
			}
			if target == "" {
				target = rt.serverID()
			}

			n, err := backup.Apply(ctx, rt.store, target, bundle.Script)
			if err != nil {
				return fmt.Errorf("failed to restore %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d variable(s) to server %s\n", n, target)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverID, "server", "", "Server id to restore into (default: from the archive)")
	return cmd
}
