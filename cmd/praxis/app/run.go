package app

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
)

// Domain: Script Execution
// This file contains logic for loading and running a script file

var log = commonlog.GetLogger("praxis.cli")

var noticeColor = color.New(color.FgYellow)

func (a *App) createRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run FILE|-",
		Short: "Run a script against the simulated server",
		Long: `Run a script file, or standard input when FILE is "-", as one invocation.
Messages are printed per channel and errors are reported with their line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScript(cmd, args[0])
		},
	}
	a.addInvocationFlags(cmd)
	return cmd
}

func (a *App) runScript(cmd *cobra.Command, filename string) error {
	text, err := readScript(cmd.InOrStdin(), filename)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	rt, err := a.newRuntime(out)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	sc, err := rt.newScope(ctx, a.user, a.channel)
	if err != nil {
		return err
	}

	rt.console.SetSource(filename, text)
	log.Debugf("running %s as %s", filename, sc.Permission())
	rt.engine.Run(ctx, text, sc)

	if a.silent {
		return nil
	}
	if sc.Aborted() {
		noticeColor.Fprintln(out, "(script stopped)")
	}
	if sc.DeleteRequested() {
		noticeColor.Fprintln(out, "(triggering message deleted)")
	}
	return nil
}

func readScript(stdin io.Reader, filename string) (string, error) {
	if filename == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read script from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("failed to read script '%s': %w", filename, err)
	}
	return string(data), nil
}
