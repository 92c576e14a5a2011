package app

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/phillarmonic/praxis/internal/engine"
)

// Domain: Shell Completion
// This file contains logic for shell completion

// CompleteCommandNames completes script command names from the built-in registry
func CompleteCommandNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	eng, err := engine.NewEngine()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var completions []string
	for _, entry := range eng.Registry().List() {
		if strings.HasPrefix(entry.Name, toComplete) {
			completions = append(completions, entry.Name+"\t"+entry.Description)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// createCompletionCommand creates the completion subcommand
func (a *App) createCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate completion script",
		Long: `Generate shell completion script for praxis.

To load completions:

Bash:

  $ source <(praxis completion bash)

Zsh:

  $ praxis completion zsh > "${fpath[1]}/_praxis"

Fish:

  $ praxis completion fish | source

PowerShell:

  PS> praxis completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return a.rootCmd.GenBashCompletion(out)
			case "zsh":
				return a.rootCmd.GenZshCompletion(out)
			case "fish":
				return a.rootCmd.GenFishCompletion(out, true)
			default:
				return a.rootCmd.GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
