package app

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
)

// Domain: CLI Application Structure
// This file contains the main CLI application setup with Cobra commands and flags

// App represents the CLI application
type App struct {
	version string
	commit  string
	date    string

	rootCmd *cobra.Command

	// Global flags
	configFile string
	verbosity  int
	logFile    string

	// Invocation flags shared by run and console
	user       string
	channel    string
	permission string
	silent     bool
}

// NewApp creates a new CLI application
func NewApp(version, commit, date string) *App {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
	}

	app.rootCmd = &cobra.Command{
		Use:   "praxis",
		Short: "Run chat-bot scripts against a simulated server",
		Long: `praxis runs line-oriented bot scripts: one command per line, with
{{variables}}, if/else/endif and for/endfor blocks, and nested scripts.

Examples:
  praxis run welcome.praxis             # Run a script file
  echo 'say hi' | praxis run -          # Run a script from stdin
  praxis console --user ada             # Type messages as a member
  praxis serve                          # Trigger scripts over HTTP
  praxis vars list                      # Show the server's global variables
  praxis commands                       # List the registered commands`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.configureLogging,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	app.setupFlags()
	app.setupCommands()

	return app
}

// Execute runs the CLI application
func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// SetArgs overrides os.Args, for tests
func (a *App) SetArgs(args []string) {
	a.rootCmd.SetArgs(args)
}

// SetOutput redirects command output, for tests
func (a *App) SetOutput(out io.Writer) {
	a.rootCmd.SetOut(out)
	a.rootCmd.SetErr(out)
}

// SetInput redirects standard input, for tests
func (a *App) SetInput(in io.Reader) {
	a.rootCmd.SetIn(in)
}

// setupFlags sets up the persistent command-line flags
func (a *App) setupFlags() {
	flags := a.rootCmd.PersistentFlags()

	flags.StringVarP(&a.configFile, "config", "c", "", "Configuration file (default: praxis.yml, praxis.toml or .praxis/config.yml)")
	flags.CountVarP(&a.verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
	flags.StringVar(&a.logFile, "log-file", "", "Write logs to this file instead of stderr")
}

// addInvocationFlags adds the flags describing who runs a script
func (a *App) addInvocationFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&a.user, "user", "u", "", "Member running the script (default: the server owner)")
	flags.StringVar(&a.channel, "channel", "", "Channel the script runs in (default: the first channel)")
	flags.StringVarP(&a.permission, "permission", "p", "", "Permission level: guest, script, admin or owner (default: from config)")
	flags.BoolVarP(&a.silent, "silent", "s", false, "Do not print script errors")
}

// setupCommands sets up subcommands
func (a *App) setupCommands() {
	a.rootCmd.AddCommand(a.createRunCommand())
	a.rootCmd.AddCommand(a.createConsoleCommand())
	a.rootCmd.AddCommand(a.createServeCommand())
	a.rootCmd.AddCommand(a.createVarsCommand())
	a.rootCmd.AddCommand(a.createCommandsCommand())
	a.rootCmd.AddCommand(a.createDumpCommand())
	a.rootCmd.AddCommand(a.createRestoreCommand())
	a.rootCmd.AddCommand(a.createInitCommand())
	a.rootCmd.AddCommand(a.createVersionCommand())
	a.rootCmd.AddCommand(a.createCompletionCommand())
}

// configureLogging sets up commonlog from the flags, falling back to the
// config file's log section
func (a *App) configureLogging(cmd *cobra.Command, _ []string) error {
	verbosity := a.verbosity
	path := a.logFile

	if verbosity == 0 || path == "" {
		if cfg, err := a.loadConfig(); err == nil {
			if verbosity == 0 {
				verbosity = cfg.Log.Verbosity
			}
			if path == "" {
				path = cfg.Log.File
			}
		}
	}

	if path == "" {
		commonlog.Configure(verbosity, nil)
	} else {
		commonlog.Configure(verbosity, &path)
	}
	return nil
}
