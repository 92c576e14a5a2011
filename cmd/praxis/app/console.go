package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/phillarmonic/praxis/internal/maintenance"
	"github.com/phillarmonic/praxis/internal/scope"
)

// Domain: Interactive Console
// This file contains the read-eval loop where each entered message is one invocation

var promptColor = color.New(color.FgGreen, color.Bold)

const consoleHelp = `Each message is run as one script. End a line with \ to continue the message.
  :user NAME       speak as another member
  :channel NAME    move to another channel
  :session         show session variables
  :help            show this help
  :quit            leave the console`

func (a *App) createConsoleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Type messages into the simulated server",
		Long: `Start an interactive console. Every message is one invocation; session
variables (set_variable --session) persist between messages.

` + consoleHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConsole(cmd)
		},
	}
	a.addInvocationFlags(cmd)
	return cmd
}

// consoleState is who is speaking where, and the variables they keep
type consoleState struct {
	user    string
	channel string
	session *scope.Session
}

func (a *App) runConsole(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	rt, err := a.newRuntime(out)
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.cfg.Maintenance.Enabled {
		stop, err := startMaintenance(rt)
		if err != nil {
			return err
		}
		defer stop()
	}

	state := &consoleState{user: a.user, channel: a.channel, session: scope.NewSession()}
	if _, err := rt.console.Origin(state.user, state.channel); err != nil {
		return err
	}

	fmt.Fprintf(out, "Connected to %s. Type :help for help.\n", rt.console.Guild().Name)

	ctx := cmd.Context()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	var message []string

	for {
		if len(message) == 0 {
			promptColor.Fprintf(out, "%s> ", state.label())
		} else {
			promptColor.Fprint(out, "... ")
		}
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()

		if cont, ok := strings.CutSuffix(line, `\`); ok {
			message = append(message, cont)
			continue
		}
		message = append(message, line)
		text := strings.Join(message, "\n")
		message = nil

		if strings.HasPrefix(strings.TrimSpace(text), ":") {
			if quit := a.consoleMeta(rt, state, out, strings.TrimSpace(text)); quit {
				return nil
			}
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		if err := a.consoleInvoke(ctx, rt, state, text); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	fmt.Fprintln(out)
	return nil
}

func (a *App) consoleInvoke(ctx context.Context, rt *runtime, state *consoleState, text string) error {
	sc, err := rt.newScope(ctx, state.user, state.channel)
	if err != nil {
		return err
	}
	sc.WithSession(state.session)

	rt.console.SetSource("message", text)
	rt.engine.Run(ctx, text, sc)
	return nil
}

// consoleMeta handles a :command and reports whether the console should exit
func (a *App) consoleMeta(rt *runtime, state *consoleState, out io.Writer, line string) bool {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "quit", "q", "exit":
		return true
	case "help", "h":
		fmt.Fprintln(out, consoleHelp)
	case "user":
		if _, err := rt.console.Origin(arg, state.channel); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return false
		}
		state.user = arg
	case "channel":
		if _, err := rt.console.Origin(state.user, arg); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return false
		}
		state.channel = arg
	case "session":
		printVariables(out, state.session.Snapshot())
	default:
		fmt.Fprintf(out, "unknown console command ':%s' (try :help)\n", name)
	}
	return false
}

func (s *consoleState) label() string {
	user, channel := s.user, s.channel
	if user == "" {
		user = "owner"
	}
	if channel == "" {
		return user
	}
	return user + " #" + strings.TrimPrefix(channel, "#")
}

// startMaintenance runs store compaction in the background until stop is called
func startMaintenance(rt *runtime) (stop func(), err error) {
	interval, err := rt.cfg.CompactInterval()
	if err != nil {
		return nil, err
	}
	scheduler := maintenance.New(rt.store, interval)
	if err := scheduler.Start(); err != nil {
		return nil, err
	}
	return func() {
		if err := scheduler.Stop(); err != nil {
			log.Warningf("failed to stop maintenance: %s", err.Error())
		}
	}, nil
}
