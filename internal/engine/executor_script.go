package engine

import (
	"context"

	"github.com/phillarmonic/praxis/internal/domain/command"
	"github.com/phillarmonic/praxis/internal/scope"
)

// Domain: Script Composition
// script runs an embedded body on a child scope; exit and delete_message
// only flip scope flags.

var scriptGrammar = &command.Grammar{
	Options: []command.Option{
		{Name: "silent", Short: "s", Kind: command.Flag, Help: "Do not report errors from the body"},
		{Name: "verbose", Short: "v", Kind: command.Flag, Help: "Report every error from the body"},
	},
}

// executeScript runs the lines up to the matching endscript on a child
// scope and merges the child back. Blocks opened by the body stay in the child.
func executeScript(ctx context.Context, inv *command.Invocation) error {
	if len(inv.Body) == 0 {
		return usageError(inv, "missing script body: write the script on the lines after the command")
	}
	if inv.Args.Flag("silent") && inv.Args.Flag("verbose") {
		return usageError(inv, "--silent and --verbose cannot be combined")
	}

	parent := inv.Scope
	child := parent.Derive()
	switch {
	case inv.Args.Flag("silent"):
		child.SetVerbosity(scope.Silent)
	case inv.Args.Flag("verbose"):
		child.SetVerbosity(scope.Verbose)
	}

	log.Debugf("running script body of %d line(s) at depth %d", len(inv.Body), child.Depth())
	inv.Env.Execute(ctx, inv.Body, inv.BodyLine, child)
	parent.Merge(child)
	return nil
}

// executeExit stops the script and every script that called it
func executeExit(_ context.Context, inv *command.Invocation) error {
	inv.Scope.Abort()
	return nil
}

// executeDeleteMessage asks the host to delete the triggering message
func executeDeleteMessage(_ context.Context, inv *command.Invocation) error {
	inv.Scope.RequestDelete()
	return nil
}
