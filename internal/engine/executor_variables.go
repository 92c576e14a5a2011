package engine

import (
	"context"
	"fmt"

	"github.com/phillarmonic/praxis/internal/domain/command"
	"github.com/phillarmonic/praxis/internal/engine/interpolation"
	perrors "github.com/phillarmonic/praxis/internal/errors"
	"github.com/phillarmonic/praxis/internal/scope"
)

var setVariableGrammar = &command.Grammar{
	Positionals: []command.Positional{
		{Name: "name", Help: "Variable name"},
		{Name: "value", Help: "Variable value", Optional: true},
	},
	Options: []command.Option{
		{Name: "global", Kind: command.Flag, Help: "Store the variable for every script on this server"},
		{Name: "session", Kind: command.Flag, Help: "Keep the variable for this session only"},
		{Name: "intadd", Metavar: "N", Kind: command.String, Help: "Add N to the integer value"},
		{Name: "intremove", Metavar: "N", Kind: command.String, Help: "Subtract N from the integer value"},
		{Name: "setadd", Metavar: "VALUE", Kind: command.Repeated, Help: "Add values to the set"},
		{Name: "setremove", Metavar: "VALUE", Kind: command.Repeated, Help: "Remove values from the set"},
	},
}

// executeSetVariable assigns a script, session or global variable
func executeSetVariable(ctx context.Context, inv *command.Invocation) error {
	args := inv.Args
	sc := inv.Scope

	name := inv.Text("name")
	if !interpolation.IsIdentifier(name) || isReserved(inv, name) {
		return &perrors.ReservedVariableError{Line: inv.Line, Name: name}
	}

	global := args.Flag("global")
	session := args.Flag("session")
	if global && session {
		return usageError(inv, "--global and --session cannot be combined")
	}

	compute := func(old string) string {
		value := old
		if args.Has("value") {
			value = inv.Text("value")
		} else if !hasOperation(args) {
			value = ""
		}
		if args.Has("intadd") {
			value = intAdd(value, inv.Text("intadd"), 1)
		}
		if args.Has("intremove") {
			value = intAdd(value, inv.Text("intremove"), -1)
		}
		if args.Has("setadd") {
			value = setAdd(value, inv.Texts("setadd"))
		}
		if args.Has("setremove") {
			value = setRemove(value, inv.Texts("setremove"))
		}
		return value
	}

	switch {
	case session:
		old, _ := sc.Session().Get(name)
		sc.Session().Set(name, compute(old))
		return nil

	case global && sc.Permission().AtLeast(scope.Script):
		serverID := sc.Origin().ServerID
		value, err := inv.Env.Store().Update(ctx, serverID, name, func(old string, _ bool) (string, error) {
			return compute(old), nil
		})
		if err != nil {
			return fmt.Errorf("failed to store global variable '%s': %w", name, err)
		}
		sc.Set(name, value)
		return nil

	default:
		old, _ := sc.Get(name)
		sc.Set(name, compute(old))
		if global {
			return &perrors.PermissionError{
				Line:     inv.Line,
				Command:  inv.Name + " --global",
				Required: scope.Script.String(),
				Actual:   sc.Permission().String(),
			}
		}
		return nil
	}
}

func hasOperation(args *command.Args) bool {
	return args.Has("intadd") || args.Has("intremove") || args.Has("setadd") || args.Has("setremove")
}
