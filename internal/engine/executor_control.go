package engine

import (
	"context"

	"github.com/phillarmonic/praxis/internal/domain/command"
	"github.com/phillarmonic/praxis/internal/engine/interpolation"
	perrors "github.com/phillarmonic/praxis/internal/errors"
)

// Domain: Control Flow Execution
// The block keywords else/endif/endfor are handled by the executor itself;
// this file holds the openers.

var ifGrammar = &command.Grammar{
	Positionals: []command.Positional{
		{Name: "value", Metavar: "VALUE", Help: "Value to test"},
	},
	Options: []command.Option{
		{Name: "equal", Metavar: "VALUE", Kind: command.String, Help: "Test if VALUE equals this value"},
		{Name: "find", Metavar: "TEXT", Kind: command.String, Help: "Test if TEXT occurs in VALUE, ignoring case"},
		{Name: "inset", Metavar: "VAR", Kind: command.String, Help: "Test if VALUE is an element of the set held by VAR"},
		{Name: "regex", Metavar: "PATTERN", Kind: command.String, Help: "Test if VALUE matches a regular expression"},
		{Name: "lt", Metavar: "VALUE", Kind: command.String, Help: "Test if VALUE is less than this value"},
		{Name: "gt", Metavar: "VALUE", Kind: command.String, Help: "Test if VALUE is greater than this value"},
		{Name: "le", Metavar: "VALUE", Kind: command.String, Help: "Test if VALUE is less than or equal to this value"},
		{Name: "ge", Metavar: "VALUE", Kind: command.String, Help: "Test if VALUE is greater than or equal to this value"},
		{Name: "hasroles", Metavar: "ROLE", Kind: command.Repeated, Help: "Test if member VALUE has one of the roles"},
		{Name: "ismember", Kind: command.Flag, Help: "Test if VALUE is a member"},
		{Name: "isrole", Kind: command.Flag, Help: "Test if VALUE is a role"},
		{Name: "ischannel", Kind: command.Flag, Help: "Test if VALUE is a channel"},
		{Name: "isdate", Kind: command.Flag, Help: "Test if VALUE is a date"},
		{Name: "format", Metavar: "MACRO", Kind: command.String, Help: "Test if VALUE matches a named format"},
		{Name: "not", Kind: command.Flag, Help: "Invert the result of the test"},
	},
}

// executeIf evaluates the test and opens a conditional block. A test that
// cannot be evaluated counts as false and is reported as a warning.
func executeIf(ctx context.Context, inv *command.Invocation) error {
	predicate, err := selectedPredicate(inv)
	if err != nil {
		return err
	}

	result, evalErr := evaluateCondition(ctx, inv, predicate, inv.Text("value"))
	if evalErr != nil {
		result = false
	}
	if inv.Args.Flag("not") {
		result = !result
	}

	inv.Scope.Blocks().PushIf(result)

	if evalErr != nil {
		return &perrors.RuntimeEvaluationError{Line: inv.Line, Command: inv.Name, Err: evalErr}
	}
	return nil
}

var forGrammar = &command.Grammar{
	Positionals: []command.Positional{
		{Name: "variable", Metavar: "NAME", Help: "Loop variable"},
	},
	Options: []command.Option{
		{Name: "in", Metavar: "ELEMENT", Kind: command.Repeated, Help: "Elements to iterate over"},
		{Name: "inset", Metavar: "VAR", Kind: command.String, Help: "Iterate over the set held by VAR"},
	},
}

// executeFor binds the first element and opens a loop over the rest. The
// body starts on the line after the for line.
func executeFor(_ context.Context, inv *command.Invocation) error {
	sc := inv.Scope

	variable := inv.Text("variable")
	if !interpolation.IsIdentifier(variable) || isReserved(inv, variable) {
		return &perrors.ReservedVariableError{Line: inv.Line, Name: variable}
	}

	var elems []string
	switch {
	case inv.Args.Has("in") && inv.Args.Has("inset"):
		return usageError(inv, "--in and --inset cannot be combined")
	case inv.Args.Has("in"):
		elems = inv.Texts("in")
	case inv.Args.Has("inset"):
		set, _ := sc.Get(inv.Text("inset"))
		elems = splitSet(set)
	default:
		return usageError(inv, "one of --in or --inset is required")
	}

	bodyStart := inv.Index + 1
	if len(elems) == 0 {
		return sc.Blocks().PushInertFor(variable, bodyStart)
	}

	if err := sc.Blocks().PushFor(variable, elems[1:], bodyStart); err != nil {
		return err
	}
	sc.Set(variable, elems[0])
	return nil
}
