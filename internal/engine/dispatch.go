package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/phillarmonic/praxis/internal/domain/command"
	perrors "github.com/phillarmonic/praxis/internal/errors"
	"github.com/phillarmonic/praxis/internal/lexer"
)

// Dispatch counts the attempt, looks up inv.Name, checks permission, parses
// inv.Raw against the grammar and calls the handler. Every failure comes
// back as an error stamped with the line; nothing panics out.
func (e *Engine) Dispatch(ctx context.Context, inv *command.Invocation) (err error) {
	sc := inv.Scope
	sc.Tick()

	entry, err := e.registry.Get(inv.Name)
	if err != nil {
		return perrors.AtLine(err, inv.Line, inv.Name)
	}

	if !sc.Permission().AtLeast(entry.MinPermission) {
		return &perrors.PermissionError{
			Line:     inv.Line,
			Command:  entry.Name,
			Required: entry.MinPermission.String(),
			Actual:   sc.Permission().String(),
		}
	}

	inv.Args = nil
	if entry.Grammar != nil {
		tokens, ferr := lexer.Fields(inv.Raw)
		if ferr != nil {
			return perrors.AtLine(ferr, inv.Line, inv.Name)
		}
		args, perr := entry.Grammar.Parse(tokens)
		if perr != nil {
			return &perrors.UsageError{
				Line:    inv.Line,
				Command: entry.Name,
				Message: perr.Error(),
				Usage:   entry.Usage(),
			}
		}
		inv.Args = args
	}

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("command %s panicked: %v", entry.Name, r)
			err = &perrors.HandlerError{Line: inv.Line, Command: entry.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	err = perrors.AtLine(entry.Handler(ctx, inv), inv.Line, entry.Name)

	var usage *perrors.UsageError
	if errors.As(err, &usage) && usage.Usage == "" {
		usage.Usage = entry.Usage()
	}
	return err
}

// usageError builds a UsageError for inv from inside a handler; Dispatch fills in the usage text
func usageError(inv *command.Invocation, format string, args ...any) error {
	return &perrors.UsageError{Line: inv.Line, Command: inv.Name, Message: fmt.Sprintf(format, args...)}
}
