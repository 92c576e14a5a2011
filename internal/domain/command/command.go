package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/phillarmonic/praxis/internal/host"
	"github.com/phillarmonic/praxis/internal/scope"
	"github.com/phillarmonic/praxis/internal/store"
)

// Handler implements one command
type Handler func(ctx context.Context, inv *Invocation) error

// Entry is a registered command
type Entry struct {
	Name          string
	Description   string
	Grammar       *Grammar // nil: the handler reads Invocation.Raw itself
	MinPermission scope.Permission
	Handler       Handler

	// TakesBody commands own the following lines up to a matching "end<name>"
	TakesBody bool
	// OpensBlock commands push onto the block stack when they succeed
	OpensBlock bool
}

// Validate checks that the entry can be registered
func (e *Entry) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	if strings.ContainsAny(e.Name, " \t\n") {
		return fmt.Errorf("command name '%s' cannot contain whitespace", e.Name)
	}
	if e.Handler == nil {
		return fmt.Errorf("command '%s' has no handler", e.Name)
	}
	return nil
}

// Usage returns the one-line usage of the command
func (e *Entry) Usage() string {
	if e.Grammar == nil {
		return e.Name + " ..."
	}
	return e.Grammar.Usage(e.Name)
}

// BodyTerminator is the keyword closing the body of a TakesBody command
func (e *Entry) BodyTerminator() string {
	return "end" + e.Name
}

// Env is the engine surface available to handlers
type Env interface {
	Host() host.Host
	Store() store.Store
	// Interpolate expands placeholders against the scope and its pseudo variables
	Interpolate(sc *scope.Scope, text string) string
	// Execute runs lines on sc; firstLine is the script line number of lines[0]
	Execute(ctx context.Context, lines []string, firstLine int, sc *scope.Scope)
	Report(ctx context.Context, sc *scope.Scope, err error)
}

// Invocation is one dispatched command line
type Invocation struct {
	Name  string
	Line  int
	Index int
	Raw   string
	Args  *Args
	Scope *scope.Scope
	Env   Env

	// Body and BodyLine are set for TakesBody commands
	Body     []string
	BodyLine int
}

// Text returns an interpolated argument value
func (inv *Invocation) Text(name string) string {
	return inv.Env.Interpolate(inv.Scope, inv.Args.String(name))
}

// Texts returns the interpolated values of a repeated option
func (inv *Invocation) Texts(name string) []string {
	values := inv.Args.List(name)
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = inv.Env.Interpolate(inv.Scope, v)
	}
	return out
}

// Origin is shorthand for the scope's origin
func (inv *Invocation) Origin() scope.Origin {
	return inv.Scope.Origin()
}
