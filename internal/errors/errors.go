package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// MalformedLineError is returned when a line cannot be tokenized
type MalformedLineError struct {
	Line   int
	Text   string
	Reason string
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("line %d: malformed line: %s", e.Line, e.Reason)
}

// UnknownCommandError is returned when a command name is not registered
type UnknownCommandError struct {
	Line    int
	Command string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("line %d: unknown command '%s'", e.Line, e.Command)
}

// UsageError is returned when options do not match a command's grammar
type UsageError struct {
	Line    int
	Command string
	Message string
	Usage   string
}

func (e *UsageError) Error() string {
	if e.Usage == "" {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Command, e.Message)
	}
	return fmt.Sprintf("line %d: %s: %s (usage: %s)", e.Line, e.Command, e.Message, e.Usage)
}

// PermissionError is returned when the scope permission is below what a command requires
type PermissionError struct {
	Line     int
	Command  string
	Required string
	Actual   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("line %d: %s requires %s permission, have %s", e.Line, e.Command, e.Required, e.Actual)
}

// UnbalancedBlockError reports a block keyword without a matching opener,
// a nested loop, or a block still open at the end of a script
type UnbalancedBlockError struct {
	Line    int
	Keyword string
	Message string
}

func (e *UnbalancedBlockError) Error() string {
	if e.Line <= 0 {
		return fmt.Sprintf("unbalanced block: %s", e.Message)
	}
	return fmt.Sprintf("line %d: %s: %s", e.Line, e.Keyword, e.Message)
}

// RuntimeEvaluationError is a recoverable failure while evaluating a predicate
type RuntimeEvaluationError struct {
	Line    int
	Command string
	Err     error
}

func (e *RuntimeEvaluationError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Command, e.Err)
}

func (e *RuntimeEvaluationError) Unwrap() error {
	return e.Err
}

// ReservedVariableError is returned when a script assigns a read-only or invalid name
type ReservedVariableError struct {
	Line int
	Name string
}

func (e *ReservedVariableError) Error() string {
	return fmt.Sprintf("line %d: '%s' is not an assignable variable name", e.Line, e.Name)
}

// IterationLimitError is returned when a script dispatches more commands than allowed
type IterationLimitError struct {
	Line  int
	Limit int
}

func (e *IterationLimitError) Error() string {
	return fmt.Sprintf("line %d: iteration limit of %d commands reached", e.Line, e.Limit)
}

// HandlerError wraps a failure returned (or panicked) by a command handler
type HandlerError struct {
	Line    int
	Command string
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Command, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// AtLine stamps a line number onto errors from this package that were
// created without one. Other errors are wrapped into a HandlerError.
func AtLine(err error, line int, command string) error {
	if err == nil {
		return nil
	}
	switch e := err.(type) {
	case *MalformedLineError:
		if e.Line == 0 {
			e.Line = line
		}
	case *UnknownCommandError:
		if e.Line == 0 {
			e.Line = line
		}
	case *UsageError:
		if e.Line == 0 {
			e.Line = line
		}
	case *PermissionError:
		if e.Line == 0 {
			e.Line = line
		}
	case *UnbalancedBlockError:
		if e.Line == 0 {
			e.Line = line
		}
	case *RuntimeEvaluationError:
		if e.Line == 0 {
			e.Line = line
		}
	case *ReservedVariableError:
		if e.Line == 0 {
			e.Line = line
		}
	case *IterationLimitError:
		if e.Line == 0 {
			e.Line = line
		}
	case *HandlerError:
		if e.Line == 0 {
			e.Line = line
		}
	default:
		return &HandlerError{Line: line, Command: command, Err: err}
	}
	return err
}

// IsFatal reports whether err stops the current script
func IsFatal(err error) bool {
	var unbalanced *UnbalancedBlockError
	var limit *IterationLimitError
	return stderrors.As(err, &unbalanced) || stderrors.As(err, &limit)
}

// IsWarning reports whether err is a non-fatal evaluation warning
func IsWarning(err error) bool {
	var rt *RuntimeEvaluationError
	return stderrors.As(err, &rt)
}

// FormatError renders err for a terminal, pointing at the offending script line
func FormatError(err error, filename, source string) string {
	var result strings.Builder

	label := "\033[31mError\033[0m"
	if IsWarning(err) {
		label = "\033[33mWarning\033[0m"
	}
	result.WriteString(fmt.Sprintf("%s: %s\n", label, err.Error()))

	line := lineOf(err)
	if line <= 0 {
		return result.String()
	}
	if filename != "" {
		result.WriteString(fmt.Sprintf("  \033[36m--> %s:%d\033[0m\n", filename, line))
	}

	lines := strings.Split(source, "\n")
	if line <= len(lines) {
		lineNumStr := fmt.Sprintf("%d", line)
		result.WriteString(fmt.Sprintf("   \033[34m%s\033[0m | %s\n", lineNumStr, lines[line-1]))
	}

	if suggestion := suggestionFor(err); suggestion != "" {
		result.WriteString(fmt.Sprintf("   \033[33mHelp:\033[0m %s\n", suggestion))
	}

	return result.String()
}

func lineOf(err error) int {
	var (
		malformed *MalformedLineError
		unknown   *UnknownCommandError
		usage     *UsageError
		perm      *PermissionError
		block     *UnbalancedBlockError
		rt        *RuntimeEvaluationError
		reserved  *ReservedVariableError
		limit     *IterationLimitError
		handler   *HandlerError
	)
	switch {
	case stderrors.As(err, &malformed):
		return malformed.Line
	case stderrors.As(err, &unknown):
		return unknown.Line
	case stderrors.As(err, &usage):
		return usage.Line
	case stderrors.As(err, &perm):
		return perm.Line
	case stderrors.As(err, &block):
		return block.Line
	case stderrors.As(err, &rt):
		return rt.Line
	case stderrors.As(err, &reserved):
		return reserved.Line
	case stderrors.As(err, &limit):
		return limit.Line
	case stderrors.As(err, &handler):
		return handler.Line
	}
	return 0
}

func suggestionFor(err error) string {
	var (
		malformed *MalformedLineError
		unknown   *UnknownCommandError
		usage     *UsageError
		block     *UnbalancedBlockError
	)
	switch {
	case stderrors.As(err, &malformed):
		return "Check that every quote on the line is closed"
	case stderrors.As(err, &unknown):
		return "Run 'praxis commands' to list the available commands"
	case stderrors.As(err, &usage):
		if usage.Usage != "" {
			return "Usage: " + usage.Usage
		}
	case stderrors.As(err, &block):
		switch block.Keyword {
		case "for":
			return "Loops cannot be nested; close the open loop with 'endfor' first"
		case "else", "endif":
			return "Every 'else' and 'endif' needs a preceding 'if'"
		case "endfor":
			return "Every 'endfor' needs a preceding 'for'"
		}
	}
	return ""
}
