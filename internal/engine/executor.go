package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/phillarmonic/praxis/internal/domain/command"
	perrors "github.com/phillarmonic/praxis/internal/errors"
	"github.com/phillarmonic/praxis/internal/lexer"
	"github.com/phillarmonic/praxis/internal/scope"
)

// Block keywords are recognized whether or not they are registered
const (
	keywordIf     = "if"
	keywordElse   = "else"
	keywordEndIf  = "endif"
	keywordFor    = "for"
	keywordEndFor = "endfor"
)

// SplitLines splits script text into lines, accepting \n and \r\n
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

// Run executes script text on sc and returns sc. Errors are reported to the
// host; a structural error or the iteration ceiling aborts sc.
func (e *Engine) Run(ctx context.Context, text string, sc *scope.Scope) *scope.Scope {
	if halted := e.execute(ctx, SplitLines(text), 1, sc); halted {
		sc.Abort()
	}
	return sc
}

// Execute runs lines on sc. A structural error stops these lines only and
// does not abort sc, so a nested script cannot abort its caller that way.
func (e *Engine) Execute(ctx context.Context, lines []string, firstLine int, sc *scope.Scope) {
	e.execute(ctx, lines, firstLine, sc)
}

// execute is the line loop. It reports whether execution stopped on an
// unrecoverable error.
func (e *Engine) execute(ctx context.Context, lines []string, firstLine int, sc *scope.Scope) bool {
	blocks := sc.Blocks()
	pc := 0

	for pc < len(lines) {
		if sc.Aborted() {
			return false
		}
		if err := ctx.Err(); err != nil {
			log.Warningf("script cancelled: %s", err.Error())
			sc.Abort()
			return false
		}

		raw := lines[pc]
		lineNo := firstLine + pc

		if e.tokenizer.Skippable(raw) {
			pc++
			continue
		}

		name, options, splitErr := e.tokenizer.Split(raw)

		switch name {
		case keywordElse:
			if err := blocks.Else(); err != nil {
				e.Report(ctx, sc, perrors.AtLine(err, lineNo, name))
				return true
			}
			pc++
			continue

		case keywordEndIf:
			if err := blocks.EndIf(); err != nil {
				e.Report(ctx, sc, perrors.AtLine(err, lineNo, name))
				return true
			}
			pc++
			continue

		case keywordEndFor:
			step, err := blocks.EndFor()
			if err != nil {
				e.Report(ctx, sc, perrors.AtLine(err, lineNo, name))
				return true
			}
			if step.Repeat {
				sc.Set(step.Variable, step.Value)
				pc = step.Resume
				continue
			}
			pc++
			continue
		}

		if name == keywordFor && blocks.HasFor() {
			e.Report(ctx, sc, &perrors.UnbalancedBlockError{Line: lineNo, Keyword: name, Message: "loops cannot be nested"})
			return true
		}

		entry, lookupErr := e.registry.Get(name)

		var body []string
		next := pc + 1
		if lookupErr == nil && entry.TakesBody {
			body, next = collectBody(lines, pc, entry.Name, entry.BodyTerminator(), e.tokenizer)
		}

		if !blocks.Satisfied() {
			// skipped lines still open blocks so that their closers pair up
			switch name {
			case keywordIf:
				blocks.PushInertIf()
			case keywordFor:
				_ = blocks.PushInertFor("", pc+1)
			}
			pc = next
			continue
		}

		opensBlock := name == keywordIf || name == keywordFor || (lookupErr == nil && entry.OpensBlock)
		depth := blocks.Len()

		if splitErr != nil {
			e.Report(ctx, sc, perrors.AtLine(splitErr, lineNo, name))
		} else {
			if e.maxIterations > 0 && sc.Iterations() >= e.maxIterations {
				e.Report(ctx, sc, &perrors.IterationLimitError{Line: lineNo, Limit: e.maxIterations})
				sc.Abort()
				return true
			}

			inv := &command.Invocation{
				Name:     name,
				Line:     lineNo,
				Index:    pc,
				Raw:      options,
				Scope:    sc,
				Env:      e,
				Body:     body,
				BodyLine: lineNo + 1,
			}
			if err := e.Dispatch(ctx, inv); err != nil {
				e.Report(ctx, sc, err)
				if perrors.IsFatal(err) {
					return true
				}
			}
		}

		if opensBlock && blocks.Len() == depth {
			if name == keywordFor {
				_ = blocks.PushInertFor("", pc+1)
			} else {
				blocks.PushInertIf()
			}
		}

		pc = next
	}

	if !sc.Aborted() && blocks.Len() > 0 {
		e.Report(ctx, sc, &perrors.UnbalancedBlockError{
			Keyword: blocks.Describe()[blocks.Len()-1],
			Message: fmt.Sprintf("unclosed block(s) at end of script: %s", strings.Join(blocks.Describe(), ", ")),
		})
		return true
	}
	return false
}

// collectBody returns the lines owned by the body command at lines[start]
// and the index following its terminator. Nested openers of the same
// command are counted; without a terminator the body runs to the end.
func collectBody(lines []string, start int, opener, terminator string, tok *lexer.Tokenizer) ([]string, int) {
	depth := 0
	for i := start + 1; i < len(lines); i++ {
		if tok.Skippable(lines[i]) {
			continue
		}
		name, _, _ := tok.Split(lines[i])
		switch name {
		case opener:
			depth++
		case terminator:
			if depth == 0 {
				return lines[start+1 : i], i + 1
			}
			depth--
		}
	}
	return lines[start+1:], len(lines)
}
