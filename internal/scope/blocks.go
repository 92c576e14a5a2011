package scope

import (
	perrors "github.com/phillarmonic/praxis/internal/errors"
)

// Block is an open control construct. The only implementations are *IfBlock and *ForBlock.
type Block interface {
	// Satisfied reports whether lines directly inside the block may run
	Satisfied() bool
	isBlock()
}

// Branch is the active side of an if block
type Branch int

const (
	Then Branch = iota
	Else
)

// IfBlock tracks a conditional. Inert blocks were opened inside a skipped
// region or by a failed condition and never run either branch.
type IfBlock struct {
	Resolved bool
	Branch   Branch
	Inert    bool
}

func (b *IfBlock) Satisfied() bool {
	if b.Inert {
		return false
	}
	return (b.Branch == Then) == b.Resolved
}

func (*IfBlock) isBlock() {}

// ForBlock tracks a loop. Remaining holds the elements not yet bound and
// BodyStart the index of the first line of the loop body.
type ForBlock struct {
	Variable  string
	Remaining []string
	BodyStart int
	Inert     bool
}

func (b *ForBlock) Satisfied() bool {
	return !b.Inert
}

func (*ForBlock) isBlock() {}

// State summarizes the innermost open block
type State int

const (
	NoBlock State = iota
	IfThen
	IfElse
	ForBody
)

func (s State) String() string {
	switch s {
	case IfThen:
		return "if-then"
	case IfElse:
		return "if-else"
	case ForBody:
		return "for-body"
	default:
		return "none"
	}
}

// ForStep tells the executor what to do after an endfor
type ForStep struct {
	Variable string
	Value    string
	Resume   int
	Repeat   bool
}

// Stack is the LIFO of open blocks for one scope
type Stack struct {
	blocks []Block
}

// Len returns the number of open blocks
func (s *Stack) Len() int {
	return len(s.blocks)
}

// Top returns the innermost block or nil
func (s *Stack) Top() Block {
	if len(s.blocks) == 0 {
		return nil
	}
	return s.blocks[len(s.blocks)-1]
}

// State returns the state of the innermost block
func (s *Stack) State() State {
	switch b := s.Top().(type) {
	case *IfBlock:
		if b.Branch == Else {
			return IfElse
		}
		return IfThen
	case *ForBlock:
		return ForBody
	default:
		return NoBlock
	}
}

// Satisfied reports whether every open block lets lines run
func (s *Stack) Satisfied() bool {
	for _, b := range s.blocks {
		if !b.Satisfied() {
			return false
		}
	}
	return true
}

// HasFor reports whether a loop is open anywhere in the stack
func (s *Stack) HasFor() bool {
	for _, b := range s.blocks {
		if _, ok := b.(*ForBlock); ok {
			return true
		}
	}
	return false
}

// PushIf opens a conditional with the evaluated result
func (s *Stack) PushIf(result bool) {
	s.blocks = append(s.blocks, &IfBlock{Resolved: result, Branch: Then})
}

// PushInertIf opens a conditional whose branches never run
func (s *Stack) PushInertIf() {
	s.blocks = append(s.blocks, &IfBlock{Branch: Then, Inert: true})
}

// PushFor opens a loop over remaining, the elements left after the first
// one has been bound. Loops do not nest.
func (s *Stack) PushFor(variable string, remaining []string, bodyStart int) error {
	if s.HasFor() {
		return &perrors.UnbalancedBlockError{Keyword: "for", Message: "loops cannot be nested"}
	}
	s.blocks = append(s.blocks, &ForBlock{Variable: variable, Remaining: remaining, BodyStart: bodyStart})
	return nil
}

// PushInertFor opens a loop whose body never runs
func (s *Stack) PushInertFor(variable string, bodyStart int) error {
	if s.HasFor() {
		return &perrors.UnbalancedBlockError{Keyword: "for", Message: "loops cannot be nested"}
	}
	s.blocks = append(s.blocks, &ForBlock{Variable: variable, BodyStart: bodyStart, Inert: true})
	return nil
}

// Else flips the innermost conditional to its else branch
func (s *Stack) Else() error {
	b, ok := s.Top().(*IfBlock)
	if !ok {
		return &perrors.UnbalancedBlockError{Keyword: "else", Message: "no open if block"}
	}
	if b.Branch == Else {
		return &perrors.UnbalancedBlockError{Keyword: "else", Message: "if block already has an else branch"}
	}
	b.Branch = Else
	return nil
}

// EndIf closes the innermost conditional
func (s *Stack) EndIf() error {
	if _, ok := s.Top().(*IfBlock); !ok {
		return &perrors.UnbalancedBlockError{Keyword: "endif", Message: "no open if block"}
	}
	s.pop()
	return nil
}

// EndFor either consumes the next loop element and asks for a replay of the
// body, or closes the loop when no elements remain
func (s *Stack) EndFor() (ForStep, error) {
	b, ok := s.Top().(*ForBlock)
	if !ok {
		return ForStep{}, &perrors.UnbalancedBlockError{Keyword: "endfor", Message: "no open for block"}
	}

	if b.Inert || len(b.Remaining) == 0 {
		s.pop()
		return ForStep{Variable: b.Variable}, nil
	}

	next := b.Remaining[0]
	b.Remaining = b.Remaining[1:]
	return ForStep{Variable: b.Variable, Value: next, Resume: b.BodyStart, Repeat: true}, nil
}

// Describe lists the open blocks from outermost to innermost
func (s *Stack) Describe() []string {
	out := make([]string, 0, len(s.blocks))
	for _, b := range s.blocks {
		switch b.(type) {
		case *IfBlock:
			out = append(out, "if")
		case *ForBlock:
			out = append(out, "for")
		}
	}
	return out
}

func (s *Stack) pop() {
	s.blocks[len(s.blocks)-1] = nil
	s.blocks = s.blocks[:len(s.blocks)-1]
}
