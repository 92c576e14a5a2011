package scope

import (
	"maps"
	"slices"

	"github.com/tevino/abool/v2"
)

// Origin identifies where an invocation came from. User, Channel and Server
// are host values passed through to handlers untouched.
type Origin struct {
	ServerID string
	User     any
	Channel  any
	Server   any
}

// Scope is the execution environment of one script invocation
type Scope struct {
	vars            map[string]string
	session         *Session
	blocks          Stack
	permission      Permission
	verbosity       Verbosity
	abort           *abool.AtomicBool
	deleteRequested bool
	iterations      int
	origin          Origin
	depth           int
}

// New creates a top-level scope with its own session
func New(origin Origin, permission Permission) *Scope {
	return &Scope{
		vars:       make(map[string]string),
		session:    NewSession(),
		permission: permission,
		abort:      abool.NewBool(false),
		origin:     origin,
	}
}

// WithSession replaces the scope's session, returning the scope
func (s *Scope) WithSession(session *Session) *Scope {
	if session != nil {
		s.session = session
	}
	return s
}

// Get resolves a name against script variables, then session variables
func (s *Scope) Get(name string) (string, bool) {
	if v, ok := s.vars[name]; ok {
		return v, true
	}
	return s.session.Get(name)
}

// Set assigns a script variable
func (s *Scope) Set(name, value string) {
	s.vars[name] = value
}

// Delete removes a script variable
func (s *Scope) Delete(name string) {
	delete(s.vars, name)
}

// Vars returns a copy of the script variables
func (s *Scope) Vars() map[string]string {
	return maps.Clone(s.vars)
}

// Names returns the sorted script variable names
func (s *Scope) Names() []string {
	return slices.Sorted(maps.Keys(s.vars))
}

// Session returns the session shared with parent and child scopes
func (s *Scope) Session() *Session {
	return s.session
}

// Blocks returns the block stack of this scope
func (s *Scope) Blocks() *Stack {
	return &s.blocks
}

func (s *Scope) Permission() Permission {
	return s.permission
}

func (s *Scope) SetPermission(p Permission) {
	s.permission = p
}

func (s *Scope) Verbosity() Verbosity {
	return s.verbosity
}

func (s *Scope) SetVerbosity(v Verbosity) {
	s.verbosity = v
}

// Abort stops the scope after the current line
func (s *Scope) Abort() {
	s.abort.Set()
}

// Aborted reports whether the scope has been aborted
func (s *Scope) Aborted() bool {
	return s.abort.IsSet()
}

// RequestDelete asks the host to delete the triggering message
func (s *Scope) RequestDelete() {
	s.deleteRequested = true
}

func (s *Scope) DeleteRequested() bool {
	return s.deleteRequested
}

// Tick counts one dispatched command and returns the new total
func (s *Scope) Tick() int {
	s.iterations++
	return s.iterations
}

// Iterations returns the number of dispatched commands
func (s *Scope) Iterations() int {
	return s.iterations
}

func (s *Scope) Origin() Origin {
	return s.origin
}

// Depth is 0 for a top-level scope and grows by one per derived child
func (s *Scope) Depth() int {
	return s.depth
}

// Derive creates a child scope for a nested script. The child starts with a
// copy of the variables and the same permission, verbosity, origin, session
// and counters, but with an empty block stack and its own abort flag.
func (s *Scope) Derive() *Scope {
	return &Scope{
		vars:            maps.Clone(s.vars),
		session:         s.session,
		permission:      s.permission,
		verbosity:       s.verbosity,
		abort:           abool.NewBool(false),
		deleteRequested: s.deleteRequested,
		iterations:      s.iterations,
		origin:          s.origin,
		depth:           s.depth + 1,
	}
}

// Merge folds a finished child back into s: variables, abort, delete request
// and iteration count are taken from the child. The child's blocks are dropped.
func (s *Scope) Merge(child *Scope) {
	s.vars = maps.Clone(child.vars)
	if child.Aborted() {
		s.abort.Set()
	}
	s.deleteRequested = s.deleteRequested || child.deleteRequested
	if child.iterations > s.iterations {
		s.iterations = child.iterations
	}
}
