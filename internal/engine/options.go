package engine

import (
	"time"

	"github.com/phillarmonic/praxis/internal/domain/command"
	"github.com/phillarmonic/praxis/internal/host"
	"github.com/phillarmonic/praxis/internal/lexer"
	"github.com/phillarmonic/praxis/internal/store"
)

// DefaultMaxIterations bounds the number of commands one invocation may dispatch
const DefaultMaxIterations = 1000

// EngineOptions configures the engine with optional dependencies
type EngineOptions struct {
	// Host platform (defaults to host.Nop)
	Host host.Host

	// Global variable store (defaults to an in-memory store)
	Store store.Store

	// Command registry (defaults to a registry holding the built-in commands)
	Registry *command.Registry

	// Maximum dispatched commands per invocation; zero or less disables the limit
	MaxIterations int

	// Marker starting a comment (defaults to "#")
	CommentMarker string

	// Clock used for time pseudo variables (defaults to time.Now)
	Clock func() time.Time
}

// Option is a functional option for configuring the Engine
type Option func(*EngineOptions)

// WithHost sets the host platform
func WithHost(h host.Host) Option {
	return func(o *EngineOptions) {
		o.Host = h
	}
}

// WithStore sets the global variable store
func WithStore(s store.Store) Option {
	return func(o *EngineOptions) {
		o.Store = s
	}
}

// WithRegistry sets the command registry. Built-in commands are added to it
// unless a command with the same name is already registered.
func WithRegistry(reg *command.Registry) Option {
	return func(o *EngineOptions) {
		o.Registry = reg
	}
}

// WithMaxIterations sets the iteration ceiling
func WithMaxIterations(n int) Option {
	return func(o *EngineOptions) {
		o.MaxIterations = n
	}
}

// WithCommentMarker sets the comment marker
func WithCommentMarker(marker string) Option {
	return func(o *EngineOptions) {
		o.CommentMarker = marker
	}
}

// WithClock sets the clock used for time pseudo variables
func WithClock(clock func() time.Time) Option {
	return func(o *EngineOptions) {
		o.Clock = clock
	}
}

// applyDefaults applies default values to unset options
func (opts *EngineOptions) applyDefaults() {
	if opts.Host == nil {
		opts.Host = host.Nop{}
	}

	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}

	if opts.Registry == nil {
		opts.Registry = command.NewRegistry()
	}

	if opts.CommentMarker == "" {
		opts.CommentMarker = lexer.DefaultCommentMarker
	}

	if opts.Clock == nil {
		opts.Clock = time.Now
	}
}

func defaultOptions() EngineOptions {
	return EngineOptions{MaxIterations: DefaultMaxIterations}
}
