package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/tliron/commonlog"

	"github.com/phillarmonic/praxis/internal/builtins"
	"github.com/phillarmonic/praxis/internal/domain/command"
	"github.com/phillarmonic/praxis/internal/engine/interpolation"
	"github.com/phillarmonic/praxis/internal/host"
	"github.com/phillarmonic/praxis/internal/lexer"
	"github.com/phillarmonic/praxis/internal/scope"
	"github.com/phillarmonic/praxis/internal/store"
)

var log = commonlog.GetLogger("praxis.engine")

// Engine runs praxis scripts against a host and a global variable store
type Engine struct {
	host          host.Host
	store         store.Store
	registry      *command.Registry
	tokenizer     *lexer.Tokenizer
	interpolator  *interpolation.Interpolator
	maxIterations int
	now           func() time.Time
}

var _ command.Env = (*Engine)(nil)

// NewEngine creates an engine with the built-in commands registered
func NewEngine(opts ...Option) (*Engine, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	options.applyDefaults()

	if err := RegisterBuiltins(options.Registry); err != nil {
		return nil, fmt.Errorf("failed to register built-in commands: %w", err)
	}

	return &Engine{
		host:          options.Host,
		store:         options.Store,
		registry:      options.Registry,
		tokenizer:     lexer.NewTokenizer(options.CommentMarker),
		interpolator:  interpolation.NewInterpolator(),
		maxIterations: options.MaxIterations,
		now:           options.Clock,
	}, nil
}

// Fork returns an engine sharing everything but the host. Servers use it to
// capture the output of one request.
func (e *Engine) Fork(h host.Host) *Engine {
	forked := *e
	forked.host = h
	return &forked
}

// Host returns the host platform
func (e *Engine) Host() host.Host {
	return e.host
}

// Store returns the global variable store
func (e *Engine) Store() store.Store {
	return e.store
}

// Registry returns the command registry
func (e *Engine) Registry() *command.Registry {
	return e.registry
}

// Tokenizer returns the line tokenizer
func (e *Engine) Tokenizer() *lexer.Tokenizer {
	return e.tokenizer
}

// MaxIterations returns the iteration ceiling, zero when unlimited
func (e *Engine) MaxIterations() int {
	return e.maxIterations
}

// NewScope creates a top-level scope for an invocation and loads the
// server's global variables into it
func (e *Engine) NewScope(ctx context.Context, origin scope.Origin, permission scope.Permission) (*scope.Scope, error) {
	sc := scope.New(origin, permission)

	globals, err := e.store.List(ctx, origin.ServerID)
	if err != nil {
		return sc, fmt.Errorf("failed to load global variables: %w", err)
	}
	for name, value := range globals {
		sc.Set(name, value)
	}
	return sc, nil
}

// RunScript creates a scope for origin and runs text on it
func (e *Engine) RunScript(ctx context.Context, text string, origin scope.Origin, permission scope.Permission) (*scope.Scope, error) {
	sc, err := e.NewScope(ctx, origin, permission)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, text, sc), nil
}

// Interpolate expands placeholders in text against sc
func (e *Engine) Interpolate(sc *scope.Scope, text string) string {
	return e.interpolator.Interpolate(text, sc, e.PseudoVariables(sc))
}

// PseudoVariables returns the read-only variables visible to sc
func (e *Engine) PseudoVariables(sc *scope.Scope) map[string]string {
	vars := e.host.PseudoVariables(sc.Origin())
	return builtins.Resolve(builtins.Context{Iterations: sc.Iterations(), Now: e.now()}, vars)
}

// Report sends err to the host
func (e *Engine) Report(ctx context.Context, sc *scope.Scope, err error) {
	if err == nil {
		return
	}
	log.Debugf("script error (server %s): %s", sc.Origin().ServerID, err.Error())
	e.host.Report(ctx, sc, err)
}
