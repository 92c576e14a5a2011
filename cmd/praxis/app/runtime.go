package app

import (
	"context"
	"fmt"
	"io"

	"github.com/phillarmonic/praxis/internal/config"
	"github.com/phillarmonic/praxis/internal/engine"
	"github.com/phillarmonic/praxis/internal/host/console"
	"github.com/phillarmonic/praxis/internal/scope"
	"github.com/phillarmonic/praxis/internal/store"
)

// Domain: Runtime Wiring
// This file contains logic for building the store, host and engine from config

// runtime is everything a command needs to run scripts
type runtime struct {
	cfg        *config.Config
	store      store.Store
	console    *console.Console
	engine     *engine.Engine
	permission scope.Permission
	verbosity  scope.Verbosity
}

func (a *App) loadConfig() (*config.Config, error) {
	return config.Load(a.configFile)
}

// newRuntime builds the runtime for a command writing to out
func (a *App) newRuntime(out io.Writer) (*runtime, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	guild := console.DefaultGuild()
	if cfg.ServerFixture != "" {
		if guild, err = console.LoadGuild(cfg.ServerFixture); err != nil {
			return nil, err
		}
	}

	permission, err := cfg.Permission()
	if err != nil {
		return nil, err
	}
	if a.permission != "" {
		if permission, err = scope.ParsePermission(a.permission); err != nil {
			return nil, err
		}
	}

	verbosity, err := cfg.Verbosity()
	if err != nil {
		return nil, err
	}
	if a.silent {
		verbosity = scope.Silent
	}

	opts, err := cfg.StoreOptions()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", opts.Backend, err)
	}

	host := console.New(guild, out)
	eng, err := engine.NewEngine(
		engine.WithHost(host),
		engine.WithStore(st),
		engine.WithMaxIterations(cfg.Engine.MaxIterations),
		engine.WithCommentMarker(cfg.Engine.CommentMarker),
	)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &runtime{
		cfg:        cfg,
		store:      st,
		console:    host,
		engine:     eng,
		permission: permission,
		verbosity:  verbosity,
	}, nil
}

// Close releases the store
func (r *runtime) Close() error {
	return r.store.Close()
}

// serverID is the id of the simulated server
func (r *runtime) serverID() string {
	return r.console.Guild().ID
}

// newScope creates a scope for the member and channel named on the command line
func (r *runtime) newScope(ctx context.Context, user, channel string) (*scope.Scope, error) {
	origin, err := r.console.Origin(user, channel)
	if err != nil {
		return nil, err
	}
	sc, err := r.engine.NewScope(ctx, origin, r.permission)
	if err != nil {
		return nil, err
	}
	sc.SetVerbosity(r.verbosity)
	return sc, nil
}
