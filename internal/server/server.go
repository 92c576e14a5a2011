// Package server triggers scripts over HTTP. Each request is one invocation
// against the configured host, and its messages and reports are returned as
// JSON.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/tliron/commonlog"
	"github.com/valyala/fasthttp"

	"github.com/phillarmonic/praxis/internal/engine"
	"github.com/phillarmonic/praxis/internal/host"
	"github.com/phillarmonic/praxis/internal/scope"
)

var log = commonlog.GetLogger("praxis.server")

// DefaultTimeout bounds one script run
const DefaultTimeout = 30 * time.Second

// Resolver turns request parameters into an invocation origin
type Resolver interface {
	Origin(user, channel string) (scope.Origin, error)
}

// Options configures a Server
type Options struct {
	// Permission is the level scripts run at; requests may ask for less
	Permission scope.Permission
	Timeout    time.Duration
}

// Server routes HTTP requests to the engine
type Server struct {
	engine     *engine.Engine
	resolver   Resolver
	permission scope.Permission
	timeout    time.Duration

	base   context.Context
	cancel context.CancelFunc
	http   *fasthttp.Server
}

// RunResult is the body returned by POST /servers/{id}/run
type RunResult struct {
	Sent            []host.Sent       `json:"sent"`
	Errors          []string          `json:"errors,omitempty"`
	Aborted         bool              `json:"aborted"`
	DeleteRequested bool              `json:"delete_requested,omitempty"`
	Iterations      int               `json:"iterations"`
	Variables       map[string]string `json:"variables"`
}

// CommandInfo describes one registered command for GET /commands
type CommandInfo struct {
	Name        string   `json:"name"`
	Usage       string   `json:"usage"`
	Description string   `json:"description,omitempty"`
	Permission  string   `json:"permission"`
	Options     []string `json:"options,omitempty"`
}

// New creates a server running scripts on eng. Origins come from resolver.
func New(eng *engine.Engine, resolver Resolver, opts Options) *Server {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	base, cancel := context.WithCancel(context.Background())
	s := &Server{
		engine:     eng,
		resolver:   resolver,
		permission: opts.Permission,
		timeout:    opts.Timeout,
		base:       base,
		cancel:     cancel,
	}
	s.http = &fasthttp.Server{
		Handler:            s.Handler,
		Name:               "praxis",
		ReadTimeout:        time.Minute,
		WriteTimeout:       time.Minute,
		MaxRequestBodySize: 1 << 20,
	}
	return s
}

// ListenAndServe serves on addr until Shutdown
func (s *Server) ListenAndServe(addr string) error {
	log.Infof("starting HTTP trigger host on %q", addr)
	return s.http.ListenAndServe(addr)
}

// Serve serves on ln until Shutdown
func (s *Server) Serve(ln net.Listener) error {
	return s.http.Serve(ln)
}

// Shutdown cancels running scripts and stops the listener
func (s *Server) Shutdown() error {
	s.cancel()
	return s.http.Shutdown()
}

// Handler is the request router
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	path := strings.Trim(string(ctx.Path()), "/")
	parts := strings.Split(path, "/")

	switch {
	case path == "commands":
		if !ctx.IsGet() {
			methodNotAllowed(ctx)
			return
		}
		s.handleCommands(ctx)
	case len(parts) == 3 && parts[0] == "servers" && parts[2] == "run":
		if !ctx.IsPost() {
			methodNotAllowed(ctx)
			return
		}
		s.handleRun(ctx, parts[1])
	case len(parts) == 3 && parts[0] == "servers" && parts[2] == "vars":
		if !ctx.IsGet() {
			methodNotAllowed(ctx)
			return
		}
		s.handleVars(ctx, parts[1])
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

func (s *Server) handleRun(ctx *fasthttp.RequestCtx, serverID string) {
	args := ctx.QueryArgs()

	permission := s.permission
	if p := string(args.Peek("permission")); p != "" {
		requested, err := scope.ParsePermission(p)
		if err != nil {
			ctx.Error(err.Error(), fasthttp.StatusBadRequest)
			return
		}
		if requested > s.permission {
			ctx.Error(fmt.Sprintf("permission '%s' exceeds the server limit '%s'", requested, s.permission), fasthttp.StatusForbidden)
			return
		}
		permission = requested
	}

	origin, err := s.resolver.Origin(string(args.Peek("user")), string(args.Peek("channel")))
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusBadRequest)
		return
	}
	if origin.ServerID != serverID {
		ctx.Error(fmt.Sprintf("server '%s' not found", serverID), fasthttp.StatusNotFound)
		return
	}

	runCtx, cancel := context.WithTimeout(s.base, s.timeout)
	defer cancel()

	recorder := host.NewRecorder(s.engine.Host())
	eng := s.engine.Fork(recorder)

	sc, err := eng.RunScript(runCtx, string(ctx.PostBody()), origin, permission)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}

	result := RunResult{
		Sent:            recorder.Sent(),
		Aborted:         sc.Aborted(),
		DeleteRequested: sc.DeleteRequested(),
		Iterations:      sc.Iterations(),
		Variables:       sc.Vars(),
	}
	for _, report := range recorder.Reports() {
		result.Errors = append(result.Errors, report.Error())
	}
	if result.Sent == nil {
		result.Sent = []host.Sent{}
	}

	log.Debugf("server %s: ran %d command(s), %d error(s)", serverID, result.Iterations, len(result.Errors))
	writeJSON(ctx, result)
}

func (s *Server) handleVars(ctx *fasthttp.RequestCtx, serverID string) {
	vars, err := s.engine.Store().List(s.base, serverID)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	writeJSON(ctx, vars)
}

func (s *Server) handleCommands(ctx *fasthttp.RequestCtx) {
	entries := s.engine.Registry().List()
	infos := make([]CommandInfo, 0, len(entries))
	for _, e := range entries {
		info := CommandInfo{
			Name:        e.Name,
			Usage:       e.Usage(),
			Description: e.Description,
			Permission:  e.MinPermission.String(),
		}
		if e.Grammar != nil {
			info.Options = e.Grammar.Help()
		}
		infos = append(infos, info)
	}
	writeJSON(ctx, infos)
}

func writeJSON(ctx *fasthttp.RequestCtx, v any) {
	buf, err := json.Marshal(v)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.Success("application/json", buf)
}

func methodNotAllowed(ctx *fasthttp.RequestCtx) {
	ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
}
