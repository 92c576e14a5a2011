package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/phillarmonic/praxis/internal/engine"
	"github.com/phillarmonic/praxis/internal/host/console"
	"github.com/phillarmonic/praxis/internal/scope"
	"github.com/phillarmonic/praxis/internal/store"
)

func init() {
	color.NoColor = true
}

type fixture struct {
	server *Server
	store  store.Store
	output *bytes.Buffer
}

func newFixture(t *testing.T, permission scope.Permission) *fixture {
	t.Helper()
	var out bytes.Buffer
	host := console.New(nil, &out)
	st := store.NewMemory()

	eng, err := engine.NewEngine(engine.WithHost(host), engine.WithStore(st))
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return &fixture{
		server: New(eng, host, Options{Permission: permission}),
		store:  st,
		output: &out,
	}
}

func (f *fixture) do(method, uri, body string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	ctx.Request.SetBodyString(body)
	f.server.Handler(&ctx)
	return &ctx
}

func TestRun(t *testing.T) {
	f := newFixture(t, scope.Owner)
	ctx := f.do("POST", "/servers/1/run?user=ada", `set_variable greeting hello
say "{{greeting}} {{user}}"
set_variable hits --intadd 1 --global
nope`)

	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status = %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}

	var result RunResult
	if err := json.Unmarshal(ctx.Response.Body(), &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(result.Sent) != 1 || result.Sent[0].Message.Text != "hello ada#0002" || result.Sent[0].Channel != "general" {
		t.Errorf("sent = %+v", result.Sent)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "unknown command") {
		t.Errorf("errors = %v", result.Errors)
	}
	if result.Aborted || result.Iterations != 4 {
		t.Errorf("aborted = %v, iterations = %d", result.Aborted, result.Iterations)
	}
	if result.Variables["greeting"] != "hello" {
		t.Errorf("variables = %v", result.Variables)
	}

	if v, ok, _ := f.store.Get(context.Background(), "1", "hits"); !ok || v != "1" {
		t.Errorf("global hits = %q, %v", v, ok)
	}
	if !strings.Contains(f.output.String(), "#general hello ada#0002") {
		t.Errorf("console output = %q", f.output.String())
	}
}

func TestRunPermission(t *testing.T) {
	tests := []struct {
		name       string
		limit      scope.Permission
		uri        string
		wantStatus int
		wantErrors int
	}{
		{"default level", scope.Script, "/servers/1/run", fasthttp.StatusOK, 0},
		{"lowered", scope.Owner, "/servers/1/run?permission=guest", fasthttp.StatusOK, 1},
		{"above limit", scope.Script, "/servers/1/run?permission=owner", fasthttp.StatusForbidden, 0},
		{"unknown level", scope.Owner, "/servers/1/run?permission=root", fasthttp.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.limit)
			ctx := f.do("POST", tt.uri, "set_variable x 1 --global")

			if ctx.Response.StatusCode() != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", ctx.Response.StatusCode(), tt.wantStatus, ctx.Response.Body())
			}
			if tt.wantStatus != fasthttp.StatusOK {
				return
			}
			var result RunResult
			if err := json.Unmarshal(ctx.Response.Body(), &result); err != nil {
				t.Fatal(err)
			}
			if len(result.Errors) != tt.wantErrors {
				t.Errorf("errors = %v, want %d", result.Errors, tt.wantErrors)
			}
		})
	}
}

func TestRunRejectsBadOrigins(t *testing.T) {
	tests := []struct {
		uri  string
		want int
	}{
		{"/servers/2/run", fasthttp.StatusNotFound},
		{"/servers/1/run?user=ghost", fasthttp.StatusBadRequest},
		{"/servers/1/run?channel=nowhere", fasthttp.StatusBadRequest},
	}

	f := newFixture(t, scope.Owner)
	for _, tt := range tests {
		if got := f.do("POST", tt.uri, "say hi").Response.StatusCode(); got != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.uri, got, tt.want)
		}
	}
}

func TestVars(t *testing.T) {
	f := newFixture(t, scope.Owner)
	_ = f.store.Upsert(context.Background(), "1", "a", "x")
	_ = f.store.Upsert(context.Background(), "2", "b", "y")

	ctx := f.do("GET", "/servers/1/vars", "")
	var vars map[string]string
	if err := json.Unmarshal(ctx.Response.Body(), &vars); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(vars) != 1 || vars["a"] != "x" {
		t.Errorf("vars = %v", vars)
	}
}

func TestCommands(t *testing.T) {
	f := newFixture(t, scope.Owner)
	ctx := f.do("GET", "/commands", "")

	var infos []CommandInfo
	if err := json.Unmarshal(ctx.Response.Body(), &infos); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	found := map[string]CommandInfo{}
	for _, info := range infos {
		found[info.Name] = info
	}
	for _, name := range []string{"set_variable", "script", "exit", "if", "for", "say"} {
		if _, ok := found[name]; !ok {
			t.Errorf("command %s missing from /commands", name)
		}
	}
	if found["set_command_prefix"].Permission != "admin" {
		t.Errorf("set_command_prefix permission = %q", found["set_command_prefix"].Permission)
	}
	if !strings.HasPrefix(found["set_variable"].Usage, "set_variable") || len(found["set_variable"].Options) == 0 {
		t.Errorf("set_variable info = %+v", found["set_variable"])
	}
}

func TestRouting(t *testing.T) {
	tests := []struct {
		method string
		uri    string
		want   int
	}{
		{"GET", "/servers/1/run", fasthttp.StatusMethodNotAllowed},
		{"POST", "/commands", fasthttp.StatusMethodNotAllowed},
		{"DELETE", "/servers/1/vars", fasthttp.StatusMethodNotAllowed},
		{"GET", "/elsewhere", fasthttp.StatusNotFound},
		{"GET", "/servers/1", fasthttp.StatusNotFound},
	}

	f := newFixture(t, scope.Owner)
	for _, tt := range tests {
		if got := f.do(tt.method, tt.uri, "").Response.StatusCode(); got != tt.want {
			t.Errorf("%s %s: status = %d, want %d", tt.method, tt.uri, got, tt.want)
		}
	}
}

func TestServeOverListener(t *testing.T) {
	f := newFixture(t, scope.Owner)
	ln := fasthttputil.NewInmemoryListener()

	done := make(chan error, 1)
	go func() { done <- f.server.Serve(ln) }()

	client := &fasthttp.Client{
		Dial: func(string) (net.Conn, error) { return ln.Dial() },
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod("POST")
	req.SetRequestURI("http://praxis/servers/1/run")
	req.SetBodyString("say over-the-wire")

	if err := client.Do(req, resp); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK || !bytes.Contains(resp.Body(), []byte("over-the-wire")) {
		t.Errorf("response = %d %s", resp.StatusCode(), resp.Body())
	}

	if err := f.server.Shutdown(); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
	<-done
}
