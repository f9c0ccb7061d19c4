package rcl

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/goleak"

	mdwerror "github.com/msto63/netplane/foundation/core/error"
	mdwlog "github.com/msto63/netplane/foundation/core/log"
	"github.com/msto63/netplane/foundation/rcl/ast"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubHandler keeps top-level names per type and counts every call
type stubHandler struct {
	names map[ast.ResourceType][]string
	calls atomic.Int64
}

func newStubHandler() *stubHandler {
	return &stubHandler{names: map[ast.ResourceType][]string{}}
}

func (h *stubHandler) ListNames(_ context.Context, t ast.ResourceType, _ *ast.Resource) ([]string, error) {
	h.calls.Add(1)
	return h.names[t], nil
}

func (h *stubHandler) ListDetail(context.Context, ast.ResourceType, *ast.Resource) ([]fmt.Stringer, error) {
	h.calls.Add(1)
	return nil, nil
}

func (h *stubHandler) Count(context.Context, ast.ResourceType, *ast.Resource) (int64, error) {
	h.calls.Add(1)
	return 0, nil
}

func (h *stubHandler) Create(_ context.Context, t ast.ResourceType, name string, _ *ast.Resource, _ ast.Params, _ ast.FlagSet) (string, error) {
	h.calls.Add(1)
	for _, n := range h.names[t] {
		if n == name {
			return "", mdwerror.AlreadyExists(t.Full(), name)
		}
	}
	h.names[t] = append(h.names[t], name)
	return "", nil
}

func (h *stubHandler) Remove(context.Context, ast.ResourceType, string, *ast.Resource, ast.Params, bool) error {
	h.calls.Add(1)
	return nil
}

func (h *stubHandler) Update(context.Context, ast.ResourceType, string, *ast.Resource, ast.Params, ast.FlagSet) error {
	h.calls.Add(1)
	return nil
}

func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	opts.Logger = mdwlog.NewNop()
	if opts.Handler == nil {
		opts.Handler = newStubHandler()
	}
	e, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestNewRequiresHandler(t *testing.T) {
	if _, err := New(Options{Logger: mdwlog.NewNop()}); err == nil {
		t.Error("New() without handler should fail")
	}
}

func TestEngine_ExecuteRoundTrip(t *testing.T) {
	e := newEngine(t, Options{})

	if _, err := e.Execute("add upstream ups0"); err != nil {
		t.Fatalf("Execute(add) error = %v", err)
	}
	res, err := e.Execute("l ups")
	if err != nil {
		t.Fatalf("Execute(list) error = %v", err)
	}
	if res.Text != "ups0" {
		t.Errorf("Text = %q, want ups0", res.Text)
	}

	_, err = e.Execute("a ups ups0")
	if !mdwerror.HasCode(err, mdwerror.CodeDuplicateEntry) {
		t.Errorf("duplicate add error = %v", err)
	}
}

func TestEngine_RejectionsCompleteImmediately(t *testing.T) {
	e := newEngine(t, Options{})

	tests := []struct {
		line string
		code mdwerror.Code
	}{
		{"", mdwerror.CodeRCLSyntax},
		{"add", mdwerror.CodeRCLSyntax},
		{"frobnicate upstream", mdwerror.CodeRCLSyntax},
		{"add upstream", mdwerror.CodeRCLSemantic},
		{"list event-loop el0", mdwerror.CodeRCLSemantic},
		{"add server svr0 to upstream ups0 weight 1", mdwerror.CodeRCLSemantic},
		{"add tcp-lb lb0 upstream ups0", mdwerror.CodeRCLParamValidation},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			f := e.Submit("test", tt.line)
			select {
			case <-f.Done():
			default:
				t.Fatal("rejected command should complete without the control plane")
			}
			_, err := f.Wait()
			if !mdwerror.HasCode(err, tt.code) {
				t.Fatalf("error = %v, want %s", err, tt.code)
			}
			if !IsUserError(err) {
				t.Errorf("IsUserError(%v) = false", err)
			}
		})
	}
}

func TestEngine_ModifyLock(t *testing.T) {
	e := newEngine(t, Options{ModifyDisabled: true})
	if e.ModifyEnabled() {
		t.Fatal("engine should start locked")
	}

	_, err := e.Execute("add upstream ups0")
	if !mdwerror.HasCode(err, mdwerror.CodeRCLConfigLocked) || !mdwerror.IsSemantic(err) {
		t.Errorf("locked add error = %v", err)
	}
	if _, err := e.Execute("list upstream"); err != nil {
		t.Errorf("list while locked error = %v", err)
	}

	e.SetModifyEnabled(true)
	if _, err := e.Execute("add upstream ups0"); err != nil {
		t.Errorf("add after unlock error = %v", err)
	}
}

func TestEngine_ParseTokens(t *testing.T) {
	h := newStubHandler()
	e := newEngine(t, Options{Handler: h})

	cmd, err := e.ParseTokens([]string{"add", "upstream", " ups0 "})
	if err != nil {
		t.Fatalf("ParseTokens() error = %v", err)
	}
	if cmd.String() != "add upstream ups0" {
		t.Errorf("command = %q", cmd.String())
	}
	if _, err := e.SubmitCommand("test", cmd).Wait(); err != nil {
		t.Errorf("SubmitCommand() error = %v", err)
	}
}

func TestEngine_SubmitCommandValidates(t *testing.T) {
	h := newStubHandler()
	e := newEngine(t, Options{Handler: h})

	tests := []struct {
		name   string
		cmd    *ast.Command
		locked bool
		code   mdwerror.Code
	}{
		{
			name: "missing alias",
			cmd:  &ast.Command{Action: ast.ActionAdd, Resource: &ast.Resource{Type: ast.TypeUpstream}},
			code: mdwerror.CodeRCLSemantic,
		},
		{
			name:   "modification locked",
			cmd:    &ast.Command{Action: ast.ActionAdd, Resource: &ast.Resource{Type: ast.TypeUpstream, Alias: "ups1"}},
			locked: true,
			code:   mdwerror.CodeRCLConfigLocked,
		},
		{
			name: "alias on list",
			cmd:  &ast.Command{Action: ast.ActionList, Resource: &ast.Resource{Type: ast.TypeUpstream, Alias: "ups1"}},
			code: mdwerror.CodeRCLSemantic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.SetModifyEnabled(!tt.locked)
			f := e.SubmitCommand("test", tt.cmd)
			select {
			case <-f.Done():
			default:
				t.Fatal("rejected command should complete without the control plane")
			}
			if _, err := f.Wait(); !mdwerror.HasCode(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}

	if n := h.calls.Load(); n != 0 {
		t.Errorf("handler called %d times for rejected commands", n)
	}
	if len(h.names[ast.TypeUpstream]) != 0 {
		t.Errorf("rejected commands stored %v", h.names[ast.TypeUpstream])
	}
}

func TestEngine_RejectedCommandsNeverReachHandler(t *testing.T) {
	h := newStubHandler()
	e := newEngine(t, Options{Handler: h})

	lines := []string{
		"add",
		"add upstream ups0 to",
		"list upstream ups0",
		"remove security-group-rule r1 to security-group sg1",
		"add server svr0 to upstream ups0 weight 1",
		"add tcp-lb lb0 upstream ups0",
	}
	for _, line := range lines {
		if _, err := e.Execute(line); err == nil {
			t.Errorf("Execute(%q) should fail", line)
		}
	}

	e.SetModifyEnabled(false)
	if _, err := e.Execute("add upstream ups0"); !mdwerror.HasCode(err, mdwerror.CodeRCLConfigLocked) {
		t.Errorf("locked add error = %v", err)
	}

	if n := h.calls.Load(); n != 0 {
		t.Errorf("handler called %d times, want 0", n)
	}

	e.SetModifyEnabled(true)
	if _, err := e.Execute("add upstream ups0"); err != nil {
		t.Fatalf("valid add error = %v", err)
	}
	if n := h.calls.Load(); n != 1 {
		t.Errorf("handler called %d times after one valid command, want 1", n)
	}
}

func TestEngine_ExecuteContext(t *testing.T) {
	e := newEngine(t, Options{})
	res, err := e.ExecuteContext(context.Background(), "grpc", "list tcp-lb")
	if err != nil {
		t.Fatalf("ExecuteContext() error = %v", err)
	}
	if res.Text != "" {
		t.Errorf("Text = %q, want empty", res.Text)
	}
}

func TestEngine_Help(t *testing.T) {
	e := newEngine(t, Options{})
	help := e.Help()
	for _, want := range []string{"tcp-lb", "server-group", "accepted-conn-count"} {
		if !strings.Contains(help, want) {
			t.Errorf("Help() missing %q", want)
		}
	}
}

func TestIsUserError(t *testing.T) {
	if IsUserError(mdwerror.FSMInvariant("broken")) {
		t.Error("FSM invariant violations are not user errors")
	}
	if IsUserError(mdwerror.NotFound("upstream", "x")) {
		t.Error("missing resources are reported by the handler, not the parser")
	}
}
