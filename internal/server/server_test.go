package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/crypto/bcrypt"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	mdwerror "github.com/msto63/netplane/foundation/core/error"
	mdwlog "github.com/msto63/netplane/foundation/core/log"
	"github.com/msto63/netplane/foundation/rcl"
	"github.com/msto63/netplane/foundation/rcl/executor"
	"github.com/msto63/netplane/internal/tree"
	"github.com/msto63/netplane/pkg/core/cache"
	grpcx "github.com/msto63/netplane/pkg/core/grpc"
	"github.com/msto63/netplane/pkg/core/version"
)

type fixture struct {
	engine *rcl.Engine
	client *Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := mdwlog.NewNop()

	tr := tree.New(tree.Options{
		Logger:     logger,
		DataPlane:  tree.NewMemoryDataPlane(),
		DNSCache:   cache.New(cache.Config{TTL: time.Minute}),
		BcryptCost: bcrypt.MinCost,
	})
	engine, err := rcl.New(rcl.Options{Logger: logger, Handler: tr})
	if err != nil {
		t.Fatalf("rcl.New() error = %v", err)
	}

	cfg := grpcx.DefaultServerConfig()
	cfg.Port = 0
	srv := New(Options{
		Engine:         engine,
		Config:         cfg,
		Logger:         logger,
		HealthInterval: 10 * time.Millisecond,
	})
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	client, err := Dial(srv.Address(), "test", logger)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	t.Cleanup(func() {
		client.Close()
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Serve() error = %v", err)
		}
		engine.Close()
	})
	return &fixture{engine: engine, client: client}
}

func (f *fixture) exec(t *testing.T, line string) *executor.CmdResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	id, res, err := f.client.Execute(ctx, line)
	if err != nil {
		t.Fatalf("Execute(%q) error = %v", line, err)
	}
	if id == "" {
		t.Errorf("Execute(%q) returned no command id", line)
	}
	return res
}

func TestExecute_ResultKinds(t *testing.T) {
	f := newFixture(t)

	if res := f.exec(t, "add upstream ups0"); res.Value != nil || res.Text != "" {
		t.Errorf("add result = %+v, want empty", res)
	}
	f.exec(t, "add upstream ups1")

	names := f.exec(t, "list upstream")
	if diff := cmp.Diff([]string{"ups0", "ups1"}, names.Value); diff != "" {
		t.Errorf("list upstream mismatch (-want +got):\n%s", diff)
	}

	f.exec(t, "add tcp-lb lb0 address 127.0.0.1:18080 upstream ups0")
	detail := f.exec(t, "list-detail tcp-lb")
	if len(detail.Lines()) != 1 || detail.Text != detail.Lines()[0] {
		t.Errorf("list-detail = %+v", detail)
	}

	count := f.exec(t, "list connection in tcp-lb lb0")
	if count.Value != int64(0) || count.Text != "0" {
		t.Errorf("count = %+v, want 0", count)
	}

	f.exec(t, "add switch sw0 address 0.0.0.0:18472")
	f.exec(t, "add vpc 1314 to switch sw0 network 172.16.0.0/16")
	tap := f.exec(t, "add tap tap%d to switch sw0 vni 1314")
	if tap.Value != "tap0" || tap.Text != "tap0" {
		t.Errorf("add tap = %+v, want tap0", tap)
	}

	// local and remote execution agree
	local, err := f.engine.Execute("list upstream")
	if err != nil {
		t.Fatalf("local Execute() error = %v", err)
	}
	if local.Text != names.Text {
		t.Errorf("local %q != remote %q", local.Text, names.Text)
	}
}

func TestExecute_ErrorCodes(t *testing.T) {
	f := newFixture(t)
	f.exec(t, "add upstream ups0")
	f.exec(t, "add tcp-lb lb0 address 127.0.0.1:18080 upstream ups0")

	tests := []struct {
		name string
		line string
		code mdwerror.Code
	}{
		{"syntax", "add", mdwerror.CodeRCLSyntax},
		{"semantic", "add tcp-lb lb1 to upstream ups0", mdwerror.CodeRCLSemantic},
		{"not found", "remove upstream nope", mdwerror.CodeNotFound},
		{"duplicate", "add upstream ups0", mdwerror.CodeDuplicateEntry},
		{"in use", "remove upstream ups0", mdwerror.CodeResourceLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.client.Execute(context.Background(), tt.line)
			if err == nil {
				t.Fatalf("Execute(%q) should fail", tt.line)
			}
			if !mdwerror.HasCode(err, tt.code) {
				t.Errorf("Execute(%q) error = %v, want code %s", tt.line, err, tt.code)
			}
		})
	}
}

func TestExecute_ModifyLocked(t *testing.T) {
	f := newFixture(t)
	f.engine.SetModifyEnabled(false)

	_, _, err := f.client.Execute(context.Background(), "add upstream ups0")
	if !mdwerror.HasCode(err, mdwerror.CodeRCLConfigLocked) {
		t.Errorf("Execute() error = %v, want %s", err, mdwerror.CodeRCLConfigLocked)
	}

	v, err := f.client.Version(context.Background())
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if v["modify_enabled"] != false || v["platform"] != version.Platform {
		t.Errorf("Version() = %v", v)
	}
}

func TestHelp(t *testing.T) {
	f := newFixture(t)

	help, err := f.client.Help(context.Background())
	if err != nil {
		t.Fatalf("Help() error = %v", err)
	}
	if help != f.engine.Help() {
		t.Error("remote help differs from the engine reference")
	}
}

func TestHealthService(t *testing.T) {
	f := newFixture(t)
	hc := healthpb.NewHealthClient(f.client.conn)

	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := hc.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
		if err == nil && resp.Status == healthpb.HealthCheckResponse_SERVING {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("health never reported SERVING: %v, %v", resp, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestGRPCCode(t *testing.T) {
	for _, code := range []mdwerror.Code{
		mdwerror.CodeRCLSyntax, mdwerror.CodeNotFound, mdwerror.CodeDuplicateEntry,
		mdwerror.CodeResourceLocked, mdwerror.CodeRCLConfigLocked, mdwerror.CodeTimeout,
		mdwerror.CodeServiceUnavailable, mdwerror.CodeRCLHandler,
	} {
		t.Run(string(code), func(t *testing.T) {
			err := fromStatus(toStatus(mdwerror.New("boom").WithCode(code), "req-1"))
			if !mdwerror.HasCode(err, code) {
				t.Errorf("round trip of %s = %v", code, err)
			}
			var me *mdwerror.Error
			if !errors.As(err, &me) || me.RequestID() != "req-1" {
				t.Errorf("request id lost: %v", err)
			}
		})
	}
}
