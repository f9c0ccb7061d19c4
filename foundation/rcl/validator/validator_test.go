package validator

import (
	"strings"
	"sync/atomic"
	"testing"

	mdwerror "github.com/msto63/netplane/foundation/core/error"
	mdwlog "github.com/msto63/netplane/foundation/core/log"
	"github.com/msto63/netplane/foundation/rcl/parser"
	"github.com/msto63/netplane/foundation/rcl/registry"
)

type fixture struct {
	parser    *parser.Parser
	validator *Validator
	modify    *atomic.Bool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := mdwlog.NewNop()
	reg, err := registry.New(registry.Options{Logger: logger})
	if err != nil {
		t.Fatalf("registry.New() error = %v", err)
	}
	p, _ := parser.New(parser.Options{Logger: logger})

	modify := &atomic.Bool{}
	modify.Store(true)
	v, err := New(Options{Logger: logger, Registry: reg, ModifyEnabled: modify.Load})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &fixture{parser: p, validator: v, modify: modify}
}

func (f *fixture) validate(t *testing.T, line string) error {
	t.Helper()
	cmd, err := f.parser.Parse(line)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", line, err)
	}
	return f.validator.Validate(cmd)
}

func TestNewRequiresRegistry(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("New() without registry should fail")
	}
}

func TestValidate_Accepts(t *testing.T) {
	f := newFixture(t)

	lines := []string{
		"list tcp-lb",
		"list-detail server in server-group sg1",
		"list server-group in upstream ups0",
		"list arp in vpc 1314 in switch sw0",
		"list connection in tcp-lb lb0",
		"list connection in event-loop el0 in event-loop-group elg0",
		"list bytes-in in server sv1 in server-group sg1",
		"list accepted-conn-count in server-sock 0.0.0.0:80 in tcp-lb lb0",
		"list dns-cache in resolver (default)",
		"add upstream ups0",
		"add event-loop-group elg1",
		"add event-loop el1 to event-loop-group elg1",
		"add event-loop el1 in event-loop-group elg1",
		"remove event-loop el1 in event-loop-group elg1",
		"add server-group sg1",
		"add server sv1 to server-group sg1 weight 10",
		"add server-group sg1 timeout 500 period 800 up 4 down 5",
		"add server-group sg1 to upstream ups0 weight 10",
		"add switch sw1 to switch sw0 address 10.0.0.2:18472",
		"add switch sw0 address 0.0.0.0:18472 no-flood",
		"add socks5-server s5 address 0.0.0.0:1080 upstream ups0 allow-non-backend",
		"add ip 10.0.0.2 to vpc 1314 in switch sw0 mac 00:11:22:33:44:55",
		"remove server sv1 from server-group sg1",
		"force-remove upstream ups0",
		"force-remove connection 1.1.1.1:1/2.2.2.2:2 from tcp-lb lb0",
		"force-remove dns-cache example.com from resolver (default)",
		"remove user-client alice from switch sw0 address 10.0.0.1:18472",
		"update server sv1 in server-group sg1 weight 5",
		"update server-group sg1 in upstream ups0 weight 5",
		"update tcp-lb lb0 timeout 100",
	}
	for _, line := range lines {
		if err := f.validate(t, line); err != nil {
			t.Errorf("Validate(%q) error = %v", line, err)
		}
	}
}

func TestValidate_Rejects(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		line    string
		code    mdwerror.Code
		errPart string
	}{
		{"list tcp-lb lb0", mdwerror.CodeRCLSemantic, "does not take a name"},
		{"list server sv1 in server-group sg1", mdwerror.CodeRCLSemantic, "does not take a name"},
		{"add upstream", mdwerror.CodeRCLSemantic, "requires a name"},
		{"add server sv1 weight 1", mdwerror.CodeRCLSemantic, "requires a container"},
		{"add server sv1 to upstream ups0 weight 1", mdwerror.CodeRCLSemantic, "cannot be placed in upstream"},
		{"add tcp-lb lb0 to upstream ups0", mdwerror.CodeRCLSemantic, "top-level"},
		{"add upstream ups0 to switch sw0", mdwerror.CodeRCLSemantic, "top-level"},
		{"add server sv1 from server-group sg1 weight 1", mdwerror.CodeRCLSemantic, "requires 'to'"},
		{"remove server sv1 to server-group sg1", mdwerror.CodeRCLSemantic, "requires 'from'"},
		{"add ip 10.0.0.2 in vpc 1 to switch sw0", mdwerror.CodeRCLSemantic, "both 'in' and 'to'"},
		{"add server sv1 in server-group sg1 weight 1", mdwerror.CodeRCLSemantic, "cannot specify parent resource"},
		{"remove security-group-rule r1 in security-group (allow-all)", mdwerror.CodeRCLSemantic, "use 'from' instead"},
		{"force-remove server sv1 in server-group sg1", mdwerror.CodeRCLSemantic, "cannot specify parent resource"},
		{"update server sv1 to server-group sg1 weight 1", mdwerror.CodeRCLSemantic, "does not take a preposition"},
		{"update upstream ups0", mdwerror.CodeRCLSemantic, "cannot update upstream"},
		{"add resolver r", mdwerror.CodeRCLSemantic, "cannot add resolver"},
		{"list resolver", mdwerror.CodeRCLSemantic, "cannot list resolver"},
		{"remove connection c from tcp-lb lb0", mdwerror.CodeRCLSemantic, "cannot remove connection"},
		{"list tap in switch sw0", mdwerror.CodeRCLSemantic, "cannot list tap"},
		{"add arp a to vpc 1 in switch sw0", mdwerror.CodeRCLSemantic, "cannot add arp"},
		{"list arp in vpc 1314", mdwerror.CodeRCLSemantic, "vpc 1314 requires a container"},
		{"list ip in vpc 1 in upstream ups0", mdwerror.CodeRCLSemantic, "vpc 1 cannot be placed in upstream ups0"},
		{"list server-sock in event-loop el0", mdwerror.CodeRCLSemantic, "event-loop el0 requires a container"},
		{"list dns-cache in upstream u", mdwerror.CodeRCLSemantic, "cannot be placed in upstream"},
		{"list server in server-group sg1 noipv4", mdwerror.CodeRCLParamValidation, "does not take flags"},
		{"add tcp-lb lb0 address 1.1.1.1:80 upstream u no-flood", mdwerror.CodeRCLParamValidation, "flag no-flood is not supported"},
		{"add server sv1 to server-group sg1", mdwerror.CodeRCLParamValidation, "missing weight"},
		{"add server-group sg1 to upstream ups0 timeout 1", mdwerror.CodeRCLParamValidation, "not supported"},
		{"remove upstream ups0 weight 1", mdwerror.CodeRCLParamValidation, "does not take params"},
		{"remove user-client alice from switch sw0", mdwerror.CodeRCLParamValidation, "missing address"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			err := f.validate(t, tt.line)
			if err == nil {
				t.Fatal("expected error")
			}
			if !mdwerror.HasCode(err, tt.code) {
				t.Errorf("code = %v, want %v (%v)", mdwerror.GetCode(err), tt.code, err)
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("error = %q, want %q", err.Error(), tt.errPart)
			}
		})
	}
}

func TestValidate_ModificationDisabled(t *testing.T) {
	f := newFixture(t)
	f.modify.Store(false)

	for _, line := range []string{
		"add upstream ups0",
		"remove upstream ups0",
		"force-remove upstream ups0",
		"update tcp-lb lb0 timeout 1",
	} {
		err := f.validate(t, line)
		if !mdwerror.HasCode(err, mdwerror.CodeRCLConfigLocked) {
			t.Errorf("Validate(%q) = %v, want config locked", line, err)
		}
		if !mdwerror.IsSemantic(err) {
			t.Errorf("config locked must be a semantic failure")
		}
	}

	if err := f.validate(t, "list upstream"); err != nil {
		t.Errorf("list should still work: %v", err)
	}

	f.modify.Store(true)
	if err := f.validate(t, "add upstream ups0"); err != nil {
		t.Errorf("re-enabled modification: %v", err)
	}
}

// The list rule fires before modification is consulted, so a locked
// configuration never hides a malformed list.
func TestValidate_ListShapeBeforeLock(t *testing.T) {
	f := newFixture(t)
	f.modify.Store(false)
	err := f.validate(t, "list upstream ups0")
	if !mdwerror.HasCode(err, mdwerror.CodeRCLSemantic) {
		t.Errorf("got %v", err)
	}
}
