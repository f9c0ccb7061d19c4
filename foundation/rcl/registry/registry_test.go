package registry

import (
	"strings"
	"testing"

	mdwerror "github.com/msto63/netplane/foundation/core/error"
	mdwlog "github.com/msto63/netplane/foundation/core/log"
	"github.com/msto63/netplane/foundation/rcl/ast"
	"github.com/msto63/netplane/foundation/rcl/parser"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New(Options{Logger: mdwlog.NewNop()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestEveryResourceTypeHasARow(t *testing.T) {
	r := newTestRegistry(t)
	for _, rt := range ast.ResourceTypes() {
		if _, ok := r.Lookup(rt); !ok {
			t.Errorf("no schema row for %s", rt.Full())
		}
	}
	if len(r.Types()) != len(ast.ResourceTypes()) {
		t.Errorf("Types() = %d rows", len(r.Types()))
	}
}

func TestRegisterRejectsInconsistentRows(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name string
		row  *Schema
	}{
		{"nil", nil},
		{"unknown type", &Schema{Type: ast.ResourceType(999), TopLevel: true}},
		{"add without check", &Schema{Type: ast.TypeUpstream, TopLevel: true, Actions: []ast.Action{ast.ActionAdd}}},
		{"update without check", &Schema{Type: ast.TypeUpstream, TopLevel: true, Actions: []ast.Action{ast.ActionUpdate}}},
		{"list without view", &Schema{Type: ast.TypeUpstream, TopLevel: true, Actions: []ast.Action{ast.ActionList}}},
		{"nowhere", &Schema{Type: ast.TypeUpstream}},
		{"attach outside containers", &Schema{
			Type: ast.TypeUpstream, TopLevel: true,
			CheckAttach: map[ast.ResourceType]Checker{ast.TypeSwitch: noParams},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.Register(tt.row); err == nil {
				t.Error("Register() should fail")
			}
		})
	}
}

func TestSchemaQueries(t *testing.T) {
	r := newTestRegistry(t)

	sg, _ := r.Lookup(ast.TypeServerGroup)
	if !sg.TopLevel || !sg.AllowsContainer(ast.TypeUpstream) || sg.AllowsContainer(ast.TypeSwitch) {
		t.Errorf("server-group placement wrong: %+v", sg)
	}
	if !sg.Allows(ast.ActionUpdate) {
		t.Error("server-group should allow update")
	}

	resolver, _ := r.Lookup(ast.TypeResolver)
	for _, a := range ast.Actions() {
		if resolver.Allows(a) {
			t.Errorf("resolver allows %s", a.Full())
		}
	}

	conn, _ := r.Lookup(ast.TypeConnection)
	if conn.View(ast.ActionList) != ViewCount || conn.View(ast.ActionListDetail) != ViewDetail {
		t.Errorf("connection views = %v/%v", conn.View(ast.ActionList), conn.View(ast.ActionListDetail))
	}
	if conn.Allows(ast.ActionRemove) || !conn.Allows(ast.ActionForceRemove) {
		t.Error("connections can only be force-removed")
	}

	tap, _ := r.Lookup(ast.TypeTap)
	if tap.Allows(ast.ActionList) {
		t.Error("tap cannot be listed")
	}
}

func TestHelpMentionsEveryType(t *testing.T) {
	help := newTestRegistry(t).Help()
	for _, rt := range ast.ResourceTypes() {
		if !strings.Contains(help, rt.Full()) {
			t.Errorf("Help() misses %s", rt.Full())
		}
	}
}

func parse(t *testing.T, line string) *ast.Command {
	t.Helper()
	p, _ := parser.New(parser.Options{Logger: mdwlog.NewNop()})
	cmd, err := p.Parse(line)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", line, err)
	}
	return cmd
}

func TestChecks(t *testing.T) {
	tests := []struct {
		name    string
		check   Checker
		line    string
		wantErr string
	}{
		{"tcp-lb ok", checkCreateTCPLB, "add tcp-lb lb0 address 127.0.0.1:80 upstream ups0 protocol http timeout 900", ""},
		{"tcp-lb wildcard", checkCreateTCPLB, "add tcp-lb lb0 address :80 upstream ups0", ""},
		{"tcp-lb missing upstream", checkCreateTCPLB, "add tcp-lb lb0 address 127.0.0.1:80", "missing upstream"},
		{"tcp-lb bad address", checkCreateTCPLB, "add tcp-lb lb0 address localhost upstream u", "invalid address"},
		{"tcp-lb bad port", checkCreateTCPLB, "add tcp-lb lb0 address 1.1.1.1:70000 upstream u", "invalid address"},
		{"tcp-lb bad protocol", checkCreateTCPLB, "add tcp-lb lb0 address 1.1.1.1:80 upstream u protocol smtp", "invalid protocol"},
		{"tcp-lb foreign param", checkCreateTCPLB, "add tcp-lb lb0 address 1.1.1.1:80 upstream u weight 1", "param weight is not supported"},
		{"tcp-lb update", checkUpdateTCPLB, "update tcp-lb lb0 timeout 10 in-buffer-size 1024", ""},
		{"tcp-lb update address", checkUpdateTCPLB, "update tcp-lb lb0 address 1.1.1.1:80", "not supported"},
		{"socks5 conflicting flags", checkCreateSocks5, "add socks5-server s address 1.1.1.1:1080 upstream u allow-non-backend deny-non-backend", "cannot be set together"},
		{"dns ttl", checkCreateDNSServer, "add dns-server d address 0.0.0.0:53 upstream u ttl -1", "invalid ttl"},
		{"server-group ok", checkCreateServerGroup, "add server-group sg timeout 500 period 800 up 4 down 5 method wlc", ""},
		{"server-group bare", checkCreateServerGroup, "add server-group sg", ""},
		{"server-group partial hc", checkCreateServerGroup, "add server-group sg timeout 500 period 800 up 4", "given together"},
		{"server-group bad hc", checkCreateServerGroup, "add server-group sg timeout 0 period 800 up 4 down 5", "invalid timeout"},
		{"server-group method", checkCreateServerGroup, "add server-group sg timeout 1 period 1 up 1 down 1 method random", "invalid method"},
		{"server-group attach", checkAttachServerGroup, `add server-group sg to upstream u weight 10 annotations {"a":"b"}`, ""},
		{"server-group attach bad annotations", checkAttachServerGroup, "add server-group sg to upstream u annotations [1]", "invalid annotations"},
		{"server-group update partial hc", checkUpdateServerGroup, "update server-group sg timeout 10", "updated together"},
		{"server-group update in upstream", checkUpdateServerGroup, "update server-group sg in upstream u weight 3", ""},
		{"server-group update weight top-level", checkUpdateServerGroup, "update server-group sg weight 3", "not supported"},
		{"server ok", checkCreateServer, "add server sv1 to server-group sg1 weight 10", ""},
		{"server with host", checkCreateServer, "add server sv1 to server-group sg1 address example.com:80 weight 1", ""},
		{"server negative weight", checkCreateServer, "add server sv1 to server-group sg1 weight -1", "invalid weight"},
		{"server missing weight", checkCreateServer, "add server sv1 to server-group sg1 address 1.1.1.1:80", "missing weight"},
		{"secg default", checkCreateSecurityGroup, "add security-group g default maybe", "invalid default"},
		{"secgr ok", checkCreateSecurityGroupRule, "add security-group-rule r to security-group g network 10.0.0.0/8 protocol TCP port-range 80,90 default allow", ""},
		{"secgr host bits", checkCreateSecurityGroupRule, "add security-group-rule r to security-group g network 10.0.0.1/8 protocol TCP port-range 80,90 default allow", "invalid network"},
		{"secgr port range", checkCreateSecurityGroupRule, "add security-group-rule r to security-group g network 10.0.0.0/8 protocol UDP port-range 90,80 default deny", "invalid port-range"},
		{"cert-key", checkCreateCertKey, "add cert-key ck cert /a.pem,/b.pem", "missing key"},
		{"switch ok", checkCreateSwitch, "add switch sw0 address 0.0.0.0:18472 mac-table-timeout 300 no-flood", ""},
		{"switch attach", checkAttachSwitch, "add switch sw1 to switch sw0 address 10.0.0.2:18472", ""},
		{"switch attach extra", checkAttachSwitch, "add switch sw1 to switch sw0 address 10.0.0.2:18472 mtu 1500", "not supported"},
		{"vpc ok", checkCreateVPC, "add vpc 1314 to switch sw0 network 172.16.0.0/16 v6network fd00::/64", ""},
		{"vpc name", checkCreateVPC, "add vpc office to switch sw0 network 172.16.0.0/16", "vpc name must be its vni"},
		{"vpc v6 in v4", checkCreateVPC, "add vpc 1 to switch sw0 network fd00::/64", "invalid network"},
		{"user", checkCreateUser, "add user alice to switch sw0 password pw vni 1314", ""},
		{"user vni", checkCreateUser, "add user alice to switch sw0 password pw vni 0", "invalid vni"},
		{"tap long name", checkCreateTap, "add tap tap-name-too-long0 to switch sw0 vni 1", "longer than"},
		{"tap ok", checkCreateTap, "add tap tap%d to switch sw0 vni 1", ""},
		{"user-client", checkCreateUserClient, "add user-client alice to switch sw0 password pw vni 1 address 10.0.0.1:18472", ""},
		{"user-client remove", checkRemoveUserClient, "remove user-client alice from switch sw0", "missing address"},
		{"ip ok", checkCreateIP, "add ip 10.0.0.2 to vpc 1 in switch sw0 mac 00:11:22:33:44:55", ""},
		{"ip bad name", checkCreateIP, "add ip host to vpc 1 in switch sw0 mac 00:11:22:33:44:55", "must be an ip address"},
		{"ip bad mac", checkCreateIP, "add ip 10.0.0.2 to vpc 1 in switch sw0 mac zz", "invalid mac"},
		{"route vni", checkCreateRoute, "add route r1 to vpc 1 in switch sw0 network 10.1.0.0/16 vni 2", ""},
		{"route both", checkCreateRoute, "add route r1 to vpc 1 in switch sw0 network 10.1.0.0/16 vni 2 via 10.0.0.1", "exactly one"},
		{"route neither", checkCreateRoute, "add route r1 to vpc 1 in switch sw0 network 10.1.0.0/16", "exactly one"},
		{"proxy", checkCreateProxy, "add proxy 10.0.0.1:80 to switch sw0 address backend.local:8080", ""},
		{"proxy name", checkCreateProxy, "add proxy p1 to switch sw0 address 1.1.1.1:80", "listen ip:port"},
		{"no params", noParams, "add upstream ups0 weight 1", "not supported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check(parse(t, tt.line))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !mdwerror.HasCode(err, mdwerror.CodeRCLParamValidation) {
				t.Errorf("code = %v", mdwerror.GetCode(err))
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestParseAnnotations(t *testing.T) {
	got, err := ParseAnnotations(`{"zone":"a","tier":"web"}`)
	if err != nil {
		t.Fatalf("ParseAnnotations() error = %v", err)
	}
	if got["zone"] != "a" || got["tier"] != "web" {
		t.Errorf("got %v", got)
	}
	if _, err := ParseAnnotations("[1,2]"); err == nil {
		t.Error("a sequence should not decode into annotations")
	}
}
