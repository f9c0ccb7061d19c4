package tree

import (
	"context"
	"net/netip"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	mdwerror "github.com/msto63/netplane/foundation/core/error"
	mdwlog "github.com/msto63/netplane/foundation/core/log"
	"github.com/msto63/netplane/foundation/rcl"
	"github.com/msto63/netplane/foundation/rcl/ast"
	"github.com/msto63/netplane/foundation/rcl/registry"
	"github.com/msto63/netplane/pkg/core/cache"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type clock struct{ nanos atomic.Int64 }

func newClock() *clock {
	c := &clock{}
	c.nanos.Store(time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC).UnixNano())
	return c
}

func (c *clock) Now() time.Time          { return time.Unix(0, c.nanos.Load()).UTC() }
func (c *clock) Advance(d time.Duration) { c.nanos.Add(int64(d)) }

type fixture struct {
	engine *rcl.Engine
	tree   *Tree
	dp     *MemoryDataPlane
	clock  *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := mdwlog.NewNop()
	dp := NewMemoryDataPlane()
	clk := newClock()
	tr := New(Options{
		Logger:     logger,
		DataPlane:  dp,
		DNSCache:   cache.New(cache.Config{TTL: time.Minute, Now: clk.Now}),
		BcryptCost: bcrypt.MinCost,
	})
	eng, err := rcl.New(rcl.Options{Logger: logger, Handler: tr})
	if err != nil {
		t.Fatalf("rcl.New() error = %v", err)
	}
	t.Cleanup(eng.Close)
	return &fixture{engine: eng, tree: tr, dp: dp, clock: clk}
}

func (f *fixture) run(t *testing.T, line string) *rcl.CmdResult {
	t.Helper()
	res, err := f.engine.Execute(line)
	if err != nil {
		t.Fatalf("Execute(%q) error = %v", line, err)
	}
	return res
}

func (f *fixture) fail(t *testing.T, line string, code mdwerror.Code) error {
	t.Helper()
	_, err := f.engine.Execute(line)
	if err == nil {
		t.Fatalf("Execute(%q) should fail with %s", line, code)
	}
	if !mdwerror.HasCode(err, code) {
		t.Fatalf("Execute(%q) error = %v, want code %s", line, err, code)
	}
	return err
}

func (f *fixture) lines(t *testing.T, line string) []string {
	t.Helper()
	return f.run(t, line).Lines()
}

// onPlane runs fn on the control plane and waits for it
func (f *fixture) onPlane(t *testing.T, fn func()) {
	t.Helper()
	done := make(chan struct{})
	if err := f.engine.ControlPlane().Post(func(context.Context) {
		defer close(done)
		fn()
	}); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	<-done
}

func TestTree_ServerGroupWithoutHealthCheck(t *testing.T) {
	f := newFixture(t)

	f.run(t, "add server-group sg1")
	if diff := cmp.Diff([]string{"sg1"}, f.lines(t, "list server-group")); diff != "" {
		t.Errorf("list server-group mismatch (-want +got):\n%s", diff)
	}
	want := "sg1 -> timeout 1000 period 5000 up 2 down 3 method wrr"
	if got := f.lines(t, "list-detail server-group")[0]; !strings.HasPrefix(got, want) {
		t.Errorf("detail = %s, want prefix %s", got, want)
	}

	f.fail(t, "add server-group sg2 timeout 500", mdwerror.CodeRCLParamValidation)
	f.fail(t, "list server-group sg1", mdwerror.CodeRCLSemantic)
}

func TestTree_ParentMustExist(t *testing.T) {
	f := newFixture(t)

	f.fail(t, "add event-loop el1 in event-loop-group elg1", mdwerror.CodeNotFound)
	f.run(t, "add event-loop-group elg1")
	f.run(t, "add event-loop el1 in event-loop-group elg1")
	f.run(t, "a el el2 to elg elg1")

	if diff := cmp.Diff([]string{"el1", "el2"}, f.lines(t, "list event-loop in event-loop-group elg1")); diff != "" {
		t.Errorf("event loops mismatch (-want +got):\n%s", diff)
	}
	f.fail(t, "add event-loop-group elg1", mdwerror.CodeDuplicateEntry)
	f.run(t, "remove event-loop el1 from event-loop-group elg1")
	f.fail(t, "remove event-loop el1 from event-loop-group elg1", mdwerror.CodeNotFound)
}

func TestTree_BuiltinsPresent(t *testing.T) {
	f := newFixture(t)

	if diff := cmp.Diff([]string{DefaultAcceptorELG, DefaultWorkerELG}, f.lines(t, "list event-loop-group")); diff != "" {
		t.Errorf("built-in groups mismatch (-want +got):\n%s", diff)
	}
	f.fail(t, "force-remove event-loop-group (worker-elg)", mdwerror.CodeInvalidOperation)
	f.fail(t, "remove security-group (allow-all)", mdwerror.CodeInvalidOperation)
}

func TestTree_TCPLBLifecycle(t *testing.T) {
	f := newFixture(t)

	f.fail(t, "add tcp-lb lb0 address 127.0.0.1:18080 upstream ups0", mdwerror.CodeNotFound)
	f.run(t, "add upstream ups0")
	f.run(t, "add tcp-lb lb0 address 127.0.0.1:18080 upstream ups0 protocol http")
	f.fail(t, "add tcp-lb lb1 address 127.0.0.1:18080 upstream ups0", mdwerror.CodeDuplicateEntry)

	detail := f.lines(t, "list-detail tcp-lb")
	want := "lb0 -> acceptor (acceptor-elg) worker (worker-elg) bind 127.0.0.1:18080 backend ups0 in-buffer-size 16384 out-buffer-size 16384 timeout 900000 protocol http security-group (allow-all)"
	if diff := cmp.Diff([]string{want}, detail); diff != "" {
		t.Errorf("detail mismatch (-want +got):\n%s", diff)
	}

	f.run(t, "update tcp-lb lb0 in-buffer-size 32768 timeout 1000")
	if got := f.lines(t, "L tl")[0]; !strings.Contains(got, "in-buffer-size 32768") || !strings.Contains(got, "timeout 1000") {
		t.Errorf("update not applied: %s", got)
	}
	f.fail(t, "update tcp-lb lb0 security-group nope", mdwerror.CodeNotFound)

	err := f.fail(t, "remove upstream ups0", mdwerror.CodeResourceLocked)
	if !strings.Contains(err.Error(), "tcp-lb lb0") {
		t.Errorf("locked error should name the user: %v", err)
	}
	f.run(t, "remove tcp-lb lb0")
	f.run(t, "remove upstream ups0")
	if got := f.lines(t, "list tcp-lb"); len(got) != 0 {
		t.Errorf("tcp-lb list = %v, want empty", got)
	}
}

func TestTree_ForceRemoveIgnoresReferences(t *testing.T) {
	f := newFixture(t)
	f.run(t, "add upstream ups0")
	f.run(t, "add socks5-server s5 address 0.0.0.0:1080 upstream ups0 allow-non-backend")

	f.fail(t, "remove upstream ups0", mdwerror.CodeResourceLocked)
	f.run(t, "force-remove upstream ups0")
	f.fail(t, "list server-group in upstream ups0", mdwerror.CodeNotFound)

	if got := f.lines(t, "L socks5")[0]; !strings.Contains(got, "allow-non-backend") {
		t.Errorf("socks5 detail = %s", got)
	}
}

func TestTree_ServerGroups(t *testing.T) {
	f := newFixture(t)
	f.run(t, "add upstream ups0")
	f.run(t, "add server-group sg0 timeout 1000 period 5000 up 2 down 3 method wlc")
	f.run(t, "add server svr0 to server-group sg0 address 127.0.0.1:8080 weight 10")
	f.run(t, "add server sv1 to server-group sg0 weight 10")
	f.fail(t, "add server sv1 to server-group sg0 weight 10", mdwerror.CodeDuplicateEntry)

	f.run(t, `add server-group sg0 to upstream ups0 weight 10 annotations {"a":"b"}`)
	f.fail(t, "add server-group sg0 to upstream ups0", mdwerror.CodeDuplicateEntry)
	f.fail(t, "add server-group sgX to upstream ups0", mdwerror.CodeNotFound)

	if diff := cmp.Diff([]string{`sg0 -> weight 10 annotations {"a":"b"}`}, f.lines(t, "list-detail server-group in upstream ups0")); diff != "" {
		t.Errorf("attachment mismatch (-want +got):\n%s", diff)
	}
	f.run(t, "update server-group sg0 in upstream ups0 weight 5")
	if got := f.lines(t, "L sg in ups ups0")[0]; !strings.HasPrefix(got, "sg0 -> weight 5") {
		t.Errorf("attachment after update = %s", got)
	}

	f.run(t, "update server-group sg0 timeout 2000 period 6000 up 1 down 1")
	if got := f.lines(t, "L sg")[0]; !strings.Contains(got, "timeout 2000 period 6000 up 1 down 1 method wlc") {
		t.Errorf("server-group detail = %s", got)
	}

	f.run(t, "update server svr0 in server-group sg0 weight 3")
	if diff := cmp.Diff([]string{"svr0 -> connect-to 127.0.0.1:8080 weight 3", "sv1 -> connect-to sv1 weight 10"},
		f.lines(t, "list-detail server in server-group sg0")); diff != "" {
		t.Errorf("servers mismatch (-want +got):\n%s", diff)
	}

	f.fail(t, "remove server-group sg0", mdwerror.CodeResourceLocked)
	f.run(t, "remove server-group sg0 from upstream ups0")
	f.run(t, "add server-group sg0 to upstream ups0")
	f.run(t, "force-remove server-group sg0")
	if got := f.lines(t, "list server-group in upstream ups0"); len(got) != 0 {
		t.Errorf("forced remove should detach, got %v", got)
	}
}

func TestTree_SecurityGroups(t *testing.T) {
	f := newFixture(t)
	f.run(t, "add security-group secg0 default deny")
	f.run(t, "add security-group-rule r0 to security-group secg0 network 10.0.0.0/8 protocol TCP port-range 80,90 default allow")
	f.fail(t, "add security-group-rule r1 to security-group secg0 network 10.0.0.0/8 protocol TCP port-range 80,90 default deny", mdwerror.CodeDuplicateEntry)

	if diff := cmp.Diff([]string{"r0 -> allow 10.0.0.0/8 protocol TCP port [80,90]"},
		f.lines(t, "list-detail security-group-rule in security-group secg0")); diff != "" {
		t.Errorf("rules mismatch (-want +got):\n%s", diff)
	}

	var g *SecurityGroup
	f.onPlane(t, func() { g, _ = f.tree.securityGroup("secg0") })
	if !g.Allows(netip.MustParseAddr("10.1.2.3"), "TCP", 85) {
		t.Error("rule should allow 10.1.2.3:85")
	}
	if g.Allows(netip.MustParseAddr("10.1.2.3"), "TCP", 443) || g.Allows(netip.MustParseAddr("192.168.0.1"), "TCP", 85) {
		t.Error("default deny should apply outside the rule")
	}

	f.run(t, "add upstream ups0")
	f.run(t, "add dns-server dns0 address 0.0.0.0:53 upstream ups0 security-group secg0 no-ipv6")
	f.fail(t, "remove security-group secg0", mdwerror.CodeResourceLocked)
	f.run(t, "update security-group secg0 default allow")
	if got := f.lines(t, "L secg"); got[1] != "secg0 -> default allow" {
		t.Errorf("security groups = %v", got)
	}
	f.run(t, "remove security-group-rule r0 from security-group secg0")
}

func TestTree_CertKeys(t *testing.T) {
	f := newFixture(t)
	f.run(t, "add cert-key ck0 cert /etc/a.pem,/etc/b.pem key /etc/k.pem")
	f.run(t, "add upstream ups0")
	f.fail(t, "add tcp-lb lb0 address 0.0.0.0:443 upstream ups0 cert-key ck0,ck1", mdwerror.CodeNotFound)
	f.run(t, "add tcp-lb lb0 address 0.0.0.0:443 upstream ups0 cert-key ck0")
	f.fail(t, "remove cert-key ck0", mdwerror.CodeResourceLocked)

	if diff := cmp.Diff([]string{"ck0 -> cert /etc/a.pem,/etc/b.pem key /etc/k.pem"}, f.lines(t, "L ck")); diff != "" {
		t.Errorf("cert-key mismatch (-want +got):\n%s", diff)
	}
}

func TestTree_Switch(t *testing.T) {
	f := newFixture(t)
	f.run(t, "add switch sw0 address 0.0.0.0:18472 no-flood")
	f.run(t, "add vpc 1314 to switch sw0 network 172.16.0.0/16 v6network fd00::/64")
	f.fail(t, "add user alice to switch sw0 password secret vni 1315", mdwerror.CodeNotFound)
	f.run(t, "add user alice to switch sw0 password secret vni 1314")

	if got := f.lines(t, "L sw")[0]; !strings.HasSuffix(got, "mtu 1500 flood deny") {
		t.Errorf("switch detail = %s", got)
	}
	if diff := cmp.Diff([]string{"alice -> vni 1314 mtu 1500"}, f.lines(t, "list-detail user in switch sw0")); diff != "" {
		t.Errorf("users mismatch (-want +got):\n%s", diff)
	}

	var vni int
	var authErr, badErr error
	f.onPlane(t, func() {
		vni, authErr = f.tree.Authenticate("sw0", "alice", "secret")
		_, badErr = f.tree.Authenticate("sw0", "alice", "wrong")
	})
	if authErr != nil || vni != 1314 {
		t.Errorf("Authenticate() = %d, %v", vni, authErr)
	}
	if !mdwerror.HasCode(badErr, mdwerror.CodeInvalidInput) {
		t.Errorf("Authenticate() with wrong password error = %v", badErr)
	}

	if got := f.run(t, "add tap tap%d to switch sw0 vni 1314"); got.Text != "tap0" {
		t.Errorf("first tap = %q, want tap0", got.Text)
	}
	if got := f.run(t, "add tap tap%d to switch sw0 vni 1314 mtu 9000"); got.Value != "tap1" {
		t.Errorf("second tap = %v, want tap1", got.Value)
	}
	f.run(t, "add user-client bob to switch sw0 password p vni 1314 address 10.0.0.9:18472")
	f.run(t, "add switch sw1 to switch sw0 address 10.0.0.2:18472")
	f.dp.AddIface("sw0", Iface{Name: "user:alice", VNI: 1314})

	if got := f.run(t, "list iface in switch sw0"); got.Value != int64(5) {
		t.Errorf("iface count = %v, want 5", got.Value)
	}
	wantIfaces := []string{
		"tap:tap0 -> vni 1314",
		"tap:tap1 -> vni 1314",
		"ucli:bob@10.0.0.9:18472 -> vni 1314",
		"remote:sw1 -> vni 0",
		"user:alice -> vni 1314",
	}
	if diff := cmp.Diff(wantIfaces, f.lines(t, "list-detail iface in switch sw0")); diff != "" {
		t.Errorf("ifaces mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"sw1 -> address 10.0.0.2:18472"}, f.lines(t, "list-detail switch in switch sw0")); diff != "" {
		t.Errorf("remote switches mismatch (-want +got):\n%s", diff)
	}

	f.fail(t, "remove vpc 1314 from switch sw0", mdwerror.CodeResourceLocked)
	f.run(t, "remove tap tap0 from switch sw0")
	f.run(t, "remove user-client bob from switch sw0 address 10.0.0.9:18472")
	f.fail(t, "remove user-client bob from switch sw0 address 10.0.0.9:18472", mdwerror.CodeNotFound)
	f.run(t, "remove switch sw1 from switch sw0")

	f.run(t, "update switch sw0 mtu 9000 mac-table-timeout 1000")
	if got := f.lines(t, "L sw")[0]; !strings.Contains(got, "mac-table-timeout 1000") || !strings.Contains(got, "mtu 9000") {
		t.Errorf("switch after update = %s", got)
	}
}

func TestTree_VPCContents(t *testing.T) {
	f := newFixture(t)
	f.run(t, "add switch sw0 address 0.0.0.0:18472")
	f.run(t, `add vpc 1314 to switch sw0 network 172.16.0.0/16 annotations {"env":"test"}`)
	f.run(t, "add vpc 1315 to switch sw0 network 172.17.0.0/16")

	f.run(t, "add ip 172.16.0.21 to vpc 1314 in switch sw0 mac 04:5c:6a:01:02:03")
	f.fail(t, "add ip 10.0.0.1 to vpc 1314 in switch sw0 mac 04:5c:6a:01:02:03", mdwerror.CodeRCLParamValidation)
	f.fail(t, "add ip 172.16.0.21 to vpc 1314 in switch sw0 mac 04:5c:6a:01:02:04", mdwerror.CodeDuplicateEntry)
	f.run(t, "add route to1315 to vpc 1314 in switch sw0 network 172.17.0.0/16 vni 1315")
	f.run(t, "add route gw to vpc 1314 in switch sw0 network 0.0.0.0/0 via 172.16.0.1")
	f.fail(t, "add route dup to vpc 1314 in switch sw0 network 0.0.0.0/0 via 172.16.0.2", mdwerror.CodeDuplicateEntry)

	if diff := cmp.Diff([]string{`1314 -> network 172.16.0.0/16 annotations {"env":"test"}`, "1315 -> network 172.17.0.0/16 annotations {}"},
		f.lines(t, "list-detail vpc in switch sw0")); diff != "" {
		t.Errorf("vpcs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"172.16.0.21 -> mac 04:5c:6a:01:02:03"}, f.lines(t, "L ip in vpc 1314 in sw sw0")); diff != "" {
		t.Errorf("ips mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"to1315 -> network 172.17.0.0/16 vni 1315", "gw -> network 0.0.0.0/0 via 172.16.0.1"},
		f.lines(t, "list-detail route in vpc 1314 in switch sw0")); diff != "" {
		t.Errorf("routes mismatch (-want +got):\n%s", diff)
	}

	f.dp.AddArp("sw0", 1314, ArpEntry{MAC: "04:5c:6a:01:02:03", IP: "172.16.0.21", Iface: "tap:tap0", TTL: 30 * time.Second})
	if got := f.run(t, "list arp in vpc 1314 in switch sw0"); got.Text != "1" {
		t.Errorf("arp count = %q, want 1", got.Text)
	}
	f.fail(t, "list arp in vpc 9999 in switch sw0", mdwerror.CodeNotFound)

	f.run(t, "add proxy 0.0.0.0:8080 to switch sw0 address example.com:80")
	if diff := cmp.Diff([]string{"0.0.0.0:8080 -> address example.com:80"}, f.lines(t, "L proxy in sw sw0")); diff != "" {
		t.Errorf("proxies mismatch (-want +got):\n%s", diff)
	}
	f.run(t, "remove proxy 0.0.0.0:8080 from switch sw0")
	f.run(t, "remove ip 172.16.0.21 from vpc 1314 in switch sw0")
	f.run(t, "remove route gw from vpc 1314 in switch sw0")
	f.run(t, "remove vpc 1315 from switch sw0")
}

func TestTree_DataPlaneViews(t *testing.T) {
	f := newFixture(t)
	f.run(t, "add upstream ups0")
	f.run(t, "add tcp-lb lb0 address 127.0.0.1:18080 upstream ups0")

	f.dp.AddServerSock("tcp-lb lb0", ServerSock{Bind: "127.0.0.1:18080"})
	f.dp.AddConnection("tcp-lb lb0", Connection{ID: "10.0.0.1:5000/127.0.0.1:18080", BytesIn: 100, BytesOut: 40})
	f.dp.AddConnection("tcp-lb lb0", Connection{ID: "10.0.0.2:5000/127.0.0.1:18080", BytesIn: 1, BytesOut: 2})
	f.dp.AddSession("tcp-lb lb0", Session{Active: "10.0.0.1:5000/127.0.0.1:18080", Passive: "127.0.0.1:40000/10.1.1.1:80"})
	f.dp.SetCounters("server-sock 127.0.0.1:18080 in tcp-lb lb0", Counters{BytesIn: 7, BytesOut: 8, Accepted: 3})

	if got := f.run(t, "list connection in tcp-lb lb0"); got.Value != int64(2) {
		t.Errorf("connection count = %v, want 2", got.Value)
	}
	if got := f.run(t, "list server-sock in tcp-lb lb0"); got.Text != "1" {
		t.Errorf("server-sock count = %q", got.Text)
	}
	if diff := cmp.Diff([]string{"10.0.0.1:5000/127.0.0.1:18080 -> 127.0.0.1:40000/10.1.1.1:80"}, f.lines(t, "L sess in tl lb0")); diff != "" {
		t.Errorf("sessions mismatch (-want +got):\n%s", diff)
	}

	counters := []struct {
		line string
		want string
	}{
		{"list bytes-in in server-sock 127.0.0.1:18080 in tcp-lb lb0", "7"},
		{"list-detail bytes-out in server-sock 127.0.0.1:18080 in tcp-lb lb0", "8"},
		{"list accepted-conn-count in server-sock 127.0.0.1:18080 in tcp-lb lb0", "3"},
	}
	for _, c := range counters {
		if got := f.run(t, c.line).Text; got != c.want {
			t.Errorf("%s = %s, want %s", c.line, got, c.want)
		}
	}

	f.run(t, "force-remove connection 10.0.0.2:5000/127.0.0.1:18080 from tcp-lb lb0")
	f.fail(t, "force-remove connection 10.0.0.2:5000/127.0.0.1:18080 from tcp-lb lb0", mdwerror.CodeNotFound)
	f.run(t, "force-remove session 10.0.0.1:5000/127.0.0.1:18080->127.0.0.1:40000/10.1.1.1:80 from tcp-lb lb0")
	if got := f.run(t, "list session in tcp-lb lb0").Text; got != "0" {
		t.Errorf("session count after close = %s", got)
	}

	f.fail(t, "list connection in tcp-lb nope", mdwerror.CodeNotFound)
	f.fail(t, "remove connection x from tcp-lb lb0", mdwerror.CodeRCLSemantic)
}

func TestTree_DNSCache(t *testing.T) {
	f := newFixture(t)

	f.onPlane(t, func() {
		f.tree.RecordDNS("example.com", []netip.Addr{netip.MustParseAddr("93.184.216.34"), netip.MustParseAddr("2606:2800:220:1::1")}, 30*time.Second)
		f.tree.RecordDNS("short.test", []netip.Addr{netip.MustParseAddr("10.0.0.1")}, 5*time.Second)
	})

	if got := f.run(t, "list dns-cache in resolver (default)"); got.Value != int64(2) {
		t.Errorf("dns-cache count = %v, want 2", got.Value)
	}
	want := []string{
		"example.com -> ipv4 [93.184.216.34] ipv6 [2606:2800:220:1::1] ttl 30s",
		"short.test -> ipv4 [10.0.0.1] ipv6 [] ttl 5s",
	}
	if diff := cmp.Diff(want, f.lines(t, "list-detail dns-cache in resolver (default)")); diff != "" {
		t.Errorf("dns-cache mismatch (-want +got):\n%s", diff)
	}

	f.clock.Advance(10 * time.Second)
	var swept int
	f.onPlane(t, func() { swept = f.tree.SweepDNSCache() })
	if swept != 1 {
		t.Errorf("SweepDNSCache() = %d, want 1", swept)
	}

	f.run(t, "force-remove dns-cache example.com from resolver (default)")
	f.fail(t, "force-remove dns-cache example.com from resolver (default)", mdwerror.CodeNotFound)
	f.fail(t, "list dns-cache in resolver other", mdwerror.CodeNotFound)
}

func TestTree_RunSweeperStopsWithContext(t *testing.T) {
	f := newFixture(t)
	f.onPlane(t, func() { f.tree.RecordDNS("a.test", nil, time.Second) })
	f.clock.Advance(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.tree.RunSweeper(ctx, f.engine.ControlPlane(), time.Millisecond) }()

	deadline := time.After(2 * time.Second)
	for {
		var n int64
		f.onPlane(t, func() { n = f.tree.dnsCache.Evicted() })
		if n == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("sweeper never removed the expired entry")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("RunSweeper() error = %v", err)
	}
}

func TestTree_ModificationLocked(t *testing.T) {
	f := newFixture(t)
	f.engine.SetModifyEnabled(false)

	f.fail(t, "add upstream ups0", mdwerror.CodeRCLConfigLocked)
	f.run(t, "list upstream")

	f.engine.SetModifyEnabled(true)
	f.run(t, "add upstream ups0")
}

func TestOwnerKey(t *testing.T) {
	tests := []struct {
		res  *ast.Resource
		want string
	}{
		{&ast.Resource{Type: ast.TypeTCPLB, Alias: "lb0"}, "tcp-lb lb0"},
		{
			&ast.Resource{Type: ast.TypeServerSock, Alias: "1.1.1.1:80", Parent: &ast.Resource{Type: ast.TypeTCPLB, Alias: "lb0"}},
			"server-sock 1.1.1.1:80 in tcp-lb lb0",
		},
		{
			&ast.Resource{Type: ast.TypeServerGroup, Alias: "sg0", Parent: &ast.Resource{Type: ast.TypeUpstream, Alias: "ups0"}},
			"server-group sg0",
		},
		{
			&ast.Resource{Type: ast.TypeServer, Alias: "svr0", Parent: &ast.Resource{
				Type: ast.TypeServerGroup, Alias: "sg0", Parent: &ast.Resource{Type: ast.TypeUpstream, Alias: "ups0"},
			}},
			"server svr0 in server-group sg0",
		},
	}
	for _, tt := range tests {
		if got := OwnerKey(tt.res); got != tt.want {
			t.Errorf("OwnerKey() = %q, want %q", got, tt.want)
		}
	}
}

// Every action a schema row allows must reach a tree operation rather
// than the unsupported fallback.
func TestTree_HandlesEveryResourceType(t *testing.T) {
	tr := New(Options{Logger: mdwlog.NewNop(), BcryptCost: bcrypt.MinCost})
	reg, err := registry.New(registry.Options{Logger: mdwlog.NewNop()})
	if err != nil {
		t.Fatalf("registry.New() error = %v", err)
	}
	ctx := context.Background()

	for _, rt := range ast.ResourceTypes() {
		schema, ok := reg.Lookup(rt)
		if !ok {
			t.Errorf("%s has no schema row", rt.Full())
			continue
		}
		parent := sampleParent(schema)
		for _, action := range schema.Actions {
			var err error
			switch {
			case action.IsList():
				switch schema.View(action) {
				case registry.ViewNames:
					_, err = tr.ListNames(ctx, rt, parent)
				case registry.ViewDetail:
					_, err = tr.ListDetail(ctx, rt, parent)
				case registry.ViewCount:
					_, err = tr.Count(ctx, rt, parent)
				}
			case action == ast.ActionAdd:
				_, err = tr.Create(ctx, rt, "x", parent, ast.NewParams(), nil)
			case action.IsRemove():
				err = tr.Remove(ctx, rt, "x", parent, ast.NewParams(), action == ast.ActionRemove)
			case action == ast.ActionUpdate:
				err = tr.Update(ctx, rt, "x", parent, ast.NewParams(), nil)
			}
			if mdwerror.HasCode(err, mdwerror.CodeInvalidOperation) && strings.HasPrefix(err.Error(), "cannot ") {
				t.Errorf("%s %s fell through: %v", action.Full(), rt.Full(), err)
			}
		}
	}
}

func sampleParent(s *registry.Schema) *ast.Resource {
	if s.TopLevel || len(s.Containers) == 0 {
		return nil
	}
	switch c := s.Containers[0]; c {
	case ast.TypeVPC:
		return &ast.Resource{Type: c, Alias: "1", Parent: &ast.Resource{Type: ast.TypeSwitch, Alias: "x"}}
	case ast.TypeServerSock:
		return &ast.Resource{Type: c, Alias: "x", Parent: &ast.Resource{Type: ast.TypeTCPLB, Alias: "x"}}
	case ast.TypeEventLoop:
		return &ast.Resource{Type: c, Alias: "x", Parent: &ast.Resource{Type: ast.TypeEventLoopGroup, Alias: "x"}}
	case ast.TypeResolver:
		return &ast.Resource{Type: c, Alias: DefaultResolver}
	default:
		return &ast.Resource{Type: c, Alias: "x"}
	}
}
