// File: checks.go
// Title: Per-Type Parameter Checks
// Description: Create, update, attach and remove checks referenced by the
//              schema rows. They inspect only the command itself; whether a
//              referenced resource exists is decided by the handler.
// Author: msto63
// Version: v0.1.1
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation
// - 2026-10-19 v0.1.1: Optional server-group health-check params

package registry

import (
	"net"
	"net/netip"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	mdwerror "github.com/msto63/netplane/foundation/core/error"
	"github.com/msto63/netplane/foundation/rcl/ast"
)

const (
	maxVNI        = 1<<24 - 1
	maxTapDevName = 15
)

// TCPLBProtocols are the protocols a tcp-lb can speak
var TCPLBProtocols = []string{"tcp", "http", "h2", "http/1.x", "dubbo", "thrift"}

// ServerGroupMethods are the balancing methods of a server-group
var ServerGroupMethods = []string{"wrr", "wlc", "source"}

// ---- helpers

func allowOnly(cmd *ast.Command, allowed ...ast.Param) error {
	for _, k := range cmd.Params.Keys() {
		ok := false
		for _, a := range allowed {
			if a == k {
				ok = true
				break
			}
		}
		if !ok {
			return mdwerror.ParamValidation("param %s is not supported when trying to %s %s", k.Full(), cmd.Action.Full(), cmd.Resource.Type.Full())
		}
	}
	return nil
}

func require(cmd *ast.Command, p ast.Param) (string, error) {
	v, ok := cmd.Params.Get(p)
	if !ok {
		return "", mdwerror.ParamValidation("missing %s", p.Full())
	}
	return v, nil
}

func optional(cmd *ast.Command, p ast.Param, check func(ast.Param, string) error) error {
	v, ok := cmd.Params.Get(p)
	if !ok {
		return nil
	}
	return check(p, v)
}

func required(cmd *ast.Command, p ast.Param, check func(ast.Param, string) error) error {
	v, err := require(cmd, p)
	if err != nil {
		return err
	}
	return check(p, v)
}

func invalid(p ast.Param, v, why string) error {
	return mdwerror.ParamValidation("invalid %s %q: %s", p.Full(), v, why)
}

// ParseIPPort accepts ip:port; the ip part may be empty for a wildcard bind
func ParseIPPort(v string) (netip.AddrPort, error) {
	host, port, err := net.SplitHostPort(v)
	if err != nil {
		return netip.AddrPort{}, err
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return netip.AddrPort{}, mdwerror.New("port out of range")
	}
	addr := netip.IPv4Unspecified()
	if host != "" {
		if addr, err = netip.ParseAddr(host); err != nil {
			return netip.AddrPort{}, err
		}
	}
	return netip.AddrPortFrom(addr, uint16(n)), nil
}

func isIPPort(p ast.Param, v string) error {
	if _, err := ParseIPPort(v); err != nil {
		return invalid(p, v, "expecting ip:port")
	}
	return nil
}

// isHostPort also accepts domain names, for backends
func isHostPort(p ast.Param, v string) error {
	host, port, err := net.SplitHostPort(v)
	if err != nil || host == "" {
		return invalid(p, v, "expecting host:port")
	}
	if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
		return invalid(p, v, "port out of range")
	}
	return nil
}

func isPositiveInt(p ast.Param, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return invalid(p, v, "expecting a positive integer")
	}
	return nil
}

func isNonNegativeInt(p ast.Param, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return invalid(p, v, "expecting a non-negative integer")
	}
	return nil
}

func isName(p ast.Param, v string) error {
	if v == "" {
		return invalid(p, v, "empty name")
	}
	return nil
}

func isNameList(p ast.Param, v string) error {
	for _, part := range strings.Split(v, ",") {
		if part == "" {
			return invalid(p, v, "empty entry in list")
		}
	}
	return nil
}

func oneOf(options ...string) func(ast.Param, string) error {
	return func(p ast.Param, v string) error {
		for _, o := range options {
			if o == v {
				return nil
			}
		}
		return invalid(p, v, "expecting one of "+strings.Join(options, ", "))
	}
}

func isVNI(p ast.Param, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxVNI {
		return invalid(p, v, "expecting an integer in [1, 16777215]")
	}
	return nil
}

func isMAC(p ast.Param, v string) error {
	if _, err := net.ParseMAC(v); err != nil {
		return invalid(p, v, "expecting a mac address")
	}
	return nil
}

func isIP(p ast.Param, v string) error {
	if _, err := netip.ParseAddr(v); err != nil {
		return invalid(p, v, "expecting an ip address")
	}
	return nil
}

// isNetwork requires a prefix with no host bits set
func isNetwork(want4 bool) func(ast.Param, string) error {
	return func(p ast.Param, v string) error {
		prefix, err := netip.ParsePrefix(v)
		if err != nil {
			return invalid(p, v, "expecting a network in cidr notation")
		}
		if prefix.Masked() != prefix {
			return invalid(p, v, "host bits set in network")
		}
		if want4 && !prefix.Addr().Is4() {
			return invalid(p, v, "expecting an ipv4 network")
		}
		if !want4 && !prefix.Addr().Is6() {
			return invalid(p, v, "expecting an ipv6 network")
		}
		return nil
	}
}

func isAnyNetwork(p ast.Param, v string) error {
	prefix, err := netip.ParsePrefix(v)
	if err != nil || prefix.Masked() != prefix {
		return invalid(p, v, "expecting a network in cidr notation")
	}
	return nil
}

// ParsePortRange parses "min,max" with 0 <= min <= max <= 65535
func ParsePortRange(v string) (lo, hi int, ok bool) {
	parts := strings.Split(v, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lo, err1 := strconv.Atoi(parts[0])
	hi, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || lo < 0 || hi > 65535 || lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}

func isPortRange(p ast.Param, v string) error {
	if _, _, ok := ParsePortRange(v); !ok {
		return invalid(p, v, "expecting min,max within [0, 65535]")
	}
	return nil
}

// ParseAnnotations decodes a flow mapping such as {"a":"b"} or {a: b}
func ParseAnnotations(v string) (map[string]string, error) {
	var out map[string]string
	if err := yaml.Unmarshal([]byte(v), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]string{}
	}
	return out, nil
}

func isAnnotations(p ast.Param, v string) error {
	if !strings.HasPrefix(v, "{") {
		return invalid(p, v, `expecting a mapping such as {"key":"value"}`)
	}
	if _, err := ParseAnnotations(v); err != nil {
		return invalid(p, v, "expecting a mapping of strings")
	}
	return nil
}

func checkAll(cmd *ast.Command, checks ...func(*ast.Command) error) error {
	for _, c := range checks {
		if err := c(cmd); err != nil {
			return err
		}
	}
	return nil
}

func req(p ast.Param, check func(ast.Param, string) error) func(*ast.Command) error {
	return func(cmd *ast.Command) error { return required(cmd, p, check) }
}

func opt(p ast.Param, check func(ast.Param, string) error) func(*ast.Command) error {
	return func(cmd *ast.Command) error { return optional(cmd, p, check) }
}

func only(allowed ...ast.Param) func(*ast.Command) error {
	return func(cmd *ast.Command) error { return allowOnly(cmd, allowed...) }
}

func noBackendConflict(cmd *ast.Command) error {
	if cmd.Flags.Has(ast.FlagAllowNonBackend) && cmd.Flags.Has(ast.FlagDenyNonBackend) {
		return mdwerror.ParamValidation("%s and %s cannot be set together", ast.FlagAllowNonBackend.Full(), ast.FlagDenyNonBackend.Full())
	}
	return nil
}

// ---- checks referenced from the schema table

func noParams(cmd *ast.Command) error {
	return allowOnly(cmd)
}

var listenerBuffers = []func(*ast.Command) error{
	opt(ast.ParamInBufferSize, isPositiveInt),
	opt(ast.ParamOutBufferSize, isPositiveInt),
	opt(ast.ParamTimeout, isPositiveInt),
	opt(ast.ParamSecurityGroup, isName),
}

func checkCreateTCPLB(cmd *ast.Command) error {
	return checkAll(cmd, append([]func(*ast.Command) error{
		only(ast.ParamAddress, ast.ParamUpstream, ast.ParamAcceptorELG, ast.ParamEventLoopGroup,
			ast.ParamInBufferSize, ast.ParamOutBufferSize, ast.ParamTimeout, ast.ParamProtocol,
			ast.ParamSecurityGroup, ast.ParamCertKey),
		req(ast.ParamAddress, isIPPort),
		req(ast.ParamUpstream, isName),
		opt(ast.ParamAcceptorELG, isName),
		opt(ast.ParamEventLoopGroup, isName),
		opt(ast.ParamProtocol, oneOf(TCPLBProtocols...)),
		opt(ast.ParamCertKey, isNameList),
	}, listenerBuffers...)...)
}

func checkUpdateTCPLB(cmd *ast.Command) error {
	return checkAll(cmd, append([]func(*ast.Command) error{
		only(ast.ParamInBufferSize, ast.ParamOutBufferSize, ast.ParamTimeout, ast.ParamSecurityGroup, ast.ParamCertKey),
		opt(ast.ParamCertKey, isNameList),
	}, listenerBuffers...)...)
}

func checkCreateSocks5(cmd *ast.Command) error {
	return checkAll(cmd, append([]func(*ast.Command) error{
		only(ast.ParamAddress, ast.ParamUpstream, ast.ParamAcceptorELG, ast.ParamEventLoopGroup,
			ast.ParamInBufferSize, ast.ParamOutBufferSize, ast.ParamTimeout, ast.ParamSecurityGroup),
		req(ast.ParamAddress, isIPPort),
		req(ast.ParamUpstream, isName),
		opt(ast.ParamAcceptorELG, isName),
		opt(ast.ParamEventLoopGroup, isName),
		noBackendConflict,
	}, listenerBuffers...)...)
}

func checkUpdateSocks5(cmd *ast.Command) error {
	return checkAll(cmd, append([]func(*ast.Command) error{
		only(ast.ParamInBufferSize, ast.ParamOutBufferSize, ast.ParamTimeout, ast.ParamSecurityGroup),
		noBackendConflict,
	}, listenerBuffers...)...)
}

func checkCreateDNSServer(cmd *ast.Command) error {
	return checkAll(cmd,
		only(ast.ParamAddress, ast.ParamUpstream, ast.ParamEventLoopGroup, ast.ParamTTL, ast.ParamSecurityGroup),
		req(ast.ParamAddress, isIPPort),
		req(ast.ParamUpstream, isName),
		opt(ast.ParamEventLoopGroup, isName),
		opt(ast.ParamTTL, isNonNegativeInt),
		opt(ast.ParamSecurityGroup, isName),
	)
}

func checkUpdateDNSServer(cmd *ast.Command) error {
	return checkAll(cmd,
		only(ast.ParamTTL, ast.ParamSecurityGroup),
		opt(ast.ParamTTL, isNonNegativeInt),
		opt(ast.ParamSecurityGroup, isName),
	)
}

var healthCheckParams = []ast.Param{ast.ParamTimeout, ast.ParamPeriod, ast.ParamUp, ast.ParamDown}

func checkCreateServerGroup(cmd *ast.Command) error {
	if err := healthCheckTogether(cmd, "given"); err != nil {
		return err
	}
	checks := []func(*ast.Command) error{
		only(append(healthCheckParams, ast.ParamMethod, ast.ParamEventLoopGroup, ast.ParamAnnotations)...),
		opt(ast.ParamMethod, oneOf(ServerGroupMethods...)),
		opt(ast.ParamEventLoopGroup, isName),
		opt(ast.ParamAnnotations, isAnnotations),
	}
	for _, p := range healthCheckParams {
		checks = append(checks, opt(p, isPositiveInt))
	}
	return checkAll(cmd, checks...)
}

// healthCheckTogether rejects a partial health check: all four params or
// none of them
func healthCheckTogether(cmd *ast.Command, verb string) error {
	present := 0
	for _, p := range healthCheckParams {
		if cmd.Params.Has(p) {
			present++
		}
	}
	if present != 0 && present != len(healthCheckParams) {
		return mdwerror.ParamValidation("timeout, period, up and down must be %s together", verb)
	}
	return nil
}

func checkAttachServerGroup(cmd *ast.Command) error {
	return checkAll(cmd,
		only(ast.ParamWeight, ast.ParamAnnotations),
		opt(ast.ParamWeight, isNonNegativeInt),
		opt(ast.ParamAnnotations, isAnnotations),
	)
}

// checkUpdateServerGroup covers both the group itself and its attachment
// to an upstream, told apart by the parent chain.
func checkUpdateServerGroup(cmd *ast.Command) error {
	if cmd.Resource.Parent != nil && cmd.Resource.Parent.Type == ast.TypeUpstream {
		return checkAttachServerGroup(cmd)
	}
	checks := []func(*ast.Command) error{
		only(append(healthCheckParams, ast.ParamMethod, ast.ParamAnnotations)...),
		opt(ast.ParamMethod, oneOf(ServerGroupMethods...)),
		opt(ast.ParamAnnotations, isAnnotations),
	}
	for _, p := range healthCheckParams {
		checks = append(checks, opt(p, isPositiveInt))
	}
	if err := healthCheckTogether(cmd, "updated"); err != nil {
		return err
	}
	return checkAll(cmd, checks...)
}

func checkCreateServer(cmd *ast.Command) error {
	return checkAll(cmd,
		only(ast.ParamAddress, ast.ParamWeight),
		opt(ast.ParamAddress, isHostPort),
		req(ast.ParamWeight, isNonNegativeInt),
	)
}

func checkUpdateServer(cmd *ast.Command) error {
	return checkAll(cmd,
		only(ast.ParamWeight),
		req(ast.ParamWeight, isNonNegativeInt),
	)
}

func checkCreateSecurityGroup(cmd *ast.Command) error {
	return checkAll(cmd,
		only(ast.ParamDefault),
		req(ast.ParamDefault, oneOf("allow", "deny")),
	)
}

func checkUpdateSecurityGroup(cmd *ast.Command) error {
	return checkAll(cmd,
		only(ast.ParamDefault),
		req(ast.ParamDefault, oneOf("allow", "deny")),
	)
}

func checkCreateSecurityGroupRule(cmd *ast.Command) error {
	return checkAll(cmd,
		only(ast.ParamNetwork, ast.ParamProtocol, ast.ParamPortRange, ast.ParamDefault),
		req(ast.ParamNetwork, isAnyNetwork),
		req(ast.ParamProtocol, oneOf("TCP", "UDP")),
		req(ast.ParamPortRange, isPortRange),
		req(ast.ParamDefault, oneOf("allow", "deny")),
	)
}

func checkCreateCertKey(cmd *ast.Command) error {
	return checkAll(cmd,
		only(ast.ParamCert, ast.ParamKey),
		req(ast.ParamCert, isNameList),
		req(ast.ParamKey, isName),
	)
}

func checkCreateSwitch(cmd *ast.Command) error {
	return checkAll(cmd,
		only(ast.ParamAddress, ast.ParamMacTableTimeout, ast.ParamArpTableTimeout,
			ast.ParamEventLoopGroup, ast.ParamSecurityGroup, ast.ParamMTU),
		req(ast.ParamAddress, isIPPort),
		opt(ast.ParamMacTableTimeout, isPositiveInt),
		opt(ast.ParamArpTableTimeout, isPositiveInt),
		opt(ast.ParamEventLoopGroup, isName),
		opt(ast.ParamSecurityGroup, isName),
		opt(ast.ParamMTU, isPositiveInt),
	)
}

func checkAttachSwitch(cmd *ast.Command) error {
	return checkAll(cmd,
		only(ast.ParamAddress),
		req(ast.ParamAddress, isIPPort),
	)
}

func checkUpdateSwitch(cmd *ast.Command) error {
	return checkAll(cmd,
		only(ast.ParamMacTableTimeout, ast.ParamArpTableTimeout, ast.ParamSecurityGroup, ast.ParamMTU),
		opt(ast.ParamMacTableTimeout, isPositiveInt),
		opt(ast.ParamArpTableTimeout, isPositiveInt),
		opt(ast.ParamSecurityGroup, isName),
		opt(ast.ParamMTU, isPositiveInt),
	)
}

func checkCreateVPC(cmd *ast.Command) error {
	if err := isVNI(ast.ParamVni, cmd.Resource.Alias); err != nil {
		return mdwerror.ParamValidation("vpc name must be its vni: %q", cmd.Resource.Alias)
	}
	return checkAll(cmd,
		only(ast.ParamNetwork, ast.ParamV6Network, ast.ParamAnnotations),
		req(ast.ParamNetwork, isNetwork(true)),
		opt(ast.ParamV6Network, isNetwork(false)),
		opt(ast.ParamAnnotations, isAnnotations),
	)
}

func checkCreateUser(cmd *ast.Command) error {
	return checkAll(cmd,
		only(ast.ParamPassword, ast.ParamVni, ast.ParamMTU),
		req(ast.ParamPassword, isName),
		req(ast.ParamVni, isVNI),
		opt(ast.ParamMTU, isPositiveInt),
	)
}

func checkCreateTap(cmd *ast.Command) error {
	if len(cmd.Resource.Alias) > maxTapDevName {
		return mdwerror.ParamValidation("tap device name %q is longer than %d", cmd.Resource.Alias, maxTapDevName)
	}
	return checkAll(cmd,
		only(ast.ParamVni, ast.ParamPostScript, ast.ParamMTU),
		req(ast.ParamVni, isVNI),
		opt(ast.ParamPostScript, isName),
		opt(ast.ParamMTU, isPositiveInt),
	)
}

func checkCreateUserClient(cmd *ast.Command) error {
	return checkAll(cmd,
		only(ast.ParamPassword, ast.ParamVni, ast.ParamAddress),
		req(ast.ParamPassword, isName),
		req(ast.ParamVni, isVNI),
		req(ast.ParamAddress, isIPPort),
	)
}

// A user client is identified by user name plus remote address.
func checkRemoveUserClient(cmd *ast.Command) error {
	return checkAll(cmd,
		only(ast.ParamAddress),
		req(ast.ParamAddress, isIPPort),
	)
}

func checkCreateIP(cmd *ast.Command) error {
	if _, err := netip.ParseAddr(cmd.Resource.Alias); err != nil {
		return mdwerror.ParamValidation("ip name must be an ip address: %q", cmd.Resource.Alias)
	}
	return checkAll(cmd,
		only(ast.ParamMac),
		req(ast.ParamMac, isMAC),
	)
}

func checkCreateRoute(cmd *ast.Command) error {
	if cmd.Params.Has(ast.ParamVni) == cmd.Params.Has(ast.ParamVia) {
		return mdwerror.ParamValidation("route requires exactly one of vni or via")
	}
	return checkAll(cmd,
		only(ast.ParamNetwork, ast.ParamVni, ast.ParamVia),
		req(ast.ParamNetwork, isAnyNetwork),
		opt(ast.ParamVni, isVNI),
		opt(ast.ParamVia, isIP),
	)
}

func checkCreateProxy(cmd *ast.Command) error {
	if _, err := ParseIPPort(cmd.Resource.Alias); err != nil {
		return mdwerror.ParamValidation("proxy name must be the listen ip:port: %q", cmd.Resource.Alias)
	}
	return checkAll(cmd,
		only(ast.ParamAddress),
		req(ast.ParamAddress, isHostPort),
	)
}
