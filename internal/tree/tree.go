// File: tree.go
// Title: Resource Tree
// Description: In-memory resource tree implementing executor.Handler. The
//              handler methods switch over the resource type and delegate
//              to per-family files.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

package tree

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	mdwerror "github.com/msto63/netplane/foundation/core/error"
	mdwlog "github.com/msto63/netplane/foundation/core/log"
	"github.com/msto63/netplane/foundation/rcl/ast"
	"github.com/msto63/netplane/foundation/rcl/executor"
	"github.com/msto63/netplane/pkg/core/cache"
)

var _ executor.Handler = (*Tree)(nil)

// Options configures a Tree
type Options struct {
	Logger    *mdwlog.Logger
	DataPlane DataPlane
	DNSCache  *cache.Cache
	// BcryptCost defaults to bcrypt.DefaultCost
	BcryptCost int
}

// Tree is the resource tree. It must only be used from the control plane.
type Tree struct {
	elgs           *store[*EventLoopGroup]
	upstreams      *store[*Upstream]
	serverGroups   *store[*ServerGroup]
	tcpLBs         *store[*Listener]
	socks5s        *store[*Listener]
	dnsServers     *store[*Listener]
	securityGroups *store[*SecurityGroup]
	certKeys       *store[*CertKey]
	switches       *store[*Switch]

	dnsCache   *cache.Cache
	dataPlane  DataPlane
	bcryptCost int
	logger     *mdwlog.Logger
}

// New creates a tree holding only the built-in resources
func New(opts Options) *Tree {
	if opts.Logger == nil {
		opts.Logger = mdwlog.GetDefault()
	}
	if opts.DataPlane == nil {
		opts.DataPlane = NewMemoryDataPlane()
	}
	if opts.DNSCache == nil {
		opts.DNSCache = cache.New(cache.DefaultConfig())
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}

	t := &Tree{
		elgs:           newStore[*EventLoopGroup](),
		upstreams:      newStore[*Upstream](),
		serverGroups:   newStore[*ServerGroup](),
		tcpLBs:         newStore[*Listener](),
		socks5s:        newStore[*Listener](),
		dnsServers:     newStore[*Listener](),
		securityGroups: newStore[*SecurityGroup](),
		certKeys:       newStore[*CertKey](),
		switches:       newStore[*Switch](),
		dnsCache:       opts.DNSCache,
		dataPlane:      opts.DataPlane,
		bcryptCost:     opts.BcryptCost,
		logger:         opts.Logger.WithField("component", "tree"),
	}

	for _, name := range []string{DefaultAcceptorELG, DefaultWorkerELG} {
		t.elgs.add(name, &EventLoopGroup{Name: name, Loops: newStore[*EventLoop](), builtin: true})
	}
	t.securityGroups.add(DefaultSecurityGroup, &SecurityGroup{
		Name: DefaultSecurityGroup, Allow: true, Rules: newStore[*SecurityGroupRule](), builtin: true,
	})
	return t
}

// ListNames implements executor.Handler
func (t *Tree) ListNames(_ context.Context, rt ast.ResourceType, parent *ast.Resource) ([]string, error) {
	switch rt {
	case ast.TypeTCPLB:
		return t.tcpLBs.names(), nil
	case ast.TypeSocks5Server:
		return t.socks5s.names(), nil
	case ast.TypeDNSServer:
		return t.dnsServers.names(), nil
	case ast.TypeEventLoopGroup:
		return t.elgs.names(), nil
	case ast.TypeUpstream:
		return t.upstreams.names(), nil
	case ast.TypeSecurityGroup:
		return t.securityGroups.names(), nil
	case ast.TypeCertKey:
		return t.certKeys.names(), nil
	case ast.TypeServerGroup:
		if parent == nil {
			return t.serverGroups.names(), nil
		}
		ups, err := t.upstream(parent.Alias)
		if err != nil {
			return nil, err
		}
		return ups.Groups.names(), nil
	case ast.TypeEventLoop:
		g, err := t.elg(parent.Alias)
		if err != nil {
			return nil, err
		}
		return g.Loops.names(), nil
	case ast.TypeServer:
		g, err := t.serverGroup(parent.Alias)
		if err != nil {
			return nil, err
		}
		return g.Servers.names(), nil
	case ast.TypeSecurityGroupRule:
		g, err := t.securityGroup(parent.Alias)
		if err != nil {
			return nil, err
		}
		return g.Rules.names(), nil
	case ast.TypeSwitch:
		if parent == nil {
			return t.switches.names(), nil
		}
		sw, err := t.switchOf(parent)
		if err != nil {
			return nil, err
		}
		return sw.Remotes.names(), nil
	case ast.TypeVPC, ast.TypeUser, ast.TypeProxy:
		sw, err := t.switchOf(parent)
		if err != nil {
			return nil, err
		}
		switch rt {
		case ast.TypeVPC:
			return sw.VPCs.names(), nil
		case ast.TypeUser:
			return sw.Users.names(), nil
		default:
			return sw.Proxies.names(), nil
		}
	case ast.TypeIP, ast.TypeRoute:
		vpc, err := t.vpcOf(parent)
		if err != nil {
			return nil, err
		}
		if rt == ast.TypeIP {
			return vpc.IPs.names(), nil
		}
		return vpc.Routes.names(), nil
	}
	return nil, unsupported("list", rt)
}

// ListDetail implements executor.Handler
func (t *Tree) ListDetail(_ context.Context, rt ast.ResourceType, parent *ast.Resource) ([]fmt.Stringer, error) {
	switch rt {
	case ast.TypeTCPLB:
		return stringers(t.tcpLBs.values()), nil
	case ast.TypeSocks5Server:
		return stringers(t.socks5s.values()), nil
	case ast.TypeDNSServer:
		return stringers(t.dnsServers.values()), nil
	case ast.TypeEventLoopGroup:
		return stringers(t.elgs.values()), nil
	case ast.TypeUpstream:
		return stringers(t.upstreams.values()), nil
	case ast.TypeSecurityGroup:
		return stringers(t.securityGroups.values()), nil
	case ast.TypeCertKey:
		return stringers(t.certKeys.values()), nil
	case ast.TypeServerGroup:
		if parent == nil {
			return stringers(t.serverGroups.values()), nil
		}
		ups, err := t.upstream(parent.Alias)
		if err != nil {
			return nil, err
		}
		return stringers(ups.Groups.values()), nil
	case ast.TypeEventLoop:
		g, err := t.elg(parent.Alias)
		if err != nil {
			return nil, err
		}
		return stringers(g.Loops.values()), nil
	case ast.TypeServer:
		g, err := t.serverGroup(parent.Alias)
		if err != nil {
			return nil, err
		}
		return stringers(g.Servers.values()), nil
	case ast.TypeSecurityGroupRule:
		g, err := t.securityGroup(parent.Alias)
		if err != nil {
			return nil, err
		}
		return stringers(g.Rules.values()), nil
	case ast.TypeSwitch:
		if parent == nil {
			return stringers(t.switches.values()), nil
		}
		sw, err := t.switchOf(parent)
		if err != nil {
			return nil, err
		}
		return stringers(sw.Remotes.values()), nil
	case ast.TypeVPC, ast.TypeUser, ast.TypeProxy:
		sw, err := t.switchOf(parent)
		if err != nil {
			return nil, err
		}
		switch rt {
		case ast.TypeVPC:
			return stringers(sw.VPCs.values()), nil
		case ast.TypeUser:
			return stringers(sw.Users.values()), nil
		default:
			return stringers(sw.Proxies.values()), nil
		}
	case ast.TypeIP, ast.TypeRoute:
		vpc, err := t.vpcOf(parent)
		if err != nil {
			return nil, err
		}
		if rt == ast.TypeIP {
			return stringers(vpc.IPs.values()), nil
		}
		return stringers(vpc.Routes.values()), nil
	case ast.TypeDNSCache, ast.TypeIface, ast.TypeArp, ast.TypeServerSock, ast.TypeConnection, ast.TypeSession:
		return t.runtimeDetail(rt, parent)
	}
	return nil, unsupported("list-detail", rt)
}

// Count implements executor.Handler
func (t *Tree) Count(_ context.Context, rt ast.ResourceType, parent *ast.Resource) (int64, error) {
	return t.runtimeCount(rt, parent)
}

// Create implements executor.Handler
func (t *Tree) Create(_ context.Context, rt ast.ResourceType, name string, parent *ast.Resource, params ast.Params, flags ast.FlagSet) (string, error) {
	var err error
	switch rt {
	case ast.TypeTCPLB, ast.TypeSocks5Server, ast.TypeDNSServer:
		err = t.createListener(rt, name, params, flags)
	case ast.TypeEventLoopGroup:
		err = t.createELG(name)
	case ast.TypeEventLoop:
		err = t.createEventLoop(name, parent)
	case ast.TypeUpstream:
		err = t.createUpstream(name)
	case ast.TypeServerGroup:
		if parent != nil {
			err = t.attachServerGroup(name, parent, params)
		} else {
			err = t.createServerGroup(name, params)
		}
	case ast.TypeServer:
		err = t.createServer(name, parent, params)
	case ast.TypeSecurityGroup:
		err = t.createSecurityGroup(name, params)
	case ast.TypeSecurityGroupRule:
		err = t.createSecurityGroupRule(name, parent, params)
	case ast.TypeCertKey:
		err = t.createCertKey(name, params)
	case ast.TypeSwitch:
		if parent != nil {
			err = t.createRemoteSwitch(name, parent, params)
		} else {
			err = t.createSwitch(name, params, flags)
		}
	case ast.TypeVPC:
		err = t.createVPC(name, parent, params)
	case ast.TypeUser:
		err = t.createUser(name, parent, params)
	case ast.TypeTap:
		return t.createTap(name, parent, params)
	case ast.TypeUserClient:
		err = t.createUserClient(name, parent, params)
	case ast.TypeIP:
		err = t.createIP(name, parent, params)
	case ast.TypeRoute:
		err = t.createRoute(name, parent, params)
	case ast.TypeProxy:
		err = t.createProxy(name, parent, params)
	default:
		err = unsupported("add", rt)
	}
	if err == nil {
		t.logger.Debug("resource created", mdwlog.Fields{"resource_type": rt.Full(), "name": name})
	}
	return "", err
}

// Remove implements executor.Handler. A graceful remove fails with
// RESOURCE_LOCKED while another resource still references the target.
func (t *Tree) Remove(_ context.Context, rt ast.ResourceType, name string, parent *ast.Resource, params ast.Params, graceful bool) error {
	var err error
	switch rt {
	case ast.TypeTCPLB, ast.TypeSocks5Server, ast.TypeDNSServer:
		err = t.removeListener(rt, name)
	case ast.TypeEventLoopGroup:
		err = t.removeELG(name, graceful)
	case ast.TypeEventLoop:
		err = t.removeEventLoop(name, parent)
	case ast.TypeUpstream:
		err = t.removeUpstream(name, graceful)
	case ast.TypeServerGroup:
		if parent != nil {
			err = t.detachServerGroup(name, parent)
		} else {
			err = t.removeServerGroup(name, graceful)
		}
	case ast.TypeServer:
		err = t.removeServer(name, parent)
	case ast.TypeSecurityGroup:
		err = t.removeSecurityGroup(name, graceful)
	case ast.TypeSecurityGroupRule:
		err = t.removeSecurityGroupRule(name, parent)
	case ast.TypeCertKey:
		err = t.removeCertKey(name, graceful)
	case ast.TypeSwitch:
		if parent != nil {
			err = t.removeRemoteSwitch(name, parent)
		} else {
			err = t.removeSwitch(name)
		}
	case ast.TypeVPC:
		err = t.removeVPC(name, parent, graceful)
	case ast.TypeUser:
		err = t.removeUser(name, parent)
	case ast.TypeTap:
		err = t.removeTap(name, parent)
	case ast.TypeUserClient:
		err = t.removeUserClient(name, parent, params)
	case ast.TypeIP:
		err = t.removeIP(name, parent)
	case ast.TypeRoute:
		err = t.removeRoute(name, parent)
	case ast.TypeProxy:
		err = t.removeProxy(name, parent)
	case ast.TypeDNSCache, ast.TypeConnection, ast.TypeSession:
		err = t.closeRuntime(rt, name, parent)
	default:
		err = unsupported("remove", rt)
	}
	if err == nil {
		t.logger.Debug("resource removed", mdwlog.Fields{"resource_type": rt.Full(), "name": name, "graceful": graceful})
	}
	return err
}

// Update implements executor.Handler
func (t *Tree) Update(_ context.Context, rt ast.ResourceType, name string, parent *ast.Resource, params ast.Params, flags ast.FlagSet) error {
	switch rt {
	case ast.TypeTCPLB, ast.TypeSocks5Server, ast.TypeDNSServer:
		return t.updateListener(rt, name, params, flags)
	case ast.TypeServerGroup:
		if parent != nil {
			return t.updateAttachment(name, parent, params)
		}
		return t.updateServerGroup(name, params)
	case ast.TypeServer:
		return t.updateServer(name, parent, params)
	case ast.TypeSecurityGroup:
		return t.updateSecurityGroup(name, params)
	case ast.TypeSwitch:
		return t.updateSwitch(name, params, flags)
	}
	return unsupported("update", rt)
}

// ---- lookups

func (t *Tree) elg(name string) (*EventLoopGroup, error) {
	if g, ok := t.elgs.get(name); ok {
		return g, nil
	}
	return nil, mdwerror.NotFound(ast.TypeEventLoopGroup.Full(), name)
}

func (t *Tree) upstream(name string) (*Upstream, error) {
	if u, ok := t.upstreams.get(name); ok {
		return u, nil
	}
	return nil, mdwerror.NotFound(ast.TypeUpstream.Full(), name)
}

func (t *Tree) serverGroup(name string) (*ServerGroup, error) {
	if g, ok := t.serverGroups.get(name); ok {
		return g, nil
	}
	return nil, mdwerror.NotFound(ast.TypeServerGroup.Full(), name)
}

func (t *Tree) securityGroup(name string) (*SecurityGroup, error) {
	if g, ok := t.securityGroups.get(name); ok {
		return g, nil
	}
	return nil, mdwerror.NotFound(ast.TypeSecurityGroup.Full(), name)
}

func (t *Tree) certKey(name string) (*CertKey, error) {
	if c, ok := t.certKeys.get(name); ok {
		return c, nil
	}
	return nil, mdwerror.NotFound(ast.TypeCertKey.Full(), name)
}

func (t *Tree) listeners(rt ast.ResourceType) *store[*Listener] {
	switch rt {
	case ast.TypeTCPLB:
		return t.tcpLBs
	case ast.TypeSocks5Server:
		return t.socks5s
	default:
		return t.dnsServers
	}
}

func (t *Tree) listener(rt ast.ResourceType, name string) (*Listener, error) {
	if l, ok := t.listeners(rt).get(name); ok {
		return l, nil
	}
	return nil, mdwerror.NotFound(rt.Full(), name)
}

// switchOf resolves the switch a command addresses; parent is the switch
// itself or a vpc inside it
func (t *Tree) switchOf(parent *ast.Resource) (*Switch, error) {
	for r := parent; r != nil; r = r.Parent {
		if r.Type == ast.TypeSwitch {
			if sw, ok := t.switches.get(r.Alias); ok {
				return sw, nil
			}
			return nil, mdwerror.NotFound(ast.TypeSwitch.Full(), r.Alias)
		}
	}
	return nil, mdwerror.Semantic("no switch in %s", parent)
}

func (t *Tree) vpcOf(parent *ast.Resource) (*VPC, error) {
	sw, err := t.switchOf(parent)
	if err != nil {
		return nil, err
	}
	if vpc, ok := sw.VPCs.get(parent.Alias); ok {
		return vpc, nil
	}
	return nil, mdwerror.NotFound(ast.TypeVPC.Full(), parent.Alias+" in switch "+sw.Name)
}

// ---- helpers

func unsupported(action string, rt ast.ResourceType) error {
	return mdwerror.New(fmt.Sprintf("cannot %s %s", action, rt.Full())).WithCode(mdwerror.CodeInvalidOperation)
}

func builtinErr(rt ast.ResourceType, name string) error {
	return mdwerror.New(fmt.Sprintf("cannot remove built-in %s %s", rt.Full(), name)).WithCode(mdwerror.CodeInvalidOperation)
}

func stringers[T fmt.Stringer](vs []T) []fmt.Stringer {
	out := make([]fmt.Stringer, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

// Values reaching the tree passed the parameter checks, so conversion
// failures fall back to def.
func intParam(params ast.Params, p ast.Param, def int) int {
	v, ok := params.Get(p)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func strParam(params ast.Params, p ast.Param, def string) string {
	if v, ok := params.Get(p); ok {
		return v
	}
	return def
}
