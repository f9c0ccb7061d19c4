// File: runtime.go
// Title: Runtime Views
// Description: Counted and detailed views over runtime state: dns cache,
//              interfaces, arp tables, sockets, connections, sessions and
//              byte counters. Also the periodic dns cache sweep.
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
	"net/netip"
	"strings"
	"time"

	mdwerror "github.com/msto63/netplane/foundation/core/error"
	mdwlog "github.com/msto63/netplane/foundation/core/log"
	"github.com/msto63/netplane/foundation/rcl/ast"
	"github.com/msto63/netplane/foundation/rcl/executor"
)

// DNSRecord is a resolved host held in the resolver cache
type DNSRecord struct {
	Host string
	IPv4 []netip.Addr
	IPv6 []netip.Addr
}

type dnsEntry struct {
	record DNSRecord
	ttl    time.Duration
}

func (e dnsEntry) String() string {
	return fmt.Sprintf("%s -> ipv4 %s ipv6 %s ttl %ds", e.record.Host, addrList(e.record.IPv4), addrList(e.record.IPv6), int64(e.ttl/time.Second))
}

func addrList(addrs []netip.Addr) string {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = a.String()
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// RecordDNS caches a resolution result. Call it on the control plane.
func (t *Tree) RecordDNS(host string, addrs []netip.Addr, ttl time.Duration) {
	rec := DNSRecord{Host: host}
	for _, a := range addrs {
		if a.Is4() || a.Is4In6() {
			rec.IPv4 = append(rec.IPv4, a.Unmap())
		} else {
			rec.IPv6 = append(rec.IPv6, a)
		}
	}
	t.dnsCache.SetWithTTL(host, rec, ttl)
}

// LookupDNS returns a cached resolution
func (t *Tree) LookupDNS(host string) (DNSRecord, bool) {
	v, ok := t.dnsCache.Get(host)
	if !ok {
		return DNSRecord{}, false
	}
	return v.(DNSRecord), true
}

// SweepDNSCache drops expired entries and returns how many it dropped
func (t *Tree) SweepDNSCache() int {
	n := t.dnsCache.Sweep()
	if n > 0 {
		t.logger.Debug("dns cache swept", mdwlog.Fields{"expired": n, "remaining": t.dnsCache.Size()})
	}
	return n
}

// RunSweeper posts SweepDNSCache to the control plane every interval
// until ctx is done
func (t *Tree) RunSweeper(ctx context.Context, plane *executor.ControlPlane, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := plane.Post(func(context.Context) { t.SweepDNSCache() }); err != nil {
				return err
			}
		}
	}
}

func (t *Tree) resolver(parent *ast.Resource) error {
	if parent == nil || parent.Alias != DefaultResolver {
		name := ""
		if parent != nil {
			name = parent.Alias
		}
		return mdwerror.NotFound(ast.TypeResolver.Full(), name)
	}
	return nil
}

// OwnerKey is the canonical data-plane owner of a resource chain. The
// chain is cut after the first resource that names itself globally.
func OwnerKey(r *ast.Resource) string {
	var parts []string
	for ; r != nil; r = r.Parent {
		parts = append(parts, r.Type.Full()+" "+r.Alias)
		if !nestedOwner(r.Type) {
			break
		}
	}
	return strings.Join(parts, " "+ast.InKeyword+" ")
}

func nestedOwner(rt ast.ResourceType) bool {
	switch rt {
	case ast.TypeServerSock, ast.TypeConnection, ast.TypeEventLoop, ast.TypeServer:
		return true
	}
	return false
}

// checkOwner verifies the tree-owned resources in a runtime chain
func (t *Tree) checkOwner(parent *ast.Resource) error {
	for r := parent; r != nil; r = r.Parent {
		switch r.Type {
		case ast.TypeTCPLB, ast.TypeSocks5Server:
			_, err := t.listener(r.Type, r.Alias)
			return err
		case ast.TypeEventLoop:
			if r.Parent == nil {
				return mdwerror.Semantic("event-loop %s requires its event-loop-group", r.Alias)
			}
			g, err := t.elg(r.Parent.Alias)
			if err != nil {
				return err
			}
			if !g.Loops.has(r.Alias) {
				return mdwerror.NotFound(ast.TypeEventLoop.Full(), r.Alias)
			}
			return nil
		case ast.TypeServer:
			if r.Parent == nil {
				return mdwerror.Semantic("server %s requires its server-group", r.Alias)
			}
			g, err := t.serverGroup(r.Parent.Alias)
			if err != nil {
				return err
			}
			if !g.Servers.has(r.Alias) {
				return mdwerror.NotFound(ast.TypeServer.Full(), r.Alias)
			}
			return nil
		}
	}
	return nil
}

func (t *Tree) ifaces(sw *Switch) []Iface {
	var out []Iface
	for _, tap := range sw.Taps.values() {
		out = append(out, Iface{Name: "tap:" + tap.Dev, VNI: tap.VNI})
	}
	for _, uc := range sw.UserClients.values() {
		out = append(out, Iface{Name: "ucli:" + userClientKey(uc.User, uc.Address), VNI: uc.VNI})
	}
	for _, r := range sw.Remotes.values() {
		out = append(out, Iface{Name: "remote:" + r.Name})
	}
	return append(out, t.dataPlane.Ifaces(sw.Name)...)
}

func (t *Tree) arp(parent *ast.Resource) ([]ArpEntry, error) {
	vpc, err := t.vpcOf(parent)
	if err != nil {
		return nil, err
	}
	sw, _ := t.switchOf(parent)
	return t.dataPlane.Arp(sw.Name, vpc.VNI), nil
}

func (t *Tree) runtimeCount(rt ast.ResourceType, parent *ast.Resource) (int64, error) {
	switch rt {
	case ast.TypeDNSCache:
		if err := t.resolver(parent); err != nil {
			return 0, err
		}
		return int64(t.dnsCache.Size()), nil
	case ast.TypeIface:
		sw, err := t.switchOf(parent)
		if err != nil {
			return 0, err
		}
		return int64(len(t.ifaces(sw))), nil
	case ast.TypeArp:
		entries, err := t.arp(parent)
		return int64(len(entries)), err
	}

	if err := t.checkOwner(parent); err != nil {
		return 0, err
	}
	owner := OwnerKey(parent)
	switch rt {
	case ast.TypeServerSock:
		return int64(len(t.dataPlane.ServerSocks(owner))), nil
	case ast.TypeConnection:
		return int64(len(t.dataPlane.Connections(owner))), nil
	case ast.TypeSession:
		return int64(len(t.dataPlane.Sessions(owner))), nil
	case ast.TypeBytesIn:
		return t.dataPlane.Counters(owner).BytesIn, nil
	case ast.TypeBytesOut:
		return t.dataPlane.Counters(owner).BytesOut, nil
	case ast.TypeAcceptedConnCount:
		return t.dataPlane.Counters(owner).Accepted, nil
	}
	return 0, unsupported("count", rt)
}

func (t *Tree) runtimeDetail(rt ast.ResourceType, parent *ast.Resource) ([]fmt.Stringer, error) {
	switch rt {
	case ast.TypeDNSCache:
		if err := t.resolver(parent); err != nil {
			return nil, err
		}
		now := t.dnsCache.Now()
		var out []fmt.Stringer
		for _, e := range t.dnsCache.Entries() {
			out = append(out, dnsEntry{record: e.Value.(DNSRecord), ttl: e.TTL(now)})
		}
		return out, nil
	case ast.TypeIface:
		sw, err := t.switchOf(parent)
		if err != nil {
			return nil, err
		}
		return stringers(t.ifaces(sw)), nil
	case ast.TypeArp:
		entries, err := t.arp(parent)
		if err != nil {
			return nil, err
		}
		return stringers(entries), nil
	}

	if err := t.checkOwner(parent); err != nil {
		return nil, err
	}
	owner := OwnerKey(parent)
	switch rt {
	case ast.TypeServerSock:
		return stringers(t.dataPlane.ServerSocks(owner)), nil
	case ast.TypeConnection:
		return stringers(t.dataPlane.Connections(owner)), nil
	case ast.TypeSession:
		return stringers(t.dataPlane.Sessions(owner)), nil
	}
	return nil, unsupported("list-detail", rt)
}

func (t *Tree) closeRuntime(rt ast.ResourceType, name string, parent *ast.Resource) error {
	if rt == ast.TypeDNSCache {
		if err := t.resolver(parent); err != nil {
			return err
		}
		if !t.dnsCache.Delete(name) {
			return mdwerror.NotFound(ast.TypeDNSCache.Full(), name)
		}
		return nil
	}

	if err := t.checkOwner(parent); err != nil {
		return err
	}
	owner := OwnerKey(parent)
	var closed bool
	if rt == ast.TypeConnection {
		closed = t.dataPlane.CloseConnection(owner, name)
	} else {
		closed = t.dataPlane.CloseSession(owner, name)
	}
	if !closed {
		return mdwerror.NotFound(rt.Full(), name)
	}
	return nil
}
