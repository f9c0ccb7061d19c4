package tree

import (
	"strings"

	mdwerror "github.com/msto63/netplane/foundation/core/error"
	mdwlog "github.com/msto63/netplane/foundation/core/log"
	"github.com/msto63/netplane/foundation/rcl/ast"
)

// referrers lists the resources that still point at (rt, name)
func (t *Tree) referrers(rt ast.ResourceType, name string) []string {
	var by []string
	switch rt {
	case ast.TypeEventLoopGroup:
		for _, l := range t.allListeners() {
			if (l.Kind != KindDNS && l.AcceptorELG == name) || l.WorkerELG == name {
				by = append(by, listenerLabel(l))
			}
		}
		for _, g := range t.serverGroups.values() {
			if g.EventLoopGroup == name {
				by = append(by, ast.TypeServerGroup.Full()+" "+g.Name)
			}
		}
		for _, sw := range t.switches.values() {
			if sw.EventLoopGroup == name {
				by = append(by, ast.TypeSwitch.Full()+" "+sw.Name)
			}
		}
	case ast.TypeUpstream:
		for _, l := range t.allListeners() {
			if l.Upstream == name {
				by = append(by, listenerLabel(l))
			}
		}
	case ast.TypeServerGroup:
		for _, u := range t.upstreams.values() {
			if u.Groups.has(name) {
				by = append(by, ast.TypeUpstream.Full()+" "+u.Name)
			}
		}
	case ast.TypeSecurityGroup:
		for _, l := range t.allListeners() {
			if l.SecurityGroup == name {
				by = append(by, listenerLabel(l))
			}
		}
		for _, sw := range t.switches.values() {
			if sw.SecurityGroup == name {
				by = append(by, ast.TypeSwitch.Full()+" "+sw.Name)
			}
		}
	case ast.TypeCertKey:
		for _, l := range t.tcpLBs.values() {
			for _, ck := range l.CertKeys {
				if ck == name {
					by = append(by, listenerLabel(l))
					break
				}
			}
		}
	}
	return by
}

// checkUnused fails a graceful remove of a referenced resource. A forced
// remove proceeds and leaves the references dangling.
func (t *Tree) checkUnused(rt ast.ResourceType, name string, graceful bool) error {
	by := t.referrers(rt, name)
	if len(by) == 0 {
		return nil
	}
	if graceful {
		return mdwerror.InUse(rt.Full(), name, strings.Join(by, ", "))
	}
	t.logger.Warn("removing referenced resource", mdwlog.Fields{
		"resource_type": rt.Full(),
		"name":          name,
		"referenced_by": by,
	})
	return nil
}
