package tree

import (
	"net/netip"
	"strings"

	mdwerror "github.com/msto63/netplane/foundation/core/error"
	"github.com/msto63/netplane/foundation/rcl/ast"
	"github.com/msto63/netplane/foundation/rcl/registry"
)

func (t *Tree) createSecurityGroup(name string, params ast.Params) error {
	g := &SecurityGroup{
		Name:  name,
		Allow: strParam(params, ast.ParamDefault, "allow") == "allow",
		Rules: newStore[*SecurityGroupRule](),
	}
	if !t.securityGroups.add(name, g) {
		return mdwerror.AlreadyExists(ast.TypeSecurityGroup.Full(), name)
	}
	return nil
}

func (t *Tree) updateSecurityGroup(name string, params ast.Params) error {
	g, err := t.securityGroup(name)
	if err != nil {
		return err
	}
	if g.builtin {
		return mdwerror.New("cannot update built-in security-group " + name).WithCode(mdwerror.CodeInvalidOperation)
	}
	g.Allow = strParam(params, ast.ParamDefault, verdict(g.Allow)) == "allow"
	return nil
}

func (t *Tree) removeSecurityGroup(name string, graceful bool) error {
	g, err := t.securityGroup(name)
	if err != nil {
		return err
	}
	if g.builtin {
		return builtinErr(ast.TypeSecurityGroup, name)
	}
	if err := t.checkUnused(ast.TypeSecurityGroup, name, graceful); err != nil {
		return err
	}
	t.securityGroups.remove(name)
	return nil
}

func (t *Tree) createSecurityGroupRule(name string, parent *ast.Resource, params ast.Params) error {
	g, err := t.securityGroup(parent.Alias)
	if err != nil {
		return err
	}
	if g.builtin {
		return mdwerror.New("cannot add rules to built-in security-group " + g.Name).WithCode(mdwerror.CodeInvalidOperation)
	}

	network, err := netip.ParsePrefix(strParam(params, ast.ParamNetwork, ""))
	if err != nil {
		return mdwerror.ParamValidation("invalid network: %v", err)
	}
	lo, hi, _ := registry.ParsePortRange(strParam(params, ast.ParamPortRange, "0,65535"))
	rule := &SecurityGroupRule{
		Name:     name,
		Network:  network,
		Protocol: strParam(params, ast.ParamProtocol, "TCP"),
		MinPort:  lo,
		MaxPort:  hi,
		Allow:    strParam(params, ast.ParamDefault, "allow") == "allow",
	}

	for _, r := range g.Rules.values() {
		if r.Network == rule.Network && r.Protocol == rule.Protocol && r.MinPort == rule.MinPort && r.MaxPort == rule.MaxPort {
			return mdwerror.AlreadyExists(ast.TypeSecurityGroupRule.Full(), "matching "+r.Name)
		}
	}
	if !g.Rules.add(name, rule) {
		return mdwerror.AlreadyExists(ast.TypeSecurityGroupRule.Full(), name)
	}
	return nil
}

func (t *Tree) removeSecurityGroupRule(name string, parent *ast.Resource) error {
	g, err := t.securityGroup(parent.Alias)
	if err != nil {
		return err
	}
	if !g.Rules.remove(name) {
		return mdwerror.NotFound(ast.TypeSecurityGroupRule.Full(), name)
	}
	return nil
}

// Allows evaluates a security group for a client address, protocol and
// port. Rules match in insertion order; the default applies otherwise.
func (g *SecurityGroup) Allows(addr netip.Addr, protocol string, port int) bool {
	for _, r := range g.Rules.values() {
		if r.Protocol == protocol && r.Network.Contains(addr) && port >= r.MinPort && port <= r.MaxPort {
			return r.Allow
		}
	}
	return g.Allow
}

func (t *Tree) createCertKey(name string, params ast.Params) error {
	ck := &CertKey{
		Name:  name,
		Certs: strings.Split(strParam(params, ast.ParamCert, ""), ","),
		Key:   strParam(params, ast.ParamKey, ""),
	}
	if !t.certKeys.add(name, ck) {
		return mdwerror.AlreadyExists(ast.TypeCertKey.Full(), name)
	}
	return nil
}

func (t *Tree) removeCertKey(name string, graceful bool) error {
	if _, err := t.certKey(name); err != nil {
		return err
	}
	if err := t.checkUnused(ast.TypeCertKey, name, graceful); err != nil {
		return err
	}
	t.certKeys.remove(name)
	return nil
}
