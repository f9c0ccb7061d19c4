// File: switches.go
// Title: Switch Resources
// Description: Virtual switches and everything placed in them: remote
//              peers, vpcs, users, taps, user clients, ips, routes and
//              proxies.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

package tree

import (
	"net/netip"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	mdwerror "github.com/msto63/netplane/foundation/core/error"
	mdwlog "github.com/msto63/netplane/foundation/core/log"
	"github.com/msto63/netplane/foundation/rcl/ast"
	"github.com/msto63/netplane/foundation/rcl/registry"
)

const tapPattern = "%d"

func (t *Tree) createSwitch(name string, params ast.Params, flags ast.FlagSet) error {
	if t.switches.has(name) {
		return mdwerror.AlreadyExists(ast.TypeSwitch.Full(), name)
	}
	bind, err := registry.ParseIPPort(strParam(params, ast.ParamAddress, ""))
	if err != nil {
		return mdwerror.ParamValidation("invalid address: %v", err)
	}
	for _, other := range t.switches.values() {
		if other.Bind == bind {
			return mdwerror.New("address " + bind.String() + " is already bound by switch " + other.Name).
				WithCode(mdwerror.CodeDuplicateEntry)
		}
	}

	sw := &Switch{
		Name:           name,
		Bind:           bind,
		MacTableMillis: intParam(params, ast.ParamMacTableTimeout, DefaultMacTableMillis),
		ArpTableMillis: intParam(params, ast.ParamArpTableTimeout, DefaultArpTableMillis),
		EventLoopGroup: strParam(params, ast.ParamEventLoopGroup, DefaultWorkerELG),
		SecurityGroup:  strParam(params, ast.ParamSecurityGroup, DefaultSecurityGroup),
		MTU:            intParam(params, ast.ParamMTU, DefaultMTU),
		Flood:          !flags.Has(ast.FlagNoFlood),
		VPCs:           newStore[*VPC](),
		Remotes:        newStore[*RemoteSwitch](),
		Users:          newStore[*User](),
		Taps:           newStore[*Tap](),
		UserClients:    newStore[*UserClient](),
		Proxies:        newStore[*Proxy](),
	}
	if _, err := t.elg(sw.EventLoopGroup); err != nil {
		return err
	}
	if _, err := t.securityGroup(sw.SecurityGroup); err != nil {
		return err
	}
	t.switches.add(name, sw)
	return nil
}

func (t *Tree) updateSwitch(name string, params ast.Params, flags ast.FlagSet) error {
	sw, ok := t.switches.get(name)
	if !ok {
		return mdwerror.NotFound(ast.TypeSwitch.Full(), name)
	}
	secg := strParam(params, ast.ParamSecurityGroup, sw.SecurityGroup)
	if _, err := t.securityGroup(secg); err != nil {
		return err
	}
	sw.SecurityGroup = secg
	sw.MacTableMillis = intParam(params, ast.ParamMacTableTimeout, sw.MacTableMillis)
	sw.ArpTableMillis = intParam(params, ast.ParamArpTableTimeout, sw.ArpTableMillis)
	sw.MTU = intParam(params, ast.ParamMTU, sw.MTU)
	if flags.Has(ast.FlagNoFlood) {
		sw.Flood = false
	}
	return nil
}

func (t *Tree) removeSwitch(name string) error {
	if !t.switches.remove(name) {
		return mdwerror.NotFound(ast.TypeSwitch.Full(), name)
	}
	return nil
}

func (t *Tree) createRemoteSwitch(name string, parent *ast.Resource, params ast.Params) error {
	sw, err := t.switchOf(parent)
	if err != nil {
		return err
	}
	addr, err := registry.ParseIPPort(strParam(params, ast.ParamAddress, ""))
	if err != nil {
		return mdwerror.ParamValidation("invalid address: %v", err)
	}
	if !sw.Remotes.add(name, &RemoteSwitch{Name: name, Address: addr}) {
		return mdwerror.AlreadyExists(ast.TypeSwitch.Full(), name+" in switch "+sw.Name)
	}
	return nil
}

func (t *Tree) removeRemoteSwitch(name string, parent *ast.Resource) error {
	sw, err := t.switchOf(parent)
	if err != nil {
		return err
	}
	if !sw.Remotes.remove(name) {
		return mdwerror.NotFound(ast.TypeSwitch.Full(), name+" in switch "+sw.Name)
	}
	return nil
}

// ---- vpc

func (t *Tree) createVPC(name string, parent *ast.Resource, params ast.Params) error {
	sw, err := t.switchOf(parent)
	if err != nil {
		return err
	}
	vni, _ := strconv.Atoi(name)
	vpc := &VPC{
		VNI:         vni,
		Annotations: Annotations{},
		IPs:         newStore[*IP](),
		Routes:      newStore[*Route](),
	}
	if vpc.Network, err = netip.ParsePrefix(strParam(params, ast.ParamNetwork, "")); err != nil {
		return mdwerror.ParamValidation("invalid network: %v", err)
	}
	if v, ok := params.Get(ast.ParamV6Network); ok {
		if vpc.V6Network, err = netip.ParsePrefix(v); err != nil {
			return mdwerror.ParamValidation("invalid v6network: %v", err)
		}
	}
	if v, ok := params.Get(ast.ParamAnnotations); ok {
		if vpc.Annotations, err = registry.ParseAnnotations(v); err != nil {
			return mdwerror.ParamValidation("invalid annotations: %v", err)
		}
	}
	if !sw.VPCs.add(name, vpc) {
		return mdwerror.AlreadyExists(ast.TypeVPC.Full(), name)
	}
	return nil
}

// vpcUsers lists what inside the switch still binds to a vni
func vpcUsers(sw *Switch, vni int) []string {
	var by []string
	for _, u := range sw.Users.values() {
		if u.VNI == vni {
			by = append(by, ast.TypeUser.Full()+" "+u.Name)
		}
	}
	for _, tap := range sw.Taps.values() {
		if tap.VNI == vni {
			by = append(by, ast.TypeTap.Full()+" "+tap.Dev)
		}
	}
	for _, uc := range sw.UserClients.values() {
		if uc.VNI == vni {
			by = append(by, ast.TypeUserClient.Full()+" "+uc.User)
		}
	}
	return by
}

func (t *Tree) removeVPC(name string, parent *ast.Resource, graceful bool) error {
	sw, err := t.switchOf(parent)
	if err != nil {
		return err
	}
	vpc, ok := sw.VPCs.get(name)
	if !ok {
		return mdwerror.NotFound(ast.TypeVPC.Full(), name)
	}
	if by := vpcUsers(sw, vpc.VNI); len(by) > 0 && graceful {
		return mdwerror.InUse(ast.TypeVPC.Full(), name, strings.Join(by, ", "))
	}
	sw.VPCs.remove(name)
	return nil
}

func (t *Tree) requireVPC(sw *Switch, vni int) error {
	if !sw.VPCs.has(strconv.Itoa(vni)) {
		return mdwerror.NotFound(ast.TypeVPC.Full(), strconv.Itoa(vni)+" in switch "+sw.Name)
	}
	return nil
}

// ---- users and user clients

func (t *Tree) hashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), t.bcryptCost)
	if err != nil {
		return nil, mdwerror.Wrap(err, "hashing password").WithCode(mdwerror.CodeInternal)
	}
	return hash, nil
}

func (t *Tree) createUser(name string, parent *ast.Resource, params ast.Params) error {
	sw, err := t.switchOf(parent)
	if err != nil {
		return err
	}
	if sw.Users.has(name) {
		return mdwerror.AlreadyExists(ast.TypeUser.Full(), name)
	}
	vni := intParam(params, ast.ParamVni, 0)
	if err := t.requireVPC(sw, vni); err != nil {
		return err
	}
	hash, err := t.hashPassword(strParam(params, ast.ParamPassword, ""))
	if err != nil {
		return err
	}
	sw.Users.add(name, &User{Name: name, PasswordHash: hash, VNI: vni, MTU: intParam(params, ast.ParamMTU, sw.MTU)})
	return nil
}

func (t *Tree) removeUser(name string, parent *ast.Resource) error {
	sw, err := t.switchOf(parent)
	if err != nil {
		return err
	}
	if !sw.Users.remove(name) {
		return mdwerror.NotFound(ast.TypeUser.Full(), name)
	}
	return nil
}

// Authenticate checks a user's password on a switch and returns the vni
// the user is bound to
func (t *Tree) Authenticate(switchName, user, password string) (int, error) {
	sw, ok := t.switches.get(switchName)
	if !ok {
		return 0, mdwerror.NotFound(ast.TypeSwitch.Full(), switchName)
	}
	u, ok := sw.Users.get(user)
	if !ok {
		return 0, mdwerror.NotFound(ast.TypeUser.Full(), user)
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return 0, mdwerror.New("authentication failed for user " + user).WithCode(mdwerror.CodeInvalidInput)
	}
	return u.VNI, nil
}

func (t *Tree) createUserClient(name string, parent *ast.Resource, params ast.Params) error {
	sw, err := t.switchOf(parent)
	if err != nil {
		return err
	}
	addr, err := registry.ParseIPPort(strParam(params, ast.ParamAddress, ""))
	if err != nil {
		return mdwerror.ParamValidation("invalid address: %v", err)
	}
	key := userClientKey(name, addr)
	if sw.UserClients.has(key) {
		return mdwerror.AlreadyExists(ast.TypeUserClient.Full(), key)
	}
	vni := intParam(params, ast.ParamVni, 0)
	if err := t.requireVPC(sw, vni); err != nil {
		return err
	}
	hash, err := t.hashPassword(strParam(params, ast.ParamPassword, ""))
	if err != nil {
		return err
	}
	sw.UserClients.add(key, &UserClient{User: name, PasswordHash: hash, VNI: vni, Address: addr})
	return nil
}

func (t *Tree) removeUserClient(name string, parent *ast.Resource, params ast.Params) error {
	sw, err := t.switchOf(parent)
	if err != nil {
		return err
	}
	addr, err := registry.ParseIPPort(strParam(params, ast.ParamAddress, ""))
	if err != nil {
		return mdwerror.ParamValidation("invalid address: %v", err)
	}
	key := userClientKey(name, addr)
	if !sw.UserClients.remove(key) {
		return mdwerror.NotFound(ast.TypeUserClient.Full(), key)
	}
	return nil
}

// ---- tap

// createTap returns the device name; a %d in name is replaced by the
// lowest index not yet used on the switch
func (t *Tree) createTap(name string, parent *ast.Resource, params ast.Params) (string, error) {
	sw, err := t.switchOf(parent)
	if err != nil {
		return "", err
	}
	vni := intParam(params, ast.ParamVni, 0)
	if err := t.requireVPC(sw, vni); err != nil {
		return "", err
	}

	dev := name
	if strings.Contains(name, tapPattern) {
		for i := 0; ; i++ {
			dev = strings.Replace(name, tapPattern, strconv.Itoa(i), 1)
			if !sw.Taps.has(dev) {
				break
			}
		}
	}
	if len(dev) > 15 {
		return "", mdwerror.ParamValidation("tap device name %q is too long", dev)
	}

	tap := &Tap{
		Dev:        dev,
		VNI:        vni,
		PostScript: strParam(params, ast.ParamPostScript, ""),
		MTU:        intParam(params, ast.ParamMTU, sw.MTU),
	}
	if !sw.Taps.add(dev, tap) {
		return "", mdwerror.AlreadyExists(ast.TypeTap.Full(), dev)
	}
	t.logger.Debug("tap created", mdwlog.Fields{"switch": sw.Name, "dev": dev, "vni": vni})
	return dev, nil
}

func (t *Tree) removeTap(name string, parent *ast.Resource) error {
	sw, err := t.switchOf(parent)
	if err != nil {
		return err
	}
	if !sw.Taps.remove(name) {
		return mdwerror.NotFound(ast.TypeTap.Full(), name)
	}
	return nil
}

// ---- ip / route

func (t *Tree) createIP(name string, parent *ast.Resource, params ast.Params) error {
	vpc, err := t.vpcOf(parent)
	if err != nil {
		return err
	}
	addr, err := netip.ParseAddr(name)
	if err != nil {
		return mdwerror.ParamValidation("invalid ip: %v", err)
	}
	if !vpc.Network.Contains(addr) && !(vpc.V6Network.IsValid() && vpc.V6Network.Contains(addr)) {
		return mdwerror.ParamValidation("ip %s is not in the vpc networks", addr)
	}
	if !vpc.IPs.add(addr.String(), &IP{Addr: addr, MAC: strParam(params, ast.ParamMac, "")}) {
		return mdwerror.AlreadyExists(ast.TypeIP.Full(), addr.String())
	}
	return nil
}

func (t *Tree) removeIP(name string, parent *ast.Resource) error {
	vpc, err := t.vpcOf(parent)
	if err != nil {
		return err
	}
	if addr, err := netip.ParseAddr(name); err == nil {
		name = addr.String()
	}
	if !vpc.IPs.remove(name) {
		return mdwerror.NotFound(ast.TypeIP.Full(), name)
	}
	return nil
}

func (t *Tree) createRoute(name string, parent *ast.Resource, params ast.Params) error {
	vpc, err := t.vpcOf(parent)
	if err != nil {
		return err
	}
	network, err := netip.ParsePrefix(strParam(params, ast.ParamNetwork, ""))
	if err != nil {
		return mdwerror.ParamValidation("invalid network: %v", err)
	}
	route := &Route{Name: name, Network: network, VNI: intParam(params, ast.ParamVni, 0)}
	if v, ok := params.Get(ast.ParamVia); ok {
		if route.Via, err = netip.ParseAddr(v); err != nil {
			return mdwerror.ParamValidation("invalid via: %v", err)
		}
	}
	for _, r := range vpc.Routes.values() {
		if r.Network == network {
			return mdwerror.AlreadyExists(ast.TypeRoute.Full(), "for "+network.String()+": "+r.Name)
		}
	}
	if !vpc.Routes.add(name, route) {
		return mdwerror.AlreadyExists(ast.TypeRoute.Full(), name)
	}
	return nil
}

func (t *Tree) removeRoute(name string, parent *ast.Resource) error {
	vpc, err := t.vpcOf(parent)
	if err != nil {
		return err
	}
	if !vpc.Routes.remove(name) {
		return mdwerror.NotFound(ast.TypeRoute.Full(), name)
	}
	return nil
}

// ---- proxy

func (t *Tree) createProxy(name string, parent *ast.Resource, params ast.Params) error {
	sw, err := t.switchOf(parent)
	if err != nil {
		return err
	}
	listen, err := registry.ParseIPPort(name)
	if err != nil {
		return mdwerror.ParamValidation("invalid proxy address: %v", err)
	}
	p := &Proxy{Listen: listen, Backend: strParam(params, ast.ParamAddress, "")}
	if !sw.Proxies.add(name, p) {
		return mdwerror.AlreadyExists(ast.TypeProxy.Full(), name)
	}
	return nil
}

func (t *Tree) removeProxy(name string, parent *ast.Resource) error {
	sw, err := t.switchOf(parent)
	if err != nil {
		return err
	}
	if !sw.Proxies.remove(name) {
		return mdwerror.NotFound(ast.TypeProxy.Full(), name)
	}
	return nil
}
