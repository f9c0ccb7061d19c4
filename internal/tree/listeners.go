package tree

import (
	"strings"

	mdwerror "github.com/msto63/netplane/foundation/core/error"
	"github.com/msto63/netplane/foundation/rcl/ast"
	"github.com/msto63/netplane/foundation/rcl/registry"
)

func kindOf(rt ast.ResourceType) ListenerKind {
	switch rt {
	case ast.TypeTCPLB:
		return KindTCPLB
	case ast.TypeSocks5Server:
		return KindSocks5
	default:
		return KindDNS
	}
}

func (t *Tree) createListener(rt ast.ResourceType, name string, params ast.Params, flags ast.FlagSet) error {
	listeners := t.listeners(rt)
	if listeners.has(name) {
		return mdwerror.AlreadyExists(rt.Full(), name)
	}

	bind, err := registry.ParseIPPort(strParam(params, ast.ParamAddress, ""))
	if err != nil {
		return mdwerror.ParamValidation("invalid address: %v", err)
	}
	for _, other := range t.allListeners() {
		if other.Bind == bind && (other.Kind == KindDNS) == (rt == ast.TypeDNSServer) {
			return mdwerror.New("address " + bind.String() + " is already bound by " + other.Name).
				WithCode(mdwerror.CodeDuplicateEntry)
		}
	}

	l := &Listener{
		Kind:          kindOf(rt),
		Name:          name,
		Bind:          bind,
		Upstream:      strParam(params, ast.ParamUpstream, ""),
		AcceptorELG:   strParam(params, ast.ParamAcceptorELG, DefaultAcceptorELG),
		WorkerELG:     strParam(params, ast.ParamEventLoopGroup, DefaultWorkerELG),
		InBufferSize:  intParam(params, ast.ParamInBufferSize, DefaultBufferSize),
		OutBufferSize: intParam(params, ast.ParamOutBufferSize, DefaultBufferSize),
		TimeoutMillis: intParam(params, ast.ParamTimeout, DefaultTimeoutMillis),
		Protocol:      strParam(params, ast.ParamProtocol, "tcp"),
		SecurityGroup: strParam(params, ast.ParamSecurityGroup, DefaultSecurityGroup),
		TTL:           intParam(params, ast.ParamTTL, 0),
	}
	if v, ok := params.Get(ast.ParamCertKey); ok {
		l.CertKeys = strings.Split(v, ",")
	}
	t.applyListenerFlags(l, flags)

	if _, err := t.upstream(l.Upstream); err != nil {
		return err
	}
	if rt != ast.TypeDNSServer {
		if _, err := t.elg(l.AcceptorELG); err != nil {
			return err
		}
	}
	if _, err := t.elg(l.WorkerELG); err != nil {
		return err
	}
	if _, err := t.securityGroup(l.SecurityGroup); err != nil {
		return err
	}
	for _, ck := range l.CertKeys {
		if _, err := t.certKey(ck); err != nil {
			return err
		}
	}

	listeners.add(name, l)
	return nil
}

func (t *Tree) applyListenerFlags(l *Listener, flags ast.FlagSet) {
	if flags.Has(ast.FlagAllowNonBackend) {
		l.AllowNonBackend = true
	}
	if flags.Has(ast.FlagDenyNonBackend) {
		l.AllowNonBackend = false
	}
	if flags.Has(ast.FlagNoIPv4) {
		l.NoIPv4 = true
	}
	if flags.Has(ast.FlagNoIPv6) {
		l.NoIPv6 = true
	}
}

func (t *Tree) updateListener(rt ast.ResourceType, name string, params ast.Params, flags ast.FlagSet) error {
	l, err := t.listener(rt, name)
	if err != nil {
		return err
	}

	// Resolve references before touching the record so a failed update
	// leaves it unchanged.
	secg := strParam(params, ast.ParamSecurityGroup, l.SecurityGroup)
	if _, err := t.securityGroup(secg); err != nil {
		return err
	}
	certKeys := l.CertKeys
	if v, ok := params.Get(ast.ParamCertKey); ok {
		certKeys = strings.Split(v, ",")
		for _, ck := range certKeys {
			if _, err := t.certKey(ck); err != nil {
				return err
			}
		}
	}

	l.SecurityGroup = secg
	l.CertKeys = certKeys
	l.InBufferSize = intParam(params, ast.ParamInBufferSize, l.InBufferSize)
	l.OutBufferSize = intParam(params, ast.ParamOutBufferSize, l.OutBufferSize)
	l.TimeoutMillis = intParam(params, ast.ParamTimeout, l.TimeoutMillis)
	l.TTL = intParam(params, ast.ParamTTL, l.TTL)
	t.applyListenerFlags(l, flags)
	return nil
}

func (t *Tree) removeListener(rt ast.ResourceType, name string) error {
	if !t.listeners(rt).remove(name) {
		return mdwerror.NotFound(rt.Full(), name)
	}
	return nil
}

func (t *Tree) allListeners() []*Listener {
	var out []*Listener
	out = append(out, t.tcpLBs.values()...)
	out = append(out, t.socks5s.values()...)
	out = append(out, t.dnsServers.values()...)
	return out
}

func listenerLabel(l *Listener) string {
	switch l.Kind {
	case KindTCPLB:
		return ast.TypeTCPLB.Full() + " " + l.Name
	case KindSocks5:
		return ast.TypeSocks5Server.Full() + " " + l.Name
	default:
		return ast.TypeDNSServer.Full() + " " + l.Name
	}
}
