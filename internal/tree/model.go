// File: model.go
// Title: Resource Tree Model
// Description: Resource records held by the tree. The String method of each
//              record is its list-detail line.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

package tree

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"strings"
)

// Built-in resources created with every tree. They cannot be removed.
const (
	DefaultAcceptorELG   = "(acceptor-elg)"
	DefaultWorkerELG     = "(worker-elg)"
	DefaultSecurityGroup = "(allow-all)"
	DefaultResolver      = "(default)"
)

// Listener defaults
const (
	DefaultBufferSize     = 16384
	DefaultTimeoutMillis  = 900000
	DefaultMacTableMillis = 300000
	DefaultArpTableMillis = 14400000
	DefaultMTU            = 1500
)

type Annotations map[string]string

func (a Annotations) String() string {
	if len(a) == 0 {
		return "{}"
	}
	b, _ := json.Marshal(map[string]string(a))
	return string(b)
}

// EventLoopGroup is a named set of event loops
type EventLoopGroup struct {
	Name    string
	Loops   *store[*EventLoop]
	builtin bool
}

func (g *EventLoopGroup) String() string {
	return fmt.Sprintf("%s -> event-loops %d", g.Name, g.Loops.len())
}

// EventLoop belongs to exactly one group
type EventLoop struct {
	Name  string
	Group string
}

func (l *EventLoop) String() string {
	return fmt.Sprintf("%s -> in event-loop-group %s", l.Name, l.Group)
}

// Upstream holds weighted server-group attachments
type Upstream struct {
	Name   string
	Groups *store[*Attachment]
}

func (u *Upstream) String() string {
	return fmt.Sprintf("%s -> server-groups %d", u.Name, u.Groups.len())
}

// Attachment is a server-group placed in an upstream
type Attachment struct {
	Group       string
	Weight      int
	Annotations Annotations
}

func (a *Attachment) String() string {
	return fmt.Sprintf("%s -> weight %d annotations %s", a.Group, a.Weight, a.Annotations)
}

// HealthCheck configures active checks of a server-group
type HealthCheck struct {
	Timeout int
	Period  int
	Up      int
	Down    int
}

// DefaultHealthCheck applies when a server-group is created without one
var DefaultHealthCheck = HealthCheck{Timeout: 1000, Period: 5000, Up: 2, Down: 3}

// ServerGroup is a balanced set of backend servers
type ServerGroup struct {
	Name           string
	Method         string
	HealthCheck    HealthCheck
	EventLoopGroup string
	Annotations    Annotations
	Servers        *store[*Server]
}

func (g *ServerGroup) String() string {
	hc := g.HealthCheck
	return fmt.Sprintf("%s -> timeout %d period %d up %d down %d method %s event-loop-group %s annotations %s",
		g.Name, hc.Timeout, hc.Period, hc.Up, hc.Down, g.Method, g.EventLoopGroup, g.Annotations)
}

// Server is a backend endpoint
type Server struct {
	Name    string
	Address string
	Weight  int
}

func (s *Server) String() string {
	addr := s.Address
	if addr == "" {
		addr = s.Name
	}
	return fmt.Sprintf("%s -> connect-to %s weight %d", s.Name, addr, s.Weight)
}

// ListenerKind tells tcp-lb, socks5-server and dns-server apart
type ListenerKind int

const (
	KindTCPLB ListenerKind = iota + 1
	KindSocks5
	KindDNS
)

// Listener is a bound front end forwarding to an upstream
type Listener struct {
	Kind            ListenerKind
	Name            string
	Bind            netip.AddrPort
	Upstream        string
	AcceptorELG     string
	WorkerELG       string
	InBufferSize    int
	OutBufferSize   int
	TimeoutMillis   int
	Protocol        string
	SecurityGroup   string
	CertKeys        []string
	AllowNonBackend bool
	TTL             int
	NoIPv4          bool
	NoIPv6          bool
}

func (l *Listener) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s ->", l.Name)
	if l.Kind != KindDNS {
		fmt.Fprintf(&b, " acceptor %s", l.AcceptorELG)
	}
	fmt.Fprintf(&b, " worker %s bind %s backend %s", l.WorkerELG, l.Bind, l.Upstream)
	switch l.Kind {
	case KindDNS:
		fmt.Fprintf(&b, " ttl %d", l.TTL)
		if l.NoIPv4 {
			b.WriteString(" no-ipv4")
		}
		if l.NoIPv6 {
			b.WriteString(" no-ipv6")
		}
	default:
		fmt.Fprintf(&b, " in-buffer-size %d out-buffer-size %d timeout %d", l.InBufferSize, l.OutBufferSize, l.TimeoutMillis)
		if l.Kind == KindTCPLB {
			fmt.Fprintf(&b, " protocol %s", l.Protocol)
			if len(l.CertKeys) > 0 {
				fmt.Fprintf(&b, " cert-key %s", strings.Join(l.CertKeys, ","))
			}
		} else if l.AllowNonBackend {
			b.WriteString(" allow-non-backend")
		} else {
			b.WriteString(" deny-non-backend")
		}
	}
	fmt.Fprintf(&b, " security-group %s", l.SecurityGroup)
	return b.String()
}

// SecurityGroup is an ordered rule list with a default verdict
type SecurityGroup struct {
	Name    string
	Allow   bool
	Rules   *store[*SecurityGroupRule]
	builtin bool
}

func (g *SecurityGroup) String() string {
	return fmt.Sprintf("%s -> default %s", g.Name, verdict(g.Allow))
}

// SecurityGroupRule matches a network, protocol and port range
type SecurityGroupRule struct {
	Name     string
	Network  netip.Prefix
	Protocol string
	MinPort  int
	MaxPort  int
	Allow    bool
}

func (r *SecurityGroupRule) String() string {
	return fmt.Sprintf("%s -> %s %s protocol %s port [%d,%d]", r.Name, verdict(r.Allow), r.Network, r.Protocol, r.MinPort, r.MaxPort)
}

func verdict(allow bool) string {
	if allow {
		return "allow"
	}
	return "deny"
}

// CertKey names certificate and key files
type CertKey struct {
	Name  string
	Certs []string
	Key   string
}

func (c *CertKey) String() string {
	return fmt.Sprintf("%s -> cert %s key %s", c.Name, strings.Join(c.Certs, ","), c.Key)
}

// Switch is a virtual L2 switch with its vpcs and access points
type Switch struct {
	Name           string
	Bind           netip.AddrPort
	MacTableMillis int
	ArpTableMillis int
	EventLoopGroup string
	SecurityGroup  string
	MTU            int
	Flood          bool

	VPCs        *store[*VPC]
	Remotes     *store[*RemoteSwitch]
	Users       *store[*User]
	Taps        *store[*Tap]
	UserClients *store[*UserClient]
	Proxies     *store[*Proxy]
}

func (s *Switch) String() string {
	flood := "allow"
	if !s.Flood {
		flood = "deny"
	}
	return fmt.Sprintf("%s -> event-loop-group %s bind %s mac-table-timeout %d arp-table-timeout %d bare-vxlan-access %s mtu %d flood %s",
		s.Name, s.EventLoopGroup, s.Bind, s.MacTableMillis, s.ArpTableMillis, s.SecurityGroup, s.MTU, flood)
}

// RemoteSwitch is a peer switch reachable over vxlan
type RemoteSwitch struct {
	Name    string
	Address netip.AddrPort
}

func (r *RemoteSwitch) String() string {
	return fmt.Sprintf("%s -> address %s", r.Name, r.Address)
}

// VPC is a virtual network identified by its vni
type VPC struct {
	VNI         int
	Network     netip.Prefix
	V6Network   netip.Prefix
	Annotations Annotations
	IPs         *store[*IP]
	Routes      *store[*Route]
}

func (v *VPC) String() string {
	s := fmt.Sprintf("%d -> network %s", v.VNI, v.Network)
	if v.V6Network.IsValid() {
		s += fmt.Sprintf(" v6network %s", v.V6Network)
	}
	return s + " annotations " + v.Annotations.String()
}

// User is a switch account; only the bcrypt hash of the password is kept
type User struct {
	Name         string
	PasswordHash []byte
	VNI          int
	MTU          int
}

func (u *User) String() string {
	return fmt.Sprintf("%s -> vni %d mtu %d", u.Name, u.VNI, u.MTU)
}

// Tap is a kernel tap device bound to a vpc
type Tap struct {
	Dev        string
	VNI        int
	PostScript string
	MTU        int
}

// UserClient connects the switch to a remote switch as a user
type UserClient struct {
	User         string
	PasswordHash []byte
	VNI          int
	Address      netip.AddrPort
}

func userClientKey(user string, addr netip.AddrPort) string {
	return user + "@" + addr.String()
}

// IP is an address the switch answers for inside a vpc
type IP struct {
	Addr netip.Addr
	MAC  string
}

func (i *IP) String() string {
	return fmt.Sprintf("%s -> mac %s", i.Addr, i.MAC)
}

// Route forwards a network to another vpc or to a gateway ip
type Route struct {
	Name    string
	Network netip.Prefix
	VNI     int
	Via     netip.Addr
}

func (r *Route) String() string {
	if r.VNI != 0 {
		return fmt.Sprintf("%s -> network %s vni %d", r.Name, r.Network, r.VNI)
	}
	return fmt.Sprintf("%s -> network %s via %s", r.Name, r.Network, r.Via)
}

// Proxy forwards a listen address on the switch to a backend
type Proxy struct {
	Listen  netip.AddrPort
	Backend string
}

func (p *Proxy) String() string {
	return fmt.Sprintf("%s -> address %s", p.Listen, p.Backend)
}
