// File: resource_types.go
// Title: RCL Resource Types
// Description: Full names, short aliases and lookup for every resource type
//              the command language knows.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

package ast

// ResourceType names a kind of node in the resource tree
type ResourceType int

const (
	TypeTCPLB ResourceType = iota + 1
	TypeSocks5Server
	TypeDNSServer
	TypeEventLoopGroup
	TypeUpstream
	TypeServerGroup
	TypeEventLoop
	TypeServer
	TypeSecurityGroup
	TypeSecurityGroupRule
	TypeCertKey
	TypeResolver
	TypeDNSCache
	TypeSwitch
	TypeVPC
	TypeIface
	TypeArp
	TypeUser
	TypeTap
	TypeUserClient
	TypeIP
	TypeRoute
	TypeProxy
	TypeServerSock
	TypeConnection
	TypeSession
	TypeBytesIn
	TypeBytesOut
	TypeAcceptedConnCount
)

var resourceNames = map[ResourceType]names{
	TypeTCPLB:             {"tl", "tcp-lb"},
	TypeSocks5Server:      {"socks5", "socks5-server"},
	TypeDNSServer:         {"dns", "dns-server"},
	TypeEventLoopGroup:    {"elg", "event-loop-group"},
	TypeUpstream:          {"ups", "upstream"},
	TypeServerGroup:       {"sg", "server-group"},
	TypeEventLoop:         {"el", "event-loop"},
	TypeServer:            {"svr", "server"},
	TypeSecurityGroup:     {"secg", "security-group"},
	TypeSecurityGroupRule: {"secgr", "security-group-rule"},
	TypeCertKey:           {"ck", "cert-key"},
	TypeResolver:          {"resolver", "resolver"},
	TypeDNSCache:          {"dnscache", "dns-cache"},
	TypeSwitch:            {"sw", "switch"},
	TypeVPC:               {"vpc", "vpc"},
	TypeIface:             {"iface", "iface"},
	TypeArp:               {"arp", "arp"},
	TypeUser:              {"user", "user"},
	TypeTap:               {"tap", "tap"},
	TypeUserClient:        {"ucli", "user-client"},
	TypeIP:                {"ip", "ip"},
	TypeRoute:             {"route", "route"},
	TypeProxy:             {"proxy", "proxy"},
	TypeServerSock:        {"ss", "server-sock"},
	TypeConnection:        {"conn", "connection"},
	TypeSession:           {"sess", "session"},
	TypeBytesIn:           {"bin", "bytes-in"},
	TypeBytesOut:          {"bout", "bytes-out"},
	TypeAcceptedConnCount: {"acceptedconncount", "accepted-conn-count"},
}

// ResourceTypes returns every resource type in declaration order
func ResourceTypes() []ResourceType {
	out := make([]ResourceType, 0, len(resourceNames))
	for t := TypeTCPLB; t <= TypeAcceptedConnCount; t++ {
		out = append(out, t)
	}
	return out
}

// Short returns the short code
func (t ResourceType) Short() string { return resourceNames[t].short }

// Full returns the full name
func (t ResourceType) Full() string { return resourceNames[t].full }

func (t ResourceType) String() string {
	if n, ok := resourceNames[t]; ok {
		return n.full
	}
	return "unknown"
}

// Valid reports whether t is one of the declared types
func (t ResourceType) Valid() bool {
	_, ok := resourceNames[t]
	return ok
}
