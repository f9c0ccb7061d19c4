// File: enums.go
// Title: RCL Keyword Enums
// Description: Closed enums for actions, prepositions, flags and params
//              together with their short codes, full names and resolvers.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

package ast

// names holds the two spellings of an enum value
type names struct {
	short string
	full  string
}

// lookup resolves a token to an enum value by short code, then full name
type lookup[T comparable] struct {
	byShort map[string]T
	byFull  map[string]T
}

func newLookup[T comparable](values []T, spell func(T) names) lookup[T] {
	l := lookup[T]{
		byShort: make(map[string]T, len(values)),
		byFull:  make(map[string]T, len(values)),
	}
	for _, v := range values {
		n := spell(v)
		l.byShort[n.short] = v
		l.byFull[n.full] = v
	}
	return l
}

func (l lookup[T]) resolve(token string) (T, bool) {
	if v, ok := l.byShort[token]; ok {
		return v, true
	}
	v, ok := l.byFull[token]
	return v, ok
}

// Action is the verb of a command
type Action int

const (
	ActionAdd Action = iota + 1
	ActionRemove
	ActionForceRemove
	ActionUpdate
	ActionList
	ActionListDetail
)

var actionNames = map[Action]names{
	ActionAdd:         {"a", "add"},
	ActionRemove:      {"r", "remove"},
	ActionForceRemove: {"R", "force-remove"},
	ActionUpdate:      {"u", "update"},
	ActionList:        {"l", "list"},
	ActionListDetail:  {"L", "list-detail"},
}

// Actions returns all actions in declaration order
func Actions() []Action {
	return []Action{ActionAdd, ActionRemove, ActionForceRemove, ActionUpdate, ActionList, ActionListDetail}
}

// Short returns the short code
func (a Action) Short() string { return actionNames[a].short }

// Full returns the full name
func (a Action) Full() string { return actionNames[a].full }

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n.full
	}
	return "unknown"
}

// IsList reports list and list-detail
func (a Action) IsList() bool {
	return a == ActionList || a == ActionListDetail
}

// IsRemove reports graceful and forced removal
func (a Action) IsRemove() bool {
	return a == ActionRemove || a == ActionForceRemove
}

// IsMutating reports every action that changes the resource tree
func (a Action) IsMutating() bool {
	return a == ActionAdd || a == ActionUpdate || a.IsRemove()
}

// Preposition links the primary resource to the resource it is added to
// or removed from
type Preposition int

const (
	PrepNone Preposition = iota
	PrepTo
	PrepFrom
)

var prepositionNames = map[Preposition]names{
	PrepTo:   {"to", "to"},
	PrepFrom: {"from", "from"},
}

// Prepositions returns all prepositions
func Prepositions() []Preposition {
	return []Preposition{PrepTo, PrepFrom}
}

func (p Preposition) String() string {
	if n, ok := prepositionNames[p]; ok {
		return n.full
	}
	return ""
}

// Flag is a boolean modifier; a command carries a set of them
type Flag int

const (
	FlagNoIPv4 Flag = iota + 1
	FlagNoIPv6
	FlagAllowNonBackend
	FlagDenyNonBackend
	FlagNoFlood
)

var flagNames = map[Flag]names{
	FlagNoIPv4:          {"noipv4", "no-ipv4"},
	FlagNoIPv6:          {"noipv6", "no-ipv6"},
	FlagAllowNonBackend: {"allownonbackend", "allow-non-backend"},
	FlagDenyNonBackend:  {"denynonbackend", "deny-non-backend"},
	FlagNoFlood:         {"noflood", "no-flood"},
}

// Flags returns all flags in declaration order
func Flags() []Flag {
	return []Flag{FlagNoIPv4, FlagNoIPv6, FlagAllowNonBackend, FlagDenyNonBackend, FlagNoFlood}
}

// Short returns the short code
func (f Flag) Short() string { return flagNames[f].short }

// Full returns the full name
func (f Flag) Full() string { return flagNames[f].full }

func (f Flag) String() string { return f.Full() }

// Param is the key of a key/value argument
type Param int

const (
	ParamAddress Param = iota + 1
	ParamUpstream
	ParamAcceptorELG
	ParamEventLoopGroup
	ParamInBufferSize
	ParamOutBufferSize
	ParamTimeout
	ParamPeriod
	ParamUp
	ParamDown
	ParamMethod
	ParamWeight
	ParamDefault
	ParamNetwork
	ParamV6Network
	ParamProtocol
	ParamPortRange
	ParamAnnotations
	ParamSecurityGroup
	ParamCertKey
	ParamCert
	ParamKey
	ParamTTL
	ParamMacTableTimeout
	ParamArpTableTimeout
	ParamPassword
	ParamMac
	ParamVni
	ParamVia
	ParamPostScript
	ParamMTU
)

var paramNames = map[Param]names{
	ParamAddress:         {"addr", "address"},
	ParamUpstream:        {"ups", "upstream"},
	ParamAcceptorELG:     {"aelg", "acceptor-elg"},
	ParamEventLoopGroup:  {"elg", "event-loop-group"},
	ParamInBufferSize:    {"inbuffersize", "in-buffer-size"},
	ParamOutBufferSize:   {"outbuffersize", "out-buffer-size"},
	ParamTimeout:         {"timeout", "timeout"},
	ParamPeriod:          {"period", "period"},
	ParamUp:              {"up", "up"},
	ParamDown:            {"down", "down"},
	ParamMethod:          {"meth", "method"},
	ParamWeight:          {"w", "weight"},
	ParamDefault:         {"dft", "default"},
	ParamNetwork:         {"net", "network"},
	ParamV6Network:       {"v6net", "v6network"},
	ParamProtocol:        {"proto", "protocol"},
	ParamPortRange:       {"portrange", "port-range"},
	ParamAnnotations:     {"anno", "annotations"},
	ParamSecurityGroup:   {"secg", "security-group"},
	ParamCertKey:         {"ck", "cert-key"},
	ParamCert:            {"cert", "cert"},
	ParamKey:             {"key", "key"},
	ParamTTL:             {"ttl", "ttl"},
	ParamMacTableTimeout: {"mactabletimeout", "mac-table-timeout"},
	ParamArpTableTimeout: {"arptabletimeout", "arp-table-timeout"},
	ParamPassword:        {"pass", "password"},
	ParamMac:             {"mac", "mac"},
	ParamVni:             {"vni", "vni"},
	ParamVia:             {"via", "via"},
	ParamPostScript:      {"postscript", "post-script"},
	ParamMTU:             {"mtu", "mtu"},
}

// AllParams returns all param keys in declaration order
func AllParams() []Param {
	out := make([]Param, 0, len(paramNames))
	for p := ParamAddress; p <= ParamMTU; p++ {
		out = append(out, p)
	}
	return out
}

// Short returns the short code
func (p Param) Short() string { return paramNames[p].short }

// Full returns the full name
func (p Param) Full() string { return paramNames[p].full }

func (p Param) String() string { return p.Full() }

var (
	actionLookup      = newLookup(Actions(), func(a Action) names { return actionNames[a] })
	prepositionLookup = newLookup(Prepositions(), func(p Preposition) names { return prepositionNames[p] })
	flagLookup        = newLookup(Flags(), func(f Flag) names { return flagNames[f] })
	paramLookup       = newLookup(AllParams(), func(p Param) names { return paramNames[p] })
	resourceLookup    = newLookup(ResourceTypes(), func(t ResourceType) names { return resourceNames[t] })
)

// ResolveAction maps a token to an Action
func ResolveAction(token string) (Action, bool) { return actionLookup.resolve(token) }

// ResolvePreposition maps a token to a Preposition
func ResolvePreposition(token string) (Preposition, bool) { return prepositionLookup.resolve(token) }

// ResolveFlag maps a token to a Flag
func ResolveFlag(token string) (Flag, bool) { return flagLookup.resolve(token) }

// ResolveParam maps a token to a Param
func ResolveParam(token string) (Param, bool) { return paramLookup.resolve(token) }

// ResolveResourceType maps a token to a ResourceType
func ResolveResourceType(token string) (ResourceType, bool) { return resourceLookup.resolve(token) }
