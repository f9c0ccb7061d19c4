// File: schema.go
// Title: RCL Resource Schema Table
// Description: Per-type rows describing legal actions, containers, list
//              views, flags and argument checkers.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

package registry

import (
	"github.com/msto63/netplane/foundation/rcl/ast"
)

// ListView is the shape of a list result
type ListView int

const (
	ViewNone ListView = iota
	// ViewNames yields one name per resource
	ViewNames
	// ViewDetail yields one rendered object per resource
	ViewDetail
	// ViewCount yields a single number
	ViewCount
)

func (v ListView) String() string {
	switch v {
	case ViewNames:
		return "names"
	case ViewDetail:
		return "detail"
	case ViewCount:
		return "count"
	default:
		return "none"
	}
}

// Checker validates the params, flags and alias of a command
type Checker func(cmd *ast.Command) error

// Schema describes one resource type
type Schema struct {
	Type    ast.ResourceType
	Actions []ast.Action

	// TopLevel allows the type without any container
	TopLevel bool
	// Containers lists the types this one may be placed in
	Containers []ast.ResourceType
	// ParentChain lets add and remove name the container with 'in'
	// instead of 'to' or 'from'
	ParentChain bool

	// BriefView and DetailView are returned by list and list-detail
	BriefView  ListView
	DetailView ListView

	// Flags lists the flags accepted on add and update
	Flags []ast.Flag

	CheckCreate Checker
	CheckUpdate Checker
	CheckRemove Checker
	// CheckAttach replaces CheckCreate when the command targets the given
	// container type, e.g. a server-group added to an upstream
	CheckAttach map[ast.ResourceType]Checker
}

// Allows reports whether action is legal for the type
func (s *Schema) Allows(action ast.Action) bool {
	for _, a := range s.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// AllowsContainer reports whether the type may live in container
func (s *Schema) AllowsContainer(container ast.ResourceType) bool {
	for _, c := range s.Containers {
		if c == container {
			return true
		}
	}
	return false
}

// AllowsFlag reports whether f is accepted by the type
func (s *Schema) AllowsFlag(f ast.Flag) bool {
	for _, x := range s.Flags {
		if x == f {
			return true
		}
	}
	return false
}

// View returns the list view for a list action
func (s *Schema) View(action ast.Action) ListView {
	switch action {
	case ast.ActionList:
		return s.BriefView
	case ast.ActionListDetail:
		return s.DetailView
	default:
		return ViewNone
	}
}

var (
	crud     = []ast.Action{ast.ActionAdd, ast.ActionRemove, ast.ActionForceRemove, ast.ActionList, ast.ActionListDetail}
	crudu    = []ast.Action{ast.ActionAdd, ast.ActionRemove, ast.ActionForceRemove, ast.ActionList, ast.ActionListDetail, ast.ActionUpdate}
	addOnly  = []ast.Action{ast.ActionAdd, ast.ActionRemove, ast.ActionForceRemove}
	listOnly = []ast.Action{ast.ActionList, ast.ActionListDetail}
	listKill = []ast.Action{ast.ActionList, ast.ActionListDetail, ast.ActionForceRemove}
)

func types(t ...ast.ResourceType) []ast.ResourceType { return t }

// builtinSchemas is the full resource table
func builtinSchemas() []*Schema {
	return []*Schema{
		{
			Type: ast.TypeTCPLB, Actions: crudu, TopLevel: true,
			BriefView: ViewNames, DetailView: ViewDetail,
			CheckCreate: checkCreateTCPLB, CheckUpdate: checkUpdateTCPLB,
		},
		{
			Type: ast.TypeSocks5Server, Actions: crudu, TopLevel: true,
			BriefView: ViewNames, DetailView: ViewDetail,
			Flags:       []ast.Flag{ast.FlagAllowNonBackend, ast.FlagDenyNonBackend},
			CheckCreate: checkCreateSocks5, CheckUpdate: checkUpdateSocks5,
		},
		{
			Type: ast.TypeDNSServer, Actions: crudu, TopLevel: true,
			BriefView: ViewNames, DetailView: ViewDetail,
			Flags:       []ast.Flag{ast.FlagNoIPv4, ast.FlagNoIPv6},
			CheckCreate: checkCreateDNSServer, CheckUpdate: checkUpdateDNSServer,
		},
		{
			Type: ast.TypeEventLoopGroup, Actions: crud, TopLevel: true,
			BriefView: ViewNames, DetailView: ViewDetail,
			CheckCreate: noParams,
		},
		{
			Type: ast.TypeUpstream, Actions: crud, TopLevel: true,
			BriefView: ViewNames, DetailView: ViewDetail,
			CheckCreate: noParams,
		},
		{
			Type: ast.TypeServerGroup, Actions: crudu, TopLevel: true,
			Containers: types(ast.TypeUpstream),
			BriefView:  ViewNames, DetailView: ViewDetail,
			CheckCreate: checkCreateServerGroup, CheckUpdate: checkUpdateServerGroup,
			CheckAttach: map[ast.ResourceType]Checker{ast.TypeUpstream: checkAttachServerGroup},
		},
		{
			Type: ast.TypeEventLoop, Actions: crud,
			Containers:  types(ast.TypeEventLoopGroup),
			ParentChain: true,
			BriefView:   ViewNames, DetailView: ViewDetail,
			CheckCreate: noParams,
		},
		{
			Type: ast.TypeServer, Actions: crudu,
			Containers: types(ast.TypeServerGroup),
			BriefView:  ViewNames, DetailView: ViewDetail,
			CheckCreate: checkCreateServer, CheckUpdate: checkUpdateServer,
		},
		{
			Type: ast.TypeSecurityGroup, Actions: crudu, TopLevel: true,
			BriefView: ViewNames, DetailView: ViewDetail,
			CheckCreate: checkCreateSecurityGroup, CheckUpdate: checkUpdateSecurityGroup,
		},
		{
			Type: ast.TypeSecurityGroupRule, Actions: crud,
			Containers: types(ast.TypeSecurityGroup),
			BriefView:  ViewNames, DetailView: ViewDetail,
			CheckCreate: checkCreateSecurityGroupRule,
		},
		{
			Type: ast.TypeCertKey, Actions: crud, TopLevel: true,
			BriefView: ViewNames, DetailView: ViewDetail,
			CheckCreate: checkCreateCertKey,
		},
		{
			Type: ast.TypeResolver, TopLevel: true,
		},
		{
			Type: ast.TypeDNSCache, Actions: listKill,
			Containers: types(ast.TypeResolver),
			BriefView:  ViewCount, DetailView: ViewDetail,
		},
		{
			Type: ast.TypeSwitch, Actions: crudu, TopLevel: true,
			Containers: types(ast.TypeSwitch),
			BriefView:  ViewNames, DetailView: ViewDetail,
			Flags:       []ast.Flag{ast.FlagNoFlood},
			CheckCreate: checkCreateSwitch, CheckUpdate: checkUpdateSwitch,
			CheckAttach: map[ast.ResourceType]Checker{ast.TypeSwitch: checkAttachSwitch},
		},
		{
			Type: ast.TypeVPC, Actions: crud,
			Containers: types(ast.TypeSwitch),
			BriefView:  ViewNames, DetailView: ViewDetail,
			CheckCreate: checkCreateVPC,
		},
		{
			Type: ast.TypeIface, Actions: listOnly,
			Containers: types(ast.TypeSwitch),
			BriefView:  ViewCount, DetailView: ViewDetail,
		},
		{
			Type: ast.TypeArp, Actions: listOnly,
			Containers: types(ast.TypeVPC),
			BriefView:  ViewCount, DetailView: ViewDetail,
		},
		{
			Type: ast.TypeUser, Actions: crud,
			Containers: types(ast.TypeSwitch),
			BriefView:  ViewNames, DetailView: ViewDetail,
			CheckCreate: checkCreateUser,
		},
		{
			Type: ast.TypeTap, Actions: addOnly,
			Containers:  types(ast.TypeSwitch),
			CheckCreate: checkCreateTap,
		},
		{
			Type: ast.TypeUserClient, Actions: addOnly,
			Containers:  types(ast.TypeSwitch),
			CheckCreate: checkCreateUserClient, CheckRemove: checkRemoveUserClient,
		},
		{
			Type: ast.TypeIP, Actions: crud,
			Containers: types(ast.TypeVPC),
			BriefView:  ViewNames, DetailView: ViewDetail,
			CheckCreate: checkCreateIP,
		},
		{
			Type: ast.TypeRoute, Actions: crud,
			Containers: types(ast.TypeVPC),
			BriefView:  ViewNames, DetailView: ViewDetail,
			CheckCreate: checkCreateRoute,
		},
		{
			Type: ast.TypeProxy, Actions: crud,
			Containers: types(ast.TypeSwitch),
			BriefView:  ViewNames, DetailView: ViewDetail,
			CheckCreate: checkCreateProxy,
		},
		{
			Type: ast.TypeServerSock, Actions: listOnly,
			Containers: types(ast.TypeEventLoop, ast.TypeTCPLB, ast.TypeSocks5Server),
			BriefView:  ViewCount, DetailView: ViewDetail,
		},
		{
			Type: ast.TypeConnection, Actions: listKill,
			Containers: types(ast.TypeTCPLB, ast.TypeSocks5Server, ast.TypeEventLoop, ast.TypeServer),
			BriefView:  ViewCount, DetailView: ViewDetail,
		},
		{
			Type: ast.TypeSession, Actions: listKill,
			Containers: types(ast.TypeTCPLB, ast.TypeSocks5Server),
			BriefView:  ViewCount, DetailView: ViewDetail,
		},
		{
			Type: ast.TypeBytesIn, Actions: listOnly,
			Containers: types(ast.TypeServerSock, ast.TypeConnection, ast.TypeServer),
			BriefView:  ViewCount, DetailView: ViewCount,
		},
		{
			Type: ast.TypeBytesOut, Actions: listOnly,
			Containers: types(ast.TypeServerSock, ast.TypeConnection, ast.TypeServer),
			BriefView:  ViewCount, DetailView: ViewCount,
		},
		{
			Type: ast.TypeAcceptedConnCount, Actions: listOnly,
			Containers: types(ast.TypeServerSock),
			BriefView:  ViewCount, DetailView: ViewCount,
		},
	}
}
