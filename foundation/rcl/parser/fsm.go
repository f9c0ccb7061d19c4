// File: fsm.go
// Title: RCL Parser Transition Table
// Description: States, token categories and the transition rules that the
//              parser walks. Each edge names the category it consumes.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

package parser

import (
	"github.com/msto63/netplane/foundation/rcl/ast"
)

// state numbers follow the grammar walk; 0 is the failure state
type state int

const (
	stateFail state = iota
	stateAction
	stateType
	stateAlias
	statePrep
	statePrepType
	statePrepAlias
	stateFlag
	stateParamKey
	stateParamValue
	stateIn
	stateParentType
	stateParentAlias
	statePrepIn
	statePrepParentType
	statePrepParentAlias
)

// category is the kind of token a transition expects
type category int

const (
	catResourceType category = iota + 1
	catName
	catPreposition
	catFlag
	catParam
	catIn
	catValue
)

func (c category) String() string {
	switch c {
	case catResourceType:
		return "resource type"
	case catName:
		return "name"
	case catPreposition:
		return "preposition"
	case catFlag:
		return "flag"
	case catParam:
		return "param"
	case catIn:
		return "'in'"
	case catValue:
		return "value"
	default:
		return "token"
	}
}

// edge is one candidate transition, tried in order
type edge struct {
	on   category
	next state
}

// rule describes what may follow a state
type rule struct {
	requiresNext bool
	edges        []edge
}

// machine is the transition table plus the accept set
type machine struct {
	rules  map[state]rule
	accept map[state]bool
}

var defaultMachine = &machine{
	rules: map[state]rule{
		stateAction:          {true, []edge{{catResourceType, stateType}}},
		stateType:            {false, []edge{{catIn, stateIn}, {catName, stateAlias}}},
		stateAlias:           {false, []edge{{catPreposition, statePrep}, {catFlag, stateFlag}, {catParam, stateParamKey}, {catIn, stateIn}}},
		statePrep:            {true, []edge{{catResourceType, statePrepType}}},
		statePrepType:        {true, []edge{{catName, statePrepAlias}}},
		statePrepAlias:       {false, []edge{{catFlag, stateFlag}, {catParam, stateParamKey}, {catIn, statePrepIn}}},
		stateFlag:            {false, []edge{{catFlag, stateFlag}, {catParam, stateParamKey}}},
		stateParamKey:        {true, []edge{{catValue, stateParamValue}}},
		stateParamValue:      {false, []edge{{catFlag, stateFlag}, {catParam, stateParamKey}}},
		stateIn:              {true, []edge{{catResourceType, stateParentType}}},
		stateParentType:      {true, []edge{{catName, stateParentAlias}}},
		stateParentAlias:     {false, []edge{{catPreposition, statePrep}, {catFlag, stateFlag}, {catParam, stateParamKey}, {catIn, stateIn}}},
		statePrepIn:          {true, []edge{{catResourceType, statePrepParentType}}},
		statePrepParentType:  {true, []edge{{catName, statePrepParentAlias}}},
		statePrepParentAlias: {false, []edge{{catFlag, stateFlag}, {catParam, stateParamKey}, {catIn, statePrepIn}}},
	},
	accept: map[state]bool{
		stateType:            true,
		stateAlias:           true,
		statePrepAlias:       true,
		stateFlag:            true,
		stateParamValue:      true,
		stateParentAlias:     true,
		statePrepParentAlias: true,
	},
}

// match classifies tok for category c and returns the resolved value
func match(c category, tok string) (interface{}, bool) {
	switch c {
	case catResourceType:
		return ast.ResolveResourceType(tok)
	case catPreposition:
		return ast.ResolvePreposition(tok)
	case catFlag:
		return ast.ResolveFlag(tok)
	case catParam:
		return ast.ResolveParam(tok)
	case catIn:
		return nil, tok == ast.InKeyword
	case catName, catValue:
		return tok, true
	default:
		return nil, false
	}
}

// step picks the transition for the lookahead token
func (m *machine) step(from state, tok string) (state, interface{}, category, bool) {
	r := m.rules[from]
	for _, e := range r.edges {
		if v, ok := match(e.on, tok); ok {
			return e.next, v, e.on, true
		}
	}
	if len(r.edges) == 1 {
		return stateFail, nil, r.edges[0].on, false
	}
	return stateFail, nil, 0, false
}
