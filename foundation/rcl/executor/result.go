// File: result.go
// Title: Command Result Views
// Description: Native, rendered and text views of a successful command.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

package executor

import (
	"fmt"
	"strconv"
	"strings"
)

// CmdResult is the outcome of a successful command in three views
type CmdResult struct {
	// Value is the native handler return: []string, []fmt.Stringer,
	// int64, string or nil
	Value interface{}
	// Rendered is []string for list results, a string for scalars and nil
	// when the command returns nothing
	Rendered interface{}
	// Text is Rendered joined by newlines
	Text string
}

// Lines returns the per-item rendering; a scalar yields one line and an
// empty result none
func (r *CmdResult) Lines() []string {
	switch v := r.Rendered.(type) {
	case []string:
		return v
	case string:
		return []string{v}
	default:
		return nil
	}
}

func (r *CmdResult) String() string { return r.Text }

func emptyResult() *CmdResult {
	return &CmdResult{}
}

func namesResult(names []string) *CmdResult {
	if names == nil {
		names = []string{}
	}
	return &CmdResult{Value: names, Rendered: names, Text: strings.Join(names, "\n")}
}

func detailResult(items []fmt.Stringer) *CmdResult {
	if items == nil {
		items = []fmt.Stringer{}
	}
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = it.String()
	}
	return &CmdResult{Value: items, Rendered: lines, Text: strings.Join(lines, "\n")}
}

func countResult(n int64) *CmdResult {
	s := strconv.FormatInt(n, 10)
	return &CmdResult{Value: n, Rendered: s, Text: s}
}

func scalarResult(s string) *CmdResult {
	return &CmdResult{Value: s, Rendered: s, Text: s}
}
