// File: doc.go
// Title: RCL Resource Schema Package Documentation
// Description: The static table describing every resource type of the
//              command language.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

/*
Package registry holds one Schema row per ast.ResourceType: the legal
actions, where the type may live in the tree, which view each list action
returns and the parameter checks run for add, update and remove.

The validator and the dispatcher read nothing but this table, so adding a
resource type means adding a row here and a handler case in the tree.
*/
package registry
