// Package tree holds the in-memory resource tree behind the command
// language. Tree implements executor.Handler; every method runs on the
// control-plane goroutine, so the tree itself takes no locks.
//
// Runtime facts that the tree does not own (open connections, sessions,
// byte counters, learned interfaces and arp entries) come from a DataPlane.
package tree
