// Package domain defines the core types for planning control-plane relationships
// across routers in a lab topology.
//
// # Core Types
//
// Node is a router with a role inferred from its name, an optional region and
// the loopback address used for peering.
//
// Edge is a one-sided link observation as reported by the node that owns the
// local interface. Mirrored and duplicate observations are expected.
//
// RelationshipEntry is a directed relation (mesh, reflector-side, client-side,
// scheme-edge or passive) held by one owner node. Plan groups entries per node
// and carries the non-fatal Warnings collected while planning.
//
// Snapshot is one atomic discovery result: nodes plus edges.
//
// # Classification
//
// Classify maps a device name to (prefix, region, role) using an ordered
// first-match-wins rule list. Classification is total: names that match no
// rule resolve to RoleOther.
//
// # Errors
//
// Hard failures are *Error values whose kind can be tested with errors.Is
// against ErrInvalidInput, ErrMissingAddress, ErrNoReflectors and
// ErrInvalidTierTable.
package domain
