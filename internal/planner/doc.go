// Package planner computes control-plane relationship plans from classified
// nodes and, optionally, discovered adjacency.
//
// Two modes share one declarative model. Hierarchy mode uses a TierTable:
// the apex tier forms a full mesh and every other tier peers upward with its
// parent tier. Adjacency mode uses a SchemeTable to assign each discovered
// link a scheme and area, alternating parallel links between the same node
// pair by their discovery order.
//
// Build is the entry point: it runs Preflight, the mode's planner, Dedup and
// Validate. Every function here is pure; the package performs no I/O and
// does not log.
package planner
