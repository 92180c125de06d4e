// Package repository defines the snapshot persistence interface.
//
// Discovery runs are slow and touch live devices, so their snapshots can be
// stored and planned from later. The sqlite subpackage implements
// SnapshotStore on a local database file; nodes and edges are kept in their
// own tables so stored labs can be inspected with plain SQL.
//
// # Schema Migration
//
// The sqlite store creates its schema on open and enables foreign keys so
// deleting a snapshot removes its nodes and edges.
package repository
