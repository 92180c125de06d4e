package repository

import (
	"context"
	"errors"
	"time"

	"meshplan/internal/domain"
)

// ErrNotFound is returned when a snapshot does not exist
var ErrNotFound = errors.New("snapshot not found")

// SnapshotSummary describes a stored snapshot without loading it
type SnapshotSummary struct {
	ID       string    `json:"id" yaml:"id"`
	Lab      string    `json:"lab" yaml:"lab"`
	TakenAt  time.Time `json:"taken_at" yaml:"taken_at"`
	Nodes    int       `json:"nodes" yaml:"nodes"`
	Edges    int       `json:"edges" yaml:"edges"`
	Warnings int       `json:"warnings" yaml:"warnings"`
}

// SnapshotStore defines the interface for discovery snapshot persistence
type SnapshotStore interface {
	// SaveSnapshot stores a snapshot and returns its ID
	SaveSnapshot(ctx context.Context, snapshot *domain.Snapshot) (string, error)
	// GetSnapshot loads a snapshot by ID or unique ID prefix
	GetSnapshot(ctx context.Context, id string) (*domain.Snapshot, error)
	// ListSnapshots returns summaries, newest first; an empty lab lists all
	ListSnapshots(ctx context.Context, lab string) ([]SnapshotSummary, error)
	// DeleteSnapshot removes a snapshot by ID or unique ID prefix
	DeleteSnapshot(ctx context.Context, id string) error

	// Close releases resources
	Close() error
}
