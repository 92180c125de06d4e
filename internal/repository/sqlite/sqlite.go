package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"meshplan/internal/domain"
	"meshplan/internal/repository"
)

// Repository implements repository.SnapshotStore using SQLite
type Repository struct {
	db *sql.DB
}

var _ repository.SnapshotStore = (*Repository)(nil)

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps :memory: databases shared across calls
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		lab TEXT,
		taken_at INTEGER,
		node_count INTEGER NOT NULL DEFAULT 0,
		edge_count INTEGER NOT NULL DEFAULT 0,
		warnings JSON,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS snapshot_nodes (
		snapshot_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		node_id TEXT NOT NULL,
		raw_name TEXT,
		role TEXT NOT NULL,
		region INTEGER,
		address TEXT,
		mgmt_address TEXT,
		PRIMARY KEY (snapshot_id, seq),
		UNIQUE (snapshot_id, node_id),
		FOREIGN KEY (snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS snapshot_edges (
		snapshot_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		local_id TEXT NOT NULL,
		local_interface TEXT NOT NULL,
		remote_id TEXT NOT NULL,
		remote_interface TEXT NOT NULL,
		PRIMARY KEY (snapshot_id, seq),
		FOREIGN KEY (snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_lab ON snapshots(lab, taken_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveSnapshot stores a snapshot with its nodes and edges in one transaction.
// A snapshot without an ID is assigned a new UUID.
func (r *Repository) SaveSnapshot(ctx context.Context, snapshot *domain.Snapshot) (string, error) {
	if snapshot == nil {
		return "", fmt.Errorf("snapshot is nil")
	}

	id := snapshot.ID
	if id == "" {
		id = uuid.New().String()
	}

	warningsJSON, err := marshalToNull(snapshot.Warnings)
	if err != nil {
		return "", fmt.Errorf("failed to marshal warnings: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, lab, taken_at, node_count, edge_count, warnings)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, stringToNull(snapshot.Lab), timeToNull(snapshot.TakenAt),
		len(snapshot.Nodes), len(snapshot.Edges), warningsJSON)
	if err != nil {
		return "", fmt.Errorf("failed to insert snapshot: %w", err)
	}

	nodeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_nodes (snapshot_id, seq, node_id, raw_name, role, region, address, mgmt_address)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare node insert: %w", err)
	}
	defer nodeStmt.Close()

	for i, node := range snapshot.Nodes {
		if _, err := nodeStmt.ExecContext(ctx, nodeInsertArgs(id, i, node)...); err != nil {
			return "", fmt.Errorf("failed to insert node %s: %w", node.ID, err)
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_edges (snapshot_id, seq, local_id, local_interface, remote_id, remote_interface)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare edge insert: %w", err)
	}
	defer edgeStmt.Close()

	for i, edge := range snapshot.Edges {
		if _, err := edgeStmt.ExecContext(ctx, edgeInsertArgs(id, i, edge)...); err != nil {
			return "", fmt.Errorf("failed to insert edge %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return id, nil
}

// GetSnapshot loads a snapshot, preserving node and edge order
func (r *Repository) GetSnapshot(ctx context.Context, id string) (*domain.Snapshot, error) {
	fullID, err := r.resolveID(ctx, id)
	if err != nil {
		return nil, err
	}

	var row snapshotRow
	err = r.db.QueryRowContext(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots WHERE id = ?`, fullID,
	).Scan(row.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}

	snapshot, err := row.toDomain()
	if err != nil {
		return nil, err
	}

	if err := r.loadNodes(ctx, snapshot); err != nil {
		return nil, err
	}
	if err := r.loadEdges(ctx, snapshot); err != nil {
		return nil, err
	}

	return snapshot, nil
}

// loadNodes appends the stored nodes of snapshot in their original order
func (r *Repository) loadNodes(ctx context.Context, snapshot *domain.Snapshot) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM snapshot_nodes WHERE snapshot_id = ? ORDER BY seq`, snapshot.ID)
	if err != nil {
		return fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row nodeRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return fmt.Errorf("failed to scan node: %w", err)
		}
		snapshot.AddNode(row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating nodes: %w", err)
	}
	return nil
}

// loadEdges appends the stored edges of snapshot in their original order
func (r *Repository) loadEdges(ctx context.Context, snapshot *domain.Snapshot) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+edgeColumns+` FROM snapshot_edges WHERE snapshot_id = ? ORDER BY seq`, snapshot.ID)
	if err != nil {
		return fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row edgeRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return fmt.Errorf("failed to scan edge: %w", err)
		}
		snapshot.AddEdge(row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating edges: %w", err)
	}
	return nil
}

// ListSnapshots returns snapshot summaries, newest first
func (r *Repository) ListSnapshots(ctx context.Context, lab string) ([]repository.SnapshotSummary, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots`
	var args []interface{}
	if lab != "" {
		query += ` WHERE lab = ?`
		args = append(args, lab)
	}
	query += ` ORDER BY taken_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	summaries := []repository.SnapshotSummary{}
	for rows.Next() {
		var row snapshotRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		s, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, repository.SnapshotSummary{
			ID:       s.ID,
			Lab:      s.Lab,
			TakenAt:  s.TakenAt,
			Nodes:    row.NodeCount,
			Edges:    row.EdgeCount,
			Warnings: len(s.Warnings),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return summaries, nil
}

// DeleteSnapshot removes a snapshot; its nodes and edges cascade
func (r *Repository) DeleteSnapshot(ctx context.Context, id string) error {
	fullID, err := r.resolveID(ctx, id)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, fullID)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// resolveID expands a unique ID prefix to the full snapshot ID
func (r *Repository) resolveID(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", repository.ErrNotFound
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM snapshots WHERE substr(id, 1, ?) = ? ORDER BY id LIMIT 2`, len(prefix), prefix)
	if err != nil {
		return "", fmt.Errorf("failed to resolve snapshot id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("failed to scan snapshot id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("error iterating snapshot ids: %w", err)
	}

	switch {
	case len(ids) == 0:
		return "", repository.ErrNotFound
	case len(ids) > 1 && ids[0] != prefix:
		return "", fmt.Errorf("snapshot id prefix %q is ambiguous", prefix)
	}
	return ids[0], nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
