package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"meshplan/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullToIntPtr converts sql.NullInt64 to *int
func nullToIntPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

// intPtrToNull converts *int to sql.NullInt64
func intPtrToNull(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// timeToNull stores a time as unix nanoseconds, leaving the zero time NULL
func timeToNull(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

// nullToTime converts stored unix nanoseconds back to a UTC time
func nullToTime(ni sql.NullInt64) time.Time {
	if !ni.Valid {
		return time.Time{}
	}
	return time.Unix(0, ni.Int64).UTC()
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals a value to a nullable JSON string, storing empty
// slices as NULL
func marshalToNull(v interface{}) (sql.NullString, error) {
	if ws, ok := v.([]domain.Warning); ok && len(ws) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Snapshot Row Scanner
// ============================================================================

// snapshotColumns is the SELECT column list for snapshot queries
const snapshotColumns = `id, lab, taken_at, node_count, edge_count, warnings`

// snapshotRow holds all columns from a snapshot query for scanning
type snapshotRow struct {
	ID           string
	Lab          sql.NullString
	TakenAt      sql.NullInt64
	NodeCount    int
	EdgeCount    int
	WarningsJSON sql.NullString
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match snapshotColumns order exactly
func (r *snapshotRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,
		&r.Lab,
		&r.TakenAt,
		&r.NodeCount,
		&r.EdgeCount,
		&r.WarningsJSON,
	}
}

// toDomain converts the scanned row to an empty domain.Snapshot
func (r *snapshotRow) toDomain() (*domain.Snapshot, error) {
	s := &domain.Snapshot{
		ID:      r.ID,
		Lab:     nullToString(r.Lab),
		TakenAt: nullToTime(r.TakenAt),
		Nodes:   make([]domain.Node, 0, r.NodeCount),
		Edges:   make([]domain.Edge, 0, r.EdgeCount),
	}
	if err := unmarshalJSONField(r.WarningsJSON, &s.Warnings); err != nil {
		return nil, fmt.Errorf("unmarshal warnings: %w", err)
	}
	return s, nil
}

// ============================================================================
// Node Row Scanner
// ============================================================================

// nodeColumns is the SELECT column list for node queries
const nodeColumns = `node_id, raw_name, role, region, address, mgmt_address`

// nodeRow holds all columns from a node query for scanning
type nodeRow struct {
	ID          string
	RawName     sql.NullString
	Role        string
	Region      sql.NullInt64
	Address     sql.NullString
	MgmtAddress sql.NullString
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match nodeColumns order exactly
func (r *nodeRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,
		&r.RawName,
		&r.Role,
		&r.Region,
		&r.Address,
		&r.MgmtAddress,
	}
}

// toDomain converts the scanned row to a domain.Node
func (r *nodeRow) toDomain() domain.Node {
	return domain.Node{
		ID:          r.ID,
		RawName:     nullToString(r.RawName),
		Role:        domain.Role(r.Role),
		Region:      nullToIntPtr(r.Region),
		Address:     nullToString(r.Address),
		MgmtAddress: nullToString(r.MgmtAddress),
	}
}

// nodeInsertArgs prepares arguments for a node INSERT
// Returns: snapshot_id, seq, node_id, raw_name, role, region, address, mgmt_address
func nodeInsertArgs(snapshotID string, seq int, node domain.Node) []interface{} {
	return []interface{}{
		snapshotID,
		seq,
		node.ID,
		stringToNull(node.RawName),
		string(node.Role),
		intPtrToNull(node.Region),
		stringToNull(node.Address),
		stringToNull(node.MgmtAddress),
	}
}

// ============================================================================
// Edge Row Scanner
// ============================================================================

// edgeColumns is the SELECT column list for edge queries
const edgeColumns = `local_id, local_interface, remote_id, remote_interface`

// edgeRow holds all columns from an edge query for scanning
type edgeRow struct {
	LocalID         string
	LocalInterface  string
	RemoteID        string
	RemoteInterface string
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match edgeColumns order exactly
func (r *edgeRow) scanArgs() []interface{} {
	return []interface{}{
		&r.LocalID,
		&r.LocalInterface,
		&r.RemoteID,
		&r.RemoteInterface,
	}
}

// toDomain converts the scanned row to a domain.Edge
func (r *edgeRow) toDomain() domain.Edge {
	return domain.Edge{
		LocalID:         r.LocalID,
		LocalInterface:  r.LocalInterface,
		RemoteID:        r.RemoteID,
		RemoteInterface: r.RemoteInterface,
	}
}

// edgeInsertArgs prepares arguments for an edge INSERT
// Returns: snapshot_id, seq, local_id, local_interface, remote_id, remote_interface
func edgeInsertArgs(snapshotID string, seq int, edge domain.Edge) []interface{} {
	return []interface{}{
		snapshotID,
		seq,
		edge.LocalID,
		edge.LocalInterface,
		edge.RemoteID,
		edge.RemoteInterface,
	}
}
