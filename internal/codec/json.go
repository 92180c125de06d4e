package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"meshplan/internal/domain"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse imports a snapshot from JSON
func (c *JSONCodec) Parse(r io.Reader) (*domain.Snapshot, error) {
	var snapshot domain.Snapshot
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return normalize(&snapshot)
}

// Export exports a snapshot to JSON
func (c *JSONCodec) Export(snapshot *domain.Snapshot, w io.Writer) error {
	return c.encode(snapshot, w)
}

// ExportPlan exports a plan to JSON
func (c *JSONCodec) ExportPlan(plan *domain.Plan, w io.Writer) error {
	return c.encode(plan, w)
}

func (c *JSONCodec) encode(v any, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
