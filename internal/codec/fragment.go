package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"meshplan/internal/domain"

	"gopkg.in/yaml.v3"
)

// NodeFragment is the part of a plan one router applies
type NodeFragment struct {
	Node    string                     `json:"node" yaml:"node"`
	Mode    domain.PlanMode            `json:"mode" yaml:"mode"`
	ASN     uint32                     `json:"asn,omitempty" yaml:"asn,omitempty"`
	Entries []domain.RelationshipEntry `json:"entries" yaml:"entries"`
}

// FragmentRenderer renders per-node plan fragments as JSON or YAML
type FragmentRenderer struct {
	format string
}

// NewFragmentRenderer creates a renderer for format
func NewFragmentRenderer(format string) (*FragmentRenderer, error) {
	switch f := strings.ToLower(format); f {
	case "json", "yaml":
		return &FragmentRenderer{format: f}, nil
	case "yml":
		return &FragmentRenderer{format: "yaml"}, nil
	}
	return nil, fmt.Errorf("unsupported fragment format %q", format)
}

// Extension returns the file extension for rendered fragments
func (r *FragmentRenderer) Extension() string {
	return "." + r.format
}

// Render returns the fragment for nodeID. A node absent from the plan is an
// error; a node with no entries renders an empty fragment.
func (r *FragmentRenderer) Render(plan *domain.Plan, nodeID string) ([]byte, error) {
	entries, ok := plan.Entries[nodeID]
	if !ok {
		return nil, fmt.Errorf("node %q is not part of the plan", nodeID)
	}

	fragment := NodeFragment{
		Node:    nodeID,
		Mode:    plan.Mode,
		ASN:     plan.ASN,
		Entries: append([]domain.RelationshipEntry{}, entries...),
	}

	var buf bytes.Buffer
	switch r.format {
	case "json":
		encoder := json.NewEncoder(&buf)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(fragment); err != nil {
			return nil, fmt.Errorf("failed to encode fragment: %w", err)
		}
	default:
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(fragment); err != nil {
			return nil, fmt.Errorf("failed to encode fragment: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode fragment: %w", err)
		}
	}
	return buf.Bytes(), nil
}
