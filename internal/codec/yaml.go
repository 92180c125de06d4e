package codec

import (
	"fmt"
	"io"
	"time"

	"meshplan/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlSnapshot is the hand-editable snapshot layout. Roles and regions may
// be omitted and are then derived from the node name.
type yamlSnapshot struct {
	ID      string     `yaml:"id,omitempty"`
	Lab     string     `yaml:"lab,omitempty"`
	TakenAt time.Time  `yaml:"taken_at,omitempty"`
	Nodes   []yamlNode `yaml:"nodes"`
	Links   []yamlEdge `yaml:"edges,omitempty"`
	// Warnings are conditions recorded by discovery
	Warnings []domain.Warning `yaml:"warnings,omitempty"`
}

type yamlNode struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name,omitempty"`
	Role        string `yaml:"role,omitempty"`
	Region      *int   `yaml:"region,omitempty"`
	Address     string `yaml:"address,omitempty"`
	MgmtAddress string `yaml:"mgmt_address,omitempty"`
}

type yamlEdge struct {
	Local           string `yaml:"local"`
	LocalInterface  string `yaml:"local_interface"`
	Remote          string `yaml:"remote"`
	RemoteInterface string `yaml:"remote_interface"`
}

// Parse imports a snapshot from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Snapshot, error) {
	var ys yamlSnapshot
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&ys); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	snapshot := &domain.Snapshot{
		ID:       ys.ID,
		Lab:      ys.Lab,
		TakenAt:  ys.TakenAt,
		Nodes:    make([]domain.Node, 0, len(ys.Nodes)),
		Edges:    make([]domain.Edge, 0, len(ys.Links)),
		Warnings: ys.Warnings,
	}

	for _, yn := range ys.Nodes {
		snapshot.AddNode(domain.Node{
			ID:          yn.ID,
			RawName:     yn.Name,
			Role:        domain.Role(yn.Role),
			Region:      yn.Region,
			Address:     yn.Address,
			MgmtAddress: yn.MgmtAddress,
		})
	}

	for _, ye := range ys.Links {
		snapshot.AddEdge(domain.Edge{
			LocalID:         ye.Local,
			LocalInterface:  NormalizeInterface(ye.LocalInterface),
			RemoteID:        ye.Remote,
			RemoteInterface: NormalizeInterface(ye.RemoteInterface),
		})
	}

	return normalize(snapshot)
}

// Export exports a snapshot to YAML
func (c *YAMLCodec) Export(snapshot *domain.Snapshot, w io.Writer) error {
	ys := yamlSnapshot{
		ID:       snapshot.ID,
		Lab:      snapshot.Lab,
		TakenAt:  snapshot.TakenAt,
		Nodes:    make([]yamlNode, 0, len(snapshot.Nodes)),
		Links:    make([]yamlEdge, 0, len(snapshot.Edges)),
		Warnings: snapshot.Warnings,
	}

	for _, node := range snapshot.Nodes {
		yn := yamlNode{
			ID:          node.ID,
			Role:        string(node.Role),
			Region:      node.Region,
			Address:     node.Address,
			MgmtAddress: node.MgmtAddress,
		}
		if node.RawName != node.ID {
			yn.Name = node.RawName
		}
		ys.Nodes = append(ys.Nodes, yn)
	}

	for _, edge := range snapshot.Edges {
		ys.Links = append(ys.Links, yamlEdge{
			Local:           edge.LocalID,
			LocalInterface:  edge.LocalInterface,
			Remote:          edge.RemoteID,
			RemoteInterface: edge.RemoteInterface,
		})
	}

	return c.encode(&ys, w)
}

// ExportPlan exports a plan to YAML
func (c *YAMLCodec) ExportPlan(plan *domain.Plan, w io.Writer) error {
	return c.encode(plan, w)
}

func (c *YAMLCodec) encode(v any, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
