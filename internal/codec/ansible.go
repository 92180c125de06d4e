package codec

import (
	"fmt"
	"io"

	"meshplan/internal/domain"

	"gopkg.in/yaml.v3"
)

// AnsibleExporter writes a snapshot as an Ansible inventory with one group
// per role, so configuration playbooks can target reflectors and clients
// separately.
type AnsibleExporter struct{}

// NewAnsibleExporter creates a new Ansible inventory exporter
func NewAnsibleExporter() *AnsibleExporter {
	return &AnsibleExporter{}
}

// Format returns the exporter format identifier
func (c *AnsibleExporter) Format() string {
	return "ansible-inventory"
}

// ansibleInventory represents the Ansible inventory structure
type ansibleInventory struct {
	All ansibleGroup `yaml:"all"`
}

type ansibleGroup struct {
	Children map[string]ansibleGroupDef `yaml:"children,omitempty"`
	Vars     map[string]any             `yaml:"vars,omitempty"`
}

type ansibleGroupDef struct {
	Hosts map[string]ansibleHost `yaml:"hosts,omitempty"`
}

type ansibleHost struct {
	AnsibleHost string `yaml:"ansible_host,omitempty"`
	Loopback    string `yaml:"loopback,omitempty"`
	Region      *int   `yaml:"region,omitempty"`
	Role        string `yaml:"role"`
}

// Export writes the snapshot nodes grouped by role. Edge (ce) nodes are
// included so the inventory covers the whole lab.
func (c *AnsibleExporter) Export(snapshot *domain.Snapshot, w io.Writer) error {
	inv := ansibleInventory{
		All: ansibleGroup{
			Children: make(map[string]ansibleGroupDef),
		},
	}
	if snapshot.Lab != "" {
		inv.All.Vars = map[string]any{"lab": snapshot.Lab}
	}

	for _, node := range snapshot.Nodes {
		group := groupName(node.Role)
		def, ok := inv.All.Children[group]
		if !ok {
			def = ansibleGroupDef{Hosts: make(map[string]ansibleHost)}
			inv.All.Children[group] = def
		}
		def.Hosts[node.ID] = ansibleHost{
			AnsibleHost: node.MgmtAddress,
			Loopback:    node.Address,
			Region:      node.Region,
			Role:        string(node.Role),
		}
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&inv); err != nil {
		return fmt.Errorf("failed to encode Ansible inventory: %w", err)
	}

	return nil
}

// groupName turns a role into a valid Ansible group name
func groupName(role domain.Role) string {
	out := []byte(role)
	for i, b := range out {
		if b == '-' {
			out[i] = '_'
		}
	}
	if len(out) == 0 {
		return "ungrouped"
	}
	return string(out)
}
