package domain

import "sort"

// Node represents a router taking part in a planning run
type Node struct {
	ID      string `json:"id" yaml:"id" validate:"required"`
	RawName string `json:"raw_name,omitempty" yaml:"raw_name,omitempty"`
	Role    Role   `json:"role" yaml:"role" validate:"role"`
	// Region is supplied by discovery; by default it is the digit run of the name
	Region *int `json:"region,omitempty" yaml:"region,omitempty"`
	// Address is the loopback used as router-id and peering address
	Address string `json:"address,omitempty" yaml:"address,omitempty" validate:"omitempty,ip"`
	// MgmtAddress is the management address discovery collaborators connect to
	MgmtAddress string `json:"mgmt_address,omitempty" yaml:"mgmt_address,omitempty" validate:"omitempty,ip|hostname_rfc1123"`
}

// NewNode creates a node and classifies it from its raw name
func NewNode(id, rawName, mgmtAddress string) Node {
	if rawName == "" {
		rawName = id
	}
	_, region, role := Classify(rawName)
	return Node{
		ID:          id,
		RawName:     rawName,
		Role:        role,
		Region:      region,
		MgmtAddress: mgmtAddress,
	}
}

// HasRegion reports whether the node carries a region
func (n Node) HasRegion() bool {
	return n.Region != nil
}

// InRegion reports whether the node's region equals region
func (n Node) InRegion(region int) bool {
	return n.Region != nil && *n.Region == region
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// SortNodes returns a copy of nodes ordered by ascending ID
func SortNodes(nodes []Node) []Node {
	sorted := make([]Node, len(nodes))
	copy(sorted, nodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// NodeIndex maps node IDs to nodes
type NodeIndex map[string]Node

// IndexNodes builds a NodeIndex
func IndexNodes(nodes []Node) NodeIndex {
	idx := make(NodeIndex, len(nodes))
	for _, n := range nodes {
		idx[n.ID] = n
	}
	return idx
}
