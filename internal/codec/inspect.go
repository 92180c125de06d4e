package codec

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"meshplan/internal/domain"
)

// InspectNode is one container reported by `containerlab inspect -f json`
type InspectNode struct {
	LabName     string `json:"lab_name"`
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Image       string `json:"image,omitempty"`
	State       string `json:"state,omitempty"`
	IPv4Address string `json:"ipv4_address"`
	IPv6Address string `json:"ipv6_address,omitempty"`
}

// ParseInspect reads containerlab inspect output. Both the legacy
// {"containers": [...]} layout and the per-lab {"<lab>": [...]} layout are
// accepted; labs are visited in name order.
func ParseInspect(r io.Reader) ([]InspectNode, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse inspect output: %w", err)
	}

	labs := make([]string, 0, len(raw))
	for lab := range raw {
		labs = append(labs, lab)
	}
	sort.Strings(labs)

	var nodes []InspectNode
	for _, lab := range labs {
		var entries []InspectNode
		if err := json.Unmarshal(raw[lab], &entries); err != nil {
			return nil, fmt.Errorf("failed to parse inspect entries for %q: %w", lab, err)
		}
		for _, e := range entries {
			if e.LabName == "" && lab != "containers" {
				e.LabName = lab
			}
			nodes = append(nodes, e)
		}
	}
	return nodes, nil
}

// InspectOptions selects which inspected containers become nodes
type InspectOptions struct {
	// Lab restricts the snapshot to one lab; empty means the first lab found
	Lab string
	// Kind is the containerlab node kind to keep
	Kind string
}

// InspectSnapshot converts inspected containers into a snapshot without
// edges. Container names lose their "clab-<lab>-" prefix and management
// addresses lose their prefix length.
func InspectSnapshot(nodes []InspectNode, opts InspectOptions) (*domain.Snapshot, error) {
	lab := opts.Lab
	if lab == "" && len(nodes) > 0 {
		lab = nodes[0].LabName
	}

	snapshot := domain.NewSnapshot(lab)
	for _, n := range nodes {
		if n.LabName != lab {
			continue
		}
		if opts.Kind != "" && n.Kind != opts.Kind {
			continue
		}
		name := ShortName(n.Name, lab)
		snapshot.AddNode(domain.NewNode(name, name, stripPrefixLen(n.IPv4Address)))
	}

	if len(snapshot.Nodes) == 0 {
		return nil, fmt.Errorf("no %q nodes found in lab %q", opts.Kind, lab)
	}
	return normalize(snapshot)
}

// ShortName strips the containerlab "clab-<lab>-" container prefix
func ShortName(name, lab string) string {
	return strings.TrimPrefix(name, "clab-"+lab+"-")
}

func stripPrefixLen(addr string) string {
	if i := strings.IndexByte(addr, '/'); i >= 0 {
		return addr[:i]
	}
	return addr
}
