package codec

import (
	"fmt"
	"io"
	"strings"

	"meshplan/internal/domain"

	"gopkg.in/yaml.v3"
)

// ParseTopologyLinks reads the links of a containerlab topology file and
// returns one edge per side of every link. The links list may sit at the top
// level, under "topology", or anywhere deeper in the document. Each link is
// either a mapping with an "endpoints" list or a two-element list, and each
// endpoint is either "node:interface" or a single-key mapping.
func ParseTopologyLinks(r io.Reader) ([]domain.Edge, error) {
	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse topology: %w", err)
	}

	links, ok := findLinks(doc)
	if !ok {
		return nil, fmt.Errorf("no links section found in topology")
	}

	edges := make([]domain.Edge, 0, 2*len(links))
	for i, raw := range links {
		endpoints, err := linkEndpoints(raw)
		if err != nil {
			return nil, fmt.Errorf("link %d: %w", i, err)
		}

		a, err := parseEndpoint(endpoints[0])
		if err != nil {
			return nil, fmt.Errorf("link %d: %w", i, err)
		}
		b, err := parseEndpoint(endpoints[1])
		if err != nil {
			return nil, fmt.Errorf("link %d: %w", i, err)
		}

		edge := domain.Edge{
			LocalID:         a.node,
			LocalInterface:  NormalizeInterface(a.iface),
			RemoteID:        b.node,
			RemoteInterface: NormalizeInterface(b.iface),
		}
		edges = append(edges, edge, edge.Reverse())
	}

	return edges, nil
}

type endpoint struct {
	node  string
	iface string
}

func findLinks(doc any) ([]any, bool) {
	switch v := doc.(type) {
	case map[string]any:
		if links, ok := v["links"].([]any); ok {
			return links, true
		}
		if topo, ok := v["topology"]; ok {
			if links, ok := findLinks(topo); ok {
				return links, true
			}
		}
		for key, child := range v {
			if key == "topology" {
				continue
			}
			if links, ok := findLinks(child); ok {
				return links, true
			}
		}
	case []any:
		for _, child := range v {
			if links, ok := findLinks(child); ok {
				return links, true
			}
		}
	}
	return nil, false
}

func linkEndpoints(raw any) ([]any, error) {
	var endpoints []any
	switch v := raw.(type) {
	case map[string]any:
		eps, ok := v["endpoints"].([]any)
		if !ok {
			return nil, fmt.Errorf("link has no endpoints")
		}
		endpoints = eps
	case []any:
		endpoints = v
	default:
		return nil, fmt.Errorf("unsupported link form %T", raw)
	}

	if len(endpoints) != 2 {
		return nil, fmt.Errorf("link has %d endpoints, want 2", len(endpoints))
	}
	return endpoints, nil
}

func parseEndpoint(raw any) (endpoint, error) {
	switch v := raw.(type) {
	case string:
		node, iface, ok := strings.Cut(v, ":")
		if !ok || node == "" || iface == "" {
			return endpoint{}, fmt.Errorf("malformed endpoint %q", v)
		}
		return endpoint{node: node, iface: iface}, nil
	case map[string]any:
		if len(v) != 1 {
			return endpoint{}, fmt.Errorf("endpoint mapping must have one key, got %d", len(v))
		}
		for node, iface := range v {
			s, ok := iface.(string)
			if !ok || node == "" || s == "" {
				return endpoint{}, fmt.Errorf("malformed endpoint for %q", node)
			}
			return endpoint{node: node, iface: s}, nil
		}
	}
	return endpoint{}, fmt.Errorf("unsupported endpoint form %T", raw)
}
