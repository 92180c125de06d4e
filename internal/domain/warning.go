package domain

import "fmt"

// WarningKind classifies non-fatal planning conditions
type WarningKind string

const (
	WarnRegionFallback  WarningKind = "region-fallback"
	WarnMissingUpstream WarningKind = "missing-upstream"
	WarnUnclassified    WarningKind = "unclassified"
	WarnNoAdjacency     WarningKind = "no-adjacency"
	WarnUnreachable     WarningKind = "unreachable"
)

// Warning is a non-fatal condition returned alongside a plan
type Warning struct {
	Kind             WarningKind `json:"kind" yaml:"kind"`
	NodeID           string      `json:"node_id" yaml:"node_id"`
	Role             Role        `json:"role,omitempty" yaml:"role,omitempty"`
	ExpectedUpstream Role        `json:"expected_upstream,omitempty" yaml:"expected_upstream,omitempty"`
	Detail           string      `json:"detail,omitempty" yaml:"detail,omitempty"`
}

func (w Warning) String() string {
	switch w.Kind {
	case WarnMissingUpstream:
		return fmt.Sprintf("%s: %s (%s) has no client-side relation to a %s", w.Kind, w.NodeID, w.Role, w.ExpectedUpstream)
	default:
		if w.Detail != "" {
			return fmt.Sprintf("%s: %s (%s) %s", w.Kind, w.NodeID, w.Role, w.Detail)
		}
		return fmt.Sprintf("%s: %s (%s)", w.Kind, w.NodeID, w.Role)
	}
}
