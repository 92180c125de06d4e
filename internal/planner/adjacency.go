package planner

import (
	"fmt"

	"meshplan/internal/adjacency"
	"meshplan/internal/domain"
)

// BuildAdjacency plans per-link scheme assignments from discovered links.
// Each participating node gets one passive loopback entry per scheme of its
// role, then one scheme-edge entry per observation it reported whose link
// maps to a scheme.
func BuildAdjacency(nodes []domain.Node, edges []domain.Edge, params Params) (*domain.Plan, error) {
	params = params.withDefaults()
	if err := params.Schemes.Validate(); err != nil {
		return nil, err
	}

	idx, err := adjacency.Ingest(edges)
	if err != nil {
		return nil, err
	}

	participants, warnings := adjacencyParticipants(nodes, params)
	plan := domain.NewPlan(domain.ModeAdjacency, participants)
	plan.ASN = params.ASN
	plan.Schemes = params.Schemes.IDs()
	for _, w := range warnings {
		plan.Warn(w)
	}

	included := domain.IndexNodes(participants)
	known := domain.IndexNodes(nodes)

	for _, n := range plan.Nodes {
		for _, s := range params.Schemes.SchemesFor(n.Role, params.Uniform) {
			plan.Add(domain.RelationshipEntry{
				Owner:          n.ID,
				Peer:           n.ID,
				PeerAddress:    n.Address,
				Kind:           domain.RelationPassive,
				LocalInterface: params.LoopbackInterface,
				SchemeID:       s.ID,
				AreaID:         s.Area,
			})
		}
	}

	for _, e := range idx.Observations() {
		if _, ok := known[e.LocalID]; !ok {
			return nil, domain.NewInputError(e.LocalID, "edge references unknown local node")
		}
		if _, ok := known[e.RemoteID]; !ok {
			return nil, domain.NewInputError(e.RemoteID, "edge references unknown remote node")
		}

		local, ok := included[e.LocalID]
		if !ok {
			continue
		}
		remote, ok := included[e.RemoteID]
		if !ok {
			continue
		}

		ordinal, ok := idx.LinkOrdinal(e)
		if !ok {
			return nil, fmt.Errorf("link %s has no ordinal", e.Key().ID())
		}

		scheme, ok := params.Schemes.MapLink(
			LinkSide{Role: local.Role, Interface: e.LocalInterface},
			LinkSide{Role: remote.Role, Interface: e.RemoteInterface},
			ordinal,
			params.Uniform,
		)
		if !ok {
			continue
		}

		plan.Add(domain.RelationshipEntry{
			Owner:          local.ID,
			Peer:           remote.ID,
			PeerAddress:    remote.Address,
			Kind:           domain.RelationSchemeEdge,
			LocalInterface: e.LocalInterface,
			PeerInterface:  e.RemoteInterface,
			SchemeID:       scheme.ID,
			AreaID:         scheme.Area,
		})
	}

	return plan, nil
}

// adjacencyParticipants returns the nodes that take part in adjacency
// planning. Edge nodes never do; other nodes only when included or when the
// plan is uniform.
func adjacencyParticipants(nodes []domain.Node, params Params) ([]domain.Node, []domain.Warning) {
	var participants []domain.Node
	var warnings []domain.Warning
	for _, n := range domain.SortNodes(nodes) {
		switch {
		case n.Role.IsEdge():
			continue
		case n.Role == domain.RoleOther && !params.IncludeOther && !params.Uniform:
			warnings = append(warnings, unclassified(n, "excluded from planning"))
		default:
			participants = append(participants, n)
		}
	}
	return participants, warnings
}
