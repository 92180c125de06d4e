package planner

import "meshplan/internal/domain"

// Validate checks a finished plan and returns warnings without modifying it.
// Hierarchy plans are checked for a client-side entry towards each node's
// expected upstream role. Adjacency plans are checked for nodes that run a
// scheme but hold no scheme-edge entry. Nodes absent from the plan did not
// participate and are skipped.
func Validate(plan *domain.Plan, nodes []domain.Node) []domain.Warning {
	roles := make(map[string]domain.Role, len(nodes))
	for _, n := range nodes {
		roles[n.ID] = n.Role
	}

	var warnings []domain.Warning
	for _, n := range domain.SortNodes(nodes) {
		entries, ok := plan.Entries[n.ID]
		if !ok {
			continue
		}

		switch plan.Mode {
		case domain.ModeAdjacency:
			if hasKind(entries, domain.RelationPassive) && !hasKind(entries, domain.RelationSchemeEdge) {
				warnings = append(warnings, domain.Warning{
					Kind:   domain.WarnNoAdjacency,
					NodeID: n.ID,
					Role:   n.Role,
					Detail: "runs a scheme but has no adjacent participating link",
				})
			}
		default:
			upstream, ok := n.Role.ExpectedUpstream()
			if !ok {
				continue
			}
			if !hasUpstream(entries, roles, upstream) {
				warnings = append(warnings, domain.Warning{
					Kind:             domain.WarnMissingUpstream,
					NodeID:           n.ID,
					Role:             n.Role,
					ExpectedUpstream: upstream,
				})
			}
		}
	}
	return warnings
}

func hasKind(entries []domain.RelationshipEntry, kind domain.RelationKind) bool {
	for _, e := range entries {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func hasUpstream(entries []domain.RelationshipEntry, roles map[string]domain.Role, upstream domain.Role) bool {
	for _, e := range entries {
		if e.Kind == domain.RelationClientSide && roles[e.Peer] == upstream {
			return true
		}
	}
	return false
}
