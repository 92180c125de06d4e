package planner

import (
	"fmt"

	"meshplan/internal/domain"
)

// BuildHierarchy plans reflector/client relations from node roles alone.
// The apex tier forms a full mesh; every lower tier peers with its parent
// tier, narrowed by region where the tier is region aware and capped by the
// tier's fan-out in ascending node-ID order.
func BuildHierarchy(nodes []domain.Node, params Params) (*domain.Plan, error) {
	params = params.withDefaults()
	if err := params.validate(); err != nil {
		return nil, err
	}

	members, warnings := groupByTier(nodes, params)

	var participants []domain.Node
	for _, tier := range params.Tiers.Tiers {
		participants = append(participants, members[tier.Name]...)
	}

	plan := domain.NewPlan(domain.ModeHierarchy, participants)
	plan.ASN = params.ASN
	for _, w := range warnings {
		plan.Warn(w)
	}

	buildMesh(plan, members[params.Tiers.Apex().Name])

	for _, tier := range params.Tiers.Tiers[1:] {
		clients := members[tier.Name]
		if len(clients) == 0 {
			continue
		}
		if params.Tiers.IsForbidden(tier.Name, tier.ClientOf) {
			continue
		}

		reflectors := members[tier.ClientOf]
		if len(reflectors) == 0 {
			return nil, domain.NewNoReflectorsError(tier.Name, tier.ClientOf, nodeIDs(clients))
		}

		for _, client := range clients {
			candidates, fellBack := CandidateSet(client, tier, reflectors)
			if fellBack {
				plan.Warn(domain.Warning{
					Kind:   domain.WarnRegionFallback,
					NodeID: client.ID,
					Role:   client.Role,
					Detail: fmt.Sprintf("no %s reflector in region %d, using all %d", tier.ClientOf, *client.Region, len(reflectors)),
				})
			}

			for _, reflector := range limitFanOut(candidates, tier.FanOut) {
				plan.Add(domain.RelationshipEntry{
					Owner:       reflector.ID,
					Peer:        client.ID,
					PeerAddress: client.Address,
					Kind:        domain.RelationReflectorSide,
				})
				plan.Add(domain.RelationshipEntry{
					Owner:       client.ID,
					Peer:        reflector.ID,
					PeerAddress: reflector.Address,
					Kind:        domain.RelationClientSide,
				})
			}
		}
	}

	return plan, nil
}

// buildMesh emits a mesh entry for every ordered pair of distinct members
func buildMesh(plan *domain.Plan, members []domain.Node) {
	for _, a := range members {
		for _, b := range members {
			if a.ID == b.ID {
				continue
			}
			plan.Add(domain.RelationshipEntry{
				Owner:       a.ID,
				Peer:        b.ID,
				PeerAddress: b.Address,
				Kind:        domain.RelationMesh,
			})
		}
	}
}

// CandidateSet returns the reflectors a client may peer with, before the
// fan-out cap. In a region-aware tier a client with a region is narrowed to
// reflectors in the same region; when none exist the full set is returned
// and fellBack is true. Reflectors must be sorted by ID.
func CandidateSet(client domain.Node, tier Tier, reflectors []domain.Node) (candidates []domain.Node, fellBack bool) {
	if !tier.RegionAware || !client.HasRegion() {
		return reflectors, false
	}

	for _, r := range reflectors {
		if r.InRegion(*client.Region) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return reflectors, true
	}
	return candidates, false
}

func limitFanOut(candidates []domain.Node, fanOut int) []domain.Node {
	if fanOut > 0 && len(candidates) > fanOut {
		return candidates[:fanOut]
	}
	return candidates
}

// groupByTier assigns participating nodes to tiers in ascending ID order and
// reports the nodes left out
func groupByTier(nodes []domain.Node, params Params) (map[string][]domain.Node, []domain.Warning) {
	members := make(map[string][]domain.Node, len(params.Tiers.Tiers))
	var warnings []domain.Warning

	for _, n := range domain.SortNodes(nodes) {
		switch {
		case n.Role.IsEdge():
			continue
		case n.Role == domain.RoleOther:
			if !params.IncludeOther {
				warnings = append(warnings, unclassified(n, "excluded from planning"))
				continue
			}
			members[params.OtherTier] = append(members[params.OtherTier], n)
		default:
			tier, ok := params.Tiers.TierOf(n.Role)
			if !ok {
				warnings = append(warnings, unclassified(n, "role has no tier"))
				continue
			}
			members[tier.Name] = append(members[tier.Name], n)
		}
	}
	return members, warnings
}

func unclassified(n domain.Node, detail string) domain.Warning {
	return domain.Warning{
		Kind:   domain.WarnUnclassified,
		NodeID: n.ID,
		Role:   n.Role,
		Detail: detail,
	}
}

func nodeIDs(nodes []domain.Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
