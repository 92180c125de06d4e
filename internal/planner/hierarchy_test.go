package planner

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meshplan/internal/domain"
)

// router builds a classified node with a loopback derived from its position
func router(name string, octet int) domain.Node {
	n := domain.NewNode(name, name, "")
	n.Address = fmt.Sprintf("10.255.0.%d", octet)
	return n
}

func routers(names ...string) []domain.Node {
	nodes := make([]domain.Node, len(names))
	for i, name := range names {
		nodes[i] = router(name, i+1)
	}
	return nodes
}

func TestBuildHierarchyApexMeshAndClients(t *testing.T) {
	nodes := routers("crr1", "crr2", "c1")

	plan, err := BuildHierarchy(nodes, Params{ASN: 65000})
	require.NoError(t, err)

	assert.Equal(t, uint32(65000), plan.ASN)
	assert.Equal(t, []string{"crr2"}, plan.Peers("crr1", domain.RelationMesh))
	assert.Equal(t, []string{"crr1"}, plan.Peers("crr2", domain.RelationMesh))
	assert.Equal(t, []string{"crr1", "crr2"}, plan.Peers("c1", domain.RelationClientSide))
	assert.Equal(t, []string{"c1"}, plan.Peers("crr1", domain.RelationReflectorSide))
	assert.Equal(t, []string{"c1"}, plan.Peers("crr2", domain.RelationReflectorSide))
	assert.Empty(t, plan.Warnings)

	mesh := plan.EntriesOf("crr1", domain.RelationMesh)
	require.Len(t, mesh, 1)
	assert.Equal(t, "10.255.0.2", mesh[0].PeerAddress)
}

func TestBuildHierarchyMeshCompleteness(t *testing.T) {
	nodes := routers("crr1", "crr2", "crr3", "cr4")

	plan, err := BuildHierarchy(nodes, Params{})
	require.NoError(t, err)

	for _, a := range nodes {
		peers := plan.Peers(a.ID, domain.RelationMesh)
		assert.Len(t, peers, len(nodes)-1)
		for _, b := range nodes {
			if a.ID == b.ID {
				assert.NotContains(t, peers, b.ID)
				continue
			}
			assert.Contains(t, peers, b.ID)
		}
	}
}

func TestBuildHierarchyRegionMatch(t *testing.T) {
	nodes := routers("crr1", "chrg12", "chrb5", "d12")

	plan, err := BuildHierarchy(nodes, Params{})
	require.NoError(t, err)

	assert.Equal(t, []string{"chrg12"}, plan.Peers("d12", domain.RelationClientSide))
	assert.Equal(t, []string{"d12"}, plan.Peers("chrg12", domain.RelationReflectorSide))
	assert.Empty(t, plan.Peers("chrb5", domain.RelationReflectorSide))
	assert.Empty(t, plan.Warnings)
}

func TestBuildHierarchyRegionFallback(t *testing.T) {
	nodes := routers("crr1", "chrg12", "chrb5", "d7")

	plan, err := BuildHierarchy(nodes, Params{})
	require.NoError(t, err)

	assert.Equal(t, []string{"chrb5", "chrg12"}, plan.Peers("d7", domain.RelationClientSide))
	require.Len(t, plan.Warnings, 1)
	assert.Equal(t, domain.WarnRegionFallback, plan.Warnings[0].Kind)
	assert.Equal(t, "d7", plan.Warnings[0].NodeID)
}

func TestCandidateSet(t *testing.T) {
	hubs := []domain.Node{router("chrb5", 1), router("chrg12", 2), router("chrx12", 3)}
	distribution, _ := DefaultTierTable().Tier(TierDistribution)
	core, _ := DefaultTierTable().Tier(TierCore)

	tests := []struct {
		name         string
		client       domain.Node
		tier         Tier
		want         []string
		wantFallback bool
	}{
		{"same region", router("d12", 9), distribution, []string{"chrg12", "chrx12"}, false},
		{"no match falls back", router("d3", 9), distribution, []string{"chrb5", "chrg12", "chrx12"}, true},
		{"unset region uses all", domain.Node{ID: "d", Role: domain.RoleDistribution}, distribution, []string{"chrb5", "chrg12", "chrx12"}, false},
		{"region unaware tier", router("c5", 9), core, []string{"chrb5", "chrg12", "chrx12"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fellBack := CandidateSet(tt.client, tt.tier, hubs)
			assert.Equal(t, tt.want, nodeIDs(got))
			assert.Equal(t, tt.wantFallback, fellBack)
		})
	}
}

func TestBuildHierarchyFanOutByAscendingID(t *testing.T) {
	nodes := routers("crr1", "ch3", "ch1", "ch2", "d4")
	// unset the client region so every hub is a candidate
	nodes[4].Region = nil

	plan, err := BuildHierarchy(nodes, Params{})
	require.NoError(t, err)
	assert.Equal(t, []string{"ch1", "ch2"}, plan.Peers("d4", domain.RelationClientSide))

	params := Params{Tiers: DefaultTierTable().WithFanOut(map[string]int{TierDistribution: 0})}
	plan, err = BuildHierarchy(nodes, params)
	require.NoError(t, err)
	assert.Equal(t, []string{"ch1", "ch2", "ch3"}, plan.Peers("d4", domain.RelationClientSide))
}

func TestBuildHierarchyNeverSkipsTiers(t *testing.T) {
	nodes := routers("crr1", "chrg1", "ahrg1", "a1", "as1", "d1")

	plan, err := BuildHierarchy(nodes, Params{})
	require.NoError(t, err)

	tierOf := func(id string) string {
		for _, n := range nodes {
			if n.ID == id {
				tier, _ := DefaultTierTable().TierOf(n.Role)
				return tier.Name
			}
		}
		return ""
	}

	table := DefaultTierTable()
	for owner, entries := range plan.Entries {
		for _, e := range entries {
			if e.Kind != domain.RelationClientSide {
				continue
			}
			assert.False(t, table.IsForbidden(tierOf(owner), tierOf(e.Peer)),
				"%s must not peer with %s", owner, e.Peer)
		}
	}
	assert.Equal(t, []string{"ahrg1"}, plan.Peers("a1", domain.RelationClientSide))
	assert.Equal(t, []string{"chrg1"}, plan.Peers("ahrg1", domain.RelationClientSide))
}

func TestBuildHierarchyNoReflectors(t *testing.T) {
	nodes := routers("crr1", "chrg1", "a1", "a2")

	_, err := BuildHierarchy(nodes, Params{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoReflectors)

	var planErr *domain.Error
	require.ErrorAs(t, err, &planErr)
	assert.Equal(t, []string{"a1", "a2"}, planErr.NodeIDs)
}

func TestBuildHierarchyOtherNodes(t *testing.T) {
	nodes := routers("crr1", "xrd1", "CE1")

	plan, err := BuildHierarchy(nodes, Params{})
	require.NoError(t, err)

	_, present := plan.Entries["xrd1"]
	assert.False(t, present)
	_, present = plan.Entries["CE1"]
	assert.False(t, present)
	require.Len(t, plan.Warnings, 1)
	assert.Equal(t, domain.WarnUnclassified, plan.Warnings[0].Kind)
	assert.Equal(t, "xrd1", plan.Warnings[0].NodeID)

	plan, err = BuildHierarchy(nodes, Params{IncludeOther: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"crr1"}, plan.Peers("xrd1", domain.RelationClientSide))
	assert.Empty(t, plan.Warnings)

	_, err = BuildHierarchy(nodes, Params{IncludeOther: true, OtherTier: "spine"})
	assert.ErrorIs(t, err, domain.ErrInvalidTierTable)
}
