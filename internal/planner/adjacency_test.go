package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meshplan/internal/domain"
)

func link(local, localIf, remote, remoteIf string) []domain.Edge {
	e := domain.Edge{LocalID: local, LocalInterface: localIf, RemoteID: remote, RemoteInterface: remoteIf}
	return []domain.Edge{e, e.Reverse()}
}

func schemeEdges(plan *domain.Plan, id string) map[string]int {
	out := make(map[string]int)
	for _, e := range plan.EntriesOf(id, domain.RelationSchemeEdge) {
		out[e.LocalInterface] = e.SchemeID
	}
	return out
}

func TestBuildAdjacencyParallelLinksAlternate(t *testing.T) {
	nodes := routers("ahrg1", "ahrb1")
	var edges []domain.Edge
	edges = append(edges, link("ahrg1", "Gi0/0/0/0", "ahrb1", "Gi0/0/0/0")...)
	edges = append(edges, link("ahrg1", "Gi0/0/0/1", "ahrb1", "Gi0/0/0/1")...)

	plan, err := BuildAdjacency(nodes, edges, Params{})
	require.NoError(t, err)

	want := map[string]int{"Gi0/0/0/0": 10, "Gi0/0/0/1": 100}
	assert.Equal(t, want, schemeEdges(plan, "ahrg1"))
	assert.Equal(t, want, schemeEdges(plan, "ahrb1"))

	again, err := BuildAdjacency(nodes, edges, Params{})
	require.NoError(t, err)
	assert.Equal(t, plan, again)

	// reversing discovery order swaps the assignment
	reversed := append(link("ahrg1", "Gi0/0/0/1", "ahrb1", "Gi0/0/0/1"), link("ahrg1", "Gi0/0/0/0", "ahrb1", "Gi0/0/0/0")...)
	plan, err = BuildAdjacency(nodes, reversed, Params{})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Gi0/0/0/0": 100, "Gi0/0/0/1": 10}, schemeEdges(plan, "ahrg1"))
}

func TestBuildAdjacencyOrdinalIsPerPair(t *testing.T) {
	nodes := routers("ahrg1", "ahrb1", "ahrg2")
	var edges []domain.Edge
	edges = append(edges, link("ahrg1", "Gi0/0/0/0", "ahrb1", "Gi0/0/0/0")...)
	edges = append(edges, link("ahrg2", "Gi0/0/0/0", "ahrb1", "Gi0/0/0/5")...)

	plan, err := BuildAdjacency(nodes, edges, Params{})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"Gi0/0/0/0": 10}, schemeEdges(plan, "ahrg1"))
	assert.Equal(t, map[string]int{"Gi0/0/0/0": 10}, schemeEdges(plan, "ahrg2"))
}

func TestBuildAdjacencyLinkMapping(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		ifA, ifB string
		want     int
	}{
		{"core-hub backbone", "chrg1", "chrb1", "Gi0/0/0/0", "Gi0/0/0/3", 1},
		{"core-hub backbone remote side", "chrg1", "chrb1", "Gi0/0/0/3", "Gi0/0/0/0", 1},
		{"core-hub other", "chrg1", "chrb1", "Gi0/0/0/1", "Gi0/0/0/2", 10},
		{"core pair", "c1", "crr1", "Gi0/0/0/1", "Gi0/0/0/1", 1},
		{"core to core-hub", "cc1", "chrg1", "Gi0/0/0/1", "Gi0/0/0/1", 1},
		{"core to distribution", "chrg1", "dh1", "Gi0/0/0/2", "Gi0/0/0/0", 10},
		{"distribution pair", "dh1", "ds1", "Gi0/0/0/1", "Gi0/0/0/1", 10},
		{"distribution to access-hub", "ahrg1", "d1", "Gi0/0/0/1", "Gi0/0/0/1", 10},
		{"access-hub to access", "ahrg1", "as1", "Gi0/0/0/3", "Gi0/0/0/0", 100},
		{"access pair", "a1", "as1", "Gi0/0/0/1", "Gi0/0/0/1", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := routers(tt.a, tt.b)
			plan, err := BuildAdjacency(nodes, link(tt.a, tt.ifA, tt.b, tt.ifB), Params{})
			require.NoError(t, err)

			assert.Equal(t, map[string]int{tt.ifA: tt.want}, schemeEdges(plan, tt.a))
			assert.Equal(t, map[string]int{tt.ifB: tt.want}, schemeEdges(plan, tt.b))
		})
	}
}

func TestBuildAdjacencyExcludedLinks(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"customer edge", "CE1", "ahrg1"},
		{"access to core", "a1", "c1"},
		{"access-hub to core-hub", "ahrg1", "chrg1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := routers(tt.a, tt.b)
			plan, err := BuildAdjacency(nodes, link(tt.a, "Gi0/0/0/1", tt.b, "Gi0/0/0/1"), Params{})
			require.NoError(t, err)
			assert.Empty(t, plan.EntriesOf(tt.a, domain.RelationSchemeEdge))
			assert.Empty(t, plan.EntriesOf(tt.b, domain.RelationSchemeEdge))
		})
	}
}

func TestBuildAdjacencyPassiveLoopback(t *testing.T) {
	nodes := routers("chrg1", "ahrg1", "a1", "CE1")

	plan, err := BuildAdjacency(nodes, nil, Params{})
	require.NoError(t, err)

	passiveSchemes := func(id string) []int {
		var ids []int
		for _, e := range plan.EntriesOf(id, domain.RelationPassive) {
			assert.Equal(t, DefaultLoopbackInterface, e.LocalInterface)
			assert.Equal(t, id, e.Peer)
			ids = append(ids, e.SchemeID)
		}
		return ids
	}

	assert.Equal(t, []int{1, 10}, passiveSchemes("chrg1"))
	assert.Equal(t, []int{10, 100}, passiveSchemes("ahrg1"))
	assert.Equal(t, []int{100}, passiveSchemes("a1"))
	_, present := plan.Entries["CE1"]
	assert.False(t, present)
	assert.Equal(t, []int{1, 10, 100}, plan.Schemes)
}

func TestBuildAdjacencyUniformAndOther(t *testing.T) {
	nodes := routers("a1", "c1", "xrd1")
	var edges []domain.Edge
	edges = append(edges, link("a1", "Gi0/0/0/1", "c1", "Gi0/0/0/1")...)
	edges = append(edges, link("xrd1", "Gi0/0/0/2", "c1", "Gi0/0/0/2")...)

	plan, err := BuildAdjacency(nodes, edges, Params{})
	require.NoError(t, err)
	_, present := plan.Entries["xrd1"]
	assert.False(t, present)
	assert.Empty(t, schemeEdges(plan, "c1"))

	plan, err = BuildAdjacency(nodes, edges, Params{IncludeOther: true})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Gi0/0/0/2": 1}, schemeEdges(plan, "xrd1"))

	plan, err = BuildAdjacency(nodes, edges, Params{Uniform: true})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Gi0/0/0/1": 1, "Gi0/0/0/2": 1}, schemeEdges(plan, "c1"))
	assert.Equal(t, map[string]int{"Gi0/0/0/1": 1}, schemeEdges(plan, "a1"))
}

func TestBuildAdjacencyRejectsUnknownNode(t *testing.T) {
	nodes := routers("a1")
	_, err := BuildAdjacency(nodes, link("a1", "Gi0/0/0/1", "a2", "Gi0/0/0/1"), Params{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMapLinkIsSymmetric(t *testing.T) {
	table := DefaultSchemeTable()
	roles := []domain.Role{
		domain.RoleCentralReflector, domain.RoleCore, domain.RoleCoreCompute, domain.RoleCoreHub,
		domain.RoleServiceAggregation, domain.RoleDistribution, domain.RoleDistributionHub,
		domain.RoleDistributionSecondary, domain.RoleAccessHub, domain.RoleAccess,
		domain.RoleAccessSwitch, domain.RoleCE, domain.RoleOther,
	}
	for _, ra := range roles {
		for _, rb := range roles {
			a := LinkSide{Role: ra, Interface: "Gi0/0/0/1"}
			b := LinkSide{Role: rb, Interface: "Gi0/0/0/2"}
			for ordinal := 0; ordinal < 2; ordinal++ {
				s1, ok1 := table.MapLink(a, b, ordinal, false)
				s2, ok2 := table.MapLink(b, a, ordinal, false)
				assert.Equal(t, ok1, ok2, "%s/%s", ra, rb)
				assert.Equal(t, s1, s2, "%s/%s", ra, rb)
			}
		}
	}
}
