package adjacency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meshplan/internal/domain"
)

func edge(local, localIf, remote, remoteIf string) domain.Edge {
	return domain.Edge{LocalID: local, LocalInterface: localIf, RemoteID: remote, RemoteInterface: remoteIf}
}

func TestIngestKeepsMirroredObservations(t *testing.T) {
	edges := []domain.Edge{
		edge("ahrg1", "Gi0/0/0/0", "ahrb1", "Gi0/0/0/0"),
		edge("ahrb1", "Gi0/0/0/0", "ahrg1", "Gi0/0/0/0"),
		edge("ahrg1", "Gi0/0/0/0", "ahrb1", "Gi0/0/0/0"),
	}

	idx, err := Ingest(edges)
	require.NoError(t, err)

	assert.Equal(t, 3, idx.Len())
	assert.Len(t, idx.Lookup("ahrg1"), 2)
	assert.Equal(t, []Neighbor{{LocalInterface: "Gi0/0/0/0", PeerID: "ahrg1", PeerInterface: "Gi0/0/0/0"}}, idx.Lookup("ahrb1"))
	assert.Empty(t, idx.Lookup("missing"))
	assert.Equal(t, []string{"ahrg1", "ahrb1"}, idx.Nodes())
	assert.Len(t, idx.Links(), 1)
}

func TestLinkOrdinalsPerPair(t *testing.T) {
	edges := []domain.Edge{
		edge("ahrg1", "Gi0/0/0/1", "ahrb1", "Gi0/0/0/1"), // L1
		edge("a1", "Gi0/0/0/0", "ahrg1", "Gi0/0/0/5"),
		edge("ahrb1", "Gi0/0/0/2", "ahrg1", "Gi0/0/0/2"), // L2, reported by the other side
		edge("ahrb1", "Gi0/0/0/1", "ahrg1", "Gi0/0/0/1"), // mirror of L1
		edge("ahrg1", "Gi0/0/0/3", "ahrb1", "Gi0/0/0/3"), // L3
	}

	idx, err := Ingest(edges)
	require.NoError(t, err)

	tests := []struct {
		name string
		edge domain.Edge
		want int
	}{
		{"first link", edges[0], 0},
		{"other pair", edges[1], 0},
		{"second link", edges[2], 1},
		{"mirror shares ordinal", edges[3], 0},
		{"third link", edges[4], 2},
		{"reverse lookup", edges[2].Reverse(), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := idx.LinkOrdinal(tt.edge)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := idx.LinkOrdinal(edge("x", "i", "y", "j"))
	assert.False(t, ok)

	links := idx.Links()
	require.Len(t, links, 4)
	assert.Equal(t, edges[0].Key(), links[0].Key)
	assert.Equal(t, edges[1].Key(), links[1].Key)
}

func TestIngestIsReproducible(t *testing.T) {
	edges := []domain.Edge{
		edge("ahrg1", "Gi0/0/0/1", "ahrb1", "Gi0/0/0/1"),
		edge("ahrg1", "Gi0/0/0/2", "ahrb1", "Gi0/0/0/2"),
	}

	first, err := Ingest(edges)
	require.NoError(t, err)
	second, err := Ingest(edges)
	require.NoError(t, err)

	assert.Equal(t, first.Links(), second.Links())
}

func TestIngestRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		edge domain.Edge
	}{
		{"empty local", edge("", "i", "b", "j")},
		{"empty interface", edge("a", "", "b", "j")},
		{"empty remote interface", edge("a", "i", "b", "")},
		{"self loop", edge("a", "i", "a", "j")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Ingest([]domain.Edge{tt.edge})
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}
