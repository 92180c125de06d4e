// Package adjacency indexes one-sided link observations per node.
//
// Observations are never merged: when both ends of a physical link report
// it, both records are kept and each is returned by Lookup for its own
// reporting node. The index additionally tracks distinct physical links in
// first-seen order, which is what parallel-link ordinals are derived from.
package adjacency

import (
	"fmt"

	"meshplan/internal/domain"
	"meshplan/internal/validation"
)

// Neighbor is one observation as seen from the reporting node
type Neighbor struct {
	LocalInterface string `json:"local_interface" yaml:"local_interface"`
	PeerID         string `json:"peer_id" yaml:"peer_id"`
	PeerInterface  string `json:"peer_interface" yaml:"peer_interface"`
}

// Link is a distinct physical link with its position among the links
// connecting the same node pair
type Link struct {
	Key     domain.LinkKey
	Ordinal int
}

// Index is an immutable per-node view over a set of edge observations
type Index struct {
	observations []domain.Edge
	byNode       map[string][]Neighbor
	links        []Link
	ordinals     map[domain.LinkKey]int
}

// Ingest validates the observations and builds an index over them
func Ingest(edges []domain.Edge) (*Index, error) {
	idx := &Index{
		observations: make([]domain.Edge, 0, len(edges)),
		byNode:       make(map[string][]Neighbor),
		ordinals:     make(map[domain.LinkKey]int),
	}

	// per node pair count of distinct links seen so far
	pairCount := make(map[domain.PairKey]int)

	for i, e := range edges {
		if err := validation.Edge(e); err != nil {
			return nil, fmt.Errorf("observation %d: %w", i, err)
		}

		idx.observations = append(idx.observations, e)
		idx.byNode[e.LocalID] = append(idx.byNode[e.LocalID], Neighbor{
			LocalInterface: e.LocalInterface,
			PeerID:         e.RemoteID,
			PeerInterface:  e.RemoteInterface,
		})

		key := e.Key()
		if _, seen := idx.ordinals[key]; seen {
			continue
		}
		pair := e.Pair()
		ordinal := pairCount[pair]
		pairCount[pair] = ordinal + 1
		idx.ordinals[key] = ordinal
		idx.links = append(idx.links, Link{Key: key, Ordinal: ordinal})
	}

	return idx, nil
}

// Lookup returns every observation reported by nodeID, in input order
func (idx *Index) Lookup(nodeID string) []Neighbor {
	neighbors := idx.byNode[nodeID]
	out := make([]Neighbor, len(neighbors))
	copy(out, neighbors)
	return out
}

// Observations returns all ingested observations in input order
func (idx *Index) Observations() []domain.Edge {
	out := make([]domain.Edge, len(idx.observations))
	copy(out, idx.observations)
	return out
}

// Nodes returns the IDs of nodes that reported at least one observation
func (idx *Index) Nodes() []string {
	seen := make(map[string]bool, len(idx.byNode))
	var ids []string
	for _, e := range idx.observations {
		if !seen[e.LocalID] {
			seen[e.LocalID] = true
			ids = append(ids, e.LocalID)
		}
	}
	return ids
}

// Links returns distinct physical links in first-seen order
func (idx *Index) Links() []Link {
	out := make([]Link, len(idx.links))
	copy(out, idx.links)
	return out
}

// LinkOrdinal returns the 0-based position of the edge's physical link
// among the links between the same node pair. Mirrored observations of one
// link share an ordinal.
func (idx *Index) LinkOrdinal(e domain.Edge) (int, bool) {
	ordinal, ok := idx.ordinals[e.Key()]
	return ordinal, ok
}

// Len returns the number of observations
func (idx *Index) Len() int {
	return len(idx.observations)
}
