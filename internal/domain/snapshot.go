package domain

import "time"

// Snapshot is one atomic discovery result consumed by a planning run
type Snapshot struct {
	ID       string    `json:"id,omitempty" yaml:"id,omitempty"`
	Lab      string    `json:"lab,omitempty" yaml:"lab,omitempty"`
	TakenAt  time.Time `json:"taken_at" yaml:"taken_at"`
	Nodes    []Node    `json:"nodes" yaml:"nodes" validate:"dive"`
	Edges    []Edge    `json:"edges,omitempty" yaml:"edges,omitempty" validate:"dive"`
	Warnings []Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// NewSnapshot creates an empty snapshot for a lab
func NewSnapshot(lab string) *Snapshot {
	return &Snapshot{
		Lab:     lab,
		TakenAt: time.Now().UTC(),
		Nodes:   make([]Node, 0),
		Edges:   make([]Edge, 0),
	}
}

// AddNode adds a node to the snapshot
func (s *Snapshot) AddNode(node Node) {
	s.Nodes = append(s.Nodes, node)
}

// AddEdge adds an edge observation to the snapshot
func (s *Snapshot) AddEdge(edge Edge) {
	s.Edges = append(s.Edges, edge)
}
