package domain

import "sort"

// RelationKind describes how an owner node relates to a peer
type RelationKind string

const (
	RelationMesh          RelationKind = "mesh"
	RelationReflectorSide RelationKind = "reflector-side"
	RelationClientSide    RelationKind = "client-side"
	RelationSchemeEdge    RelationKind = "scheme-edge"
	RelationPassive       RelationKind = "passive"
)

// PlanMode selects the planning algorithm
type PlanMode string

const (
	ModeHierarchy PlanMode = "hierarchy"
	ModeAdjacency PlanMode = "adjacency"
)

// RelationshipEntry is one directed relation held by its owner node
type RelationshipEntry struct {
	Owner          string       `json:"owner" yaml:"owner"`
	Peer           string       `json:"peer" yaml:"peer"`
	PeerAddress    string       `json:"peer_address,omitempty" yaml:"peer_address,omitempty"`
	Kind           RelationKind `json:"kind" yaml:"kind"`
	LocalInterface string       `json:"local_interface,omitempty" yaml:"local_interface,omitempty"`
	PeerInterface  string       `json:"peer_interface,omitempty" yaml:"peer_interface,omitempty"`
	SchemeID       int          `json:"scheme_id,omitempty" yaml:"scheme_id,omitempty"`
	AreaID         string       `json:"area_id,omitempty" yaml:"area_id,omitempty"`
}

// EntryKey is the identity used to collapse redundant entries. Hierarchy
// entries leave LocalInterface and SchemeID empty, so for them the key is
// exactly (Peer, Kind).
type EntryKey struct {
	Peer           string
	Kind           RelationKind
	LocalInterface string
	SchemeID       int
}

// Key returns the entry's dedup identity
func (e RelationshipEntry) Key() EntryKey {
	return EntryKey{
		Peer:           e.Peer,
		Kind:           e.Kind,
		LocalInterface: e.LocalInterface,
		SchemeID:       e.SchemeID,
	}
}

// Plan is the per-node set of relationship entries for one run
type Plan struct {
	Mode     PlanMode                       `json:"mode" yaml:"mode"`
	ASN      uint32                         `json:"asn,omitempty" yaml:"asn,omitempty"`
	Schemes  []int                          `json:"schemes,omitempty" yaml:"schemes,omitempty"`
	Nodes    []Node                         `json:"nodes" yaml:"nodes"`
	Entries  map[string][]RelationshipEntry `json:"entries" yaml:"entries"`
	Warnings []Warning                      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// NewPlan creates an empty plan with an entry list for every node
func NewPlan(mode PlanMode, nodes []Node) *Plan {
	p := &Plan{
		Mode:    mode,
		Nodes:   SortNodes(nodes),
		Entries: make(map[string][]RelationshipEntry, len(nodes)),
	}
	for _, n := range p.Nodes {
		p.Entries[n.ID] = []RelationshipEntry{}
	}
	return p
}

// Add appends an entry to its owner's list
func (p *Plan) Add(e RelationshipEntry) {
	p.Entries[e.Owner] = append(p.Entries[e.Owner], e)
}

// Warn records a non-fatal condition
func (p *Plan) Warn(w Warning) {
	p.Warnings = append(p.Warnings, w)
}

// NodeIDs returns the owners in ascending order
func (p *Plan) NodeIDs() []string {
	ids := make([]string, 0, len(p.Entries))
	for id := range p.Entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EntriesOf returns the entries owned by id with the given kind
func (p *Plan) EntriesOf(id string, kind RelationKind) []RelationshipEntry {
	var out []RelationshipEntry
	for _, e := range p.Entries[id] {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Peers returns the peer IDs of id's entries with the given kind, in order
func (p *Plan) Peers(id string, kind RelationKind) []string {
	var out []string
	for _, e := range p.EntriesOf(id, kind) {
		out = append(out, e.Peer)
	}
	return out
}

// Clone returns a deep copy of the plan
func (p *Plan) Clone() *Plan {
	c := &Plan{
		Mode:     p.Mode,
		ASN:      p.ASN,
		Schemes:  append([]int(nil), p.Schemes...),
		Nodes:    append([]Node(nil), p.Nodes...),
		Entries:  make(map[string][]RelationshipEntry, len(p.Entries)),
		Warnings: append([]Warning(nil), p.Warnings...),
	}
	for id, entries := range p.Entries {
		c.Entries[id] = append([]RelationshipEntry{}, entries...)
	}
	return c
}
