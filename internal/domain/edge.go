package domain

import (
	"crypto/sha256"
	"fmt"
)

// Edge is one side of a physical link, as reported by the owning node.
// Both directions of a link may appear independently.
type Edge struct {
	LocalID         string `json:"local_id" yaml:"local_id" validate:"required"`
	LocalInterface  string `json:"local_interface" yaml:"local_interface" validate:"required"`
	RemoteID        string `json:"remote_id" yaml:"remote_id" validate:"required,nefield=LocalID"`
	RemoteInterface string `json:"remote_interface" yaml:"remote_interface" validate:"required"`
}

// Endpoint is one end of a physical link
type Endpoint struct {
	NodeID    string `json:"node_id" yaml:"node_id"`
	Interface string `json:"interface" yaml:"interface"`
}

func (e Endpoint) less(o Endpoint) bool {
	if e.NodeID != o.NodeID {
		return e.NodeID < o.NodeID
	}
	return e.Interface < o.Interface
}

// LinkKey identifies a physical link independently of which side observed it
type LinkKey struct {
	A Endpoint
	B Endpoint
}

// Key returns the canonical link key, with endpoints in sorted order
func (e Edge) Key() LinkKey {
	a := Endpoint{NodeID: e.LocalID, Interface: e.LocalInterface}
	b := Endpoint{NodeID: e.RemoteID, Interface: e.RemoteInterface}
	if b.less(a) {
		a, b = b, a
	}
	return LinkKey{A: a, B: b}
}

// PairKey identifies the unordered node pair a link connects
type PairKey struct {
	A string
	B string
}

// Pair returns the unordered node pair of the edge
func (e Edge) Pair() PairKey {
	if e.RemoteID < e.LocalID {
		return PairKey{A: e.RemoteID, B: e.LocalID}
	}
	return PairKey{A: e.LocalID, B: e.RemoteID}
}

// ID returns a deterministic identifier for the physical link
func (k LinkKey) ID() string {
	key := fmt.Sprintf("%s:%s-%s:%s", k.A.NodeID, k.A.Interface, k.B.NodeID, k.B.Interface)
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", hash[:8])
}

// Reverse returns the observation as the remote side would report it
func (e Edge) Reverse() Edge {
	return Edge{
		LocalID:         e.RemoteID,
		LocalInterface:  e.RemoteInterface,
		RemoteID:        e.LocalID,
		RemoteInterface: e.LocalInterface,
	}
}
