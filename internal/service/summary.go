package service

import (
	"sort"

	"meshplan/internal/domain"
)

// PlanSummary is what an operator sees before confirming a rollout
type PlanSummary struct {
	Mode     domain.PlanMode             `json:"mode" yaml:"mode"`
	ASN      uint32                      `json:"asn,omitempty" yaml:"asn,omitempty"`
	Nodes    int                         `json:"nodes" yaml:"nodes"`
	Entries  int                         `json:"entries" yaml:"entries"`
	ByKind   map[domain.RelationKind]int `json:"by_kind" yaml:"by_kind"`
	Warnings []domain.Warning            `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Summarize counts the entries of a plan by relation kind
func Summarize(plan *domain.Plan) PlanSummary {
	s := PlanSummary{
		Mode:     plan.Mode,
		ASN:      plan.ASN,
		Nodes:    len(plan.Entries),
		ByKind:   make(map[domain.RelationKind]int),
		Warnings: plan.Warnings,
	}
	for _, entries := range plan.Entries {
		for _, e := range entries {
			s.Entries++
			s.ByKind[e.Kind]++
		}
	}
	return s
}

// Kinds returns the relation kinds present, in name order
func (s PlanSummary) Kinds() []domain.RelationKind {
	kinds := make([]domain.RelationKind, 0, len(s.ByKind))
	for k := range s.ByKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
