package planner

import "meshplan/internal/domain"

// Dedup returns a copy of plan in which no owner holds two entries with the
// same key. The first occurrence wins and order is preserved.
func Dedup(plan *domain.Plan) *domain.Plan {
	out := plan.Clone()
	for id, entries := range out.Entries {
		seen := make(map[domain.EntryKey]bool, len(entries))
		kept := make([]domain.RelationshipEntry, 0, len(entries))
		for _, e := range entries {
			key := e.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			kept = append(kept, e)
		}
		out.Entries[id] = kept
	}
	return out
}
