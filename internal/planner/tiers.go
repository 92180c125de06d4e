package planner

import (
	"meshplan/internal/domain"
)

// Tier is one level of the reflector hierarchy. The first tier of a table is
// the apex and has no parent.
type Tier struct {
	Name        string        `json:"name" yaml:"name"`
	Roles       []domain.Role `json:"roles" yaml:"roles"`
	ClientOf    string        `json:"client_of,omitempty" yaml:"client_of,omitempty"`
	RegionAware bool          `json:"region_aware,omitempty" yaml:"region_aware,omitempty"`
	// FanOut caps the reflectors a client peers with; 0 means unlimited
	FanOut int `json:"fan_out,omitempty" yaml:"fan_out,omitempty"`
}

// TierPair names a client tier and a reflector tier that must never peer
type TierPair struct {
	Client    string `json:"client" yaml:"client"`
	Reflector string `json:"reflector" yaml:"reflector"`
}

// TierTable is the declarative hierarchy used by role-hierarchy planning
type TierTable struct {
	Tiers     []Tier     `json:"tiers" yaml:"tiers"`
	Forbidden []TierPair `json:"forbidden,omitempty" yaml:"forbidden,omitempty"`
}

// Tier names of the default table
const (
	TierApex         = "apex"
	TierCore         = "core"
	TierHub          = "hub"
	TierDistribution = "distribution"
	TierAggregation  = "aggregation"
	TierAccess       = "access"
)

// DefaultTierTable returns the standard reflector hierarchy
func DefaultTierTable() TierTable {
	return TierTable{
		Tiers: []Tier{
			{
				Name:  TierApex,
				Roles: []domain.Role{domain.RoleCentralReflector},
			},
			{
				Name:     TierCore,
				Roles:    []domain.Role{domain.RoleCore, domain.RoleCoreCompute, domain.RoleServiceAggregation},
				ClientOf: TierApex,
			},
			{
				Name:     TierHub,
				Roles:    []domain.Role{domain.RoleCoreHub},
				ClientOf: TierApex,
			},
			{
				Name:        TierDistribution,
				Roles:       []domain.Role{domain.RoleDistribution, domain.RoleDistributionHub, domain.RoleDistributionSecondary},
				ClientOf:    TierHub,
				RegionAware: true,
				FanOut:      2,
			},
			{
				Name:        TierAggregation,
				Roles:       []domain.Role{domain.RoleAccessHub},
				ClientOf:    TierHub,
				RegionAware: true,
				FanOut:      2,
			},
			{
				Name:        TierAccess,
				Roles:       []domain.Role{domain.RoleAccess, domain.RoleAccessSwitch},
				ClientOf:    TierAggregation,
				RegionAware: true,
				FanOut:      2,
			},
		},
		Forbidden: []TierPair{
			{Client: TierAccess, Reflector: TierApex},
			{Client: TierAccess, Reflector: TierHub},
			{Client: TierDistribution, Reflector: TierApex},
			{Client: TierAggregation, Reflector: TierApex},
		},
	}
}

// Validate checks the table for structural consistency. Parents must be
// declared before their clients, which rules out cycles.
func (t TierTable) Validate() error {
	if len(t.Tiers) == 0 {
		return domain.NewTierTableError("no tiers declared")
	}

	declared := make(map[string]bool, len(t.Tiers))
	roleOwner := make(map[domain.Role]string)

	for i, tier := range t.Tiers {
		if tier.Name == "" {
			return domain.NewTierTableError("tier %d has no name", i)
		}
		if declared[tier.Name] {
			return domain.NewTierTableError("duplicate tier %q", tier.Name)
		}
		if tier.FanOut < 0 {
			return domain.NewTierTableError("tier %q has negative fan-out %d", tier.Name, tier.FanOut)
		}

		if i == 0 {
			if tier.ClientOf != "" {
				return domain.NewTierTableError("apex tier %q cannot be a client of %q", tier.Name, tier.ClientOf)
			}
		} else {
			switch {
			case tier.ClientOf == "":
				return domain.NewTierTableError("tier %q has no parent tier", tier.Name)
			case tier.ClientOf == tier.Name:
				return domain.NewTierTableError("tier %q is its own parent", tier.Name)
			case !declared[tier.ClientOf]:
				if t.hasTier(tier.ClientOf) {
					return domain.NewTierTableError("tier %q is declared before its parent %q", tier.Name, tier.ClientOf)
				}
				return domain.NewTierTableError("tier %q references unknown parent %q", tier.Name, tier.ClientOf)
			case t.IsForbidden(tier.Name, tier.ClientOf):
				return domain.NewTierTableError("tier %q cannot be a client of %q: pair is forbidden", tier.Name, tier.ClientOf)
			}
		}

		for _, role := range tier.Roles {
			if !role.Valid() {
				return domain.NewTierTableError("tier %q lists unknown role %q", tier.Name, role)
			}
			if role.IsEdge() {
				return domain.NewTierTableError("tier %q lists edge role %q", tier.Name, role)
			}
			if owner, ok := roleOwner[role]; ok {
				return domain.NewTierTableError("role %q assigned to both %q and %q", role, owner, tier.Name)
			}
			roleOwner[role] = tier.Name
		}
		declared[tier.Name] = true
	}

	for _, pair := range t.Forbidden {
		if !declared[pair.Client] || !declared[pair.Reflector] {
			return domain.NewTierTableError("forbidden pair %s/%s references an unknown tier", pair.Client, pair.Reflector)
		}
	}
	return nil
}

func (t TierTable) hasTier(name string) bool {
	_, ok := t.Tier(name)
	return ok
}

// Apex returns the tier-0 entry
func (t TierTable) Apex() Tier {
	return t.Tiers[0]
}

// Tier returns the tier with the given name
func (t TierTable) Tier(name string) (Tier, bool) {
	for _, tier := range t.Tiers {
		if tier.Name == name {
			return tier, true
		}
	}
	return Tier{}, false
}

// TierOf returns the tier that lists role
func (t TierTable) TierOf(role domain.Role) (Tier, bool) {
	for _, tier := range t.Tiers {
		for _, r := range tier.Roles {
			if r == role {
				return tier, true
			}
		}
	}
	return Tier{}, false
}

// ReflectsFor returns the names of the tiers that are clients of name
func (t TierTable) ReflectsFor(name string) []string {
	var out []string
	for _, tier := range t.Tiers {
		if tier.ClientOf == name {
			out = append(out, tier.Name)
		}
	}
	return out
}

// IsForbidden reports whether client tier may never peer with reflector tier
func (t TierTable) IsForbidden(client, reflector string) bool {
	for _, pair := range t.Forbidden {
		if pair.Client == client && pair.Reflector == reflector {
			return true
		}
	}
	return false
}

// WithFanOut returns a copy of the table with fan-out overrides applied
func (t TierTable) WithFanOut(overrides map[string]int) TierTable {
	out := TierTable{
		Tiers:     make([]Tier, len(t.Tiers)),
		Forbidden: append([]TierPair(nil), t.Forbidden...),
	}
	for i, tier := range t.Tiers {
		tier.Roles = append([]domain.Role(nil), tier.Roles...)
		if n, ok := overrides[tier.Name]; ok {
			tier.FanOut = n
		}
		out.Tiers[i] = tier
	}
	return out
}
