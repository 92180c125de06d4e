package planner

import (
	"fmt"
	"sort"
	"strings"

	"meshplan/internal/domain"
)

// SchemeClass names a partition level in adjacency-constrained planning
type SchemeClass string

const (
	SchemeCore         SchemeClass = "core"
	SchemeDistribution SchemeClass = "distribution"
	SchemeAccess       SchemeClass = "access"
)

// Scheme is a concrete partition: an identifier and its area
type Scheme struct {
	ID   int    `json:"id" yaml:"id"`
	Area string `json:"area" yaml:"area"`
}

// SchemeTable maps roles to scheme sets and links to schemes
type SchemeTable struct {
	Schemes     map[SchemeClass]Scheme        `json:"schemes" yaml:"schemes"`
	RoleSchemes map[domain.Role][]SchemeClass `json:"role_schemes" yaml:"role_schemes"`
}

// DefaultSchemeTable returns scheme IDs 1, 10 and 100 all in the backbone area
func DefaultSchemeTable() SchemeTable {
	return SchemeTable{
		Schemes: map[SchemeClass]Scheme{
			SchemeCore:         {ID: 1, Area: "0.0.0.0"},
			SchemeDistribution: {ID: 10, Area: "0.0.0.0"},
			SchemeAccess:       {ID: 100, Area: "0.0.0.0"},
		},
		RoleSchemes: map[domain.Role][]SchemeClass{
			domain.RoleCentralReflector:      {SchemeCore},
			domain.RoleCore:                  {SchemeCore},
			domain.RoleCoreCompute:           {SchemeCore},
			domain.RoleServiceAggregation:    {SchemeCore},
			domain.RoleCoreHub:               {SchemeCore, SchemeDistribution},
			domain.RoleDistribution:          {SchemeDistribution},
			domain.RoleDistributionHub:       {SchemeDistribution},
			domain.RoleDistributionSecondary: {SchemeDistribution},
			domain.RoleAccessHub:             {SchemeDistribution, SchemeAccess},
			domain.RoleAccess:                {SchemeAccess},
			domain.RoleAccessSwitch:          {SchemeAccess},
		},
	}
}

// Validate checks that every class referenced by a role is defined
func (t SchemeTable) Validate() error {
	for role, classes := range t.RoleSchemes {
		for _, class := range classes {
			if _, ok := t.Schemes[class]; !ok {
				return domain.NewInputError("", fmt.Sprintf("role %s references undefined scheme class %s", role, class))
			}
		}
	}
	if _, ok := t.Schemes[SchemeCore]; !ok {
		return domain.NewInputError("", "scheme table has no core scheme")
	}
	return nil
}

// LinkSide is one end of a link as seen by the scheme mapping
type LinkSide struct {
	Role      domain.Role
	Interface string
}

type roleGroup int

const (
	groupNone roleGroup = iota
	groupCore
	groupDistribution
	groupAccess
)

func groupOf(role domain.Role) roleGroup {
	switch role {
	case domain.RoleCentralReflector, domain.RoleCore, domain.RoleCoreCompute,
		domain.RoleServiceAggregation, domain.RoleCoreHub:
		return groupCore
	case domain.RoleDistribution, domain.RoleDistributionHub, domain.RoleDistributionSecondary:
		return groupDistribution
	case domain.RoleAccess, domain.RoleAccessSwitch:
		return groupAccess
	}
	return groupNone
}

// linkRule is one entry of the ordered link mapping. Rules are matched
// against both orientations of a link.
type linkRule struct {
	name  string
	match func(a, b LinkSide) bool
	class func(a, b LinkSide, ordinal int) SchemeClass
}

func fixed(class SchemeClass) func(a, b LinkSide, ordinal int) SchemeClass {
	return func(LinkSide, LinkSide, int) SchemeClass { return class }
}

// backboneSuffix marks the first core-hub interface, which stays in the core scheme
const backboneSuffix = "0/0/0/0"

var linkRules = []linkRule{
	{
		name: "core-hub pair",
		match: func(a, b LinkSide) bool {
			return a.Role == domain.RoleCoreHub && b.Role == domain.RoleCoreHub
		},
		class: func(a, b LinkSide, _ int) SchemeClass {
			if strings.HasSuffix(a.Interface, backboneSuffix) || strings.HasSuffix(b.Interface, backboneSuffix) {
				return SchemeCore
			}
			return SchemeDistribution
		},
	},
	{
		name: "core pair",
		match: func(a, b LinkSide) bool {
			return groupOf(a.Role) == groupCore && groupOf(b.Role) == groupCore
		},
		class: fixed(SchemeCore),
	},
	{
		name: "core to distribution",
		match: func(a, b LinkSide) bool {
			return groupOf(a.Role) == groupCore && groupOf(b.Role) == groupDistribution
		},
		class: fixed(SchemeDistribution),
	},
	{
		name: "distribution",
		match: func(a, b LinkSide) bool {
			return groupOf(a.Role) == groupDistribution &&
				(groupOf(b.Role) == groupDistribution || b.Role == domain.RoleAccessHub)
		},
		class: fixed(SchemeDistribution),
	},
	{
		name: "access-hub pair",
		match: func(a, b LinkSide) bool {
			return a.Role == domain.RoleAccessHub && b.Role == domain.RoleAccessHub
		},
		class: func(_, _ LinkSide, ordinal int) SchemeClass {
			if ordinal%2 == 0 {
				return SchemeDistribution
			}
			return SchemeAccess
		},
	},
	{
		name: "access",
		match: func(a, b LinkSide) bool {
			return groupOf(a.Role) == groupAccess &&
				(groupOf(b.Role) == groupAccess || b.Role == domain.RoleAccessHub)
		},
		class: fixed(SchemeAccess),
	},
}

// MapLink returns the scheme for a link between a and b. ordinal is the
// position of the physical link among links joining the same node pair.
// Links touching an edge role, and links no rule covers, are excluded.
func (t SchemeTable) MapLink(a, b LinkSide, ordinal int, uniform bool) (Scheme, bool) {
	if a.Role.IsEdge() || b.Role.IsEdge() {
		return Scheme{}, false
	}
	if uniform || a.Role == domain.RoleOther || b.Role == domain.RoleOther {
		return t.scheme(SchemeCore)
	}

	for _, rule := range linkRules {
		switch {
		case rule.match(a, b):
			return t.scheme(rule.class(a, b, ordinal))
		case rule.match(b, a):
			return t.scheme(rule.class(b, a, ordinal))
		}
	}
	return Scheme{}, false
}

func (t SchemeTable) scheme(class SchemeClass) (Scheme, bool) {
	s, ok := t.Schemes[class]
	return s, ok
}

// SchemesFor returns the schemes a node of role runs, in table order.
// Other nodes run the core scheme once they participate.
func (t SchemeTable) SchemesFor(role domain.Role, uniform bool) []Scheme {
	if role.IsEdge() {
		return nil
	}
	if uniform || role == domain.RoleOther {
		s, _ := t.scheme(SchemeCore)
		return []Scheme{s}
	}

	var out []Scheme
	for _, class := range t.RoleSchemes[role] {
		if s, ok := t.scheme(class); ok {
			out = append(out, s)
		}
	}
	return out
}

// IDs returns the distinct scheme IDs in ascending order
func (t SchemeTable) IDs() []int {
	seen := make(map[int]bool, len(t.Schemes))
	ids := make([]int, 0, len(t.Schemes))
	for _, s := range t.Schemes {
		if !seen[s.ID] {
			seen[s.ID] = true
			ids = append(ids, s.ID)
		}
	}
	sort.Ints(ids)
	return ids
}
