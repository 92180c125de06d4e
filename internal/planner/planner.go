package planner

import (
	"fmt"
	"sort"

	"meshplan/internal/domain"
	"meshplan/internal/validation"
)

// DefaultLoopbackInterface is the interface passive entries refer to
const DefaultLoopbackInterface = "Loopback0"

// Params are the caller-supplied planning parameters
type Params struct {
	Mode    domain.PlanMode
	ASN     uint32
	Tiers   TierTable
	Schemes SchemeTable
	// IncludeOther lets unclassified nodes participate, placed in OtherTier
	IncludeOther bool
	OtherTier    string
	// Uniform maps every non-edge link to the core scheme
	Uniform           bool
	LoopbackInterface string
}

// DefaultParams returns hierarchy-mode parameters with the default tables
func DefaultParams() Params {
	return Params{}.withDefaults()
}

func (p Params) withDefaults() Params {
	if p.Mode == "" {
		p.Mode = domain.ModeHierarchy
	}
	if len(p.Tiers.Tiers) == 0 {
		p.Tiers = DefaultTierTable()
	}
	if len(p.Schemes.Schemes) == 0 {
		p.Schemes = DefaultSchemeTable()
	}
	if p.OtherTier == "" {
		p.OtherTier = TierCore
	}
	if p.LoopbackInterface == "" {
		p.LoopbackInterface = DefaultLoopbackInterface
	}
	return p
}

func (p Params) validate() error {
	if err := p.Tiers.Validate(); err != nil {
		return err
	}
	if p.IncludeOther {
		if _, ok := p.Tiers.Tier(p.OtherTier); !ok {
			return domain.NewTierTableError("other tier %q is not declared", p.OtherTier)
		}
	}
	return nil
}

// ParseMode converts a string into a PlanMode
func ParseMode(s string) (domain.PlanMode, error) {
	switch domain.PlanMode(s) {
	case domain.ModeHierarchy, domain.ModeAdjacency:
		return domain.PlanMode(s), nil
	case "":
		return domain.ModeHierarchy, nil
	}
	return "", domain.NewInputError("", fmt.Sprintf("unknown plan mode %q", s))
}

// Participants returns the nodes that take part in a run with params, plus
// warnings for the nodes left out
func Participants(nodes []domain.Node, params Params) ([]domain.Node, []domain.Warning) {
	params = params.withDefaults()
	if params.Mode == domain.ModeAdjacency {
		return adjacencyParticipants(nodes, params)
	}

	members, warnings := groupByTier(nodes, params)
	var participants []domain.Node
	for _, tier := range params.Tiers.Tiers {
		participants = append(participants, members[tier.Name]...)
	}
	return domain.SortNodes(participants), warnings
}

// Preflight rejects input that cannot be planned: malformed nodes or edges,
// an inconsistent table, and participating nodes without an address. All
// nodes missing an address are reported in one error.
func Preflight(snapshot *domain.Snapshot, params Params) error {
	if snapshot == nil {
		return domain.NewInputError("", "no snapshot")
	}
	params = params.withDefaults()

	if err := validation.Snapshot(snapshot.Nodes, snapshot.Edges); err != nil {
		return err
	}

	switch params.Mode {
	case domain.ModeHierarchy:
		if err := params.validate(); err != nil {
			return err
		}
	case domain.ModeAdjacency:
		if err := params.Schemes.Validate(); err != nil {
			return err
		}
	default:
		return domain.NewInputError("", fmt.Sprintf("unknown plan mode %q", params.Mode))
	}

	participants, _ := Participants(snapshot.Nodes, params)
	var missing []string
	for _, n := range participants {
		if n.Address == "" {
			missing = append(missing, n.ID)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return domain.NewMissingAddressError(missing)
	}
	return nil
}

// Build runs a full planning pass over one snapshot: preflight, the planner
// for params.Mode, deduplication and validation. Planning warnings come
// before validation warnings.
func Build(snapshot *domain.Snapshot, params Params) (*domain.Plan, error) {
	params = params.withDefaults()
	if err := Preflight(snapshot, params); err != nil {
		return nil, err
	}

	var raw *domain.Plan
	var err error
	switch params.Mode {
	case domain.ModeAdjacency:
		raw, err = BuildAdjacency(snapshot.Nodes, snapshot.Edges, params)
	default:
		raw, err = BuildHierarchy(snapshot.Nodes, params)
	}
	if err != nil {
		return nil, err
	}

	plan := Dedup(raw)
	plan.Warnings = append(plan.Warnings, Validate(plan, snapshot.Nodes)...)
	return plan, nil
}
