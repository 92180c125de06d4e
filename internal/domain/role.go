package domain

import "fmt"

// Role is the hierarchy role a router plays, derived from its name
type Role string

const (
	RoleCE                    Role = "ce"
	RoleCentralReflector      Role = "central-reflector"
	RoleCoreCompute           Role = "core-compute"
	RoleCoreHub               Role = "core-hub"
	RoleServiceAggregation    Role = "service-aggregation"
	RoleDistributionHub       Role = "distribution-hub"
	RoleDistributionSecondary Role = "distribution-secondary"
	RoleAccessHub             Role = "access-hub"
	RoleAccessSwitch          Role = "access-switch"
	RoleCore                  Role = "core"
	RoleDistribution          Role = "distribution"
	RoleAccess                Role = "access"
	RoleOther                 Role = "other"
)

// AllRoles lists every role in the closed set, in classifier order
var AllRoles = []Role{
	RoleCE,
	RoleCentralReflector,
	RoleCoreCompute,
	RoleCoreHub,
	RoleServiceAggregation,
	RoleDistributionHub,
	RoleDistributionSecondary,
	RoleAccessHub,
	RoleAccessSwitch,
	RoleCore,
	RoleDistribution,
	RoleAccess,
	RoleOther,
}

// Valid reports whether r is a member of the closed role set
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole converts a string into a Role, rejecting unknown values
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", NewInputError("", fmt.Sprintf("unknown role %q", s))
	}
	return r, nil
}

// IsEdge reports whether the role sits at the customer-facing network edge
func (r Role) IsEdge() bool {
	return r == RoleCE
}

// expectedUpstream maps a role to the role it must peer upward to
var expectedUpstream = map[Role]Role{
	RoleCore:                  RoleCentralReflector,
	RoleCoreCompute:           RoleCentralReflector,
	RoleServiceAggregation:    RoleCentralReflector,
	RoleCoreHub:               RoleCentralReflector,
	RoleDistribution:          RoleCoreHub,
	RoleDistributionHub:       RoleCoreHub,
	RoleDistributionSecondary: RoleCoreHub,
	RoleAccessHub:             RoleCoreHub,
	RoleAccess:                RoleAccessHub,
	RoleAccessSwitch:          RoleAccessHub,
}

// ExpectedUpstream returns the statically defined upstream role, if any
func (r Role) ExpectedUpstream() (Role, bool) {
	up, ok := expectedUpstream[r]
	return up, ok
}
