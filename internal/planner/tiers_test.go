package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meshplan/internal/domain"
)

func TestDefaultTierTableIsValid(t *testing.T) {
	table := DefaultTierTable()
	require.NoError(t, table.Validate())

	assert.Equal(t, TierApex, table.Apex().Name)
	assert.Equal(t, []string{TierCore, TierHub}, table.ReflectsFor(TierApex))
	assert.Equal(t, []string{TierDistribution, TierAggregation}, table.ReflectsFor(TierHub))

	tier, ok := table.TierOf(domain.RoleAccessSwitch)
	require.True(t, ok)
	assert.Equal(t, TierAccess, tier.Name)
	assert.Equal(t, TierAggregation, tier.ClientOf)

	_, ok = table.TierOf(domain.RoleCE)
	assert.False(t, ok)

	assert.True(t, table.IsForbidden(TierAccess, TierHub))
	assert.False(t, table.IsForbidden(TierAccess, TierAggregation))
}

func TestTierTableValidate(t *testing.T) {
	apex := Tier{Name: "apex", Roles: []domain.Role{domain.RoleCentralReflector}}

	tests := []struct {
		name    string
		table   TierTable
		wantErr string
	}{
		{
			name:    "empty",
			table:   TierTable{},
			wantErr: "no tiers declared",
		},
		{
			name: "apex with parent",
			table: TierTable{Tiers: []Tier{
				{Name: "apex", ClientOf: "core"},
			}},
			wantErr: "apex tier",
		},
		{
			name: "missing parent",
			table: TierTable{Tiers: []Tier{
				apex,
				{Name: "core", Roles: []domain.Role{domain.RoleCore}},
			}},
			wantErr: "has no parent tier",
		},
		{
			name: "unknown parent",
			table: TierTable{Tiers: []Tier{
				apex,
				{Name: "core", Roles: []domain.Role{domain.RoleCore}, ClientOf: "spine"},
			}},
			wantErr: "unknown parent",
		},
		{
			name: "cycle",
			table: TierTable{Tiers: []Tier{
				apex,
				{Name: "a", Roles: []domain.Role{domain.RoleCore}, ClientOf: "b"},
				{Name: "b", Roles: []domain.Role{domain.RoleCoreHub}, ClientOf: "a"},
			}},
			wantErr: "declared before its parent",
		},
		{
			name: "self parent",
			table: TierTable{Tiers: []Tier{
				apex,
				{Name: "core", Roles: []domain.Role{domain.RoleCore}, ClientOf: "core"},
			}},
			wantErr: "its own parent",
		},
		{
			name: "duplicate role",
			table: TierTable{Tiers: []Tier{
				apex,
				{Name: "core", Roles: []domain.Role{domain.RoleCentralReflector}, ClientOf: "apex"},
			}},
			wantErr: "assigned to both",
		},
		{
			name: "duplicate tier",
			table: TierTable{Tiers: []Tier{
				apex,
				{Name: "apex", Roles: []domain.Role{domain.RoleCore}, ClientOf: "apex"},
			}},
			wantErr: "duplicate tier",
		},
		{
			name: "edge role",
			table: TierTable{Tiers: []Tier{
				apex,
				{Name: "edge", Roles: []domain.Role{domain.RoleCE}, ClientOf: "apex"},
			}},
			wantErr: "edge role",
		},
		{
			name: "negative fan-out",
			table: TierTable{Tiers: []Tier{
				apex,
				{Name: "core", Roles: []domain.Role{domain.RoleCore}, ClientOf: "apex", FanOut: -1},
			}},
			wantErr: "negative fan-out",
		},
		{
			name: "forbidden parent",
			table: TierTable{
				Tiers: []Tier{
					apex,
					{Name: "access", Roles: []domain.Role{domain.RoleAccess}, ClientOf: "apex"},
				},
				Forbidden: []TierPair{{Client: "access", Reflector: "apex"}},
			},
			wantErr: "pair is forbidden",
		},
		{
			name: "forbidden pair with unknown tier",
			table: TierTable{
				Tiers:     []Tier{apex},
				Forbidden: []TierPair{{Client: "access", Reflector: "apex"}},
			},
			wantErr: "unknown tier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidTierTable)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWithFanOut(t *testing.T) {
	base := DefaultTierTable()
	table := base.WithFanOut(map[string]int{TierAccess: 1, "unknown": 9})

	access, _ := table.Tier(TierAccess)
	assert.Equal(t, 1, access.FanOut)

	original, _ := base.Tier(TierAccess)
	assert.Equal(t, 2, original.FanOut)
}
