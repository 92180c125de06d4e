package addressing

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meshplan/internal/domain"
)

func linkKey(a, ai, b, bi string) domain.LinkKey {
	return domain.Edge{LocalID: a, LocalInterface: ai, RemoteID: b, RemoteInterface: bi}.Key()
}

func TestAllocate(t *testing.T) {
	alloc, err := ParseAllocator(DefaultIPv4Pool, DefaultIPv6Base)
	require.NoError(t, err)
	assert.Equal(t, 128, alloc.Remaining())

	links := []domain.LinkKey{
		linkKey("ahrg1", "Gi0/0/0/0", "ahrb1", "Gi0/0/0/0"),
		linkKey("a1", "Gi0/0/0/1", "ahrg1", "Gi0/0/0/2"),
	}

	got, next, err := alloc.Allocate(links)
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "10.10.10.0/31", first.Subnet.String())
	assert.Equal(t, "ahrb1", first.A.NodeID)
	assert.Equal(t, "10.10.10.0/31", first.A.IPv4.String())
	assert.Equal(t, "10.10.10.1/31", first.B.IPv4.String())
	assert.Equal(t, "fc00::a0a:a00/127", first.A.IPv6.String())
	assert.Equal(t, "fc00::a0a:a01/127", first.B.IPv6.String())
	assert.Equal(t, links[0].ID(), first.LinkID)

	assert.Equal(t, "10.10.10.2/31", got[1].Subnet.String())
	assert.Equal(t, "a1", got[1].A.NodeID)

	assert.Equal(t, 126, next.Remaining())
	assert.Equal(t, 128, alloc.Remaining(), "receiver is not advanced")

	again, _, err := alloc.Allocate(links)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	more, _, err := next.Allocate(links[:1])
	require.NoError(t, err)
	assert.Equal(t, "10.10.10.4/31", more[0].Subnet.String())
}

func TestAllocateExhaustion(t *testing.T) {
	alloc, err := ParseAllocator("192.0.2.0/30", DefaultIPv6Base)
	require.NoError(t, err)

	links := []domain.LinkKey{
		linkKey("a", "1", "b", "1"),
		linkKey("a", "2", "b", "2"),
		linkKey("a", "3", "b", "3"),
	}
	_, _, err = alloc.Allocate(links[:2])
	require.NoError(t, err)

	_, _, err = alloc.Allocate(links)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPoolExhausted)
}

func TestNewAllocatorRejects(t *testing.T) {
	v6 := netip.MustParseAddr("fc00::")
	v4 := netip.MustParsePrefix("10.0.0.0/24")

	tests := []struct {
		name string
		pool netip.Prefix
		base netip.Addr
	}{
		{"ipv6 pool", netip.MustParsePrefix("fc00::/64"), v6},
		{"host pool", netip.MustParsePrefix("10.0.0.1/32"), v6},
		{"ipv4 base", v4, netip.MustParseAddr("10.0.0.1")},
		{"zero pool", netip.Prefix{}, v6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAllocator(tt.pool, tt.base)
			assert.Error(t, err)
		})
	}

	_, err := ParseAllocator("not-a-prefix", DefaultIPv6Base)
	assert.Error(t, err)
}

func TestNewAllocatorMasksPool(t *testing.T) {
	alloc, err := NewAllocator(netip.MustParsePrefix("10.0.0.7/24"), netip.MustParseAddr("fc00::"))
	require.NoError(t, err)

	got, _, err := alloc.Allocate([]domain.LinkKey{linkKey("a", "1", "b", "1")})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/31", got[0].Subnet.String())
}
