// Package addressing assigns point-to-point IPv4 /31 and IPv6 /127 subnets
// to physical links.
package addressing

import (
	"errors"
	"fmt"
	"net/netip"

	"meshplan/internal/domain"
)

const (
	// IPv4PrefixLen is the prefix length of every IPv4 link subnet
	IPv4PrefixLen = 31
	// IPv6PrefixLen is the prefix length of every IPv6 link subnet
	IPv6PrefixLen = 127

	DefaultIPv4Pool = "10.10.10.0/24"
	DefaultIPv6Base = "fc00::"
)

// ErrPoolExhausted is returned when the pool has no /31 left
var ErrPoolExhausted = errors.New("address pool exhausted")

// Allocator hands out consecutive /31 subnets from Pool. It is a value:
// Allocate returns the advanced allocator instead of mutating the receiver,
// so the same starting allocator always yields the same assignments.
type Allocator struct {
	Pool   netip.Prefix
	V6Base netip.Addr
	next   netip.Addr
}

// NewAllocator creates an allocator positioned at the start of pool
func NewAllocator(pool netip.Prefix, v6Base netip.Addr) (Allocator, error) {
	if !pool.IsValid() || !pool.Addr().Is4() {
		return Allocator{}, fmt.Errorf("pool %s must be an IPv4 prefix", pool)
	}
	if pool.Bits() > IPv4PrefixLen {
		return Allocator{}, fmt.Errorf("pool %s is smaller than a /%d", pool, IPv4PrefixLen)
	}
	if !v6Base.IsValid() || !v6Base.Is6() || v6Base.Is4In6() {
		return Allocator{}, fmt.Errorf("IPv6 base %s must be an IPv6 address", v6Base)
	}
	pool = pool.Masked()
	return Allocator{Pool: pool, V6Base: v6Base, next: pool.Addr()}, nil
}

// ParseAllocator creates an allocator from textual pool and base values
func ParseAllocator(pool, v6Base string) (Allocator, error) {
	prefix, err := netip.ParsePrefix(pool)
	if err != nil {
		return Allocator{}, fmt.Errorf("failed to parse IPv4 pool: %w", err)
	}
	base, err := netip.ParseAddr(v6Base)
	if err != nil {
		return Allocator{}, fmt.Errorf("failed to parse IPv6 base: %w", err)
	}
	return NewAllocator(prefix, base)
}

// InterfaceAddress is the pair of addresses configured on one link endpoint
type InterfaceAddress struct {
	NodeID    string       `json:"node_id" yaml:"node_id"`
	Interface string       `json:"interface" yaml:"interface"`
	IPv4      netip.Prefix `json:"ipv4" yaml:"ipv4"`
	IPv6      netip.Prefix `json:"ipv6" yaml:"ipv6"`
}

// Assignment is the addressing of one physical link
type Assignment struct {
	LinkID string           `json:"link_id" yaml:"link_id"`
	Subnet netip.Prefix     `json:"subnet" yaml:"subnet"`
	A      InterfaceAddress `json:"a" yaml:"a"`
	B      InterfaceAddress `json:"b" yaml:"b"`
}

// Remaining returns how many /31 subnets are left in the pool
func (a Allocator) Remaining() int {
	if !a.Pool.Contains(a.next) {
		return 0
	}
	last := lastAddr(a.Pool)
	return int((toUint32(last)-toUint32(a.next))/2) + 1
}

// Allocate assigns one subnet per link, in order, and returns the allocator
// positioned after the last one used
func (a Allocator) Allocate(links []domain.LinkKey) ([]Assignment, Allocator, error) {
	assignments := make([]Assignment, 0, len(links))
	for _, link := range links {
		var assignment Assignment
		var err error
		assignment, a, err = a.next31(link)
		if err != nil {
			return nil, a, fmt.Errorf("failed to address link %s: %w", link.ID(), err)
		}
		assignments = append(assignments, assignment)
	}
	return assignments, a, nil
}

func (a Allocator) next31(link domain.LinkKey) (Assignment, Allocator, error) {
	if !a.Pool.IsValid() {
		return Assignment{}, a, errors.New("allocator has no pool")
	}
	if !a.Pool.Contains(a.next) {
		return Assignment{}, a, ErrPoolExhausted
	}

	first := a.next
	second := first.Next()
	subnet := netip.PrefixFrom(first, IPv4PrefixLen)

	assignment := Assignment{
		LinkID: link.ID(),
		Subnet: subnet,
		A: InterfaceAddress{
			NodeID:    link.A.NodeID,
			Interface: link.A.Interface,
			IPv4:      netip.PrefixFrom(first, IPv4PrefixLen),
			IPv6:      netip.PrefixFrom(embed(a.V6Base, first), IPv6PrefixLen),
		},
		B: InterfaceAddress{
			NodeID:    link.B.NodeID,
			Interface: link.B.Interface,
			IPv4:      netip.PrefixFrom(second, IPv4PrefixLen),
			IPv6:      netip.PrefixFrom(embed(a.V6Base, second), IPv6PrefixLen),
		},
	}

	a.next = second.Next()
	return assignment, a, nil
}

// embed places v4 into the low 32 bits of base
func embed(base, v4 netip.Addr) netip.Addr {
	b := base.As16()
	v := v4.As4()
	for i := 0; i < 4; i++ {
		b[12+i] |= v[i]
	}
	return netip.AddrFrom16(b)
}

func lastAddr(p netip.Prefix) netip.Addr {
	b := p.Addr().As4()
	host := uint32(1)<<(32-p.Bits()) - 1
	n := toUint32(netip.AddrFrom4(b)) | host
	return netip.AddrFrom4([4]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
}

func toUint32(addr netip.Addr) uint32 {
	b := addr.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
