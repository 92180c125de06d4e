package adapter

import (
	"fmt"
	"net/netip"
	"regexp"
	"strings"

	"meshplan/internal/codec"
)

// Commands run on every router during discovery
const (
	cmdNoTimestamp = "terminal exec prompt no-timestamp"
	cmdLoopbackFmt = "show running-config interface %s"
	cmdLLDP        = "show lldp neighbors | include GigabitEthernet"
)

var (
	loopbackPattern = regexp.MustCompile(`ipv4 address (\d+\.\d+\.\d+\.\d+)`)
	lldpPattern     = regexp.MustCompile(`^(\S+)\s+(\S+)\s+\d+\s+\S+\s+(\S+)$`)
)

// LLDPNeighbor is one row of the LLDP neighbor table
type LLDPNeighbor struct {
	Device          string
	LocalInterface  string
	RemoteInterface string
}

// parseLoopback extracts the IPv4 address configured on the loopback
func parseLoopback(output string) (string, error) {
	m := loopbackPattern.FindStringSubmatch(output)
	if m == nil {
		return "", fmt.Errorf("no ipv4 address on loopback")
	}
	addr, err := netip.ParseAddr(m[1])
	if err != nil {
		return "", fmt.Errorf("invalid loopback address %q: %w", m[1], err)
	}
	return addr.String(), nil
}

// parseLLDPNeighbors extracts neighbor rows. Header lines and rows that do
// not match the table layout are skipped. Device names lose any domain
// suffix, and interface names are expanded.
func parseLLDPNeighbors(output string) []LLDPNeighbor {
	var neighbors []LLDPNeighbor
	for _, line := range strings.Split(output, "\n") {
		m := lldpPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		device := m[1]
		if i := strings.IndexByte(device, '.'); i > 0 {
			device = device[:i]
		}
		neighbors = append(neighbors, LLDPNeighbor{
			Device:          device,
			LocalInterface:  codec.NormalizeInterface(m[2]),
			RemoteInterface: codec.NormalizeInterface(m[3]),
		})
	}
	return neighbors
}
